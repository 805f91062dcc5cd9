package sourcemap

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SourceMap represents a Source Map v3.
// See https://sourcemaps.info/spec.html
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// Mapping represents a decoded source map mapping.
type Mapping struct {
	GenLine   int // 0-indexed
	GenCol    int // 0-indexed, UTF-16 code units
	SrcIndex  int
	SrcLine   int
	SrcCol    int
	NameIndex int // -1 if no name
	HasName   bool
}

// Generator builds a source map incrementally for a single original source.
type Generator struct {
	source        string
	lineIndex     *LineIndex
	mappings      []Mapping
	names         map[string]int
	namesList     []string
	file          string
	sourceName    string
	includeSource bool
}

// NewGenerator creates a new source map generator for the given original source.
func NewGenerator(source string) *Generator {
	return &Generator{
		source:    source,
		lineIndex: NewLineIndex(source),
		names:     make(map[string]int),
		namesList: make([]string, 0),
	}
}

// SetFile sets the generated file name.
func (g *Generator) SetFile(file string) {
	g.file = file
}

// SetSourceName sets the original source file name.
func (g *Generator) SetSourceName(name string) {
	g.sourceName = name
}

// IncludeSourceContent sets whether to include original source in sourcesContent.
func (g *Generator) IncludeSourceContent(include bool) {
	g.includeSource = include
}

// AddMapping maps a generated position to a byte offset of the original source.
// Mappings must be added in generated order.
func (g *Generator) AddMapping(genLine, genCol, srcOffset int, name string) {
	srcLine, srcCol := g.lineIndex.ByteOffsetToLineColumnUTF16(srcOffset)

	m := Mapping{
		GenLine:   genLine,
		GenCol:    genCol,
		SrcLine:   srcLine,
		SrcCol:    srcCol,
		NameIndex: -1,
	}

	if n := len(g.mappings); n > 0 {
		last := g.mappings[n-1]
		if last.GenLine == genLine && last.GenCol == genCol {
			return
		}
	}

	if name != "" {
		idx, ok := g.names[name]
		if !ok {
			idx = len(g.namesList)
			g.names[name] = idx
			g.namesList = append(g.namesList, name)
		}
		m.NameIndex = idx
		m.HasName = true
	}

	g.mappings = append(g.mappings, m)
}

// Generate produces the final SourceMap. The single source entry is kept even
// when it has no name.
func (g *Generator) Generate() *SourceMap {
	sm := &SourceMap{
		Version:  3,
		File:     g.file,
		Sources:  []string{g.sourceName},
		Names:    g.namesList,
		Mappings: g.encodeMappings(),
	}

	if g.includeSource {
		sm.SourcesContent = []string{g.source}
	}

	return sm
}

func (g *Generator) encodeMappings() string {
	var buf strings.Builder

	prevGenCol, prevSrcIndex, prevSrcLine, prevSrcCol, prevNameIndex := 0, 0, 0, 0, 0
	currentLine := 0
	firstOnLine := true

	for _, m := range g.mappings {
		for currentLine < m.GenLine {
			buf.WriteByte(';')
			currentLine++
			prevGenCol = 0
			firstOnLine = true
		}

		if !firstOnLine {
			buf.WriteByte(',')
		}
		firstOnLine = false

		buf.WriteString(EncodeVLQ(m.GenCol - prevGenCol))
		prevGenCol = m.GenCol
		buf.WriteString(EncodeVLQ(m.SrcIndex - prevSrcIndex))
		prevSrcIndex = m.SrcIndex
		buf.WriteString(EncodeVLQ(m.SrcLine - prevSrcLine))
		prevSrcLine = m.SrcLine
		buf.WriteString(EncodeVLQ(m.SrcCol - prevSrcCol))
		prevSrcCol = m.SrcCol

		if m.HasName {
			buf.WriteString(EncodeVLQ(m.NameIndex - prevNameIndex))
			prevNameIndex = m.NameIndex
		}
	}

	return buf.String()
}

// ToJSON returns the source map as JSON.
func (sm *SourceMap) ToJSON() ([]byte, error) {
	data, err := json.Marshal(sm)
	if err != nil {
		return nil, fmt.Errorf("failed to encode source map: %w", err)
	}
	return data, nil
}

// Comment returns the trailing comment that links generated code to its map.
func Comment(mapURL string) string {
	return "//# sourceMappingURL=" + mapURL
}

// OriginalPosition returns the original line and column of the mapping that
// covers the given generated position.
func (sm *SourceMap) OriginalPosition(genLine, genCol int) (int, int, bool) {
	mappings, err := DecodeMappings(sm.Mappings)
	if err != nil {
		return 0, 0, false
	}

	var best *Mapping
	for i := range mappings {
		m := &mappings[i]
		if m.GenLine != genLine || m.GenCol > genCol {
			continue
		}
		if best == nil || m.GenCol > best.GenCol {
			best = m
		}
	}
	if best == nil {
		return 0, 0, false
	}

	return best.SrcLine, best.SrcCol + (genCol - best.GenCol), true
}

// DecodeMappings decodes a VLQ-encoded mappings string.
func DecodeMappings(mappings string) ([]Mapping, error) {
	if mappings == "" {
		return nil, nil
	}

	var result []Mapping
	srcIndex, srcLine, srcCol, nameIndex := 0, 0, 0, 0

	for genLine, line := range strings.Split(mappings, ";") {
		genCol := 0

		for _, seg := range strings.Split(line, ",") {
			if seg == "" {
				continue
			}

			values := make([]int, 0, 5)
			for pos := 0; pos < len(seg); {
				value, consumed := DecodeVLQ(seg[pos:])
				if consumed == 0 {
					return nil, fmt.Errorf("invalid VLQ segment %q on line %d", seg, genLine)
				}
				values = append(values, value)
				pos += consumed
			}

			genCol += values[0]
			m := Mapping{GenLine: genLine, GenCol: genCol, NameIndex: -1}

			if len(values) >= 4 {
				srcIndex += values[1]
				srcLine += values[2]
				srcCol += values[3]
				m.SrcIndex, m.SrcLine, m.SrcCol = srcIndex, srcLine, srcCol
			}
			if len(values) >= 5 {
				nameIndex += values[4]
				m.NameIndex = nameIndex
				m.HasName = true
			}

			result = append(result, m)
		}
	}

	return result, nil
}
