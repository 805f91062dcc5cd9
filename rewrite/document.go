package rewrite

import (
	"strings"
	"unicode/utf8"

	"github.com/hannajonsd/build-optimizer/sourcemap"
)

// segment is a run of text. origin is the byte offset of text[0] in the
// original source, or -1 for inserted text.
type segment struct {
	text   string
	origin int
}

// Document is an immutable view of rewritten text. Applying edits returns a
// new Document, so a caller can keep the previous one to revert to.
type Document struct {
	original string
	segments []segment
	starts   []int
	length   int
}

// NewDocument wraps the original source text.
func NewDocument(source string) *Document {
	var segments []segment
	if source != "" {
		segments = []segment{{text: source, origin: 0}}
	}
	return newDocument(source, segments)
}

func newDocument(original string, segments []segment) *Document {
	d := &Document{original: original, segments: segments, starts: make([]int, len(segments))}
	for i, seg := range segments {
		d.starts[i] = d.length
		d.length += len(seg.text)
	}
	return d
}

// Original returns the source the document started from.
func (d *Document) Original() string {
	return d.original
}

// Len returns the length of the current text in bytes.
func (d *Document) Len() int {
	return d.length
}

// String returns the current text.
func (d *Document) String() string {
	var b strings.Builder
	b.Grow(d.length)
	for _, seg := range d.segments {
		b.WriteString(seg.text)
	}
	return b.String()
}

// Changed reports whether the current text differs from the original.
func (d *Document) Changed() bool {
	return d.String() != d.original
}

// Apply returns a new document with edits applied. Edit offsets refer to the
// current text of d.
func (d *Document) Apply(edits *Edits) *Document {
	normalized := edits.Normalized()
	if len(normalized) == 0 {
		return d
	}

	var out []segment
	pos := 0
	for _, edit := range normalized {
		start := clamp(edit.Start, pos, d.length)
		end := clamp(edit.End, start, d.length)

		out = appendSegments(out, d.slice(pos, start)...)
		if edit.Text != "" {
			out = appendSegments(out, segment{text: edit.Text, origin: -1})
		}
		pos = end
	}
	out = appendSegments(out, d.slice(pos, d.length)...)

	return newDocument(d.original, out)
}

// slice returns the segments covering [from, to) of the current text.
func (d *Document) slice(from, to int) []segment {
	if from >= to {
		return nil
	}

	var out []segment
	for i, seg := range d.segments {
		segStart := d.starts[i]
		segEnd := segStart + len(seg.text)
		if segEnd <= from {
			continue
		}
		if segStart >= to {
			break
		}

		lo := max(from, segStart) - segStart
		hi := min(to, segEnd) - segStart
		part := segment{text: seg.text[lo:hi], origin: -1}
		if seg.origin >= 0 {
			part.origin = seg.origin + lo
		}
		out = append(out, part)
	}

	return out
}

// appendSegments merges a segment into its predecessor when both are
// contiguous in the original or both are inserted.
func appendSegments(out []segment, segs ...segment) []segment {
	for _, seg := range segs {
		if seg.text == "" {
			continue
		}
		if n := len(out); n > 0 {
			last := &out[n-1]
			contiguous := last.origin >= 0 && seg.origin == last.origin+len(last.text)
			inserted := last.origin < 0 && seg.origin < 0
			if contiguous || inserted {
				last.text += seg.text
				continue
			}
		}
		out = append(out, seg)
	}
	return out
}

// SourceMap maps every retained span of the current text back to the
// original. Columns are counted in UTF-16 code units.
func (d *Document) SourceMap(file, sourceName string) *sourcemap.SourceMap {
	gen := sourcemap.NewGenerator(d.original)
	gen.SetFile(file)
	gen.SetSourceName(sourceName)
	gen.IncludeSourceContent(true)

	line, col := 0, 0
	for _, seg := range d.segments {
		if seg.origin >= 0 {
			gen.AddMapping(line, col, seg.origin, "")
		}

		for i := 0; i < len(seg.text); {
			r, size := utf8.DecodeRuneInString(seg.text[i:])
			i += size

			if r == '\n' {
				line++
				col = 0
				if seg.origin >= 0 && i < len(seg.text) {
					gen.AddMapping(line, col, seg.origin+i, "")
				}
				continue
			}

			if r >= 0x10000 {
				col += 2
			} else {
				col++
			}
		}
	}

	return gen.Generate()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
