package sourcemap

import (
	"sort"
	"unicode/utf8"
)

// LineIndex converts byte offsets of a source to line/column pairs.
type LineIndex struct {
	source     string
	lineStarts []int
}

// NewLineIndex creates a LineIndex for the given source. LF, CRLF and lone CR
// all end a line.
func NewLineIndex(source string) *LineIndex {
	idx := &LineIndex{source: source, lineStarts: []int{0}}

	for i := 0; i < len(source); i++ {
		switch source[i] {
		case '\n':
			idx.lineStarts = append(idx.lineStarts, i+1)
		case '\r':
			if i+1 < len(source) && source[i+1] == '\n' {
				i++
			}
			idx.lineStarts = append(idx.lineStarts, i+1)
		}
	}

	return idx
}

// LineCount returns the number of lines in the source.
func (idx *LineIndex) LineCount() int {
	return len(idx.lineStarts)
}

// ByteOffsetToLineColumnUTF16 converts a byte offset to a 0-indexed line and
// a column in UTF-16 code units.
func (idx *LineIndex) ByteOffsetToLineColumnUTF16(offset int) (line, col int) {
	if offset <= 0 {
		return 0, 0
	}
	if offset > len(idx.source) {
		offset = len(idx.source)
	}

	line = sort.Search(len(idx.lineStarts), func(i int) bool {
		return idx.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}

	lineStart := idx.lineStarts[line]
	return line, utf16Len(idx.source[lineStart:offset])
}

func utf16Len(s string) int {
	n := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
