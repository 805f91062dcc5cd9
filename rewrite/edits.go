// Package rewrite applies byte-range edits to source text while remembering
// where every surviving character came from.
package rewrite

import "sort"

// Edit replaces the bytes [Start, End) of the current text with Text.
// Start == End is an insertion.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Edits collects the edits of one pass. Offsets refer to the text the pass
// was given.
type Edits struct {
	list []Edit
}

// Insert adds text before the byte at pos.
func (e *Edits) Insert(pos int, text string) {
	if text == "" {
		return
	}
	e.list = append(e.list, Edit{Start: pos, End: pos, Text: text})
}

// Remove deletes [start, end).
func (e *Edits) Remove(start, end int) {
	if end <= start {
		return
	}
	e.list = append(e.list, Edit{Start: start, End: end})
}

// Replace substitutes text for [start, end).
func (e *Edits) Replace(start, end int, text string) {
	if end < start {
		return
	}
	e.list = append(e.list, Edit{Start: start, End: end, Text: text})
}

// Len returns the number of recorded edits.
func (e *Edits) Len() int {
	return len(e.list)
}

// Normalized returns the edits ordered by position. Duplicates, edits inside
// a removed range and edits partially overlapping an earlier one are dropped.
func (e *Edits) Normalized() []Edit {
	sorted := make([]Edit, len(e.list))
	copy(sorted, e.list)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	result := make([]Edit, 0, len(sorted))
	for _, edit := range sorted {
		if len(result) == 0 {
			result = append(result, edit)
			continue
		}

		last := result[len(result)-1]
		switch {
		case edit == last:
			continue
		case edit.Start == edit.End && last.Start == last.End && edit.Start == last.Start:
			// One insertion per position.
			continue
		case edit.Start < last.End:
			continue
		}
		result = append(result, edit)
	}

	return result
}
