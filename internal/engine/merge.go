package engine

import (
	"bytes"
	"slices"
	"strings"
)

// overlaps reports whether two hunks touch the same base lines. Pure
// insertions overlap a change when they land inside it or at the same spot.
func overlaps(a, b lineHunk) bool {
	aEmpty, bEmpty := a.Start == a.End, b.Start == b.End
	switch {
	case aEmpty && bEmpty:
		return a.Start == b.Start
	case aEmpty:
		return b.Start <= a.Start && a.Start <= b.End
	case bEmpty:
		return a.Start <= b.Start && b.Start <= a.End
	default:
		return a.Start < b.End && b.Start < a.End
	}
}

func sameHunk(a, b lineHunk) bool {
	return a.Start == b.Start && a.End == b.End && slices.Equal(a.Lines, b.Lines)
}

// UnionMerge merges ours and theirs against base when the two sides changed
// disjoint line ranges. It returns false when any pair of hunks overlaps.
// Identical hunks on both sides are applied once.
func UnionMerge(base, ours, theirs string) (string, bool) {
	oursHunks := hunksAgainst(base, ours)
	theirsHunks := hunksAgainst(base, theirs)

	merged := make([]lineHunk, 0, len(oursHunks)+len(theirsHunks))
	merged = append(merged, oursHunks...)
	for _, t := range theirsHunks {
		duplicate := false
		for _, o := range oursHunks {
			if sameHunk(o, t) {
				duplicate = true
				break
			}
			if overlaps(o, t) {
				return "", false
			}
		}
		if !duplicate {
			merged = append(merged, t)
		}
	}

	slices.SortStableFunc(merged, func(a, b lineHunk) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.End - b.End
	})

	baseLines := splitLines(base)
	var out strings.Builder
	pos := 0
	for _, h := range merged {
		for ; pos < h.Start; pos++ {
			out.WriteString(baseLines[pos])
		}
		for _, l := range h.Lines {
			out.WriteString(l)
		}
		pos = h.End
	}
	for ; pos < len(baseLines); pos++ {
		out.WriteString(baseLines[pos])
	}
	return out.String(), true
}

// IsBinary uses the same heuristic as git: a NUL byte in the first 8000 bytes
func IsBinary(content []byte) bool {
	const sniffLen = 8000
	if len(content) > sniffLen {
		content = content[:sniffLen]
	}
	return bytes.IndexByte(content, 0) != -1
}
