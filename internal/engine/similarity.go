package engine

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// lineHunk is a replacement of base lines [Start, End) by Lines
type lineHunk struct {
	Start int
	End   int
	Lines []string
}

// splitLines splits text keeping line terminators so joining restores it exactly
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// lineDiff diffs two texts line by line
func lineDiff(a, b string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffMain(ca, cb, false)
	return dmp.DiffCharsToLines(diffs, lines)
}

// hunksAgainst returns the changes that turn base into other
func hunksAgainst(base, other string) []lineHunk {
	var hunks []lineHunk
	var cur *lineHunk
	pos := 0
	flush := func() {
		if cur != nil {
			hunks = append(hunks, *cur)
			cur = nil
		}
	}
	for _, d := range lineDiff(base, other) {
		lines := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			pos += len(lines)
		case diffmatchpatch.DiffDelete:
			if cur == nil {
				cur = &lineHunk{Start: pos, End: pos}
			}
			pos += len(lines)
			cur.End = pos
		case diffmatchpatch.DiffInsert:
			if cur == nil {
				cur = &lineHunk{Start: pos, End: pos}
			}
			cur.Lines = append(cur.Lines, lines...)
		}
	}
	flush()
	return hunks
}

// Similarity returns how alike two texts are on a 0-100 scale, computed as a
// line-level edit distance relative to the longer text.
func Similarity(a, b string) int {
	la, lb := splitLines(a), splitLines(b)
	longest := len(la)
	if len(lb) > longest {
		longest = len(lb)
	}
	if longest == 0 {
		return 100
	}

	distance, inserted, deleted := 0, 0, 0
	for _, d := range lineDiff(a, b) {
		n := len(splitLines(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			inserted += n
		case diffmatchpatch.DiffDelete:
			deleted += n
		case diffmatchpatch.DiffEqual:
			distance += max(inserted, deleted)
			inserted, deleted = 0, 0
		}
	}
	distance += max(inserted, deleted)

	if distance >= longest {
		return 0
	}
	return (longest - distance) * 100 / longest
}
