// Package diff parses unified diffs into the coordinates used to anchor review comments.
package diff

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// File is the parsed form of one file's patch.
//
// Positions maps a line number of the new file to its diff position, the 1-based
// ordinal of the line inside the patch text (hunk headers included). Text maps the
// same line numbers to the line's code with the diff marker and leading whitespace
// removed. Both maps always share the same key set.
type File struct {
	Positions map[int]int
	Text      map[int]string
}

// Parse reads a unified diff for a single file. It never fails: lines before the
// first hunk header are skipped, and a header that does not match is treated like
// any other line.
func Parse(patch string) *File {
	f := &File{
		Positions: make(map[int]int),
		Text:      make(map[int]string),
	}

	var (
		oldLine, newLine int
		inHunk           bool
	)

	for i, line := range splitLines(patch) {
		position := i + 1

		if m := hunkHeaderRegex.FindStringSubmatch(line); m != nil {
			// The regex guarantees digits, so Atoi can only fail on overflow.
			oldStart, errOld := strconv.Atoi(m[1])
			newStart, errNew := strconv.Atoi(m[3])
			if errOld == nil && errNew == nil {
				oldLine, newLine = oldStart, newStart
				inHunk = true
				continue
			}
		}

		if !inHunk {
			continue
		}

		switch {
		case strings.HasPrefix(line, "+"):
			f.Positions[newLine] = position
			f.Text[newLine] = trimLeft(line[1:])
			newLine++
		case strings.HasPrefix(line, "-"):
			oldLine++
		default:
			// Context lines keep their leading space marker; trimming removes it
			// together with the indentation.
			f.Positions[newLine] = position
			f.Text[newLine] = trimLeft(line)
			oldLine++
			newLine++
		}
	}

	return f
}

// Lines returns the new-file line numbers present in the diff, in ascending order.
func (f *File) Lines() []int {
	lines := make([]int, 0, len(f.Positions))
	for l := range f.Positions {
		lines = append(lines, l)
	}
	sort.Ints(lines)
	return lines
}

// Position returns the diff position of a new-file line.
func (f *File) Position(line int) (int, bool) {
	p, ok := f.Positions[line]
	return p, ok
}

// Find returns the first line, in ascending order, whose text contains snippet.
func (f *File) Find(snippet string) (int, bool) {
	for _, l := range f.Lines() {
		if strings.Contains(f.Text[l], snippet) {
			return l, true
		}
	}
	return 0, false
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func trimLeft(s string) string {
	return strings.TrimLeftFunc(s, unicode.IsSpace)
}
