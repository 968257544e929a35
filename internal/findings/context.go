package findings

import "strings"

// DefaultContextLines is the number of lines shown on each side of a finding.
const DefaultContextLines = 3

// Context returns the lines of contents around line (1-based), size lines on each
// side, together with the first and last line number of the excerpt. It returns ok
// false when line lies outside the file.
func Context(contents string, line, size int) (excerpt string, start, end int, ok bool) {
	lines := strings.Split(contents, "\n")
	if line < 1 || line > len(lines) {
		return "", 0, 0, false
	}
	start = max(1, line-size)
	end = min(len(lines), line+size)
	return strings.Join(lines[start-1:end], "\n"), start, end, true
}
