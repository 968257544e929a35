// Package filter decides which changed files are worth sending to the analyzer.
package filter

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// DefaultExtensions are the source file extensions included when no include rules are configured.
var DefaultExtensions = []string{
	".c", ".cpp", ".h", ".hpp",
	".py", ".js", ".jsx", ".ts", ".tsx",
	".java", ".cs", ".go", ".php", ".rb",
	".swift", ".scala", ".kt", ".m", ".mm",
	".rs", ".sh",
}

// DefaultMaxLineLength is the longest line a file may contain before it is skipped.
const DefaultMaxLineLength = 1000

// Rules holds the include and exclude patterns, in gitignore syntax.
type Rules struct {
	include []string
	exclude []string

	includeMatcher gitignore.Matcher
	excludeMatcher gitignore.Matcher
}

// Load reads include and exclude patterns from the given rule files and appends the
// extra patterns. A rule file that does not exist contributes nothing; one that exists
// but cannot be read is an error.
func Load(includeFile, ignoreFile string, extraInclude, extraExclude []string) (*Rules, error) {
	include, err := readRuleFile(includeFile)
	if err != nil {
		return nil, err
	}
	exclude, err := readRuleFile(ignoreFile)
	if err != nil {
		return nil, err
	}
	return New(include, exclude, extraInclude, extraExclude), nil
}

// New builds rules from in-memory patterns. With no include patterns the
// DefaultExtensions apply.
func New(include, exclude, extraInclude, extraExclude []string) *Rules {
	if len(include) == 0 {
		for _, ext := range DefaultExtensions {
			include = append(include, "*"+ext)
		}
	}
	include = append(include, clean(extraInclude)...)
	exclude = append(exclude, clean(extraExclude)...)

	return &Rules{
		include:        include,
		exclude:        exclude,
		includeMatcher: newMatcher(include),
		excludeMatcher: newMatcher(exclude),
	}
}

// Included reports whether filename matches an include pattern and no exclude pattern.
func (r *Rules) Included(filename string) bool {
	parts := strings.Split(strings.TrimPrefix(filename, "/"), "/")
	if r.excludeMatcher.Match(parts, false) {
		return false
	}
	return r.includeMatcher.Match(parts, false)
}

// Patterns returns the effective include and exclude patterns.
func (r *Rules) Patterns() (include, exclude []string) {
	return append([]string(nil), r.include...), append([]string(nil), r.exclude...)
}

// ExceedsLineLength reports whether any line of the file content or of its patch is
// longer than maxLen characters. Minified and generated files are the usual culprits.
func ExceedsLineLength(content, patch string, maxLen int) bool {
	for _, text := range []string{content, patch} {
		for _, line := range strings.Split(text, "\n") {
			if utf8.RuneCountInString(strings.TrimSuffix(line, "\r")) > maxLen {
				return true
			}
		}
	}
	return false
}

func newMatcher(patterns []string) gitignore.Matcher {
	ps := make([]gitignore.Pattern, 0, len(patterns))
	for _, p := range patterns {
		ps = append(ps, gitignore.ParsePattern(p, nil))
	}
	return gitignore.NewMatcher(ps)
}

func readRuleFile(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open rules file %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	return clean(lines), nil
}

// clean drops blank lines and comments.
func clean(lines []string) []string {
	var out []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		out = append(out, l)
	}
	return out
}
