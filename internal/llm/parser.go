package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sevigo/diff-warden/internal/core"
)

// ErrNoJSON is returned when a model response contains no JSON value at all.
var ErrNoJSON = errors.New("response did not contain JSON")

var trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)

// rawFinding is the lenient wire form of a finding as produced by a model.
type rawFinding struct {
	File           string   `json:"file"`
	Category       string   `json:"category"`
	Snippet        string   `json:"snippet"`
	Title          string   `json:"title"`
	Issue          string   `json:"issue"`
	Recommendation string   `json:"recommendation"`
	WeaknessID     string   `json:"weakness_id"`
	CWE            string   `json:"cwe"`
	Priority       flexInt  `json:"priority"`
	LineNumber     *flexInt `json:"line_number"`
}

// flexInt accepts 7, 7.0 and "7".
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	*f = flexInt(int(v))
	return nil
}

func (r rawFinding) toFinding() core.Finding {
	weakness := r.WeaknessID
	if weakness == "" {
		weakness = r.CWE
	}
	return core.Finding{
		File:           strings.TrimSpace(r.File),
		Category:       r.Category,
		Snippet:        r.Snippet,
		Title:          r.Title,
		Issue:          r.Issue,
		Recommendation: r.Recommendation,
		WeaknessID:     strings.TrimSpace(weakness),
		Priority:       int(r.Priority),
	}
}

// parseFindings decodes a model response into findings. It accepts an object with a
// "findings" array or a bare array, optionally wrapped in prose or a markdown fence.
// Line numbers reported by the model are discarded; anchoring happens against the diff.
func parseFindings(response string) ([]core.Finding, error) {
	raw, err := extractJSON(response)
	if err != nil {
		return nil, err
	}

	var items []rawFinding
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("failed to decode findings: %w", err)
		}
	} else {
		var envelope struct {
			Findings []rawFinding `json:"findings"`
		}
		if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode findings: %w", err)
		}
		items = envelope.Findings
	}

	out := make([]core.Finding, 0, len(items))
	for _, it := range items {
		out = append(out, it.toFinding())
	}
	return out, nil
}

// toolCall is the reply a model gives when it wants to run a tool.
type toolCall struct {
	Tool     string `json:"tool"`
	Argument string `json:"argument"`
}

// parseToolCall reports whether a response is a tool invocation.
func parseToolCall(response string) (toolCall, bool) {
	raw, err := extractJSON(response)
	if err != nil || !strings.HasPrefix(raw, "{") {
		return toolCall{}, false
	}
	var call toolCall
	if err := json.Unmarshal([]byte(raw), &call); err != nil || call.Tool == "" {
		return toolCall{}, false
	}
	return call, true
}

// extractJSON finds the JSON value in a model response and returns it compacted.
// Fences are stripped, leading prose is skipped and common syntax slips are repaired.
func extractJSON(response string) (string, error) {
	raw := strings.TrimSpace(stripMarkdownFence(response))

	if json.Valid([]byte(raw)) {
		return compact(raw), nil
	}

	start := strings.IndexAny(raw, "{[")
	if start == -1 {
		return "", ErrNoJSON
	}
	raw = raw[start:]

	for _, candidate := range []string{raw, sanitizeJSON(raw)} {
		decoder := json.NewDecoder(strings.NewReader(candidate))
		var v any
		if err := decoder.Decode(&v); err == nil {
			clean, _ := json.Marshal(v)
			return string(clean), nil
		}
	}
	return "", fmt.Errorf("failed to decode JSON from response: %w", ErrNoJSON)
}

func compact(raw string) string {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	clean, _ := json.Marshal(v)
	return string(clean)
}

// sanitizeJSON fixes invalid escape sequences and trailing commas, the two mistakes
// models make most often.
func sanitizeJSON(input string) string {
	var sb strings.Builder
	sb.Grow(len(input) + 20)

	runes := []rune(input)
	length := len(runes)

	for i := 0; i < length; i++ {
		char := runes[i]
		if char != '\\' {
			sb.WriteRune(char)
			continue
		}
		if i+1 >= length {
			sb.WriteString(`\\`)
			break
		}
		next := runes[i+1]
		switch next {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
			sb.WriteRune(char)
			sb.WriteRune(next)
			i++
		default:
			// e.g. \s in C:\src
			sb.WriteString(`\\`)
		}
	}

	return trailingCommaRegex.ReplaceAllString(sb.String(), "$1")
}

// stripMarkdownFence removes a ```markdown, ```md or ```json fence that some LLMs add
// around their output.
func stripMarkdownFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	lang := strings.ToLower(strings.TrimSpace(strings.SplitN(trimmed[3:], "\n", 2)[0]))
	switch lang {
	case "", "markdown", "md", "json":
	default:
		return s
	}

	idx := strings.Index(trimmed, "\n")
	if idx < 0 {
		return s
	}
	inner := trimmed[idx+1:]
	if lastFence := strings.LastIndex(inner, "```"); lastFence >= 0 {
		inner = inner[:lastFence]
	}
	return strings.TrimSpace(inner)
}
