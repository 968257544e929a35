package llm

import (
	"strings"
	"testing"
	"time"
)

func TestStripMarkdownFence_Security(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name: "trailing content after fence",
			input: "```markdown\n" +
				"header\n" +
				"```\n" +
				"some trailing garbage",
			expected: "header",
		},
		{
			name: "no closing fence",
			input: "```markdown\n" +
				"header\n" +
				"body",
			expected: "header\nbody",
		},
		{
			name: "nested fences (should take outer)",
			input: "```markdown\n" +
				"code:\n" +
				"```go\n" +
				"func main() {}\n" +
				"```\n" +
				"```",
			expected: "code:\n```go\nfunc main() {}\n```",
		},
		{
			name:     "json fence",
			input:    "```json\n{\"findings\": []}\n```",
			expected: `{"findings": []}`,
		},
		{
			name:     "other language fence is left alone",
			input:    "```go\nfunc main() {}\n```",
			expected: "```go\nfunc main() {}\n```",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripMarkdownFence(tt.input)
			if got != tt.expected {
				t.Errorf("stripMarkdownFence() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSanitizeJSON_LargeInput(t *testing.T) {
	// A long run of backslashes and commas must be repaired in linear time.
	payload := `{"issue": "` + strings.Repeat(`\q,`, 20000) + `"}`

	start := time.Now()
	out := sanitizeJSON(payload)
	duration := time.Since(start)

	if duration > 500*time.Millisecond {
		t.Errorf("sanitizeJSON took too long: %v", duration)
	}
	if !strings.HasPrefix(out, `{"issue": "\\q,`) {
		t.Errorf("unexpected repair: %q", out[:20])
	}
}
