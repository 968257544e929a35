package llm

import (
	"context"
	"regexp"

	"github.com/sevigo/diff-warden/internal/core"
)

// FakeProvider is the provider name of the offline analyzer.
const FakeProvider = "faike"

var fileLineRegex = regexp.MustCompile(`File: (.*?)\n`)

// Fake is an analyzer that never contacts a model. It reports one placeholder
// finding per file so the rest of the pipeline can be exercised offline.
type Fake struct{}

// NewFake creates the offline analyzer.
func NewFake() *Fake {
	return &Fake{}
}

func (*Fake) Name() string { return FakeProvider }

func (*Fake) Findings(_ context.Context, _, user string, _ []core.Tool) ([]core.Finding, error) {
	filename := ""
	if m := fileLineRegex.FindStringSubmatch(user); m != nil {
		filename = m[1]
	}
	return []core.Finding{{
		File:           filename,
		Snippet:        "[]",
		Title:          "Fake Issue #1234",
		Issue:          "Fake Issue",
		Recommendation: "Do Nothing",
		WeaknessID:     "CWE-NAN",
		Priority:       0,
	}}, nil
}

func (*Fake) Prompt(context.Context, string, string, []core.Tool) (string, error) {
	return "\nFake Summary", nil
}

func (*Fake) NewSession(string, []core.Tool) (core.Session, error) {
	return nil, ErrSessionUnsupported
}
