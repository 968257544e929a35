package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/findings"
)

// GetFindingsTool is the name of the tool that lists the current findings.
const GetFindingsTool = "get_findings"

// Findings is the editable list of findings shared between the shell and the
// tools handed to the model.
type Findings struct {
	mu       sync.RWMutex
	list     []core.Finding
	original []core.Finding
}

// NewFindings copies list as both the current and the original findings.
func NewFindings(list []core.Finding) *Findings {
	return &Findings{list: clone(list), original: clone(list)}
}

// List returns a copy of the current findings.
func (f *Findings) List() []core.Finding {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return clone(f.list)
}

// Len returns the number of current findings.
func (f *Findings) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.list)
}

// Drop removes the finding at the 1-based index n.
func (f *Findings) Drop(n int) (core.Finding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n < 1 || n > len(f.list) {
		return core.Finding{}, fmt.Errorf("no finding #%d (have %d)", n, len(f.list))
	}
	dropped := f.list[n-1]
	f.list = append(f.list[:n-1:n-1], f.list[n:]...)
	return dropped, nil
}

// Reset restores the original findings.
func (f *Findings) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = clone(f.original)
}

// Table renders the current findings as a markdown table.
func (f *Findings) Table() string {
	list := f.List()
	if len(list) == 0 {
		return "_No findings._"
	}
	var sb strings.Builder
	sb.WriteString("| # | Severity | File | Line | CWE | Issue |\n|---|---|---|---|---|---|\n")
	for i, fd := range list {
		fmt.Fprintf(&sb, "| %d | %s | %s | %d | %s | %s |\n",
			i+1, findings.Severity(fd.Priority), fd.File, fd.Line(), fd.WeaknessID, cell(fd.Issue))
	}
	return sb.String()
}

// Tool exposes the current findings to the model as JSON.
func (f *Findings) Tool() core.Tool {
	return core.Tool{
		Name:        GetFindingsTool,
		Description: "Returns the current list of findings as JSON. The argument is ignored.",
		Run: func(_ context.Context, _ string) (string, error) {
			data, err := json.MarshalIndent(f.List(), "", "  ")
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	}
}

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func clone(list []core.Finding) []core.Finding {
	if list == nil {
		return nil
	}
	out := make([]core.Finding, len(list))
	copy(out, list)
	return out
}
