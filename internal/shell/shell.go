// Package shell is an interactive terminal for triaging findings with the analyzer
// before the review is published.
package shell

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sevigo/diff-warden/internal/core"
)

// Run starts the shell and blocks until the user leaves it. It returns the findings
// as edited during the session.
func Run(ctx context.Context, session core.Session, list *Findings, theme ThemeName) ([]core.Finding, error) {
	if session == nil {
		return nil, errors.New("session cannot be nil")
	}
	if list == nil {
		list = NewFindings(nil)
	}

	p := tea.NewProgram(newModel(ctx, session, list, theme), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return list.List(), fmt.Errorf("interactive shell failed: %w", err)
	}
	return list.List(), nil
}
