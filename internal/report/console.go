// Package report renders scan results for people: markdown on the terminal and CSV files.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/findings"
)

// NoIssues is printed when a review has no comments.
const NoIssues = "👍 - No issues found"

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	dimColor    = color.New(color.FgHiBlack)
)

// Console prints reviews to a terminal, rendering markdown with glamour.
type Console struct {
	out      io.Writer
	renderer *glamour.TermRenderer
}

// NewConsole returns a Console writing to out. An empty style picks one based on the
// terminal background; "notty" renders plain text.
func NewConsole(out io.Writer, style string) (*Console, error) {
	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(120))
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return &Console{out: out, renderer: r}, nil
}

// Markdown renders md and writes it out.
func (c *Console) Markdown(md string) error {
	rendered, err := c.renderer.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(c.out, rendered)
	return err
}

// Review prints the summary followed by every comment under a "path Line position" heading.
func (c *Console) Review(summary string, comments []core.ReviewComment) error {
	if len(comments) == 0 {
		_, err := fmt.Fprintln(c.out, NoIssues)
		return err
	}

	if err := c.Markdown(summary); err != nil {
		return err
	}
	fmt.Fprint(c.out, "\n\n")
	headerColor.Fprintln(c.out, "Findings:")

	for _, cm := range comments {
		md := fmt.Sprintf("---\n\n## %s Line %d\n\n%s\n\n---\n", cm.Path, cm.Position, cm.Body)
		if err := c.Markdown(md); err != nil {
			return err
		}
	}
	return nil
}

// Findings prints a compact, colored list of findings with a severity badge each.
func (c *Console) Findings(list []core.Finding) {
	if len(list) == 0 {
		fmt.Fprintln(c.out, NoIssues)
		return
	}
	for i, f := range list {
		severity := findings.Severity(f.Priority)
		badge(severity).Fprintf(c.out, " %s ", severity)
		fmt.Fprintf(c.out, " %d. %s", i+1, f.File)
		dimColor.Fprintf(c.out, ":%d\n", f.Line())

		title := f.Title
		if title == "" {
			title = f.Issue
		}
		fmt.Fprintf(c.out, "   %s\n", strings.TrimSpace(title))
		if f.WeaknessID != "" {
			dimColor.Fprintf(c.out, "   %s · %s\n", f.WeaknessID, f.Category)
		}
	}
}

func badge(severity string) *color.Color {
	switch severity {
	case "CRITICAL":
		return color.New(color.BgRed, color.FgWhite, color.Bold)
	case "HIGH":
		return color.New(color.BgHiRed, color.FgWhite)
	case "MEDIUM":
		return color.New(color.BgYellow, color.FgBlack)
	case "LOW":
		return color.New(color.BgGreen, color.FgWhite)
	default:
		return color.New(color.BgWhite, color.FgBlack)
	}
}
