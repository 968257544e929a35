package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/sevigo/diff-warden/internal/core"
)

const helpText = `  /help          Show this help message.
  /findings      List the current findings.
  /drop <n>      Remove finding n from the review.
  /reset         Restore the original findings and forget the conversation.
  /clear         Clear the screen and forget the conversation.
  /exit          Leave the shell and continue with the current findings.

  Anything else is sent to the assistant.`

type model struct {
	ctx      context.Context
	styles   styles
	session  core.Session
	findings *Findings
	renderer *glamour.TermRenderer

	viewport  viewport.Model
	textarea  textarea.Model
	spinner   spinner.Model
	isLoading bool

	history []string
}

func newModel(ctx context.Context, session core.Session, list *Findings, theme ThemeName) *model {
	st := newStyles(theme)

	ta := textarea.New()
	ta.Placeholder = "Ask about the findings or type /help..."
	ta.Focus()
	ta.Prompt = st.prompt.Render("► ")
	ta.CharLimit = 2000
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))

	// Rendering falls back to plain text when no renderer is available.
	renderer, _ := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(100))

	m := &model{
		ctx:      ctx,
		styles:   st,
		session:  session,
		findings: list,
		renderer: renderer,
		textarea: ta,
		spinner:  sp,
		viewport: viewport.New(80, 20),
	}
	m.history = []string{
		st.header.Render("diffwarden triage shell"),
		"",
		m.markdown(list.Table()),
		st.success.Render("Greetings! How can I help? Type /exit when we're done."),
	}
	m.refresh()
	return m
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	m.spinner, spCmd = m.spinner.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" || m.isLoading {
				return m, nil
			}
			m.textarea.Reset()
			return m, m.processCommand(input)
		}

	case answerMsg:
		m.isLoading = false
		m.append(m.markdown(msg.content))
		return m, nil

	case errorMsg:
		m.isLoading = false
		m.append(m.styles.error.Render("⚠ " + msg.Error()))
		return m, nil

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 8
		m.textarea.SetWidth(msg.Width - 10)
		m.refresh()
	}

	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

func (m *model) View() string {
	status := m.styles.inactive.Render(fmt.Sprintf("FINDINGS: %d │ /help for commands", m.findings.Len()))

	var loadingIndicator string
	if m.isLoading {
		loadingIndicator = " " + m.spinner.View() + " " + m.styles.success.Render("THINKING...")
	}

	return m.styles.app.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.styles.viewport.Render(m.viewport.View()),
			m.styles.footer.Render(
				lipgloss.JoinHorizontal(lipgloss.Left,
					m.textarea.View(),
					loadingIndicator,
				),
			),
			status,
		),
	)
}

func (m *model) processCommand(input string) tea.Cmd {
	m.append(m.styles.prompt.Render("► ") + input)

	parts := strings.Fields(input)
	command, args := parts[0], parts[1:]

	switch command {
	case "/help", "/h":
		m.append(m.styles.success.Render("AVAILABLE COMMANDS:") + "\n\n" + helpText)
		return nil

	case "/findings", "/ls":
		m.append(m.markdown(m.findings.Table()))
		return nil

	case "/drop":
		if len(args) != 1 {
			m.append(m.styles.error.Render("USAGE: /drop <n>"))
			return nil
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			m.append(m.styles.error.Render(fmt.Sprintf("not a finding number: %s", args[0])))
			return nil
		}
		dropped, err := m.findings.Drop(n)
		if err != nil {
			m.append(m.styles.error.Render(err.Error()))
			return nil
		}
		m.append(m.styles.success.Render(fmt.Sprintf("✓ Dropped #%d: %s (%s)", n, dropped.Issue, dropped.File)))
		return nil

	case "/reset":
		m.findings.Reset()
		m.session.Reset()
		m.append(m.styles.success.Render("✓ Findings restored and conversation cleared"))
		return nil

	case "/clear":
		m.session.Reset()
		m.history = nil
		m.refresh()
		return nil

	case "/exit", "/quit":
		return tea.Quit

	default:
		if strings.HasPrefix(command, "/") {
			m.append(m.styles.error.Render(fmt.Sprintf("UNKNOWN COMMAND: %s", command)), m.styles.inactive.Render("Type /help for assistance."))
			return nil
		}
		m.isLoading = true
		m.append(m.styles.command.Render("→ THINKING..."))
		return tea.Batch(m.spinner.Tick, askCmd(m.ctx, m.session, input))
	}
}

func (m *model) append(lines ...string) {
	m.history = append(m.history, lines...)
	m.refresh()
}

func (m *model) refresh() {
	m.viewport.SetContent(strings.Join(m.history, "\n"))
	m.viewport.GotoBottom()
}

func (m *model) markdown(md string) string {
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

func askCmd(ctx context.Context, session core.Session, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := session.Send(ctx, question)
		if err != nil {
			return errorMsg{err}
		}
		return answerMsg{content: answer}
	}
}
