package shell

// A complete answer from the analyzer session.
type answerMsg struct{ content string }

// A failure reported by a command.
type errorMsg struct{ err error }

func (e errorMsg) Error() string {
	return e.err.Error()
}
