package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// programPrompter routes controller prompts through the running program.
// Alert and Confirm block until the program receives the message, so they
// must only be called from commands, never from Update.
type programPrompter struct {
	send func(tea.Msg)
}

func (p programPrompter) Alert(msg string) {
	p.send(alertMsg{msg})
}

func (p programPrompter) Confirm(ctx context.Context, msg string) bool {
	reply := make(chan bool, 1)
	p.send(confirmMsg{question: msg, reply: reply})
	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}

type alertMsg struct {
	message string
}

type confirmMsg struct {
	question string
	reply    chan<- bool
}
