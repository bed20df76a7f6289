package ui

import "context"

// Prompter surfaces blocking user interaction.
type Prompter interface {
	// Alert shows msg to the user.
	Alert(msg string)
	// Confirm asks a yes/no question and blocks until answered or ctx ends.
	Confirm(ctx context.Context, msg string) bool
}

// StaticPrompter answers every confirmation with Answer and records alerts.
// It serves non-interactive commands (--yes) and tests.
type StaticPrompter struct {
	Answer  bool
	OnAlert func(msg string)
}

func (p StaticPrompter) Alert(msg string) {
	if p.OnAlert != nil {
		p.OnAlert(msg)
	}
}

func (p StaticPrompter) Confirm(ctx context.Context, msg string) bool {
	return p.Answer
}
