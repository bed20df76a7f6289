package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/fentz26/agent7/internal/api"
	"github.com/fentz26/agent7/internal/models"
)

// Chat senders and fixed texts.
const (
	SenderUser      = "You"
	SenderAssistant = "Agent7"
	SenderSystem    = "System"
	SenderAction    = "Action"

	Greeting     = "Hi! I'm Agent7. Tell me what you'd like to build and I can create and run tasks for you."
	ThinkingText = "🤔 Thinking..."
)

// Chat action kinds reported by the server.
const (
	ChatActionCreateTask  = "create_task"
	ChatActionExecuteTask = "execute_task"
)

func greeting() models.ChatMessage {
	return newMessage(models.ChatMessageAssistant, SenderAssistant, Greeting)
}

// SendChat sends text to the chat agent. The user's message and a thinking
// placeholder are shown before the request is issued; the placeholder is
// removed once it resolves.
func (c *Controller) SendChat(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	placeholder := newMessage(models.ChatMessageSystem, SenderSystem, ThinkingText)
	c.mutate(func(_ *State, d *Document) {
		d.Chat = append(d.Chat, newMessage(models.ChatMessageUser, SenderUser, text), placeholder)
	})

	reply, err := c.client.Chat(ctx, text)
	if err != nil {
		c.log.Warn().Err(err).Msg("chat request failed")
		c.mutate(func(_ *State, d *Document) {
			d.Chat = removeMessage(d.Chat, placeholder.ID)
			d.Chat = append(d.Chat, newMessage(models.ChatMessageSystem, SenderSystem, "❌ Error: "+api.Message(err)))
		})
		return err
	}

	var refresh []Part
	c.mutate(func(_ *State, d *Document) {
		d.Chat = removeMessage(d.Chat, placeholder.ID)
		d.Chat = append(d.Chat, newMessage(models.ChatMessageAssistant, SenderAssistant, reply.Response))

		for _, a := range reply.Actions {
			if !a.Success {
				d.Chat = append(d.Chat, newMessage(models.ChatMessageAction, SenderAction, "❌ "+a.Error))
				continue
			}
			d.Chat = append(d.Chat, newMessage(models.ChatMessageAction, SenderAction, actionText(a)))

			if a.Action == ChatActionCreateTask {
				refresh = append(refresh, PartTasks, PartStats)
			}
			switch {
			case a.Executed:
				d.Output = append(d.Output, fmt.Sprintf("\n🚀 Chat started execution of task %d\n", a.TaskID))
				refresh = append(refresh, PartTasks)
			case a.Execute:
				d.Output = append(d.Output, fmt.Sprintf("\nℹ️ Execution requested for task %d; press Execute to run it.\n", a.TaskID))
			}
		}
	})

	if len(refresh) > 0 {
		c.RefreshAll(ctx, refresh...)
	}
	return nil
}

func actionText(a models.ChatAction) string {
	text := a.Message
	if text == "" {
		text = fmt.Sprintf("✓ %s", a.Action)
	}
	if a.Note != "" {
		text += " " + a.Note
	}
	return text
}

// ResetChat clears the server conversation after confirmation.
func (c *Controller) ResetChat(ctx context.Context) error {
	if !c.prompter.Confirm(ctx, "Reset the chat conversation?") {
		return ErrNotConfirmed
	}

	if err := c.client.ResetChat(ctx); err != nil {
		c.log.Warn().Err(err).Msg("chat reset failed")
		c.mutate(func(_ *State, d *Document) {
			d.Chat = append(d.Chat, newMessage(models.ChatMessageSystem, SenderSystem, "❌ Error: "+api.Message(err)))
		})
		return err
	}

	c.mutate(func(_ *State, d *Document) {
		d.Chat = []models.ChatMessage{greeting()}
	})
	return nil
}

func removeMessage(msgs []models.ChatMessage, id string) []models.ChatMessage {
	out := msgs[:0]
	for _, m := range msgs {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

// ShouldSubmitChat reports whether key submits the chat composer. Plain Enter
// inserts a newline; Enter with Ctrl or Cmd submits. Terminals report
// Ctrl+Enter as ctrl+j and Cmd/Option+Enter as alt+enter.
func ShouldSubmitChat(key string) bool {
	switch key {
	case "ctrl+enter", "cmd+enter", "ctrl+j", "alt+enter":
		return true
	default:
		return false
	}
}
