// Package push subscribes to the Agent7 server's notification channel.
package push

import (
	"encoding/json"
	"fmt"
)

// Event names delivered to handlers. Connect and Disconnect are synthesised by
// the Subscriber; the rest arrive from the server.
const (
	EventConnect           = "connect"
	EventDisconnect        = "disconnect"
	EventOutput            = "output"
	EventTaskStatus        = "task_status"
	EventTaskCreated       = "task_created"
	EventChatAction        = "chat_action"
	EventExecutionComplete = "execution_complete"
)

// Event is the wire envelope: {"event": "<name>", "data": {...}}.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// OutputPayload carries raw execution output.
type OutputPayload struct {
	Data string `json:"data"`
}

// TaskStatusPayload reports a task status transition.
type TaskStatusPayload struct {
	TaskID int64  `json:"task_id"`
	Status string `json:"status"`
}

// TaskCreatedPayload announces a task created outside this client.
type TaskCreatedPayload struct {
	TaskID int64  `json:"task_id"`
	Title  string `json:"title"`
}

// ChatActionPayload reports an action the chat agent took.
type ChatActionPayload struct {
	Type   string `json:"type"`
	TaskID int64  `json:"task_id"`
}

// Decode unmarshals the event data into v. Events without data leave v
// untouched.
func (e Event) Decode(v interface{}) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Name, err)
	}
	return nil
}

// ParseEvent decodes one wire message.
func ParseEvent(msg []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(msg, &evt); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if evt.Name == "" {
		return Event{}, fmt.Errorf("event name missing")
	}
	return evt, nil
}
