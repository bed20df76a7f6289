package ui

import (
	"context"
	"fmt"

	"github.com/fentz26/agent7/internal/push"
)

// ApplyEvent applies the synchronous effects of a push event (log lines and
// state flags) and returns the parts that must be re-fetched. Callers that
// deliver events in order get an ordered output log.
func (c *Controller) ApplyEvent(evt push.Event) []Part {
	switch evt.Name {
	case push.EventConnect:
		c.mutate(func(_ *State, d *Document) {
			d.Connected = true
			d.Output = append(d.Output, "🔌 Connected to Agent7 server\n")
		})
		return nil

	case push.EventDisconnect:
		c.mutate(func(_ *State, d *Document) {
			d.Connected = false
			d.Output = append(d.Output, "⚠️  Disconnected from server\n")
		})
		return nil

	case push.EventOutput:
		var p push.OutputPayload
		if err := evt.Decode(&p); err != nil {
			c.log.Warn().Err(err).Msg("bad output event")
			return nil
		}
		c.AppendOutput(p.Data)
		return nil

	case push.EventTaskStatus:
		var p push.TaskStatusPayload
		if err := evt.Decode(&p); err == nil {
			c.log.Debug().Int64("task_id", p.TaskID).Str("status", p.Status).Msg("task status update")
		}
		return []Part{PartTasks, PartStats}

	case push.EventTaskCreated:
		var p push.TaskCreatedPayload
		if err := evt.Decode(&p); err != nil {
			c.log.Warn().Err(err).Msg("bad task_created event")
			return []Part{PartTasks, PartStats}
		}
		c.AppendOutput(fmt.Sprintf("✨ Task created: %s (#%d)\n", p.Title, p.TaskID))
		return []Part{PartTasks, PartStats}

	case push.EventChatAction:
		var p push.ChatActionPayload
		if err := evt.Decode(&p); err != nil {
			c.log.Warn().Err(err).Msg("bad chat_action event")
			return nil
		}
		if p.Type != ChatActionExecuteTask {
			c.log.Debug().Str("type", p.Type).Msg("ignoring chat action")
			return nil
		}
		c.AppendOutput(fmt.Sprintf("🤖 Chat requested execution of task %d\n", p.TaskID))
		return []Part{PartTasks}

	case push.EventExecutionComplete:
		c.mutate(func(s *State, d *Document) {
			s.ExecutionActive = false
			d.Status.Execution = "Idle"
			d.Status.Running = false
		})
		return []Part{PartTasks, PartStats}

	default:
		c.log.Debug().Str("event", evt.Name).Msg("ignoring unknown push event")
		return nil
	}
}

// HandleEvent applies evt and runs the refreshes it requires.
func (c *Controller) HandleEvent(ctx context.Context, evt push.Event) {
	if parts := c.ApplyEvent(evt); len(parts) > 0 {
		c.RefreshAll(ctx, parts...)
	}
}
