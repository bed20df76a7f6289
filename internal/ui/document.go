package ui

import (
	"github.com/fentz26/agent7/internal/models"
)

// Part names one independently refreshed panel.
type Part string

const (
	PartStatus Part = "status"
	PartTasks  Part = "tasks"
	PartStats  Part = "stats"
	PartFiles  Part = "files"
)

// State is the only client-side state besides the rendered document.
type State struct {
	CurrentProjectID *int64
	ExecutionActive  bool
}

// HasProject reports whether a project is selected.
func (s State) HasProject() bool {
	return s.CurrentProjectID != nil
}

// Document is the full rendered view. Every panel is overwritten wholesale by
// its refresh; Output and Chat are append-only logs.
type Document struct {
	Status    StatusView
	Tasks     TaskListView
	Stats     StatsView
	Files     FilesView
	Output    []string
	Chat      []models.ChatMessage
	Connected bool
}

// Clone returns a copy that shares no slices with d.
func (d Document) Clone() Document {
	out := d
	out.Tasks.Rows = append([]TaskRow(nil), d.Tasks.Rows...)
	for i := range out.Tasks.Rows {
		out.Tasks.Rows[i].Actions = append([]string(nil), d.Tasks.Rows[i].Actions...)
	}
	out.Files.Rows = append([]FileRow(nil), d.Files.Rows...)
	out.Output = append([]string(nil), d.Output...)
	out.Chat = append([]models.ChatMessage(nil), d.Chat...)
	if d.Stats.ByType != nil {
		out.Stats.ByType = make(map[string]int, len(d.Stats.ByType))
		for k, v := range d.Stats.ByType {
			out.Stats.ByType[k] = v
		}
	}
	return out
}

// sequencer discards responses that arrive after a later-issued request for
// the same part has been applied.
type sequencer struct {
	issued  map[Part]uint64
	applied map[Part]uint64
}

func newSequencer() *sequencer {
	return &sequencer{
		issued:  make(map[Part]uint64),
		applied: make(map[Part]uint64),
	}
}

func (s *sequencer) next(p Part) uint64 {
	s.issued[p]++
	return s.issued[p]
}

// accept records ticket as applied unless it is older than the last applied
// one.
func (s *sequencer) accept(p Part, ticket uint64) bool {
	if ticket < s.applied[p] {
		return false
	}
	s.applied[p] = ticket
	return true
}
