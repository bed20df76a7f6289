// Package ui implements the agent7 UI controller: the client state, the
// effect layer reacting to user actions and push events, and the pure render
// functions the TUI and CLI share.
package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fentz26/agent7/internal/api"
	"github.com/fentz26/agent7/internal/models"
	"github.com/fentz26/agent7/internal/poller"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// API is the subset of the server API the controller drives.
type API interface {
	Status(ctx context.Context) (*models.Status, error)
	ListTasks(ctx context.Context, filter api.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, id int64) (*models.TaskDetail, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Files(ctx context.Context) ([]models.FileEntry, error)
	SelectProject(ctx context.Context, directory string) (*api.SelectProjectResult, error)
	CreateTask(ctx context.Context, task models.NewTask) (*models.Task, error)
	ExecuteTask(ctx context.Context, id int64) error
	ArchiveTask(ctx context.Context, id int64) error
	DeleteTask(ctx context.Context, id int64) error
	Chat(ctx context.Context, message string) (*models.ChatReply, error)
	ResetChat(ctx context.Context) error
}

// ProjectRecorder remembers selected project directories.
type ProjectRecorder interface {
	RecordSelection(ctx context.Context, directory string, projectID int64) error
}

// Options configures a Controller.
type Options struct {
	Prompter Prompter
	// Recorder is optional.
	Recorder      ProjectRecorder
	Log           zerolog.Logger
	FileListLimit int
	// OnChange is called, without the controller lock held, after the
	// document changes.
	OnChange func()
}

// Controller owns the UI state and the rendered document.
type Controller struct {
	client   API
	prompter Prompter
	recorder ProjectRecorder
	log      zerolog.Logger
	limit    int
	onChange func()

	mu           sync.Mutex
	state        State
	doc          Document
	seq          *sequencer
	statusFilter string
	// starting is set while an execute request is in flight.
	starting bool
}

// NewController creates a controller. The chat log starts with the greeting.
func NewController(client API, opts Options) *Controller {
	prompter := opts.Prompter
	if prompter == nil {
		prompter = StaticPrompter{}
	}
	limit := opts.FileListLimit
	if limit <= 0 {
		limit = DefaultFileListLimit
	}

	c := &Controller{
		client:   client,
		prompter: prompter,
		recorder: opts.Recorder,
		log:      opts.Log.With().Str("component", "ui").Logger(),
		limit:    limit,
		onChange: opts.OnChange,
		seq:      newSequencer(),
	}
	c.doc.Status = RenderStatus(models.Status{})
	c.doc.Tasks = RenderTasks(nil, false)
	c.doc.Files = RenderFiles(nil, limit)
	c.doc.Chat = []models.ChatMessage{greeting()}
	return c
}

// State returns a copy of the client state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if s.CurrentProjectID != nil {
		id := *s.CurrentProjectID
		s.CurrentProjectID = &id
	}
	return s
}

// Snapshot returns a copy of the rendered document.
func (c *Controller) Snapshot() Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Clone()
}

// SetStatusFilter narrows later task list refreshes to one status. An empty
// status lists all tasks.
func (c *Controller) SetStatusFilter(status string) {
	c.mu.Lock()
	c.statusFilter = status
	c.mu.Unlock()
}

// mutate applies fn to the state and document under the lock, then notifies.
func (c *Controller) mutate(fn func(s *State, d *Document)) {
	c.mu.Lock()
	fn(&c.state, &c.doc)
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

// AppendOutput appends entries to the output log.
func (c *Controller) AppendOutput(entries ...string) {
	c.mutate(func(_ *State, d *Document) {
		d.Output = append(d.Output, entries...)
	})
}

// ClearOutput empties the output log.
func (c *Controller) ClearOutput() {
	c.mutate(func(_ *State, d *Document) {
		d.Output = []string{"Output cleared."}
	})
}

// --- Refresh ---

// Start performs the initial full refresh.
func (c *Controller) Start(ctx context.Context) {
	c.RefreshAll(ctx, PartStatus, PartTasks, PartStats)
}

// PollJobs returns the fixed-interval refresh jobs for status and stats.
func (c *Controller) PollJobs(statusEvery, statsEvery time.Duration) []poller.Job {
	return []poller.Job{
		{Name: string(PartStatus), Interval: statusEvery, Run: func(ctx context.Context) { c.RefreshAll(ctx, PartStatus) }},
		{Name: string(PartStats), Interval: statsEvery, Run: func(ctx context.Context) { c.RefreshAll(ctx, PartStats) }},
	}
}

// RefreshAll refreshes the given parts concurrently and waits for all of
// them. Duplicates are refreshed once.
func (c *Controller) RefreshAll(ctx context.Context, parts ...Part) {
	seen := make(map[Part]bool, len(parts))
	var wg sync.WaitGroup
	for _, p := range parts {
		if seen[p] {
			continue
		}
		seen[p] = true

		wg.Add(1)
		go func(p Part) {
			defer wg.Done()
			c.refresh(ctx, p)
		}(p)
	}
	wg.Wait()
}

func (c *Controller) refresh(ctx context.Context, p Part) {
	switch p {
	case PartStatus:
		c.RefreshStatus(ctx)
	case PartTasks:
		c.RefreshTasks(ctx)
	case PartStats:
		c.RefreshStats(ctx)
	case PartFiles:
		c.RefreshFiles(ctx)
	default:
		c.log.Debug().Str("part", string(p)).Msg("unknown refresh part")
	}
}

func (c *Controller) ticket(p Part) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.next(p)
}

// apply runs fn under the lock if ticket is still current for p.
func (c *Controller) apply(p Part, ticket uint64, fn func(s *State, d *Document)) {
	c.mu.Lock()
	if !c.seq.accept(p, ticket) {
		c.mu.Unlock()
		c.log.Debug().Str("part", string(p)).Uint64("ticket", ticket).Msg("discarding stale response")
		return
	}
	fn(&c.state, &c.doc)
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) readFailed(p Part, err error) {
	c.log.Warn().Err(err).Str("part", string(p)).Msg("refresh failed")
}

// RefreshStatus fetches the status snapshot. It also adopts the server's
// execution flag and, when the server names a current project, its id.
func (c *Controller) RefreshStatus(ctx context.Context) {
	t := c.ticket(PartStatus)
	status, err := c.client.Status(ctx)
	if err != nil {
		c.readFailed(PartStatus, err)
		return
	}
	c.apply(PartStatus, t, func(s *State, d *Document) {
		d.Status = RenderStatus(*status)
		s.ExecutionActive = status.ExecutionActive
		if status.CurrentProjectDir != nil && status.CurrentProjectID != nil {
			id := *status.CurrentProjectID
			s.CurrentProjectID = &id
		}
	})
}

// RefreshTasks fetches the task list, filtered by the current project.
func (c *Controller) RefreshTasks(ctx context.Context) {
	c.mu.Lock()
	filter := api.TaskFilter{Status: c.statusFilter}
	if c.state.CurrentProjectID != nil {
		id := *c.state.CurrentProjectID
		filter.ProjectID = &id
	}
	t := c.seq.next(PartTasks)
	c.mu.Unlock()

	tasks, err := c.client.ListTasks(ctx, filter)
	if err != nil {
		c.readFailed(PartTasks, err)
		return
	}
	c.apply(PartTasks, t, func(s *State, d *Document) {
		d.Tasks = RenderTasks(tasks, s.ExecutionActive)
	})
}

// RefreshStats fetches aggregate counts.
func (c *Controller) RefreshStats(ctx context.Context) {
	t := c.ticket(PartStats)
	stats, err := c.client.Stats(ctx)
	if err != nil {
		c.readFailed(PartStats, err)
		return
	}
	c.apply(PartStats, t, func(_ *State, d *Document) {
		d.Stats = RenderStats(*stats)
	})
}

// RefreshFiles fetches the project file list.
func (c *Controller) RefreshFiles(ctx context.Context) {
	t := c.ticket(PartFiles)
	files, err := c.client.Files(ctx)
	if err != nil {
		c.readFailed(PartFiles, err)
		return
	}
	c.apply(PartFiles, t, func(_ *State, d *Document) {
		d.Files = RenderFiles(files, c.limit)
	})
}

// --- Mutations ---

// SelectProject makes directory the current project.
func (c *Controller) SelectProject(ctx context.Context, directory string) error {
	if directory == "" {
		c.prompter.Alert("Please enter a project directory")
		return ErrEmptyDirectory
	}

	result, err := c.client.SelectProject(ctx, directory)
	if err != nil {
		c.writeFailed("select project", err)
		return err
	}

	c.mutate(func(s *State, d *Document) {
		id := result.ProjectID
		s.CurrentProjectID = &id
		d.Output = append(d.Output, fmt.Sprintf("✅ Project selected: %s\n", directory))
	})

	if c.recorder != nil {
		if err := c.recorder.RecordSelection(ctx, directory, result.ProjectID); err != nil {
			c.log.Warn().Err(err).Str("directory", directory).Msg("failed to remember project")
		}
	}

	c.RefreshAll(ctx, PartStatus, PartFiles, PartTasks)
	return nil
}

// TaskForm holds the task creation inputs.
type TaskForm struct {
	Title       string
	Description string
	TaskType    string
	Priority    int
}

// CreateTask creates a task in the current project. Callers clear their input
// fields when it returns nil.
func (c *Controller) CreateTask(ctx context.Context, form TaskForm) error {
	if form.Title == "" || form.Description == "" {
		c.prompter.Alert("Please fill in title and description")
		return ErrMissingFields
	}

	state := c.State()
	if !state.HasProject() {
		c.prompter.Alert("Please select a project first")
		return ErrNoProject
	}

	taskType := form.TaskType
	if taskType == "" {
		taskType = models.TaskTypeCoding
	}

	_, err := c.client.CreateTask(ctx, models.NewTask{
		ProjectID:   *state.CurrentProjectID,
		Title:       form.Title,
		Description: form.Description,
		TaskType:    taskType,
		Priority:    form.Priority,
	})
	if err != nil {
		c.writeFailed("create task", err)
		return err
	}

	c.AppendOutput(fmt.Sprintf("✅ Task created: %s\n", form.Title))
	c.RefreshAll(ctx, PartTasks, PartStats)
	return nil
}

// ExecuteTask starts an execution. Only one execute request may be in flight;
// the flag is set once the server accepts it and completion arrives as an
// execution_complete event.
func (c *Controller) ExecuteTask(ctx context.Context, taskID int64) error {
	c.mu.Lock()
	busy := c.state.ExecutionActive || c.starting
	hasProject := c.state.HasProject()
	if !busy && hasProject {
		c.starting = true
	}
	c.mu.Unlock()

	if busy {
		c.prompter.Alert("Another task is already executing")
		return ErrExecutionActive
	}
	if !hasProject {
		c.prompter.Alert("Please select a project first")
		return ErrNoProject
	}

	err := c.client.ExecuteTask(ctx, taskID)
	if err != nil {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
		c.writeFailed("execute task", err)
		return err
	}

	c.mutate(func(s *State, d *Document) {
		c.starting = false
		s.ExecutionActive = true
		d.Status.Execution = "Running"
		d.Status.Running = true
		for i := range d.Tasks.Rows {
			d.Tasks.Rows[i].ExecuteDisabled = true
		}
		d.Output = append(d.Output, ExecutionBanner(taskID)...)
	})
	return nil
}

// ArchiveTask archives a task after confirmation.
func (c *Controller) ArchiveTask(ctx context.Context, taskID int64) error {
	return c.removeTask(ctx, taskID, "archive", "📦 Task %d archived\n", c.client.ArchiveTask)
}

// DeleteTask deletes a task after confirmation.
func (c *Controller) DeleteTask(ctx context.Context, taskID int64) error {
	return c.removeTask(ctx, taskID, "delete", "🗑️ Task %d deleted\n", c.client.DeleteTask)
}

func (c *Controller) removeTask(ctx context.Context, taskID int64, verb, okFormat string, call func(context.Context, int64) error) error {
	question := fmt.Sprintf("Are you sure you want to %s task %d?", verb, taskID)
	if verb == "delete" {
		question += " This cannot be undone."
	}
	if !c.prompter.Confirm(ctx, question) {
		return ErrNotConfirmed
	}

	if err := call(ctx, taskID); err != nil {
		c.log.Warn().Err(err).Int64("task_id", taskID).Str("action", verb).Msg("task action failed")
		c.AppendOutput(fmt.Sprintf("❌ Failed to %s task %d: %s\n", verb, taskID, api.Message(err)))
		return err
	}

	c.AppendOutput(fmt.Sprintf(okFormat, taskID))
	c.RefreshAll(ctx, PartTasks, PartStats)
	return nil
}

// ViewTaskDetails appends the task detail block to the output log.
func (c *Controller) ViewTaskDetails(ctx context.Context, taskID int64) error {
	detail, err := c.client.GetTask(ctx, taskID)
	if err != nil {
		c.log.Warn().Err(err).Int64("task_id", taskID).Msg("failed to load task details")
		return err
	}
	c.AppendOutput(FormatTaskDetail(*detail)...)
	return nil
}

func (c *Controller) writeFailed(action string, err error) {
	c.log.Error().Err(err).Str("action", action).Msg("request failed")

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		c.prompter.Alert("Error: " + apiErr.Message)
		return
	}
	c.prompter.Alert(fmt.Sprintf("Failed to %s", action))
}

func newMessage(t models.ChatMessageType, sender, text string) models.ChatMessage {
	return models.ChatMessage{
		ID:     uuid.New().String(),
		Type:   t,
		Sender: sender,
		Text:   text,
	}
}
