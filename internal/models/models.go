// Package models defines the view-models the agent7 client decodes from the
// Agent7 server. The client never holds authoritative copies of these.
package models

import "time"

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task types accepted by the server.
const (
	TaskTypePlanning = "planning"
	TaskTypeCoding   = "coding"
	TaskTypeTesting  = "testing"
)

// Status is the system status snapshot returned by GET /api/status.
type Status struct {
	LocalLLMAvailable bool    `json:"local_llm_available"`
	ClaudeAvailable   bool    `json:"claude_available"`
	CurrentProjectDir *string `json:"current_project_dir"`
	CurrentProjectID  *int64  `json:"current_project_id"`
	ExecutionActive   bool    `json:"execution_active"`
	TotalProjects     int     `json:"total_projects"`
	TotalTasks        int     `json:"total_tasks"`
	PendingTasks      int     `json:"pending_tasks"`
	ScheduledTasks    int     `json:"scheduled_tasks"`
}

// Task is a unit of work tracked by the server.
type Task struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TaskType    string     `json:"task_type"`
	Status      TaskStatus `json:"status"`
	Priority    int        `json:"priority"`
	CreatedAt   string     `json:"created_at,omitempty"`
	UpdatedAt   string     `json:"updated_at,omitempty"`
}

// Result is one recorded outcome of a task execution.
type Result struct {
	ResultType string `json:"result_type"`
	CreatedAt  string `json:"created_at"`
	Content    string `json:"content"`
}

// FileModification records a file touched while executing a task.
type FileModification struct {
	Filepath string `json:"filepath"`
	Action   string `json:"action"`
}

// TaskDetail is the payload of GET /api/tasks/{id}.
type TaskDetail struct {
	Task              Task               `json:"task"`
	Results           []Result           `json:"results"`
	FileModifications []FileModification `json:"file_modifications"`
}

// Stats holds aggregate task counts.
type Stats struct {
	TotalTasks int            `json:"total_tasks"`
	Pending    int            `json:"pending"`
	InProgress int            `json:"in_progress"`
	Completed  int            `json:"completed"`
	Failed     int            `json:"failed"`
	ByType     map[string]int `json:"by_type,omitempty"`
}

// FileEntry is a file inside the selected project directory.
type FileEntry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size,omitempty"`
	Modified string `json:"modified,omitempty"`
}

// Project is a server-tracked workspace.
type Project struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// NewTask is the body of POST /api/tasks.
type NewTask struct {
	ProjectID   int64  `json:"project_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	TaskType    string `json:"task_type"`
	Priority    int    `json:"priority"`
}

// ChatAction is the outcome of one action the chat agent performed.
type ChatAction struct {
	Success  bool   `json:"success"`
	Action   string `json:"action"`
	TaskID   int64  `json:"task_id,omitempty"`
	Title    string `json:"title,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Note     string `json:"note,omitempty"`
	Execute  bool   `json:"execute,omitempty"`
	Executed bool   `json:"executed,omitempty"`
}

// ChatReply is the payload of POST /api/chat.
type ChatReply struct {
	Success  bool         `json:"success"`
	Response string       `json:"response"`
	Actions  []ChatAction `json:"actions"`
	Error    string       `json:"error,omitempty"`
}

// ChatMessageType classifies entries of the chat log.
type ChatMessageType string

const (
	ChatMessageUser      ChatMessageType = "user"
	ChatMessageAssistant ChatMessageType = "assistant"
	ChatMessageSystem    ChatMessageType = "system"
	ChatMessageAction    ChatMessageType = "action"
)

// ChatMessage is one rendered chat log entry.
type ChatMessage struct {
	ID     string          `json:"id"`
	Type   ChatMessageType `json:"type"`
	Sender string          `json:"sender"`
	Text   string          `json:"text"`
}

// RecentProject is a project directory remembered by the local store.
type RecentProject struct {
	Directory      string    `json:"directory"`
	ProjectID      int64     `json:"project_id"`
	LastSelectedAt time.Time `json:"last_selected_at"`
	TimesSelected  int       `json:"times_selected"`
}
