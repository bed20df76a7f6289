package ui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/agent7/internal/models"
	"github.com/fentz26/agent7/internal/push"
)

func TestSelectProject_EmptyDirectory(t *testing.T) {
	srv := newFakeServer(t)
	p := &recordingPrompter{}
	c := newTestController(t, srv, p)

	err := c.SelectProject(context.Background(), "")
	if !errors.Is(err, ErrEmptyDirectory) {
		t.Fatalf("Expected ErrEmptyDirectory, got %v", err)
	}
	if calls := srv.callList(); len(calls) != 0 {
		t.Errorf("Expected no requests, got %v", calls)
	}
	if alerts := p.alertList(); len(alerts) != 1 || alerts[0] != "Please enter a project directory" {
		t.Errorf("Unexpected alerts %v", alerts)
	}
}

func TestSelectProject_Success(t *testing.T) {
	srv := newFakeServer(t)
	srv.handle(http.MethodPost, "/api/project/select", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["directory"] != "/work/app" {
			t.Errorf("Unexpected directory %q", body["directory"])
		}
		w.Write([]byte(`{"success":true,"project_id":4,"project_dir":"/work/app"}`))
	})

	var recorded string
	c := NewController(newTestController(t, srv, nil).client, Options{
		Recorder: recorderFunc(func(ctx context.Context, dir string, id int64) error {
			recorded = dir
			return nil
		}),
	})

	if err := c.SelectProject(context.Background(), "/work/app"); err != nil {
		t.Fatalf("SelectProject failed: %v", err)
	}

	state := c.State()
	if state.CurrentProjectID == nil || *state.CurrentProjectID != 4 {
		t.Fatalf("Expected project 4, got %v", state.CurrentProjectID)
	}
	if recorded != "/work/app" {
		t.Errorf("Expected selection to be recorded, got %q", recorded)
	}
	for _, path := range []string{"/api/status", "/api/files", "/api/tasks"} {
		if srv.count(http.MethodGet, path) != 1 {
			t.Errorf("Expected one GET %s, calls: %v", path, srv.callList())
		}
	}

	found := false
	for _, call := range srv.callList() {
		if call == "GET /api/tasks?project_id=4" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected task list filtered by project, calls: %v", srv.callList())
	}
	if !outputContains(c.Snapshot(), "✅ Project selected: /work/app") {
		t.Error("Expected selection banner in output")
	}
}

func TestSelectProject_ServerError(t *testing.T) {
	srv := newFakeServer(t)
	srv.handle(http.MethodPost, "/api/project/select", errorHandler(http.StatusBadRequest, "Invalid directory"))
	p := &recordingPrompter{}
	c := newTestController(t, srv, p)

	if err := c.SelectProject(context.Background(), "/nope"); err == nil {
		t.Fatal("Expected error")
	}
	if c.State().HasProject() {
		t.Error("State must not change on failure")
	}
	if alerts := p.alertList(); len(alerts) != 1 || alerts[0] != "Error: Invalid directory" {
		t.Errorf("Unexpected alerts %v", alerts)
	}
	if srv.count(http.MethodGet, "/api/tasks") != 0 {
		t.Error("Expected no refresh after failure")
	}
}

func TestCreateTask_Validation(t *testing.T) {
	tests := []struct {
		name       string
		form       TaskForm
		hasProject bool
		wantErr    error
		wantAlert  string
	}{
		{"missing title", TaskForm{Description: "d"}, true, ErrMissingFields, "Please fill in title and description"},
		{"missing description", TaskForm{Title: "t"}, true, ErrMissingFields, "Please fill in title and description"},
		{"no project", TaskForm{Title: "t", Description: "d"}, false, ErrNoProject, "Please select a project first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeServer(t)
			p := &recordingPrompter{}
			c := newTestController(t, srv, p)
			if tt.hasProject {
				selectProject(t, srv, c, 1)
			}

			err := c.CreateTask(context.Background(), tt.form)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if n := srv.count(http.MethodPost, "/api/tasks"); n != 0 {
				t.Errorf("Expected no create request, got %d", n)
			}
			alerts := p.alertList()
			if len(alerts) == 0 || alerts[len(alerts)-1] != tt.wantAlert {
				t.Errorf("Expected alert %q, got %v", tt.wantAlert, alerts)
			}
		})
	}
}

func TestCreateTask_Success(t *testing.T) {
	srv := newFakeServer(t)
	var got models.NewTask
	srv.handle(http.MethodPost, "/api/tasks", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"id":10,"title":"Add login"}`))
	})
	c := newTestController(t, srv, &recordingPrompter{})
	selectProject(t, srv, c, 3)

	err := c.CreateTask(context.Background(), TaskForm{Title: "Add login", Description: "OAuth flow", Priority: 2})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if got.ProjectID != 3 || got.TaskType != models.TaskTypeCoding || got.Priority != 2 {
		t.Errorf("Unexpected request %+v", got)
	}
	if srv.count(http.MethodGet, "/api/tasks") != 1 || srv.count(http.MethodGet, "/api/stats") != 1 {
		t.Errorf("Expected tasks and stats refresh, calls: %v", srv.callList())
	}
	if !outputContains(c.Snapshot(), "✅ Task created: Add login") {
		t.Error("Expected creation line in output")
	}
}

func TestExecuteTask_RejectedWhileActive(t *testing.T) {
	srv := newFakeServer(t)
	srv.handle(http.MethodGet, "/api/status", jsonHandler(`{"current_project_dir":"/work/p","current_project_id":2,"execution_active":true}`))
	p := &recordingPrompter{}
	c := newTestController(t, srv, p)
	c.RefreshStatus(context.Background())

	if !c.State().ExecutionActive {
		t.Fatal("Expected status poll to set execution active")
	}

	err := c.ExecuteTask(context.Background(), 5)
	if !errors.Is(err, ErrExecutionActive) {
		t.Fatalf("Expected ErrExecutionActive, got %v", err)
	}
	if srv.count(http.MethodPost, "/api/execute/5") != 0 {
		t.Error("Expected no execute request")
	}
	if alerts := p.alertList(); len(alerts) != 1 || alerts[0] != "Another task is already executing" {
		t.Errorf("Unexpected alerts %v", alerts)
	}
}

func TestExecuteTask_RequiresProject(t *testing.T) {
	srv := newFakeServer(t)
	c := newTestController(t, srv, &recordingPrompter{})

	if err := c.ExecuteTask(context.Background(), 1); !errors.Is(err, ErrNoProject) {
		t.Fatalf("Expected ErrNoProject, got %v", err)
	}
	if len(srv.callList()) != 0 {
		t.Errorf("Expected no requests, got %v", srv.callList())
	}
}

func TestExecuteTask_SuccessDisablesEveryRow(t *testing.T) {
	srv := newFakeServer(t)
	srv.handle(http.MethodGet, "/api/tasks", jsonHandler(`[
		{"id":1,"title":"A","task_type":"coding","status":"pending","priority":0},
		{"id":2,"title":"B","task_type":"testing","status":"completed","priority":1}
	]`))
	srv.handle(http.MethodPost, "/api/execute/1", jsonHandler(`{"success":true,"message":"Execution started"}`))
	c := newTestController(t, srv, &recordingPrompter{})
	selectProject(t, srv, c, 1)

	for _, row := range c.Snapshot().Tasks.Rows {
		if row.ExecuteDisabled {
			t.Fatalf("Row %d should be executable before execution", row.ID)
		}
	}

	if err := c.ExecuteTask(context.Background(), 1); err != nil {
		t.Fatalf("ExecuteTask failed: %v", err)
	}
	if !c.State().ExecutionActive {
		t.Fatal("Expected execution active after successful execute")
	}

	c.RefreshTasks(context.Background())
	doc := c.Snapshot()
	if len(doc.Tasks.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(doc.Tasks.Rows))
	}
	for _, row := range doc.Tasks.Rows {
		if !row.ExecuteDisabled {
			t.Errorf("Row %d should be disabled while executing", row.ID)
		}
	}
	if doc.Status.Execution != "Running" {
		t.Errorf("Expected Running label, got %q", doc.Status.Execution)
	}
	if !outputContains(doc, "🚀 Executing task 1") {
		t.Error("Expected execution banner")
	}
}

func TestExecuteTask_ServerConflict(t *testing.T) {
	srv := newFakeServer(t)
	srv.handle(http.MethodPost, "/api/execute/1", errorHandler(http.StatusConflict, "Execution already in progress"))
	p := &recordingPrompter{}
	c := newTestController(t, srv, p)
	selectProject(t, srv, c, 1)

	if err := c.ExecuteTask(context.Background(), 1); err == nil {
		t.Fatal("Expected error")
	}
	if c.State().ExecutionActive {
		t.Error("State must not change on failure")
	}
	alerts := p.alertList()
	if len(alerts) == 0 || alerts[len(alerts)-1] != "Error: Execution already in progress" {
		t.Errorf("Unexpected alerts %v", alerts)
	}
}

func TestExecuteTask_OneRequestInFlight(t *testing.T) {
	srv := newFakeServer(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	srv.handle(http.MethodPost, "/api/execute/1", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.Write([]byte(`{"success":true}`))
	})
	p := &recordingPrompter{}
	c := newTestController(t, srv, p)
	selectProject(t, srv, c, 1)

	done := make(chan error, 1)
	go func() { done <- c.ExecuteTask(context.Background(), 1) }()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("Execute request never reached the server")
	}

	if err := c.ExecuteTask(context.Background(), 1); !errors.Is(err, ErrExecutionActive) {
		t.Errorf("Expected ErrExecutionActive while a request is in flight, got %v", err)
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("ExecuteTask failed: %v", err)
	}
	if n := srv.count(http.MethodPost, "/api/execute/1"); n != 1 {
		t.Errorf("Expected 1 execute request, got %d", n)
	}
	if !c.State().ExecutionActive {
		t.Error("Expected execution active")
	}
}

func TestExecuteTask_FailureAllowsRetry(t *testing.T) {
	srv := newFakeServer(t)
	srv.handle(http.MethodPost, "/api/execute/1", errorHandler(http.StatusInternalServerError, "boom"))
	c := newTestController(t, srv, &recordingPrompter{})
	selectProject(t, srv, c, 1)

	if err := c.ExecuteTask(context.Background(), 1); err == nil {
		t.Fatal("Expected error")
	}
	if err := c.ExecuteTask(context.Background(), 1); errors.Is(err, ErrExecutionActive) {
		t.Fatal("Failed request must release the execution slot")
	}
	if n := srv.count(http.MethodPost, "/api/execute/1"); n != 2 {
		t.Errorf("Expected 2 execute requests, got %d", n)
	}
}

func TestExecutionComplete_ClearsFlagAndRefreshes(t *testing.T) {
	srv := newFakeServer(t)
	srv.handle(http.MethodPost, "/api/execute/7", jsonHandler(`{"success":true}`))
	c := newTestController(t, srv, &recordingPrompter{})
	selectProject(t, srv, c, 1)

	if err := c.ExecuteTask(context.Background(), 7); err != nil {
		t.Fatalf("ExecuteTask failed: %v", err)
	}
	srv.reset()

	c.HandleEvent(context.Background(), push.Event{Name: push.EventExecutionComplete})

	if c.State().ExecutionActive {
		t.Error("Expected execution inactive after execution_complete")
	}
	if got := c.Snapshot().Status.Execution; got != "Idle" {
		t.Errorf("Expected Idle label, got %q", got)
	}
	if srv.count(http.MethodGet, "/api/tasks") != 1 || srv.count(http.MethodGet, "/api/stats") != 1 {
		t.Errorf("Expected tasks and stats re-fetch, calls: %v", srv.callList())
	}
}

func TestArchiveDelete_RequireConfirmation(t *testing.T) {
	ops := []struct {
		name   string
		method string
		path   string
		run    func(*Controller) error
	}{
		{"archive", http.MethodPost, "/api/task/3/archive", func(c *Controller) error { return c.ArchiveTask(context.Background(), 3) }},
		{"delete", http.MethodDelete, "/api/task/3", func(c *Controller) error { return c.DeleteTask(context.Background(), 3) }},
	}

	for _, op := range ops {
		t.Run(op.name+" declined", func(t *testing.T) {
			srv := newFakeServer(t)
			p := &recordingPrompter{answer: false}
			c := newTestController(t, srv, p)

			if err := op.run(c); !errors.Is(err, ErrNotConfirmed) {
				t.Fatalf("Expected ErrNotConfirmed, got %v", err)
			}
			if len(srv.callList()) != 0 {
				t.Errorf("Expected no requests, got %v", srv.callList())
			}
			if len(p.confirms) != 1 {
				t.Errorf("Expected one confirmation prompt, got %d", len(p.confirms))
			}
		})

		t.Run(op.name+" confirmed", func(t *testing.T) {
			srv := newFakeServer(t)
			srv.handle(op.method, op.path, jsonHandler(`{"success":true}`))
			c := newTestController(t, srv, &recordingPrompter{answer: true})

			if err := op.run(c); err != nil {
				t.Fatalf("%s failed: %v", op.name, err)
			}
			if srv.count(op.method, op.path) != 1 {
				t.Errorf("Expected one %s %s, calls: %v", op.method, op.path, srv.callList())
			}
			if srv.count(http.MethodGet, "/api/tasks") != 1 || srv.count(http.MethodGet, "/api/stats") != 1 {
				t.Errorf("Expected tasks and stats refresh, calls: %v", srv.callList())
			}
			if !outputContains(c.Snapshot(), "Task 3") {
				t.Error("Expected status line in output")
			}
		})

		t.Run(op.name+" failure logs inline", func(t *testing.T) {
			srv := newFakeServer(t)
			srv.handle(op.method, op.path, errorHandler(http.StatusNotFound, "Task not found"))
			p := &recordingPrompter{answer: true}
			c := newTestController(t, srv, p)

			if err := op.run(c); err == nil {
				t.Fatal("Expected error")
			}
			if len(p.alertList()) != 0 {
				t.Errorf("Expected no alert, got %v", p.alertList())
			}
			if !outputContains(c.Snapshot(), "❌ Failed to "+op.name+" task 3: Task not found") {
				t.Errorf("Expected inline error, output: %v", c.Snapshot().Output)
			}
		})
	}
}

func TestViewTaskDetails_AppendsBlock(t *testing.T) {
	srv := newFakeServer(t)
	content := strings.Repeat("x", 600)
	srv.handle(http.MethodGet, "/api/tasks/8", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.TaskDetail{
			Task:              models.Task{ID: 8, Title: "Refactor", TaskType: "coding", Status: models.TaskStatusCompleted, Description: "split files"},
			Results:           []models.Result{{ResultType: "code", CreatedAt: "2026-01-01 10:00:00", Content: content}},
			FileModifications: []models.FileModification{{Filepath: "main.py", Action: "modified"}},
		})
	})
	c := newTestController(t, srv, nil)

	if err := c.ViewTaskDetails(context.Background(), 8); err != nil {
		t.Fatalf("ViewTaskDetails failed: %v", err)
	}
	doc := c.Snapshot()
	if !outputContains(doc, "📋 Task Details: Refactor") {
		t.Error("Expected detail header")
	}
	if !outputContains(doc, strings.Repeat("x", 500)+"...") {
		t.Error("Expected truncated result content")
	}
	if !outputContains(doc, "  • main.py (modified)") {
		t.Error("Expected file modification line")
	}
}

func TestRefreshStatus_AdoptsServerProject(t *testing.T) {
	srv := newFakeServer(t)
	srv.handle(http.MethodGet, "/api/status", jsonHandler(`{"local_llm_available":false,"current_project_dir":"/srv/repo","current_project_id":12,"execution_active":false}`))
	c := newTestController(t, srv, nil)

	c.RefreshStatus(context.Background())

	state := c.State()
	if state.CurrentProjectID == nil || *state.CurrentProjectID != 12 {
		t.Fatalf("Expected project 12, got %v", state.CurrentProjectID)
	}
	status := c.Snapshot().Status
	if status.Project != "/srv/repo" || status.LLM != "❌ Offline" || status.Execution != "Idle" {
		t.Errorf("Unexpected status view %+v", status)
	}
}

func TestRefresh_ReadFailureKeepsStaleData(t *testing.T) {
	srv := newFakeServer(t)
	srv.handle(http.MethodGet, "/api/stats", jsonHandler(`{"total_tasks":4,"pending":1,"completed":2,"failed":1}`))
	c := newTestController(t, srv, nil)
	c.RefreshStats(context.Background())

	srv.handle(http.MethodGet, "/api/stats", errorHandler(http.StatusInternalServerError, "Database not initialized"))
	c.RefreshStats(context.Background())

	if got := c.Snapshot().Stats.Total; got != 4 {
		t.Errorf("Expected stale total 4 to remain, got %d", got)
	}
}

func TestRefreshTasks_DiscardsStaleResponse(t *testing.T) {
	srv := newFakeServer(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	first := true
	srv.handle(http.MethodGet, "/api/tasks", func(w http.ResponseWriter, r *http.Request) {
		srv.mu.Lock()
		slow := first
		first = false
		srv.mu.Unlock()
		if slow {
			close(entered)
			<-release
			w.Write([]byte(`[{"id":1,"title":"old","status":"pending"}]`))
			return
		}
		w.Write([]byte(`[{"id":2,"title":"new","status":"pending"}]`))
	})
	c := newTestController(t, srv, nil)

	done := make(chan struct{})
	go func() {
		c.RefreshTasks(context.Background())
		close(done)
	}()
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for first request")
	}

	c.RefreshTasks(context.Background())
	close(release)
	<-done

	rows := c.Snapshot().Tasks.Rows
	if len(rows) != 1 || rows[0].Title != "new" {
		t.Errorf("Expected last-issued response to win, got %+v", rows)
	}
}

func TestRefreshAll_DeduplicatesParts(t *testing.T) {
	srv := newFakeServer(t)
	c := newTestController(t, srv, nil)

	c.RefreshAll(context.Background(), PartTasks, PartStats, PartTasks)

	if srv.count(http.MethodGet, "/api/tasks") != 1 {
		t.Errorf("Expected one tasks request, calls: %v", srv.callList())
	}
}

func TestStart_RefreshesStatusTasksStats(t *testing.T) {
	srv := newFakeServer(t)
	c := newTestController(t, srv, nil)

	c.Start(context.Background())

	for _, path := range []string{"/api/status", "/api/tasks", "/api/stats"} {
		if srv.count(http.MethodGet, path) != 1 {
			t.Errorf("Expected one GET %s, calls: %v", path, srv.callList())
		}
	}
	if srv.count(http.MethodGet, "/api/files") != 0 {
		t.Error("Files are not part of the initial refresh")
	}
}

func TestPollJobs_Intervals(t *testing.T) {
	c := NewController(nil, Options{})
	jobs := c.PollJobs(5*time.Second, 10*time.Second)
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].Name != "status" || jobs[0].Interval != 5*time.Second {
		t.Errorf("Unexpected status job %+v", jobs[0])
	}
	if jobs[1].Name != "stats" || jobs[1].Interval != 10*time.Second {
		t.Errorf("Unexpected stats job %+v", jobs[1])
	}
}

func TestClearOutput(t *testing.T) {
	c := NewController(nil, Options{})
	c.AppendOutput("a\n", "b\n")
	c.ClearOutput()

	out := c.Snapshot().Output
	if len(out) != 1 || out[0] != "Output cleared." {
		t.Errorf("Unexpected output %v", out)
	}
}
