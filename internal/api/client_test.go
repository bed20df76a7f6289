package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fentz26/agent7/internal/models"
)

func TestListTasks_ProjectFilter(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tasks" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]models.Task{{ID: 1, Title: "One", Status: models.TaskStatusPending}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	id := int64(7)
	tasks, err := c.ListTasks(context.Background(), TaskFilter{ProjectID: &id})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if gotQuery != "project_id=7" {
		t.Errorf("Expected query project_id=7, got %q", gotQuery)
	}
	if len(tasks) != 1 || tasks[0].Title != "One" {
		t.Errorf("Unexpected tasks: %+v", tasks)
	}

	if _, err := c.ListTasks(context.Background(), TaskFilter{}); err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if gotQuery != "" {
		t.Errorf("Expected no query without filter, got %q", gotQuery)
	}
}

func TestStatus_NullProject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"local_llm_available":true,"current_project_dir":null,"current_project_id":null,"execution_active":false}`))
	}))
	defer srv.Close()

	status, err := NewClient(srv.URL, 0).Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.LocalLLMAvailable {
		t.Error("Expected LLM available")
	}
	if status.CurrentProjectDir != nil || status.CurrentProjectID != nil {
		t.Error("Expected null project fields to decode as nil")
	}
}

func TestSend_ErrorStatusCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"Execution already in progress"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, 0).ExecuteTask(context.Background(), 3)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409, got %d", apiErr.StatusCode)
	}
	if Message(err) != "Execution already in progress" {
		t.Errorf("Unexpected message %q", Message(err))
	}
}

func TestSend_SuccessFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"LM Studio offline"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0).Chat(context.Background(), "hi")
	if err == nil {
		t.Fatal("Expected error for success:false")
	}
	if Message(err) != "LM Studio offline" {
		t.Errorf("Unexpected message %q", Message(err))
	}
}

func TestSend_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, 0).ResetChat(context.Background())
	if Message(err) != "boom" {
		t.Errorf("Expected raw body as message, got %q", Message(err))
	}
}

func TestDeleteTask_Method(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, 0).DeleteTask(context.Background(), 12); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if method != http.MethodDelete || path != "/api/task/12" {
		t.Errorf("Expected DELETE /api/task/12, got %s %s", method, path)
	}
}

func TestCreateTask_Body(t *testing.T) {
	var got models.NewTask
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(models.Task{ID: 9, Title: got.Title})
	}))
	defer srv.Close()

	task, err := NewClient(srv.URL, 0).CreateTask(context.Background(), models.NewTask{
		ProjectID: 2, Title: "T", Description: "D", TaskType: models.TaskTypeCoding, Priority: 1,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.ID != 9 {
		t.Errorf("Expected id 9, got %d", task.ID)
	}
	if got.ProjectID != 2 || got.TaskType != "coding" || got.Priority != 1 {
		t.Errorf("Unexpected request body: %+v", got)
	}
}
