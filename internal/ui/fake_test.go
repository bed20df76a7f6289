package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/fentz26/agent7/internal/api"
	"github.com/rs/zerolog"
)

// fakeServer is an Agent7 server stand-in that records every request.
type fakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	calls    []string
	handlers map[string]http.HandlerFunc
}

func newFakeServer(t *testing.T) *fakeServer {
	f := &fakeServer{handlers: map[string]http.HandlerFunc{
		"GET /api/status": jsonHandler(`{"local_llm_available":true,"current_project_dir":null,"current_project_id":null,"execution_active":false}`),
		"GET /api/tasks":  jsonHandler(`[]`),
		"GET /api/stats":  jsonHandler(`{"total_tasks":0,"pending":0,"completed":0,"failed":0}`),
		"GET /api/files":  jsonHandler(`[]`),
	}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeServer) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	call := key
	if r.URL.RawQuery != "" {
		call += "?" + r.URL.RawQuery
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	h, ok := f.handlers[key]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
		return
	}
	h(w, r)
}

func (f *fakeServer) handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method+" "+path] = h
}

// count returns how many requests matched method and path, ignoring queries.
func (f *fakeServer) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		base := strings.SplitN(c, "?", 2)[0]
		if base == method+" "+path {
			n++
		}
	}
	return n
}

func (f *fakeServer) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeServer) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func errorHandler(status int, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": msg})
	}
}

// recordingPrompter records alerts and confirmations.
type recordingPrompter struct {
	mu       sync.Mutex
	answer   bool
	alerts   []string
	confirms []string
}

func (p *recordingPrompter) Alert(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, msg)
}

func (p *recordingPrompter) Confirm(ctx context.Context, msg string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirms = append(p.confirms, msg)
	return p.answer
}

func (p *recordingPrompter) alertList() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.alerts...)
}

type recorderFunc func(ctx context.Context, dir string, id int64) error

func (f recorderFunc) RecordSelection(ctx context.Context, dir string, id int64) error {
	return f(ctx, dir, id)
}

func newTestController(t *testing.T, srv *fakeServer, p Prompter) *Controller {
	t.Helper()
	return NewController(api.NewClient(srv.URL, 0), Options{
		Prompter: p,
		Log:      zerolog.Nop(),
	})
}

// selectProject puts c into a state with project id selected.
func selectProject(t *testing.T, srv *fakeServer, c *Controller, id int64) {
	t.Helper()
	srv.handle(http.MethodPost, "/api/project/select", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "project_id": id, "project_dir": "/work/p"})
	})
	if err := c.SelectProject(context.Background(), "/work/p"); err != nil {
		t.Fatalf("SelectProject failed: %v", err)
	}
	srv.reset()
}

func outputContains(d Document, s string) bool {
	for _, line := range d.Output {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

func chatContains(d Document, s string) bool {
	for _, m := range d.Chat {
		if strings.Contains(m.Text, s) {
			return true
		}
	}
	return false
}
