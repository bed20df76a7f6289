package tui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fentz26/agent7/internal/api"
	"github.com/fentz26/agent7/internal/config"
	"github.com/rs/zerolog"
)

type requestLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *requestLog) add(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	call := r.Method + " " + r.URL.Path
	if r.URL.RawQuery != "" {
		call += "?" + r.URL.RawQuery
	}
	l.calls = append(l.calls, call)
}

func (l *requestLog) has(prefix string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func newTestApp(t *testing.T) (*App, *requestLog) {
	t.Helper()
	log := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		switch r.URL.Path {
		case "/api/chat":
			w.Write([]byte(`{"success":true,"response":"On it","actions":[]}`))
		case "/api/tasks":
			w.Write([]byte(`[{"id":1,"title":"Build","task_type":"coding","status":"pending"}]`))
		default:
			w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(srv.Close)

	app := New(Options{
		Client: api.NewClient(srv.URL, 0),
		Config: config.DefaultConfig(),
		Log:    zerolog.Nop(),
	})
	return app, log
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestChat_EnterInsertsNewlineCtrlJSubmits(t *testing.T) {
	app, log := newTestApp(t)

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	if app.focus != focusChat {
		t.Fatalf("Expected chat focus after Tab, got %v", app.focus)
	}

	app.Update(runes("hi"))
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := app.chat.Value(); got != "hi\n" {
		t.Errorf("Expected Enter to insert a newline, composer = %q", got)
	}
	if cmd != nil {
		cmd()
	}
	if log.has("POST /api/chat") {
		t.Fatal("Plain Enter must not send the message")
	}

	app.Update(runes("there"))
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyCtrlJ})
	if got := app.chat.Value(); got != "" {
		t.Errorf("Expected composer cleared on submit, got %q", got)
	}
	if cmd == nil {
		t.Fatal("Expected a send command on Ctrl+J")
	}
	cmd()

	if !log.has("POST /api/chat") {
		t.Error("Expected chat request after Ctrl+J")
	}
	chat := app.Controller().Snapshot().Chat
	if last := chat[len(chat)-1]; last.Text != "On it" {
		t.Errorf("Expected assistant reply last, got %+v", last)
	}
}

func TestChat_AltEnterSubmits(t *testing.T) {
	app, log := newTestApp(t)
	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app.Update(runes("go"))

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	if cmd == nil {
		t.Fatal("Expected a send command on Alt+Enter")
	}
	cmd()
	if !log.has("POST /api/chat") {
		t.Error("Expected chat request after Alt+Enter")
	}
}

func TestChat_BlankSubmitIgnored(t *testing.T) {
	app, log := newTestApp(t)
	app.Update(tea.KeyMsg{Type: tea.KeyTab})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlJ})
	if cmd != nil {
		cmd()
	}
	if log.has("POST /api/chat") {
		t.Error("Blank input must not be sent")
	}
}

func TestConfirmModal(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want bool
	}{
		{runes("y"), true},
		{tea.KeyMsg{Type: tea.KeyEnter}, true},
		{runes("n"), false},
		{tea.KeyMsg{Type: tea.KeyEsc}, false},
	}

	for _, tt := range tests {
		app, _ := newTestApp(t)
		reply := make(chan bool, 1)
		app.Update(confirmMsg{question: "Delete?", reply: reply})
		if !strings.Contains(app.View(), "Delete?") {
			t.Error("Expected the question in the view")
		}

		app.Update(tt.key)
		if got := <-reply; got != tt.want {
			t.Errorf("Key %q: expected %v, got %v", tt.key.String(), tt.want, got)
		}
		if app.confirm != nil {
			t.Error("Expected modal closed")
		}
	}
}

func TestConfirmModal_OverlappingRequestDeclined(t *testing.T) {
	app, _ := newTestApp(t)
	first := make(chan bool, 1)
	second := make(chan bool, 1)

	app.Update(confirmMsg{question: "Archive task 1?", reply: first})
	app.Update(confirmMsg{question: "Delete task 2?", reply: second})

	select {
	case got := <-second:
		if got {
			t.Error("Expected the overlapping confirmation declined")
		}
	default:
		t.Fatal("Overlapping confirmation was never answered")
	}
	if !strings.Contains(app.View(), "Archive task 1?") {
		t.Error("Expected the first question to stay open")
	}

	app.Update(runes("y"))
	select {
	case got := <-first:
		if !got {
			t.Error("Expected the first confirmation accepted")
		}
	default:
		t.Fatal("First confirmation was never answered")
	}
	if app.confirm != nil {
		t.Error("Expected modal closed")
	}
}

func TestProjectMode_EmptyDirectorySendsNothing(t *testing.T) {
	app, log := newTestApp(t)

	app.Update(runes("p"))
	if app.mode != modeProject {
		t.Fatalf("Expected project mode, got %v", app.mode)
	}
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Expected select command")
	}
	cmd()

	if log.has("POST /api/project/select") {
		t.Error("Empty directory must not be sent")
	}
	if app.mode != modeProject {
		t.Error("Expected to stay in project mode after a failed select")
	}
}

func TestFilterCycle(t *testing.T) {
	app, log := newTestApp(t)

	_, cmd := app.Update(runes("f"))
	if cmd == nil {
		t.Fatal("Expected refresh command")
	}
	cmd()

	if !log.has("GET /api/tasks?status=pending") {
		t.Errorf("Expected filtered task request, got %v", log.calls)
	}
}

func TestCommandBar_Suggestions(t *testing.T) {
	s := NewSuggestions()
	s.SetProjects([]string{"/work/api"})
	s.SetTasks([]int64{7})

	s.Update("/ex")
	if sel := s.Selected(); sel == nil || sel.Text != "exec" {
		t.Errorf("Expected exec suggestion, got %+v", sel)
	}

	s.Update("@")
	if !s.IsVisible() || len(s.filtered) != 2 {
		t.Errorf("Expected project and task references, got %+v", s.filtered)
	}

	s.Update("plain")
	if s.IsVisible() {
		t.Error("Suggestions must hide without a trigger character")
	}
}
