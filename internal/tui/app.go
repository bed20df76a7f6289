// Package tui provides the interactive terminal UI for agent7.
package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/agent7/internal/config"
	"github.com/fentz26/agent7/internal/models"
	"github.com/fentz26/agent7/internal/poller"
	"github.com/fentz26/agent7/internal/push"
	"github.com/fentz26/agent7/internal/store"
	"github.com/fentz26/agent7/internal/ui"
	"github.com/rs/zerolog"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")
	cyanColor      = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	onlineStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	offlineStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(warningColor).
			Padding(1, 2)
)

type focusArea int

const (
	focusTasks focusArea = iota
	focusChat
	focusCommand
)

type mode int

const (
	modeMain mode = iota
	modeProject
	modeTaskForm
)

const chatHeight = 10

// Options configures the App.
type Options struct {
	Client ui.API
	Config *config.Config
	// Store remembers selected projects. It is optional.
	Store *store.Store
	Log   zerolog.Logger
}

// App is the main TUI application model.
type App struct {
	ctx     context.Context
	cfg     *config.Config
	log     zerolog.Logger
	ctrl    *ui.Controller
	store   *store.Store
	program *tea.Program

	doc         ui.Document
	tasks       *TaskListModel
	chat        *ChatModel
	cmdBar      *CmdBarModel
	form        *TaskFormModel
	suggestions *Suggestions
	project     textinput.Model
	output      viewport.Model

	recent    []models.RecentProject
	recentIdx int

	width   int
	height  int
	focus   focusArea
	mode    mode
	confirm *confirmMsg
	message string
}

// New creates a new TUI application.
func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	pi := textinput.New()
	pi.Placeholder = "/path/to/project"
	pi.CharLimit = 1024
	pi.Width = 60

	a := &App{
		ctx:         context.Background(),
		cfg:         cfg,
		log:         opts.Log,
		store:       opts.Store,
		tasks:       NewTaskListModel(),
		chat:        NewChatModel(),
		cmdBar:      NewCmdBarModel(),
		form:        NewTaskFormModel(),
		suggestions: NewSuggestions(),
		project:     pi,
		output:      viewport.New(80, 20),
	}

	var recorder ui.ProjectRecorder
	if opts.Store != nil {
		recorder = opts.Store
	}
	a.ctrl = ui.NewController(opts.Client, ui.Options{
		Prompter:      programPrompter{send: a.send},
		Recorder:      recorder,
		Log:           opts.Log,
		FileListLimit: cfg.FileListLimit,
		// Send from a new goroutine: changes made while Update runs would
		// otherwise block on the program's message loop.
		OnChange: func() { go a.send(docChangedMsg{}) },
	})
	a.syncDocument()
	return a
}

// Controller returns the controller driving the UI.
func (a *App) Controller() *ui.Controller { return a.ctrl }

// Run starts the TUI application with polling and the push subscription.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.ctx = ctx
	a.program = tea.NewProgram(a, tea.WithAltScreen())

	poll := poller.New(a.log, a.ctrl.PollJobs(a.cfg.StatusInterval(), a.cfg.StatsInterval())...)
	poll.Start()
	defer poll.Stop()

	go a.subscribe(ctx)

	_, err := a.program.Run()
	return err
}

func (a *App) send(msg tea.Msg) {
	if a.program != nil {
		a.program.Send(msg)
	}
}

// subscribe applies push events in arrival order and refreshes the parts they
// touch in the background.
func (a *App) subscribe(ctx context.Context) {
	url, err := a.cfg.PushURL()
	if err != nil {
		a.log.Error().Err(err).Msg("invalid push url")
		return
	}

	sub := push.NewSubscriber(url, a.cfg.ReconnectDelay(), a.log)
	err = sub.Run(ctx, func(evt push.Event) {
		if parts := a.ctrl.ApplyEvent(evt); len(parts) > 0 {
			go a.ctrl.RefreshAll(ctx, parts...)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.log.Warn().Err(err).Msg("push subscription stopped")
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.start(),
		a.loadRecent(),
	)
}

func (a *App) start() tea.Cmd {
	return func() tea.Msg {
		a.ctrl.Start(a.ctx)
		return nil
	}
}

func (a *App) loadRecent() tea.Cmd {
	if a.store == nil {
		return nil
	}
	return func() tea.Msg {
		recent, err := a.store.RecentProjects(a.ctx, 10)
		if err != nil {
			a.log.Warn().Err(err).Msg("failed to load recent projects")
			return nil
		}
		return recentLoadedMsg{recent}
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case docChangedMsg:
		a.syncDocument()
		return a, nil

	case alertMsg:
		a.message = msg.message
		return a, nil

	case confirmMsg:
		// One modal at a time; a confirmation arriving while another is
		// open is declined.
		if a.confirm != nil {
			msg.reply <- false
			a.message = "Cancelled: " + msg.question
			return a, nil
		}
		c := msg
		a.confirm = &c
		return a, nil

	case cmdResultMsg:
		if msg.message != "" {
			a.message = msg.message
		}
		return a, nil

	case filterSetMsg:
		a.tasks.SetFilter(msg.status)
		return a, nil

	case projectSelectedMsg:
		a.mode = modeMain
		a.project.Blur()
		a.project.SetValue("")
		a.message = "✓ Project selected: " + msg.directory
		return a, a.loadRecent()

	case taskCreatedMsg:
		a.form.Reset()
		a.mode = modeMain
		a.message = "✓ Task created"
		return a, nil

	case recentLoadedMsg:
		a.recent = msg.projects
		a.recentIdx = -1
		dirs := make([]string, len(a.recent))
		for i, p := range a.recent {
			dirs[i] = p.Directory
		}
		a.suggestions.SetProjects(dirs)
		return a, nil
	}

	return a, a.updateFocused(msg)
}

// updateFocused forwards non-key messages, such as cursor blinks, to the
// focused input.
func (a *App) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case a.mode == modeProject:
		a.project, cmd = a.project.Update(msg)
	case a.mode == modeTaskForm:
		_, cmd = a.form.Update(msg)
	case a.focus == focusCommand:
		cmd = a.cmdBar.Update(msg)
	case a.focus == focusChat:
		a.chat.composer, cmd = a.chat.composer.Update(msg)
	}
	return cmd
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	if a.confirm != nil {
		switch msg.String() {
		case "y", "Y", "enter":
			a.confirm.reply <- true
			a.confirm = nil
		case "n", "N", "esc":
			a.confirm.reply <- false
			a.confirm = nil
		}
		return nil
	}

	switch a.mode {
	case modeProject:
		return a.handleProjectKey(msg)
	case modeTaskForm:
		return a.handleFormKey(msg)
	}

	switch a.focus {
	case focusCommand:
		return a.handleCommandKey(msg)
	case focusChat:
		return a.handleChatKey(msg)
	default:
		return a.handleTasksKey(msg)
	}
}

func (a *App) handleProjectKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.mode = modeMain
		a.project.Blur()
		return nil

	case "up", "down":
		if len(a.recent) == 0 {
			return nil
		}
		if msg.String() == "down" {
			a.recentIdx = (a.recentIdx + 1) % len(a.recent)
		} else if a.recentIdx <= 0 {
			a.recentIdx = len(a.recent) - 1
		} else {
			a.recentIdx--
		}
		a.project.SetValue(a.recent[a.recentIdx].Directory)
		a.project.CursorEnd()
		return nil

	case "enter":
		dir := strings.TrimSpace(a.project.Value())
		return func() tea.Msg {
			if err := a.ctrl.SelectProject(a.ctx, dir); err != nil {
				return cmdResultMsg{""}
			}
			return projectSelectedMsg{dir}
		}
	}

	var cmd tea.Cmd
	a.project, cmd = a.project.Update(msg)
	return cmd
}

func (a *App) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "esc" {
		a.mode = modeMain
		return nil
	}

	submit, cmd := a.form.Update(msg)
	if !submit {
		return cmd
	}
	form := a.form.Values()
	return func() tea.Msg {
		if err := a.ctrl.CreateTask(a.ctx, form); err != nil {
			return cmdResultMsg{""}
		}
		return taskCreatedMsg{}
	}
}

func (a *App) handleCommandKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.cmdBar.Blur()
		a.suggestions.Update("")
		a.focus = focusTasks
		return nil

	case "up":
		a.suggestions.Prev()
		return nil

	case "down":
		a.suggestions.Next()
		return nil

	case "tab", "enter":
		if a.suggestions.IsVisible() {
			if selected := a.suggestions.Selected(); selected != nil {
				a.cmdBar.SetValue(selected.Text + " ")
				a.suggestions.Update("")
			}
			return nil
		}
		if msg.String() == "tab" {
			return nil
		}
		input := a.cmdBar.Submit()
		a.focus = focusTasks
		return a.cmdBar.Execute(a.ctx, a.ctrl, input, a.selectedID)
	}

	cmd := a.cmdBar.Update(msg)
	a.suggestions.Update(a.cmdBar.Value())
	return cmd
}

func (a *App) handleChatKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "tab":
		a.chat.Blur()
		a.focus = focusTasks
		return nil
	}

	text, submit, cmd := a.chat.HandleKey(msg)
	if !submit {
		return cmd
	}
	return func() tea.Msg {
		return resultFor(a.ctrl.SendChat(a.ctx, text), "")
	}
}

func (a *App) handleTasksKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab":
		a.focus = focusChat
		return a.chat.Focus()

	case ":", "/":
		a.focus = focusCommand
		cmd := a.cmdBar.Focus()
		if msg.String() == "/" {
			a.cmdBar.SetValue("/")
			a.suggestions.Update("/")
		}
		return cmd

	case "p":
		a.mode = modeProject
		a.recentIdx = -1
		return a.project.Focus()

	case "n":
		a.mode = modeTaskForm
		return a.form.Focus()

	case "x", "e":
		row := a.tasks.Selected()
		if row == nil {
			a.message = "No task selected"
			return nil
		}
		if row.ExecuteDisabled && !a.ctrl.State().ExecutionActive {
			a.message = fmt.Sprintf("Task %d is already in progress", row.ID)
			return nil
		}
		id := row.ID
		return func() tea.Msg {
			return resultFor(a.ctrl.ExecuteTask(a.ctx, id), "")
		}

	case "enter", "a", "d":
		row := a.tasks.Selected()
		if row == nil {
			a.message = "No task selected"
			return nil
		}
		verb := map[string]string{"enter": "details", "a": "archive", "d": "delete"}[msg.String()]
		return a.cmdBar.Execute(a.ctx, a.ctrl, fmt.Sprintf("%s %d", verb, row.ID), a.selectedID)

	case "f":
		status := a.tasks.CycleFilter()
		return func() tea.Msg {
			a.ctrl.SetStatusFilter(status)
			a.ctrl.RefreshTasks(a.ctx)
			return nil
		}

	case "r":
		return a.cmdBar.Execute(a.ctx, a.ctrl, "refresh", a.selectedID)

	case "l":
		return a.cmdBar.Execute(a.ctx, a.ctrl, "files", a.selectedID)

	case "c":
		return a.cmdBar.Execute(a.ctx, a.ctrl, "clear", a.selectedID)

	case "R":
		return a.cmdBar.Execute(a.ctx, a.ctrl, "reset", a.selectedID)

	case "q":
		return tea.Quit

	case "pgup", "pgdown":
		var cmd tea.Cmd
		a.output, cmd = a.output.Update(msg)
		return cmd
	}

	return a.tasks.Update(msg)
}

func (a *App) selectedID() int64 {
	if row := a.tasks.Selected(); row != nil {
		return row.ID
	}
	return 0
}

func (a *App) resize(w, h int) {
	a.width = w
	a.height = h

	leftW := w * 2 / 5
	contentH := max(h-chatHeight-8, 6)

	a.tasks.SetSize(leftW-2, max(contentH/2, 4))
	a.chat.SetSize(w, chatHeight)
	a.cmdBar.SetWidth(w - 6)
	a.form.SetWidth(leftW - 20)
	a.project.Width = leftW - 6
	a.output.Width = w - leftW - 4
	a.output.Height = contentH - 2
	a.syncDocument()
}

// syncDocument copies the controller's document into the view models.
func (a *App) syncDocument() {
	a.doc = a.ctrl.Snapshot()
	a.tasks.SetView(a.doc.Tasks)

	ids := make([]int64, len(a.doc.Tasks.Rows))
	for i, r := range a.doc.Tasks.Rows {
		ids[i] = r.ID
	}
	a.suggestions.SetTasks(ids)

	atBottom := a.output.AtBottom()
	content := strings.Join(a.doc.Output, "")
	if a.output.Width > 0 {
		content = lipgloss.NewStyle().Width(a.output.Width).Render(content)
	}
	a.output.SetContent(content)
	if atBottom {
		a.output.GotoBottom()
	}
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.renderHeader() + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 1)) + "\n")

	var left string
	switch a.mode {
	case modeProject:
		left = a.renderProjectPanel()
	case modeTaskForm:
		left = a.form.View()
	default:
		left = a.tasks.View() + "\n" + a.renderStats() + "\n" + a.renderFiles()
	}
	right := panelStyle.Render(sectionStyle.Render("📜 Output") + "\n" + a.output.View())

	if a.confirm != nil {
		right = modalStyle.Render("⚠️  " + a.confirm.question + "\n\n" + helpStyle.Render("y: confirm | n: cancel"))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right) + "\n")

	b.WriteString(a.chat.View(a.doc.Chat, a.focus == focusChat && a.mode == modeMain) + "\n")

	// Message bar
	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") || strings.HasPrefix(a.message, "Please") || strings.HasPrefix(a.message, "Another") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString(msgStyle.Render(a.message) + "\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString(a.cmdBar.View())
	if a.suggestions.IsVisible() && a.focus == focusCommand {
		b.WriteString("\n" + a.suggestions.Render(a.width))
	}
	b.WriteString("\n")

	b.WriteString(statusBarStyle.Width(max(a.width, 1)).Render(a.helpLine()))
	return b.String()
}

func (a *App) renderHeader() string {
	conn := offlineStyle.Render("○ OFFLINE")
	if a.doc.Connected {
		conn = onlineStyle.Render("● LIVE")
	}

	s := a.doc.Status
	llm := offlineStyle.Render("LLM " + s.LLM)
	if s.LLMOnline {
		llm = onlineStyle.Render("LLM " + s.LLM)
	}
	exec := lipgloss.NewStyle().Foreground(mutedColor).Render("⏸ " + s.Execution)
	if s.Running {
		exec = lipgloss.NewStyle().Foreground(warningColor).Bold(true).Render("▶ " + s.Execution)
	}
	project := lipgloss.NewStyle().Foreground(cyanColor).Render("📁 " + s.Project)

	return titleStyle.Render("🤖 Agent7") + "  " + conn + "  " + llm + "  " + exec + "  " + project
}

func (a *App) renderStats() string {
	st := a.doc.Stats
	line := fmt.Sprintf("📊 Total %d  ⏳ %d  🔄 %d  ✅ %d  ❌ %d", st.Total, st.Pending, st.InProgress, st.Completed, st.Failed)
	if len(st.ByType) > 0 {
		types := make([]string, 0, len(st.ByType))
		for t := range st.ByType {
			types = append(types, t)
		}
		sort.Strings(types)
		var parts []string
		for _, t := range types {
			parts = append(parts, fmt.Sprintf("%s:%d", t, st.ByType[t]))
		}
		line += "\n" + helpStyle.Render(strings.Join(parts, "  "))
	}
	return line
}

func (a *App) renderFiles() string {
	f := a.doc.Files
	var b strings.Builder
	b.WriteString(sectionStyle.Render("📂 Files") + "\n")
	if len(f.Rows) == 0 {
		b.WriteString("  " + helpStyle.Render(f.Empty))
		return b.String()
	}

	limit := max(a.height-chatHeight-8-a.tasks.list.Height()-6, 3)
	for i, r := range f.Rows {
		if i >= limit {
			b.WriteString(helpStyle.Render(fmt.Sprintf("  +%d more", len(f.Rows)-limit)) + "\n")
			break
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", r.Icon, r.Path))
	}
	if f.More {
		b.WriteString("  " + helpStyle.Render(ui.MoreIndicator))
	}
	return b.String()
}

func (a *App) renderProjectPanel() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("📁 Select Project") + "\n\n")
	b.WriteString(a.project.View() + "\n")
	if len(a.recent) > 0 {
		b.WriteString("\n" + helpStyle.Render("Recent:") + "\n")
		for i, p := range a.recent {
			prefix := "  "
			if i == a.recentIdx {
				prefix = "▶ "
			}
			b.WriteString(fmt.Sprintf("%s%s (#%d)\n", prefix, p.Directory, p.ProjectID))
		}
	}
	b.WriteString("\n" + helpStyle.Render("Enter:select | ↑↓:recent | Esc:cancel"))
	return panelStyle.Render(b.String())
}

func (a *App) helpLine() string {
	switch {
	case a.confirm != nil:
		return " y:confirm | n:cancel"
	case a.mode == modeProject:
		return " Enter:select | ↑↓:recent | Esc:back"
	case a.mode == modeTaskForm:
		return " Tab:next | Enter:create | Esc:back"
	case a.focus == focusChat:
		return " Ctrl+Enter/Ctrl+J:send | Enter:newline | Tab/Esc:back"
	case a.focus == focusCommand:
		return " Enter:run | Tab:complete | Esc:back"
	default:
		return fmt.Sprintf(" Tasks: %d | ↑↓:nav | x:exec | Enter:details | a:archive | d:delete | n:new | p:project | f:filter | l:files | c:clear | Tab:chat | ::cmd | q:quit",
			len(a.doc.Tasks.Rows))
	}
}

type docChangedMsg struct{}

type projectSelectedMsg struct {
	directory string
}

type taskCreatedMsg struct{}

type recentLoadedMsg struct {
	projects []models.RecentProject
}
