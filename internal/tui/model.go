// Package tui is the terminal version of the student dashboard: a thread
// list, the open transcript and an input line.
package tui

import (
	"context"

	"edubot/internal/domain"
	"edubot/internal/stream"
	"edubot/internal/usecase"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
)

type focus int

const (
	focusThreads focus = iota
	focusInput
)

type mode int

const (
	modeChat mode = iota
	modeNewThread
)

const (
	threadPanelWidth = 32
	headerHeight     = 1
	inputHeight      = 3
	footerHeight     = 1
)

// ========== MESSAGES ==========

type threadsLoadedMsg struct {
	threads []domain.Thread
	err     error
}

type messagesLoadedMsg struct {
	threadID string
	msgs     []domain.Message
	err      error
}

type answerMsg struct {
	pending usecase.PendingSend
	answer  string
	err     error
}

// reveal is one replay in flight.
type reveal struct {
	pending  usecase.PendingSend
	answer   string
	partials <-chan string
	errc     <-chan error
}

type partialMsg struct {
	r    *reveal
	text string
}

type revealDoneMsg struct {
	r   *reveal
	err error
}

type topicsLoadedMsg struct {
	class, subject string
	topics         []string
	err            error
}

type threadCreatedMsg struct {
	thread *domain.Thread
	err    error
}

type darkModeMsg struct {
	on  bool
	err error
}

// ========== MODEL ==========

type Deps struct {
	Chat     domain.ChatUsecase
	Auth     domain.AuthUsecase
	Revealer *stream.Revealer
	Log      *zap.Logger
	Profile  *domain.Profile
	Dark     bool
}

type Model struct {
	ctx      context.Context
	chat     domain.ChatUsecase
	auth     domain.AuthUsecase
	dash     *usecase.Dashboard
	revealer *stream.Revealer
	log      *zap.Logger
	profile  *domain.Profile

	keys     keyMap
	help     help.Model
	styles   Styles
	renderer *glamour.TermRenderer
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	focus  focus
	mode   mode
	form   threadForm
	cursor int
	status string

	width  int
	height int
	ready  bool
}

func New(ctx context.Context, d Deps) Model {
	if d.Revealer == nil {
		d.Revealer = stream.New(0, 0)
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question... (enter to send)"
	ti.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		chat:     d.Chat,
		auth:     d.Auth,
		dash:     usecase.NewDashboard(d.Chat),
		revealer: d.Revealer,
		log:      d.Log,
		profile:  d.Profile,
		keys:     defaultKeys(),
		help:     help.New(),
		viewport: viewport.New(80, 20),
		input:    ti,
		spinner:  sp,
		form:     newThreadForm(),
	}
	m.setTheme(d.Dark)
	return m
}

func (m *Model) setTheme(dark bool) {
	m.styles = NewStyles(ThemeFor(dark))
	m.spinner.Style = m.styles.AILabel
	m.renderer = m.newRenderer()
}

func (m Model) newRenderer() *glamour.TermRenderer {
	width := m.viewport.Width - 2
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.styles.Theme.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.log.Warn("markdown renderer unavailable", zap.Error(err))
		return nil
	}
	return r
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadThreads(), m.spinner.Tick, textinput.Blink)
}

// ========== COMMANDS ==========

func (m Model) loadThreads() tea.Cmd {
	return func() tea.Msg {
		threads, err := m.chat.Threads(m.ctx)
		return threadsLoadedMsg{threads: threads, err: err}
	}
}

func (m Model) loadMessages(threadID string) tea.Cmd {
	return func() tea.Msg {
		msgs, err := m.chat.Messages(m.ctx, threadID)
		return messagesLoadedMsg{threadID: threadID, msgs: msgs, err: err}
	}
}

func (m Model) ask(p usecase.PendingSend) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.chat.Ask(m.ctx, p.Thread, p.Question, nil)
		return answerMsg{pending: p, answer: answer, err: err}
	}
}

func (m Model) startReveal(p usecase.PendingSend, answer string) tea.Cmd {
	partials, errc := m.revealer.Chunks(m.ctx, answer)
	return waitForPartial(&reveal{pending: p, answer: answer, partials: partials, errc: errc})
}

// waitForPartial blocks until the next revealed prefix or the end of the
// replay.
func waitForPartial(r *reveal) tea.Cmd {
	return func() tea.Msg {
		if text, ok := <-r.partials; ok {
			return partialMsg{r: r, text: text}
		}
		return revealDoneMsg{r: r, err: <-r.errc}
	}
}

func (m Model) loadTopics(class, subject string) tea.Cmd {
	return func() tea.Msg {
		topics, err := m.chat.Topics(m.ctx, class, subject)
		return topicsLoadedMsg{class: class, subject: subject, topics: topics, err: err}
	}
}

func (m Model) createThread(form domain.ThreadForm) tea.Cmd {
	return func() tea.Msg {
		th, err := m.chat.CreateThread(m.ctx, form)
		return threadCreatedMsg{thread: th, err: err}
	}
}

func (m Model) toggleDark() tea.Cmd {
	return func() tea.Msg {
		on, err := m.auth.ToggleDarkMode(m.ctx)
		return darkModeMsg{on: on, err: err}
	}
}

// ========== UPDATE ==========

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		if m.mode == modeNewThread {
			return m.updateForm(msg)
		}
		return m.updateChat(msg)

	case threadsLoadedMsg:
		if msg.err != nil {
			m.status = domain.UserMessage(msg.err, "Failed to load threads")
			return m, nil
		}
		m.dash.SetThreads(msg.threads)
		m.cursor = min(m.cursor, max(len(msg.threads)-1, 0))
		return m, nil

	case messagesLoadedMsg:
		m.dash.FinishSelect(msg.threadID, msg.msgs, msg.err)
		m.refreshTranscript(true)
		return m, nil

	case answerMsg:
		if msg.err != nil {
			m.dash.FinishSend(msg.pending, "", msg.err)
			m.input.SetValue(m.dash.State().Input)
			m.refreshTranscript(true)
			return m, nil
		}
		return m, m.startReveal(msg.pending, msg.answer)

	case partialMsg:
		m.dash.Stream(msg.r.pending, msg.text)
		m.refreshTranscript(true)
		return m, waitForPartial(msg.r)

	case revealDoneMsg:
		if msg.err != nil {
			m.log.Debug("reveal stopped", zap.Error(msg.err))
		}
		m.dash.FinishSend(msg.r.pending, msg.r.answer, nil)
		m.refreshTranscript(true)
		return m, nil

	case topicsLoadedMsg:
		if m.mode != modeNewThread || msg.class != m.form.class() || msg.subject != m.form.subject() {
			return m, nil
		}
		m.form.loading = false
		m.form.topics = msg.topics
		m.form.topicIdx = 0
		if msg.err != nil {
			m.status = domain.UserMessage(msg.err, "Failed to load topics")
		}
		return m, nil

	case threadCreatedMsg:
		m.form.loading = false
		if msg.err != nil {
			m.status = domain.UserMessage(msg.err, "Failed to create thread")
			return m, nil
		}
		m.mode = modeChat
		m.form = newThreadForm()
		m.dash.AddThread(*msg.thread)
		m.cursor = 0
		m.status = "Thread created: " + msg.thread.Topic
		return m.open(*msg.thread)

	case darkModeMsg:
		if msg.err != nil {
			m.status = domain.UserMessage(msg.err, "Could not save the theme")
			return m, nil
		}
		m.setTheme(msg.on)
		m.refreshTranscript(false)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Tab) {
		m.toggleFocus()
		return m, nil
	}

	if m.focus == focusInput {
		switch {
		case key.Matches(msg, m.keys.Enter):
			return m.send()
		case key.Matches(msg, m.keys.Back):
			m.toggleFocus()
			return m, nil
		case msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.dash.SetInput(m.input.Value())
		return m, cmd
	}

	threads := m.dash.State().Threads
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(threads)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Enter):
		if m.cursor < len(threads) {
			return m.open(threads[m.cursor])
		}
	case key.Matches(msg, m.keys.NewThread):
		m.mode = modeNewThread
		m.form = newThreadForm()
		m.status = ""
	case key.Matches(msg, m.keys.Dark):
		return m, m.toggleDark()
	case key.Matches(msg, m.keys.Refresh):
		m.status = ""
		return m, m.loadThreads()
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.mode = modeChat
		m.form = newThreadForm()
		return m, nil
	}
	if m.form.loading {
		return m, nil
	}

	switch {
	case msg.Type == tea.KeyUp:
		m.form.move(-1)
		return m, nil
	case msg.Type == tea.KeyDown:
		m.form.move(1)
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		switch m.form.step {
		case stepClass:
			m.form.step = stepSubject
		case stepSubject:
			m.form.step = stepTopic
			m.form.loading = true
			m.form.custom.Focus()
			return m, m.loadTopics(m.form.class(), m.form.subject())
		case stepTopic:
			m.form.loading = true
			return m, m.createThread(m.form.value())
		}
		return m, nil
	}

	if m.form.step == stepTopic {
		var cmd tea.Cmd
		m.form.custom, cmd = m.form.custom.Update(msg)
		return m, cmd
	}
	if key.Matches(msg, m.keys.Up) {
		m.form.move(-1)
	} else if key.Matches(msg, m.keys.Down) {
		m.form.move(1)
	}
	return m, nil
}

// open selects thread and starts loading its transcript.
func (m Model) open(thread domain.Thread) (tea.Model, tea.Cmd) {
	m.dash.BeginSelect(thread)
	m.refreshTranscript(false)
	m.focus = focusInput
	m.input.Focus()
	return m, m.loadMessages(thread.ThreadID)
}

func (m Model) send() (tea.Model, tea.Cmd) {
	m.dash.SetInput(m.input.Value())
	p, ok := m.dash.BeginSend()
	if !ok {
		return m, nil
	}
	m.input.Reset()
	m.refreshTranscript(true)
	return m, m.ask(p)
}

func (m *Model) toggleFocus() {
	if m.focus == focusThreads {
		m.focus = focusInput
		m.input.Focus()
		return
	}
	m.focus = focusThreads
	m.input.Blur()
}

func (m *Model) resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	m.width, m.height = w, h
	m.ready = true

	chatWidth := max(w-threadPanelWidth-4, 20)
	m.viewport.Width = chatWidth
	m.viewport.Height = max(h-headerHeight-inputHeight-footerHeight-4, 3)
	m.input.Width = chatWidth - 4
	m.help.Width = w
	m.renderer = m.newRenderer()
	m.refreshTranscript(false)
}

func (m *Model) refreshTranscript(follow bool) {
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
}
