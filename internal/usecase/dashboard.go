package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"edubot/internal/domain"

	"github.com/google/uuid"
)

// DashboardState is a snapshot of the student dashboard.
type DashboardState struct {
	Threads  []domain.Thread
	Active   *domain.Thread
	Messages []domain.Message
	Input    string
	Sending  bool
	Loading  bool
	Error    string
}

// PendingSend is what a started send needs to finish: the query to run
// and the id of the AI placeholder to fill.
type PendingSend struct {
	Thread        domain.Thread
	Question      string
	PlaceholderID string
}

// Dashboard holds the student chat state: the thread list, the open
// transcript and the input box. Sends are optimistic; a failed send
// removes both new messages and puts the question back in the input.
type Dashboard struct {
	chat domain.ChatUsecase
	now  func() time.Time

	mu    sync.Mutex
	state DashboardState
}

func NewDashboard(chat domain.ChatUsecase) *Dashboard {
	return &Dashboard{chat: chat, now: time.Now}
}

// State returns a copy safe to read while sends are in flight.
func (d *Dashboard) State() DashboardState {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.state
	s.Threads = append([]domain.Thread(nil), d.state.Threads...)
	s.Messages = append([]domain.Message(nil), d.state.Messages...)
	if d.state.Active != nil {
		t := *d.state.Active
		s.Active = &t
	}
	return s
}

func (d *Dashboard) SetInput(v string) {
	d.mu.Lock()
	d.state.Input = v
	d.mu.Unlock()
}

func (d *Dashboard) mutate(fn func(s *DashboardState)) {
	d.mu.Lock()
	fn(&d.state)
	d.mu.Unlock()
}

// LoadThreads refreshes the thread list.
func (d *Dashboard) LoadThreads(ctx context.Context) error {
	d.mutate(func(s *DashboardState) { s.Error = "" })
	threads, err := d.chat.Threads(ctx)
	if err != nil {
		d.mutate(func(s *DashboardState) { s.Error = domain.UserMessage(err, "Failed to load threads") })
		return err
	}
	d.SetThreads(threads)
	return nil
}

func (d *Dashboard) SetThreads(threads []domain.Thread) {
	d.mutate(func(s *DashboardState) { s.Threads = threads })
}

// Select opens thread and loads its transcript.
func (d *Dashboard) Select(ctx context.Context, thread domain.Thread) error {
	d.BeginSelect(thread)
	msgs, err := d.chat.Messages(ctx, thread.ThreadID)
	d.FinishSelect(thread.ThreadID, msgs, err)
	return err
}

func (d *Dashboard) BeginSelect(thread domain.Thread) {
	d.mutate(func(s *DashboardState) {
		t := thread
		s.Active = &t
		s.Messages = nil
		s.Loading = true
		s.Error = ""
	})
}

// FinishSelect applies a transcript load, unless another thread has been
// opened in the meantime.
func (d *Dashboard) FinishSelect(threadID string, msgs []domain.Message, err error) {
	d.mutate(func(s *DashboardState) {
		if s.Active == nil || s.Active.ThreadID != threadID {
			return
		}
		s.Loading = false
		if err != nil {
			s.Error = domain.UserMessage(err, "Failed to load messages")
			return
		}
		s.Messages = msgs
	})
}

// AddThread puts a freshly created thread at the top of the list.
func (d *Dashboard) AddThread(thread domain.Thread) {
	d.mutate(func(s *DashboardState) {
		s.Threads = append([]domain.Thread{thread}, s.Threads...)
	})
}

// CreateThread creates, prepends and opens a new thread.
func (d *Dashboard) CreateThread(ctx context.Context, form domain.ThreadForm) (*domain.Thread, error) {
	thread, err := d.chat.CreateThread(ctx, form)
	if err != nil {
		return nil, err
	}
	d.AddThread(*thread)
	return thread, d.Select(ctx, *thread)
}

// BeginSend applies the optimistic update for the current input. ok is
// false when there is nothing to send, no open thread, or a send running.
func (d *Dashboard) BeginSend() (p PendingSend, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := &d.state
	if strings.TrimSpace(s.Input) == "" || s.Active == nil || s.Sending {
		return PendingSend{}, false
	}

	now := d.now().UTC()
	p = PendingSend{
		Thread:        *s.Active,
		Question:      s.Input,
		PlaceholderID: uuid.NewString(),
	}
	s.Messages = append(s.Messages,
		domain.Message{ID: uuid.NewString(), Sender: domain.SenderUser, Message: p.Question, Timestamp: now},
		domain.Message{ID: p.PlaceholderID, Sender: domain.SenderAI, Timestamp: now, Streaming: true},
	)
	s.Input = ""
	s.Sending = true
	s.Error = ""
	return p, true
}

// Stream replaces the placeholder text with partial.
func (d *Dashboard) Stream(p PendingSend, partial string) {
	d.mutate(func(s *DashboardState) {
		if m := findMessage(s.Messages, p.PlaceholderID); m != nil {
			m.Message = partial
		}
	})
}

// FinishSend settles a send. On success the placeholder gets the final
// answer; on failure both optimistic messages go and the input returns.
func (d *Dashboard) FinishSend(p PendingSend, answer string, err error) {
	d.mutate(func(s *DashboardState) {
		s.Sending = false
		if err != nil {
			s.Error = domain.UserMessage(err, "Failed to send message")
			s.Messages = dropPending(s.Messages, p.PlaceholderID)
			s.Input = p.Question
			return
		}
		if answer == "" {
			answer = "No response received."
		}
		if m := findMessage(s.Messages, p.PlaceholderID); m != nil {
			m.Message = answer
			m.Streaming = false
		}
	})
}

// Send runs a whole send synchronously, calling onUpdate with the growing
// answer. It reports whether anything was sent.
func (d *Dashboard) Send(ctx context.Context, onUpdate func(partial string)) (bool, error) {
	p, ok := d.BeginSend()
	if !ok {
		return false, nil
	}
	answer, err := d.chat.Ask(ctx, p.Thread, p.Question, func(partial string) {
		d.Stream(p, partial)
		if onUpdate != nil {
			onUpdate(partial)
		}
	})
	d.FinishSend(p, answer, err)
	return true, err
}

func findMessage(msgs []domain.Message, id string) *domain.Message {
	for i := range msgs {
		if msgs[i].ID == id {
			return &msgs[i]
		}
	}
	return nil
}

// dropPending removes the placeholder and the user message right before it.
func dropPending(msgs []domain.Message, placeholderID string) []domain.Message {
	for i := range msgs {
		if msgs[i].ID != placeholderID {
			continue
		}
		start := i
		if i > 0 && msgs[i-1].Sender == domain.SenderUser {
			start = i - 1
		}
		return append(msgs[:start:start], msgs[i+1:]...)
	}
	return msgs
}
