package usecase

import (
	"context"
	"strings"
	"time"

	"edubot/internal/domain"
	"edubot/internal/stream"

	"go.uber.org/zap"
)

type chatUsecase struct {
	gateway  domain.Gateway
	auth     domain.AuthUsecase
	revealer *stream.Revealer
	log      *zap.Logger
	now      func() time.Time
}

func NewChatUsecase(gw domain.Gateway, au domain.AuthUsecase, r *stream.Revealer, log *zap.Logger) domain.ChatUsecase {
	if r == nil {
		r = stream.New(0, 0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &chatUsecase{gateway: gw, auth: au, revealer: r, log: log, now: time.Now}
}

// ========== LISTINGS ==========
// Listing failures are logged and yield empty lists so a flaky gateway
// leaves the dashboard usable. A missing login is still an error.

func (uc *chatUsecase) Topics(ctx context.Context, class, subject string) ([]string, error) {
	token, err := uc.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	if class == "" || subject == "" {
		return []string{}, nil
	}
	topics, err := uc.gateway.Topics(ctx, token, class, subject)
	if err != nil {
		uc.log.Warn("topics unavailable", zap.String("class", class), zap.String("subject", subject), zap.Error(err))
		return []string{}, nil
	}
	return nonNil(topics), nil
}

func (uc *chatUsecase) Threads(ctx context.Context) ([]domain.Thread, error) {
	token, err := uc.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	threads, err := uc.gateway.HomeThreads(ctx, token)
	if err != nil {
		uc.log.Warn("threads unavailable", zap.Error(err))
		return []domain.Thread{}, nil
	}
	return nonNil(threads), nil
}

func (uc *chatUsecase) Messages(ctx context.Context, threadID string) ([]domain.Message, error) {
	token, err := uc.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := uc.gateway.ThreadMessages(ctx, token, threadID)
	if err != nil {
		uc.log.Warn("messages unavailable", zap.String("thread_id", threadID), zap.Error(err))
		return []domain.Message{}, nil
	}
	return nonNil(msgs), nil
}

// ========== THREADS ==========

func (uc *chatUsecase) CreateThread(ctx context.Context, form domain.ThreadForm) (*domain.Thread, error) {
	form.Topic = strings.TrimSpace(form.Topic)
	if err := validateThread(form); err != nil {
		return nil, err
	}
	token, err := uc.auth.Token(ctx)
	if err != nil {
		return nil, err
	}

	id, err := uc.gateway.CreateThread(ctx, token, form)
	if err != nil {
		return nil, userFacing(err, "Failed to create thread")
	}

	now := uc.now().UTC()
	uc.log.Info("thread created", zap.String("thread_id", id), zap.String("topic", form.Topic))
	return &domain.Thread{
		ThreadID:    id,
		Class:       form.Class,
		Subject:     form.Subject,
		Topic:       form.Topic,
		CreatedAt:   now,
		LastUpdated: now,
	}, nil
}

// Ask sends question on thread. When onUpdate is set the answer is replayed
// through it word by word before Ask returns. If ctx ends during the replay
// the full answer is still returned.
func (uc *chatUsecase) Ask(ctx context.Context, thread domain.Thread, question string, onUpdate func(string)) (string, error) {
	token, err := uc.auth.Token(ctx)
	if err != nil {
		return "", err
	}

	answer, err := uc.gateway.Query(ctx, token, domain.Query{
		ThreadID: thread.ThreadID,
		Question: question,
		Class:    thread.Class,
		Subject:  thread.Subject,
		Topic:    thread.Topic,
	})
	if err != nil {
		return "", err
	}
	if answer == "" {
		answer = domain.NoAnswer
	}

	if onUpdate != nil {
		if err := uc.revealer.Reveal(ctx, answer, onUpdate); err != nil {
			uc.log.Debug("reveal interrupted", zap.String("thread_id", thread.ThreadID), zap.Error(err))
		}
	}
	return answer, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
