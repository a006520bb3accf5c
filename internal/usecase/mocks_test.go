package usecase

import (
	"context"
	"errors"
	"sync"

	"edubot/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Signup(ctx context.Context, req domain.SignupRequest) (map[string]any, error) {
	args := m.Called(ctx, req)
	return mapOrNil(args.Get(0)), args.Error(1)
}

func (m *MockGateway) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*domain.LoginResult)
	return res, args.Error(1)
}

func (m *MockGateway) VerifyOTP(ctx context.Context, email, code string) (map[string]any, error) {
	args := m.Called(ctx, email, code)
	return mapOrNil(args.Get(0)), args.Error(1)
}

func (m *MockGateway) UploadContent(ctx context.Context, token string, upload domain.Upload) (map[string]any, error) {
	args := m.Called(ctx, token, upload)
	return mapOrNil(args.Get(0)), args.Error(1)
}

func (m *MockGateway) UploadHistory(ctx context.Context, token string) ([]domain.UploadRecord, error) {
	args := m.Called(ctx, token)
	rows, _ := args.Get(0).([]domain.UploadRecord)
	return rows, args.Error(1)
}

func (m *MockGateway) Topics(ctx context.Context, token, class, subject string) ([]string, error) {
	args := m.Called(ctx, token, class, subject)
	topics, _ := args.Get(0).([]string)
	return topics, args.Error(1)
}

func (m *MockGateway) CreateThread(ctx context.Context, token string, form domain.ThreadForm) (string, error) {
	args := m.Called(ctx, token, form)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) HomeThreads(ctx context.Context, token string) ([]domain.Thread, error) {
	args := m.Called(ctx, token)
	threads, _ := args.Get(0).([]domain.Thread)
	return threads, args.Error(1)
}

func (m *MockGateway) ThreadMessages(ctx context.Context, token, threadID string) ([]domain.Message, error) {
	args := m.Called(ctx, token, threadID)
	msgs, _ := args.Get(0).([]domain.Message)
	return msgs, args.Error(1)
}

func (m *MockGateway) Query(ctx context.Context, token string, q domain.Query) (string, error) {
	args := m.Called(ctx, token, q)
	return args.String(0), args.Error(1)
}

func mapOrNil(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

type MockFileSource struct {
	mock.Mock
}

func (m *MockFileSource) Read(path string) (*domain.LocalFile, error) {
	args := m.Called(path)
	f, _ := args.Get(0).(*domain.LocalFile)
	return f, args.Error(1)
}

type MockChat struct {
	mock.Mock
}

func (m *MockChat) Topics(ctx context.Context, class, subject string) ([]string, error) {
	args := m.Called(ctx, class, subject)
	topics, _ := args.Get(0).([]string)
	return topics, args.Error(1)
}

func (m *MockChat) Threads(ctx context.Context) ([]domain.Thread, error) {
	args := m.Called(ctx)
	threads, _ := args.Get(0).([]domain.Thread)
	return threads, args.Error(1)
}

func (m *MockChat) Messages(ctx context.Context, threadID string) ([]domain.Message, error) {
	args := m.Called(ctx, threadID)
	msgs, _ := args.Get(0).([]domain.Message)
	return msgs, args.Error(1)
}

func (m *MockChat) CreateThread(ctx context.Context, form domain.ThreadForm) (*domain.Thread, error) {
	args := m.Called(ctx, form)
	th, _ := args.Get(0).(*domain.Thread)
	return th, args.Error(1)
}

func (m *MockChat) Ask(ctx context.Context, thread domain.Thread, question string, onUpdate func(string)) (string, error) {
	args := m.Called(ctx, thread, question)
	if onUpdate != nil && args.String(0) != "" {
		onUpdate(args.String(0))
	}
	return args.String(0), args.Error(1)
}

// memSession is an in-memory domain.SessionRepository.
type memSession struct {
	mu   sync.Mutex
	data map[string]string
	// failOn makes Set return an error for that key.
	failOn string
}

func newMemSession(kv ...string) *memSession {
	s := &memSession{data: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		s.data[kv[i]] = kv[i+1]
	}
	return s
}

func (s *memSession) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memSession) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == s.failOn {
		return errors.New("disk full")
	}
	s.data[key] = value
	return nil
}

func (s *memSession) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}
