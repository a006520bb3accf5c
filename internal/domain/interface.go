package domain

import "context"

// Gateway is the remote API Gateway. All persistence, authentication and
// answer generation live behind it.
type Gateway interface {
	Signup(ctx context.Context, req SignupRequest) (map[string]any, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	VerifyOTP(ctx context.Context, email, code string) (map[string]any, error)
	UploadContent(ctx context.Context, token string, upload Upload) (map[string]any, error)
	UploadHistory(ctx context.Context, token string) ([]UploadRecord, error)
	Topics(ctx context.Context, token, class, subject string) ([]string, error)
	CreateThread(ctx context.Context, token string, form ThreadForm) (string, error)
	HomeThreads(ctx context.Context, token string) ([]Thread, error)
	ThreadMessages(ctx context.Context, token, threadID string) ([]Message, error)
	Query(ctx context.Context, token string, q Query) (string, error)
}

// SessionRepository replaces browser local storage.
type SessionRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// FileSource reads a local document and reports its sniffed MIME type.
type FileSource interface {
	Read(path string) (*LocalFile, error)
}

type LocalFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type AuthUsecase interface {
	Signup(ctx context.Context, form SignupForm) error
	VerifyOTP(ctx context.Context, email, otp string) error
	Login(ctx context.Context, form LoginForm) (*Profile, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*Profile, error)
	Token(ctx context.Context) (string, error)
	DarkMode(ctx context.Context) (bool, error)
	ToggleDarkMode(ctx context.Context) (bool, error)
}

type ContentUsecase interface {
	Upload(ctx context.Context, form UploadForm) (string, error)
	History(ctx context.Context) ([]UploadRecord, error)
}

type ChatUsecase interface {
	Topics(ctx context.Context, class, subject string) ([]string, error)
	Threads(ctx context.Context) ([]Thread, error)
	Messages(ctx context.Context, threadID string) ([]Message, error)
	CreateThread(ctx context.Context, form ThreadForm) (*Thread, error)
	Ask(ctx context.Context, thread Thread, question string, onUpdate func(partial string)) (string, error)
}
