package domain

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
	// RoleUser is what a stored profile without any role resolves to.
	RoleUser Role = "USER"
)

// Profile is the user data kept in the session store after login.
type Profile struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Phone    string `json:"phone,omitempty"`
	Sub      string `json:"sub,omitempty"`
	Username string `json:"username,omitempty"`
}

// SignupRequest is the payload sent to signup_handler_CB.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Class    string `json:"class"`
	Role     Role   `json:"role"`
}

// LoginResult is the token bundle returned by Login_handler_CB. The gateway
// has shipped several spellings of the id token field over time.
type LoginResult struct {
	IDToken      string         `json:"id_token"`
	IDTokenCamel string         `json:"idToken"`
	Token        string         `json:"token"`
	AccessToken  string         `json:"access_token"`
	AccessCamel  string         `json:"accessToken"`
	RefreshToken string         `json:"refresh_token"`
	User         map[string]any `json:"user"`
}

// SessionToken returns the token used for Authorization headers.
func (r LoginResult) SessionToken() string {
	for _, t := range []string{r.IDToken, r.IDTokenCamel, r.Token, r.AccessCamel} {
		if t != "" {
			return t
		}
	}
	return ""
}

type SourceType string

const (
	SourcePDF SourceType = "pdf"
	SourceWeb SourceType = "web"
)

// Upload is the Admin_Module_CB payload. FileContent is nil for web sources.
type Upload struct {
	Class         string     `json:"class"`
	Subject       string     `json:"subject"`
	Topic         string     `json:"topic"`
	SourceType    SourceType `json:"source_type"`
	URLOrFilename string     `json:"url_or_filename"`
	FileContent   *string    `json:"file_content"`
}

// UploadRecord is one row of the admin upload history. The gateway decides
// the columns, so rows stay schemaless.
type UploadRecord map[string]any

// Field returns the value under key formatted for display, or "".
func (r UploadRecord) Field(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Thread is a conversation tied to a (class, subject, topic) triple.
type Thread struct {
	ThreadID    string    `json:"thread_id"`
	Class       string    `json:"class"`
	Subject     string    `json:"subject"`
	Topic       string    `json:"topic"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// Updated returns the most relevant timestamp for display.
func (t Thread) Updated() time.Time {
	if !t.LastUpdated.IsZero() {
		return t.LastUpdated
	}
	return t.CreatedAt
}

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

type Message struct {
	ID        string    `json:"id,omitempty"`
	Sender    Sender    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Streaming bool      `json:"-"`
}

// Query is the User_Query_CB payload.
type Query struct {
	ThreadID string `json:"thread_id"`
	Question string `json:"question"`
	Class    string `json:"class"`
	Subject  string `json:"subject"`
	Topic    string `json:"topic"`
}

// NoAnswer is substituted when the gateway answers without any text.
const NoAnswer = "No response received from the AI."

// ========== FORMS ==========

type SignupForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
	Class           string
	Role            Role
	AcceptTerms     bool
}

type LoginForm struct {
	Email    string
	Password string
}

// UploadForm carries either a local PDF path or a web URL.
type UploadForm struct {
	Class      string
	Subject    string
	Topic      string
	SourceType SourceType
	FilePath   string
	URL        string
}

type ThreadForm struct {
	Class   string
	Subject string
	Topic   string
}
