package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"edubot/internal/domain"

	"go.uber.org/zap"
)

const defaultTimeout = 60 * time.Second

type gatewayRepo struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewGatewayRepository returns a client for the API Gateway rooted at baseURL.
// A nil client gets a default with a 60s timeout.
func NewGatewayRepository(baseURL string, client *http.Client, log *zap.Logger) domain.Gateway {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &gatewayRepo{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log,
	}
}

// ========== TRANSPORT ==========

// call performs one request and returns the decoded response object.
func (r *gatewayRepo) call(ctx context.Context, method, endpoint, token string, payload any) (map[string]any, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", endpoint, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+"/"+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.log.Warn("gateway unreachable", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("%w (%s)", domain.ErrUnreachable, endpoint)
	}
	defer resp.Body.Close()

	data, err := processResponse(resp)
	r.log.Debug("gateway call",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	return data, err
}

// processResponse decodes JSON bodies, wraps text bodies as {"message": ...}
// and turns non-2xx answers into *domain.APIError.
func processResponse(resp *http.Response) (map[string]any, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	data := map[string]any{}
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		switch t := v.(type) {
		case map[string]any:
			data = t
		case []any:
			data["items"] = t
		default:
			data["message"] = t
		}
	} else if text := string(raw); text != "" {
		data["message"] = text
	} else {
		data["message"] = "No response data"
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := firstText(data, "message", "error", "errorMessage")
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return data, &domain.APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return data, nil
}

// ========== AUTH ==========

func (r *gatewayRepo) Signup(ctx context.Context, req domain.SignupRequest) (map[string]any, error) {
	return r.call(ctx, http.MethodPost, "signup_handler_CB", "", req)
}

func (r *gatewayRepo) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	data, err := r.call(ctx, http.MethodPost, "Login_handler_CB", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	var res domain.LoginResult
	if err := remarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	return &res, nil
}

func (r *gatewayRepo) VerifyOTP(ctx context.Context, email, code string) (map[string]any, error) {
	return r.call(ctx, http.MethodPost, "Verify_Password_CB", "", map[string]string{
		"email": email,
		"code":  code,
	})
}

// ========== ADMIN ==========

func (r *gatewayRepo) UploadContent(ctx context.Context, token string, upload domain.Upload) (map[string]any, error) {
	return r.call(ctx, http.MethodPost, "Admin_Module_CB", token, upload)
}

func (r *gatewayRepo) UploadHistory(ctx context.Context, token string) ([]domain.UploadRecord, error) {
	data, err := r.call(ctx, http.MethodGet, "Admin_Module_CB", token, nil)
	if err != nil {
		return nil, err
	}
	for _, key := range []string{"history", "uploads", "data", "items"} {
		if v := data[key]; v != nil {
			return decodeRows[domain.UploadRecord](r.log, "upload history", v)
		}
	}
	return nil, nil
}

// ========== THREADS ==========

func (r *gatewayRepo) Topics(ctx context.Context, token, class, subject string) ([]string, error) {
	data, err := r.call(ctx, http.MethodPost, "getTopics", token, map[string]string{
		"class":   class,
		"subject": subject,
	})
	if err != nil {
		return nil, err
	}
	return decodeRows[string](r.log, "topics", findList(data, "topics", "body"))
}

func (r *gatewayRepo) CreateThread(ctx context.Context, token string, form domain.ThreadForm) (string, error) {
	data, err := r.call(ctx, http.MethodPost, "createThread", token, map[string]string{
		"class":   form.Class,
		"subject": form.Subject,
		"topic":   form.Topic,
	})
	if err != nil {
		return "", err
	}
	if id := firstText(data, "thread_id"); id != "" {
		return id, nil
	}
	if body := envelope(data, "body"); body != nil {
		if id := firstText(body, "thread_id"); id != "" {
			return id, nil
		}
	}
	return "", errors.New("gateway did not return a thread id")
}

func (r *gatewayRepo) HomeThreads(ctx context.Context, token string) ([]domain.Thread, error) {
	data, err := r.call(ctx, http.MethodGet, "get_home_threads_CB", token, nil)
	if err != nil {
		return nil, err
	}
	return decodeRows[domain.Thread](r.log, "threads", findList(data, "threads", "message", "body"))
}

func (r *gatewayRepo) ThreadMessages(ctx context.Context, token, threadID string) ([]domain.Message, error) {
	endpoint := "getThreadMessages?thread_id=" + url.QueryEscape(threadID)
	data, err := r.call(ctx, http.MethodGet, endpoint, token, nil)
	if err != nil {
		return nil, err
	}
	return decodeRows[domain.Message](r.log, "messages", findList(data, "messages", "message", "body"))
}

func (r *gatewayRepo) Query(ctx context.Context, token string, q domain.Query) (string, error) {
	data, err := r.call(ctx, http.MethodPost, "User_Query_CB", token, q)
	if err != nil {
		return "", err
	}

	var answer string
	switch {
	case data["message"] != nil:
		if m := envelope(data, "message"); m != nil {
			answer = firstText(m, "answer")
		}
	case data["body"] != nil:
		if b := envelope(data, "body"); b != nil {
			answer = firstText(b, "answer")
		}
	default:
		answer = firstText(data, "answer")
	}
	if answer == "" {
		answer = domain.NoAnswer
	}
	return answer, nil
}

// ========== ENVELOPES ==========

// envelope returns data[key] as an object, decoding it first when the
// gateway shipped it as a JSON string. Nil when absent or not an object.
func envelope(data map[string]any, key string) map[string]any {
	switch v := data[key].(type) {
	case map[string]any:
		return v
	case string:
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil
		}
		return out
	}
	return nil
}

// findList finds a list named field in data, trying each wrapper key in
// order before the top level, then a bare array response. A wrapper that is
// not a JSON object is skipped rather than ending the search.
func findList(data map[string]any, field string, wrappers ...string) any {
	for _, w := range wrappers {
		if inner := envelope(data, w); inner != nil {
			if v, ok := inner[field]; ok {
				return v
			}
		}
	}
	if v, ok := data[field]; ok {
		return v
	}
	return data["items"]
}

// decodeRows decodes v as a list of T one row at a time. Rows that do not
// decode are logged and dropped; only a value that is not a list errors.
func decodeRows[T any](log *zap.Logger, what string, v any) ([]T, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("decode %s: expected a list, got %T", what, v)
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		var row T
		if err := remarshal(item, &row); err != nil {
			log.Warn("skipping undecodable row", zap.String("list", what), zap.Int("index", i), zap.Error(err))
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func remarshal(in, out any) error {
	if in == nil {
		return nil
	}
	buf, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, out)
}

func firstText(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
