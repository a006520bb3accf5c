package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"edubot/internal/domain"
	"edubot/internal/stream"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGateway only answers Query; the embedded interface is nil.
type MockGateway struct {
	mock.Mock
	domain.Gateway
}

func (m *MockGateway) Query(ctx context.Context, token string, q domain.Query) (string, error) {
	args := m.Called(ctx, token, q)
	return args.String(0), args.Error(1)
}

func bearer(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return "Bearer " + s
}

func newRouter(t *testing.T, gw domain.Gateway, apiBase string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(gw, stream.New(time.Nanosecond, time.Nanosecond), nil)
	r, err := InitRouter(h, RouterConfig{APIBaseURL: apiBase, AllowedOrigin: "http://localhost:5173"})
	require.NoError(t, err)
	return r
}

func TestHealthzAndCORS(t *testing.T) {
	r := newRouter(t, new(MockGateway), "https://gw.example.com/dev")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/getTopics", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestInitRouterRejectsBadBaseURL(t *testing.T) {
	_, err := InitRouter(NewHandler(new(MockGateway), nil, nil), RouterConfig{APIBaseURL: "not a url"})
	assert.Error(t, err)
}

func TestProxyStripsPrefix(t *testing.T) {
	var gotPath, gotQuery, gotOrigin, gotReferer, gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		gotOrigin, gotReferer = r.Header.Get("Origin"), r.Header.Get("Referer")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"threads":[]}`))
	}))
	defer upstream.Close()

	r := newRouter(t, new(MockGateway), upstream.URL+"/dev")
	req := httptest.NewRequest(http.MethodGet, "/api/getThreadMessages?thread_id=t1", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/dev/getThreadMessages", gotPath)
	assert.Equal(t, "thread_id=t1", gotQuery)
	assert.Equal(t, upstream.URL, gotOrigin)
	assert.Equal(t, upstream.URL+"/", gotReferer)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"threads":[]}`, w.Body.String())
}

func TestProxyError(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	base := upstream.URL
	upstream.Close()

	r := newRouter(t, new(MockGateway), base)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/User_Query_CB", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"Proxy error"}`, w.Body.String())
}

func TestStreamQueryAuth(t *testing.T) {
	r := newRouter(t, new(MockGateway), "https://gw.example.com")

	for _, header := range []string{"", "Token abc", "Bearer opaque"} {
		req := httptest.NewRequest(http.MethodPost, "/stream/query", strings.NewReader(`{}`))
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestStreamQueryRelaysReveal(t *testing.T) {
	gw := new(MockGateway)
	auth := bearer(t, jwt.MapClaims{"email": "asha@school.in", "custom:role": "STUDENT"})
	token := strings.TrimPrefix(auth, "Bearer ")
	gw.On("Query", mock.Anything, token, domain.Query{
		ThreadID: "t1", Question: "Why green?", Subject: "Biology",
	}).Return("Chlorophyll. Mostly.", nil)

	r := newRouter(t, gw, "https://gw.example.com")
	req := httptest.NewRequest(http.MethodPost, "/stream/query",
		strings.NewReader(`{"thread_id":"t1","question":"Why green?","subject":"Biology"}`))
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Equal(t, 2, strings.Count(body, "partial"))
	assert.Contains(t, body, `{"text":"Chlorophyll."}`)
	assert.Contains(t, body, `{"text":"Chlorophyll. Mostly."}`)
	assert.Contains(t, body, "done")
	assert.Contains(t, body, `{"answer":"Chlorophyll. Mostly."}`)
	assert.Less(t, strings.Index(body, "partial"), strings.Index(body, "done"))
	gw.AssertExpectations(t)
}

func TestStreamQueryErrors(t *testing.T) {
	gw := new(MockGateway)
	auth := bearer(t, jwt.MapClaims{"email": "a@b.c"})
	gw.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Return("", &domain.APIError{StatusCode: http.StatusForbidden, Message: "Forbidden"}).Once()
	gw.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Return("", domain.ErrUnreachable).Once()
	r := newRouter(t, gw, "https://gw.example.com")

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/stream/query", strings.NewReader(body))
		req.Header.Set("Authorization", auth)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send(`{"thread_id":"t1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Validation failed", resp["error"])

	w = send(`{"thread_id":"t1","question":"q"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = send(`{"thread_id":"t1","question":"q"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
