package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"edubot/internal/domain"
	"edubot/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func idToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestLoginStoresSession(t *testing.T) {
	gw := new(MockGateway)
	sess := newMemSession()
	uc := NewAuthUsecase(gw, sess, nil)

	token := idToken(t, jwt.MapClaims{"email": "asha@school.in", "name": "Asha", "custom:role": "ADMIN"})
	gw.On("Login", mock.Anything, "asha@school.in", "longenough").Return(&domain.LoginResult{
		IDToken:      token,
		AccessToken:  "acc",
		RefreshToken: "ref",
		User:         map[string]any{"phone": "+911234567890"},
	}, nil).Once()

	p, err := uc.Login(context.Background(), domain.LoginForm{Email: "asha@school.in", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, p.Role)
	assert.Equal(t, "Asha", p.Name)
	assert.Equal(t, "+911234567890", p.Phone)

	assert.Equal(t, token, sess.data[repository.KeyAuthToken])
	assert.Equal(t, "acc", sess.data[repository.KeyAccessToken])
	assert.Equal(t, "ref", sess.data[repository.KeyRefreshToken])

	var stored domain.Profile
	require.NoError(t, json.Unmarshal([]byte(sess.data[repository.KeyUserData]), &stored))
	assert.Equal(t, "asha@school.in", stored.Email)

	cur, err := uc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, cur.Role)
	gw.AssertExpectations(t)
}

func TestLoginKeepsLooseUserFields(t *testing.T) {
	gw := new(MockGateway)
	sess := newMemSession()
	uc := NewAuthUsecase(gw, sess, nil)

	token := idToken(t, jwt.MapClaims{"email": "ravi@school.in", "name": "Ravi"})
	gw.On("Login", mock.Anything, "ravi@school.in", "longenough").Return(&domain.LoginResult{
		IDToken: token,
		User:    map[string]any{"phone": 911234567890.0, "class": "5"},
	}, nil)

	p, err := uc.Login(context.Background(), domain.LoginForm{Email: "ravi@school.in", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, "911234567890", p.Phone)
	assert.Equal(t, domain.RoleStudent, p.Role)

	var stored map[string]any
	require.NoError(t, json.Unmarshal([]byte(sess.data[repository.KeyUserData]), &stored))
	assert.Equal(t, "5", stored["class"])
	assert.Equal(t, "Ravi", stored["name"])

	cur, err := uc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "911234567890", cur.Phone)
	assert.Equal(t, "ravi@school.in", cur.Email)
}

func TestLoginClearsPartialSession(t *testing.T) {
	gw := new(MockGateway)
	sess := newMemSession(repository.KeyDarkMode, "true")
	sess.failOn = repository.KeyUserData
	uc := NewAuthUsecase(gw, sess, nil)

	gw.On("Login", mock.Anything, "a@b.c", "pw").Return(&domain.LoginResult{Token: "opaque", AccessToken: "acc"}, nil)

	_, err := uc.Login(context.Background(), domain.LoginForm{Email: "a@b.c", Password: "pw"})
	require.Error(t, err)
	assert.NotContains(t, sess.data, repository.KeyAuthToken)
	assert.NotContains(t, sess.data, repository.KeyAccessToken)
	assert.Equal(t, "true", sess.data[repository.KeyDarkMode])

	_, err = uc.Token(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestLoginOpaqueTokenKeepsMinimalProfile(t *testing.T) {
	gw := new(MockGateway)
	sess := newMemSession()
	uc := NewAuthUsecase(gw, sess, nil)

	gw.On("Login", mock.Anything, "a@b.c", "pw").Return(&domain.LoginResult{Token: "opaque"}, nil)

	p, err := uc.Login(context.Background(), domain.LoginForm{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", p.Email)
	assert.Equal(t, domain.RoleStudent, p.Role)
	assert.Equal(t, "opaque", sess.data[repository.KeyAuthToken])
}

func TestLoginWithoutToken(t *testing.T) {
	gw := new(MockGateway)
	sess := newMemSession()
	gw.On("Login", mock.Anything, "a@b.c", "pw").Return(&domain.LoginResult{}, nil)

	_, err := NewAuthUsecase(gw, sess, nil).Login(context.Background(), domain.LoginForm{Email: "a@b.c", Password: "pw"})
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Empty(t, sess.data)
}

func TestLoginErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusForbidden, "Access denied. Please check your credentials or contact support if this persists."},
		{http.StatusUnauthorized, "Invalid email or password. Please try again."},
		{http.StatusNotFound, "Login service not found. Please try again later."},
		{http.StatusInternalServerError, "Server error. Please try again later."},
		{http.StatusBadRequest, "User is not confirmed."},
	}
	for _, tc := range tests {
		gw := new(MockGateway)
		gw.On("Login", mock.Anything, "a@b.c", "pw").
			Return(nil, &domain.APIError{StatusCode: tc.status, Message: "User is not confirmed."})

		_, err := NewAuthUsecase(gw, newMemSession(), nil).Login(context.Background(), domain.LoginForm{Email: "a@b.c", Password: "pw"})
		require.Error(t, err)
		assert.Equal(t, tc.want, err.Error())
	}
}

func TestLoginValidationSkipsGateway(t *testing.T) {
	gw := new(MockGateway)
	_, err := NewAuthUsecase(gw, newMemSession(), nil).Login(context.Background(), domain.LoginForm{Email: "nope", Password: "pw"})
	assertInvalid(t, err, msgBadEmail)
	gw.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignupDefaultsRole(t *testing.T) {
	gw := new(MockGateway)
	form := validSignup()
	form.Role = ""
	gw.On("Signup", mock.Anything, mock.MatchedBy(func(r domain.SignupRequest) bool {
		return r.Role == domain.RoleStudent && r.Email == form.Email && r.Class == "8"
	})).Return(map[string]any{"message": "ok"}, nil).Once()

	require.NoError(t, NewAuthUsecase(gw, newMemSession(), nil).Signup(context.Background(), form))
	gw.AssertExpectations(t)
}

func TestSignupFallbackMessage(t *testing.T) {
	gw := new(MockGateway)
	gw.On("Signup", mock.Anything, mock.Anything).Return(nil, errors.New("decode signup payload"))

	err := NewAuthUsecase(gw, newMemSession(), nil).Signup(context.Background(), validSignup())
	require.Error(t, err)
	assert.Equal(t, "Registration failed. Please try again.", err.Error())

	gw = new(MockGateway)
	gw.On("Signup", mock.Anything, mock.Anything).Return(nil, &domain.APIError{StatusCode: 400, Message: "User already exists"})
	err = NewAuthUsecase(gw, newMemSession(), nil).Signup(context.Background(), validSignup())
	assert.Equal(t, "User already exists", err.Error())
}

func TestVerifyOTPNormalizes(t *testing.T) {
	gw := new(MockGateway)
	gw.On("VerifyOTP", mock.Anything, "a@b.c", "123456").Return(map[string]any{}, nil).Once()

	uc := NewAuthUsecase(gw, newMemSession(), nil)
	require.NoError(t, uc.VerifyOTP(context.Background(), "a@b.c", " 123 456 78"))
	assertInvalid(t, uc.VerifyOTP(context.Background(), "a@b.c", "12a"), msgOTP)
	gw.AssertExpectations(t)
}

func TestLogoutKeepsDarkMode(t *testing.T) {
	sess := newMemSession(
		repository.KeyAuthToken, "tok",
		repository.KeyAccessToken, "acc",
		repository.KeyRefreshToken, "ref",
		repository.KeyUserData, `{"email":"a@b.c"}`,
		repository.KeyDarkMode, "true",
	)
	uc := NewAuthUsecase(new(MockGateway), sess, nil)

	require.NoError(t, uc.Logout(context.Background()))
	assert.Equal(t, map[string]string{repository.KeyDarkMode: "true"}, sess.data)

	_, err := uc.Current(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = uc.Token(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	on, err := uc.DarkMode(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
}

func TestCurrentResolvesRole(t *testing.T) {
	sess := newMemSession(
		repository.KeyAuthToken, "tok",
		repository.KeyUserData, `{"email":"a@b.c","custom:role":"ADMIN"}`,
	)
	p, err := NewAuthUsecase(new(MockGateway), sess, nil).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, p.Role)

	sess = newMemSession(repository.KeyAuthToken, "tok", repository.KeyUserData, `{"email":"a@b.c"}`)
	p, err = NewAuthUsecase(new(MockGateway), sess, nil).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, p.Role)
}

func TestToggleDarkMode(t *testing.T) {
	sess := newMemSession()
	uc := NewAuthUsecase(new(MockGateway), sess, nil)

	on, err := uc.ToggleDarkMode(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, "true", sess.data[repository.KeyDarkMode])

	on, err = uc.ToggleDarkMode(context.Background())
	require.NoError(t, err)
	assert.False(t, on)
}
