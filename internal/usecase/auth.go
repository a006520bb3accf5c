package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"edubot/internal/domain"
	"edubot/internal/repository"
	"edubot/pkg/utils"

	"go.uber.org/zap"
)

// sessionKeys are cleared on logout. The dark mode preference survives.
var sessionKeys = []string{
	repository.KeyAuthToken,
	repository.KeyAccessToken,
	repository.KeyRefreshToken,
	repository.KeyUserData,
}

var ErrNoToken = errors.New("Login succeeded but no token was returned. Please try again.")

type authUsecase struct {
	gateway domain.Gateway
	session domain.SessionRepository
	log     *zap.Logger
}

func NewAuthUsecase(gw domain.Gateway, sr domain.SessionRepository, log *zap.Logger) domain.AuthUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &authUsecase{gateway: gw, session: sr, log: log}
}

func (uc *authUsecase) Signup(ctx context.Context, form domain.SignupForm) error {
	if form.Role == "" {
		form.Role = domain.RoleStudent
	}
	if err := validateSignup(form); err != nil {
		return err
	}

	_, err := uc.gateway.Signup(ctx, domain.SignupRequest{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		Phone:    form.Phone,
		Class:    form.Class,
		Role:     form.Role,
	})
	if err != nil {
		uc.log.Info("signup rejected", zap.String("email", form.Email), zap.Error(err))
		return userFacing(err, "Registration failed. Please try again.")
	}
	uc.log.Info("signup accepted, awaiting OTP", zap.String("email", form.Email))
	return nil
}

func (uc *authUsecase) VerifyOTP(ctx context.Context, email, otp string) error {
	code := normalizeOTP(otp)
	if err := validateOTP(code); err != nil {
		return err
	}
	if _, err := uc.gateway.VerifyOTP(ctx, email, code); err != nil {
		return userFacing(err, "Invalid OTP. Please try again.")
	}
	return nil
}

func (uc *authUsecase) Login(ctx context.Context, form domain.LoginForm) (*domain.Profile, error) {
	if err := validateLogin(form); err != nil {
		return nil, err
	}

	res, err := uc.gateway.Login(ctx, form.Email, form.Password)
	if err != nil {
		return nil, loginError(err)
	}

	token := res.SessionToken()
	if token == "" {
		uc.log.Error("login response carried no token", zap.String("email", form.Email))
		return nil, ErrNoToken
	}
	decoded, decodeErr := utils.ProfileFromToken(token, form.Email)
	if decodeErr != nil {
		uc.log.Warn("could not decode id token, storing minimal profile", zap.Error(decodeErr))
	}

	fields := userFields(decoded, res.User)
	userData, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode user data: %w", err)
	}
	profile := domain.ProfileFromFields(fields)
	profile.Role = utils.RoleOf(&profile, fields)

	entries := [][2]string{{repository.KeyAuthToken, token}}
	if res.AccessToken != "" {
		entries = append(entries, [2]string{repository.KeyAccessToken, res.AccessToken})
	}
	if res.RefreshToken != "" {
		entries = append(entries, [2]string{repository.KeyRefreshToken, res.RefreshToken})
	}
	entries = append(entries, [2]string{repository.KeyUserData, string(userData)})
	if err := uc.storeSession(ctx, entries); err != nil {
		return nil, err
	}

	uc.log.Info("logged in", zap.String("email", form.Email))
	return &profile, nil
}

func (uc *authUsecase) Logout(ctx context.Context) error {
	return uc.session.Delete(ctx, sessionKeys...)
}

// Current returns the stored profile of a logged-in user with its role
// resolved, or domain.ErrNotAuthenticated.
func (uc *authUsecase) Current(ctx context.Context) (*domain.Profile, error) {
	token, ok, err := uc.session.Get(ctx, repository.KeyAuthToken)
	if err != nil {
		return nil, err
	}
	raw, hasProfile, err := uc.session.Get(ctx, repository.KeyUserData)
	if err != nil {
		return nil, err
	}
	if !ok || token == "" || !hasProfile {
		return nil, domain.ErrNotAuthenticated
	}

	var p domain.Profile
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("stored user data is corrupt: %w", err)
	}
	_ = json.Unmarshal([]byte(raw), &fields)
	p.Role = utils.RoleOf(&p, fields)
	return &p, nil
}

func (uc *authUsecase) Token(ctx context.Context) (string, error) {
	token, ok, err := uc.session.Get(ctx, repository.KeyAuthToken)
	if err != nil {
		return "", err
	}
	if !ok || token == "" {
		return "", domain.ErrNotAuthenticated
	}
	return token, nil
}

func (uc *authUsecase) DarkMode(ctx context.Context) (bool, error) {
	v, _, err := uc.session.Get(ctx, repository.KeyDarkMode)
	return v == "true", err
}

func (uc *authUsecase) ToggleDarkMode(ctx context.Context) (bool, error) {
	on, err := uc.DarkMode(ctx)
	if err != nil {
		return false, err
	}
	on = !on
	value := "false"
	if on {
		value = "true"
	}
	return on, uc.session.Set(ctx, repository.KeyDarkMode, value)
}

// storeSession writes every entry or, on the first failure, clears the
// session so no token is left without its user data.
func (uc *authUsecase) storeSession(ctx context.Context, entries [][2]string) error {
	for _, e := range entries {
		if err := uc.session.Set(ctx, e[0], e[1]); err != nil {
			if cleanupErr := uc.session.Delete(ctx, sessionKeys...); cleanupErr != nil {
				uc.log.Error("could not clear partial session", zap.Error(cleanupErr))
			}
			return fmt.Errorf("store %s: %w", e[0], err)
		}
	}
	return nil
}

// userFields lays the gateway's user object over the decoded profile. Keys
// the profile does not model are kept as sent.
func userFields(p *domain.Profile, user map[string]any) map[string]any {
	merged := map[string]any{
		"email": p.Email,
		"name":  p.Name,
		"role":  string(p.Role),
	}
	for k, v := range map[string]string{"phone": p.Phone, "sub": p.Sub, "username": p.Username} {
		if v != "" {
			merged[k] = v
		}
	}
	for k, v := range user {
		merged[k] = v
	}
	return merged
}

func loginError(err error) error {
	switch domain.StatusCode(err) {
	case http.StatusForbidden:
		return domain.Invalid("Access denied. Please check your credentials or contact support if this persists.")
	case http.StatusUnauthorized:
		return domain.Invalid("Invalid email or password. Please try again.")
	case http.StatusNotFound:
		return domain.Invalid("Login service not found. Please try again later.")
	case http.StatusInternalServerError:
		return domain.Invalid("Server error. Please try again later.")
	}
	return userFacing(err, "Login failed. Please check your credentials and try again.")
}

// userFacing keeps gateway and transport messages, and replaces anything
// else with fallback while preserving the cause for errors.Is.
func userFacing(err error, fallback string) error {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) || errors.Is(err, domain.ErrUnreachable) || errors.Is(err, context.Canceled) {
		return err
	}
	return &wrapped{msg: fallback, cause: err}
}

type wrapped struct {
	msg   string
	cause error
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.cause }
