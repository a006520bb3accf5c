package utils

import (
	"encoding/base64"
	"fmt"
	"strings"

	"edubot/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// DecodeClaims reads the payload of a JWT without verifying its signature.
// The gateway verifies tokens; the client only needs the profile fields.
func DecodeClaims(tokenStr string) (jwt.MapClaims, error) {
	if len(strings.Split(tokenStr, ".")) != 3 {
		return nil, fmt.Errorf("token is not a JWT")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ProfileFromToken builds the stored profile from an id token. When the
// token cannot be decoded a minimal student profile is returned with err set.
func ProfileFromToken(tokenStr, email string) (*domain.Profile, error) {
	claims, err := DecodeClaims(tokenStr)
	if err != nil {
		return &domain.Profile{Email: email, Role: domain.RoleStudent}, err
	}

	p := &domain.Profile{
		Email:    firstString(claims, "email"),
		Name:     firstString(claims, "name"),
		Role:     domain.Role(firstString(claims, "custom:role", "role")),
		Phone:    firstString(claims, "phone_number"),
		Sub:      firstString(claims, "sub"),
		Username: firstString(claims, "cognito:username"),
	}
	if p.Email == "" {
		p.Email = email
	}
	if p.Role == "" {
		p.Role = domain.RoleStudent
	}
	return p, nil
}

// RoleOf resolves the dashboard role of a stored profile.
func RoleOf(p *domain.Profile, raw map[string]any) domain.Role {
	if p != nil && p.Role != "" {
		return p.Role
	}
	if r := firstString(raw, "custom:role"); r != "" {
		return domain.Role(r)
	}
	return domain.RoleUser
}

// EncodeBase64 returns the bare standard base64 form of data, without any
// data-URL prefix.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
