// Package tokens issues and checks the HS256 access tokens handed out at login.
// A token names its session; the session, not the token expiry, decides how
// long a login lasts.
package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/config"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/sessions"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/middleware"
)

// GenerateAccessToken creates a signed JWT access token for the session
func GenerateAccessToken(cfg *config.Config, s *sessions.Session, ttl time.Duration) (string, error) {
	if cfg.JWT.Secret == "" {
		return "", errors.New("JWT secret not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  s.UserID,
		"name": s.Username,
		"role": string(s.Role),
		"sid":  s.ID,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// Verifier checks tokens signed with the configured secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(cfg *config.Config) *Verifier {
	return &Verifier{secret: []byte(cfg.JWT.Secret)}
}

type verified struct {
	claims jwt.MapClaims
}

func (v verified) Claims(out interface{}) error {
	b, err := json.Marshal(v.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// Verify implements middleware.Verifier.
func (v *Verifier) Verify(_ context.Context, raw string) (middleware.Token, error) {
	if len(v.secret) == 0 {
		return nil, errors.New("JWT secret not configured")
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if sid, _ := claims["sid"].(string); sid == "" {
		return nil, errors.New("token carries no session")
	}
	return verified{claims: claims}, nil
}
