package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/models"
)

// DefaultIdleTimeout ends a session after ten minutes without requests.
const DefaultIdleTimeout = 10 * time.Minute

// Service wraps repository operations with business logic
type Service struct {
	repo Repository
	idle time.Duration
	now  func() time.Time
}

func NewService(r Repository, idle time.Duration) *Service {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Service{repo: r, idle: idle, now: func() time.Time { return time.Now().UTC() }}
}

// IdleTimeout is how long a session survives without activity.
func (s *Service) IdleTimeout() time.Duration { return s.idle }

// CreateSession stores a new session for p.
func (s *Service) CreateSession(ctx context.Context, p models.Principal) (*Session, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	now := s.now()
	sess := &Session{
		ID:        hex.EncodeToString(b),
		UserID:    p.ID,
		Username:  p.Username,
		Role:      p.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.idle),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Validate returns the live session for id and extends it, or nil when the
// session is unknown or idle for too long.
func (s *Service) Validate(ctx context.Context, id string) (*Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	now := s.now()
	if now.After(sess.ExpiresAt) {
		// cleanup expired session
		_ = s.repo.Delete(ctx, id)
		return nil, nil
	}
	sess.ExpiresAt = now.Add(s.idle)
	if err := s.repo.Touch(ctx, id, sess.ExpiresAt); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
