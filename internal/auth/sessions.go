package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/adspotmarket/adspot-backend/pkg/errors"
)

// SessionSource adapts the auth repository to the session manager's lookup
// interface.
type SessionSource struct {
	repo Repository
	now  func() time.Time
}

func NewSessionSource(repo Repository) (*SessionSource, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "auth repository required")
	}
	return &SessionSource{repo: repo, now: time.Now}, nil
}

// LookupActive reports whether the session row is active and unexpired.
func (s *SessionSource) LookupActive(ctx context.Context, sessionID uuid.UUID) (bool, time.Time, error) {
	row, err := s.repo.FindSession(ctx, sessionID)
	if err != nil {
		return false, time.Time{}, err
	}
	if row == nil || !row.IsActive || s.now().After(row.ExpiresAt) {
		return false, time.Time{}, nil
	}
	return true, row.ExpiresAt, nil
}
