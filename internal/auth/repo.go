package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adspotmarket/adspot-backend/pkg/db/models"
)

// Repository exposes persistence helpers for credentials, login attempts, and
// server-side sessions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error

	RecordLoginAttempt(ctx context.Context, attempt *models.LoginAttempt) error
	CountRecentFailures(ctx context.Context, email string, since time.Time) (int64, error)
	OldestRecentFailure(ctx context.Context, email string, since time.Time) (*time.Time, error)

	CreateSession(ctx context.Context, session *models.UserSession) error
	FindSession(ctx context.Context, id uuid.UUID) (*models.UserSession, error)
	ListActiveSessionIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	RevokeSession(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	RevokeAllSessions(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an auth repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("lower(email) = lower(?)", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repositoryImpl) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repositoryImpl) UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login_at", at).Error
}

func (r *repositoryImpl) RecordLoginAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

// CountRecentFailures computes the sliding window. Only failed attempts count
// toward the limit.
func (r *repositoryImpl) CountRecentFailures(ctx context.Context, email string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LoginAttempt{}).
		Where("lower(email) = lower(?) AND success = ? AND attempted_at >= ?", email, false, since).
		Count(&count).Error
	return count, err
}

// OldestRecentFailure returns when the window's earliest counted failure
// happened. Adding the window length to it gives the moment the block lifts.
func (r *repositoryImpl) OldestRecentFailure(ctx context.Context, email string, since time.Time) (*time.Time, error) {
	var attempt models.LoginAttempt
	err := r.db.WithContext(ctx).
		Where("lower(email) = lower(?) AND success = ? AND attempted_at >= ?", email, false, since).
		Order("attempted_at ASC").
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	at := attempt.AttemptedAt
	return &at, nil
}

func (r *repositoryImpl) CreateSession(ctx context.Context, session *models.UserSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repositoryImpl) FindSession(ctx context.Context, id uuid.UUID) (*models.UserSession, error) {
	var session models.UserSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *repositoryImpl) ListActiveSessionIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repositoryImpl) RevokeSession(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{"is_active": false, "revoked_at": at})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) RevokeAllSessions(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]any{"is_active": false, "revoked_at": at})
	return result.RowsAffected, result.Error
}
