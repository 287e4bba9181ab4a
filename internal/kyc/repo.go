package kyc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adspotmarket/adspot-backend/pkg/db/models"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
)

// Repository exposes persistence helpers for the KYC pipeline.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	// TransitionStatus performs a conditional update guarded by the expected
	// current status. Zero rows means the guard did not match.
	TransitionStatus(ctx context.Context, userID uuid.UUID, from, to enums.KYCStatus, notes *string) (int64, error)
	InsertDocuments(ctx context.Context, docs []models.KYCDocument) error
	ListDocuments(ctx context.Context, userID uuid.UUID) ([]models.KYCDocument, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a KYC repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repositoryImpl) TransitionStatus(ctx context.Context, userID uuid.UUID, from, to enums.KYCStatus, notes *string) (int64, error) {
	updates := map[string]any{
		"kyc_status": to,
		"updated_at": time.Now().UTC(),
	}
	if notes != nil {
		updates["rejection_notes"] = *notes
	} else if to == enums.KYCStatusApproved || to == enums.KYCStatusSubmitted {
		updates["rejection_notes"] = nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND kyc_status = ?", userID, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) InsertDocuments(ctx context.Context, docs []models.KYCDocument) error {
	if len(docs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&docs).Error
}

func (r *repositoryImpl) ListDocuments(ctx context.Context, userID uuid.UUID) ([]models.KYCDocument, error) {
	var docs []models.KYCDocument
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&docs).Error
	return docs, err
}
