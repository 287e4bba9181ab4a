package sitevisits

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adspotmarket/adspot-backend/pkg/db/models"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
)

// Repository exposes persistence helpers for verification site visits.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindAssignment(ctx context.Context, id uuid.UUID) (*models.BillboardAssignment, error)
	FindBillboard(ctx context.Context, id uuid.UUID) (*models.Billboard, error)

	InsertVisit(ctx context.Context, visit *models.SiteVisit) error
	ListForBillboard(ctx context.Context, billboardID uuid.UUID) ([]models.SiteVisit, error)

	// TransitionBillboard resolves the verification outcome. The update is
	// guarded on the approved status; zero rows means another writer moved
	// the billboard first.
	TransitionBillboard(ctx context.Context, billboardID uuid.UUID, to enums.BillboardStatus, updates map[string]any) (int64, error)
	// CompleteAssignment closes the active assignment. Zero rows means it
	// was already completed or superseded.
	CompleteAssignment(ctx context.Context, assignmentID uuid.UUID, at time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a site-visit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindAssignment(ctx context.Context, id uuid.UUID) (*models.BillboardAssignment, error) {
	var assignment models.BillboardAssignment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *repositoryImpl) FindBillboard(ctx context.Context, id uuid.UUID) (*models.Billboard, error) {
	var billboard models.Billboard
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&billboard).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &billboard, nil
}

func (r *repositoryImpl) InsertVisit(ctx context.Context, visit *models.SiteVisit) error {
	return r.db.WithContext(ctx).Create(visit).Error
}

func (r *repositoryImpl) ListForBillboard(ctx context.Context, billboardID uuid.UUID) ([]models.SiteVisit, error) {
	var visits []models.SiteVisit
	err := r.db.WithContext(ctx).
		Where("billboard_id = ?", billboardID).
		Order("visit_date DESC, created_at DESC").
		Find(&visits).Error
	return visits, err
}

func (r *repositoryImpl) TransitionBillboard(ctx context.Context, billboardID uuid.UUID, to enums.BillboardStatus, updates map[string]any) (int64, error) {
	merged := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for column, value := range updates {
		merged[column] = value
	}
	result := r.db.WithContext(ctx).
		Model(&models.Billboard{}).
		Where("id = ? AND status = ?", billboardID, enums.BillboardStatusApproved).
		Updates(merged)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) CompleteAssignment(ctx context.Context, assignmentID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BillboardAssignment{}).
		Where("id = ? AND is_active = ?", assignmentID, true).
		Updates(map[string]any{
			"status":       enums.AssignmentStatusCompleted,
			"is_active":    false,
			"completed_at": at,
		})
	return result.RowsAffected, result.Error
}
