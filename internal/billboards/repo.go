package billboards

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adspotmarket/adspot-backend/pkg/db/models"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
	"github.com/adspotmarket/adspot-backend/pkg/pagination"
)

type listBillboardsParams struct {
	OwnerID *uuid.UUID
	Status  *enums.BillboardStatus
	City    *string
	Limit   int
	Cursor  *pagination.Cursor
}

// Repository exposes persistence helpers for the billboard lifecycle.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, billboard *models.Billboard) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Billboard, error)
	List(ctx context.Context, params listBillboardsParams) ([]models.Billboard, *pagination.Cursor, error)
	// UpdateDraft applies owner edits. Only draft rows are writable, so the
	// update is guarded on status and zero rows means the guard failed.
	UpdateDraft(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	// TransitionStatus moves a billboard along the lifecycle graph. The update
	// is guarded by the expected current status; zero rows means another
	// writer got there first.
	TransitionStatus(ctx context.Context, id uuid.UUID, from enums.BillboardStatus, updates map[string]any) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a billboard repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, billboard *models.Billboard) error {
	return r.db.WithContext(ctx).Create(billboard).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Billboard, error) {
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

func (r *repositoryImpl) List(ctx context.Context, params listBillboardsParams) ([]models.Billboard, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Billboard{})
	if params.OwnerID != nil {
		query = query.Where("owner_id = ?", *params.OwnerID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.City != nil {
		query = query.Where("lower(city) = lower(?)", *params.City)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Billboard
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return rows, next, nil
}

func (r *repositoryImpl) UpdateDraft(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Billboard{}).
		Where("id = ? AND status = ?", id, enums.BillboardStatusDraft).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from enums.BillboardStatus, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Billboard{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}
