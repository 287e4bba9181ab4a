package assignments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adspotmarket/adspot-backend/pkg/db/models"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
	"github.com/adspotmarket/adspot-backend/pkg/pagination"
)

// AssignmentView is an assignment row joined with its billboard so dashboards
// render without extra lookups.
type AssignmentView struct {
	models.BillboardAssignment
	BillboardTitle string `gorm:"column:billboard_title"`
	BillboardCity  string `gorm:"column:billboard_city"`
}

type listForSubAdminParams struct {
	SubAdminID uuid.UUID
	ActiveOnly bool
	Limit      int
	Cursor     *pagination.Cursor
}

// Repository exposes persistence helpers for verification assignments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindBillboard(ctx context.Context, id uuid.UUID) (*models.Billboard, error)
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	Create(ctx context.Context, assignment *models.BillboardAssignment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BillboardAssignment, error)
	FindActiveByBillboard(ctx context.Context, billboardID uuid.UUID) (*models.BillboardAssignment, error)
	// Supersede retires the current active assignment for a billboard so a
	// replacement row can take the partial unique index slot.
	Supersede(ctx context.Context, billboardID uuid.UUID, at time.Time) (int64, error)
	ListForSubAdmin(ctx context.Context, params listForSubAdminParams) ([]AssignmentView, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an assignments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
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

func (r *repositoryImpl) Create(ctx context.Context, assignment *models.BillboardAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.BillboardAssignment, error) {
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

func (r *repositoryImpl) FindActiveByBillboard(ctx context.Context, billboardID uuid.UUID) (*models.BillboardAssignment, error) {
	var assignment models.BillboardAssignment
	err := r.db.WithContext(ctx).
		Where("billboard_id = ? AND is_active = ?", billboardID, true).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *repositoryImpl) Supersede(ctx context.Context, billboardID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BillboardAssignment{}).
		Where("billboard_id = ? AND is_active = ?", billboardID, true).
		Updates(map[string]any{
			"is_active":    false,
			"status":       enums.AssignmentStatusSuperseded,
			"completed_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListForSubAdmin(ctx context.Context, params listForSubAdminParams) ([]AssignmentView, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Table("billboard_assignments AS a").
		Select("a.*, b.title AS billboard_title, b.city AS billboard_city").
		Joins("JOIN billboards b ON b.id = a.billboard_id").
		Where("a.sub_admin_id = ?", params.SubAdminID)
	if params.ActiveOnly {
		query = query.Where("a.is_active = ?", true)
	}
	if params.Cursor != nil {
		query = query.Where("(a.assigned_at, a.id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []AssignmentView
	err := query.
		Order("a.assigned_at DESC, a.id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = &pagination.Cursor{CreatedAt: last.AssignedAt, ID: last.ID}
	}
	return rows, next, nil
}
