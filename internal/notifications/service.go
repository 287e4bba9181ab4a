package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/pkg/db/models"
	pkgerrors "github.com/adspotmarket/adspot-backend/pkg/errors"
	"github.com/adspotmarket/adspot-backend/pkg/pagination"
)

// Service defines admin notification list/read operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkProcessed(ctx context.Context, adminID, notificationID uuid.UUID) error
	MarkAllProcessed(ctx context.Context, adminID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
}

// ListParams configures pagination for an admin's notification feed.
type ListParams struct {
	AdminID         uuid.UUID
	Limit           int
	Cursor          string
	UnprocessedOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.AdminNotification `json:"items"`
	Cursor string                     `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.AdminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin id required")
	}

	query := listNotificationsParams{
		AdminID:         params.AdminID,
		Limit:           pagination.LimitWithBuffer(params.Limit),
		UnprocessedOnly: params.UnprocessedOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

func (s *service) MarkProcessed(ctx context.Context, adminID, notificationID uuid.UUID) error {
	if adminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "admin id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkProcessed(ctx, adminID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification processed")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllProcessed(ctx context.Context, adminID uuid.UUID) (int64, error) {
	if adminID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "admin id required")
	}

	count, err := s.repo.MarkAllProcessed(ctx, adminID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications processed")
	}
	return count, nil
}
