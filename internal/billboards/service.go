package billboards

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/adspotmarket/adspot-backend/pkg/db/models"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
	pkgerrors "github.com/adspotmarket/adspot-backend/pkg/errors"
	"github.com/adspotmarket/adspot-backend/pkg/outbox"
	"github.com/adspotmarket/adspot-backend/pkg/outbox/payloads"
	"github.com/adspotmarket/adspot-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// kycGate blocks submission until the owner's identity verification clears.
type kycGate interface {
	RequireApproved(ctx context.Context, ownerID uuid.UUID) error
}

// Service defines the billboard lifecycle operations.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateBillboardInput) (*BillboardResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateBillboardInput) (*BillboardResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*BillboardResponse, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)

	Submit(ctx context.Context, actor Actor, id uuid.UUID) (*BillboardResponse, error)
	Approve(ctx context.Context, actor Actor, id uuid.UUID, adminNotes string) (*BillboardResponse, error)
	Reject(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*BillboardResponse, error)
	RequestReverification(ctx context.Context, actor Actor, id uuid.UUID, adminNotes string) (*BillboardResponse, error)
	Deactivate(ctx context.Context, actor Actor, id uuid.UUID) (*BillboardResponse, error)
	Reactivate(ctx context.Context, actor Actor, id uuid.UUID) (*BillboardResponse, error)
	Resubmit(ctx context.Context, actor Actor, id uuid.UUID) (*BillboardResponse, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	kyc    kycGate
	now    func() time.Time
}

// NewService wires billboard lifecycle dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, kyc kycGate) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "billboards repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	if kyc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "kyc gate required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outboxSvc,
		kyc:    kyc,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateBillboardInput) (*BillboardResponse, error) {
	if actor.Role != enums.UserRoleOwner {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only owners can list billboards")
	}
	// The route middleware checks the KYC status frozen into the token; a
	// review decision after token issuance only shows up here, against the
	// database.
	if err := s.kyc.RequireApproved(ctx, actor.ID); err != nil {
		return nil, err
	}

	billboard := &models.Billboard{
		OwnerID:     actor.ID,
		Status:      enums.BillboardStatusDraft,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		City:        strings.TrimSpace(input.City),
		Address:     strings.TrimSpace(input.Address),
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		WidthFt:     input.WidthFt,
		HeightFt:    input.HeightFt,
		DailyRate:   input.DailyRate,
		MonthlyRate: input.MonthlyRate,
		Illuminated: input.Illuminated,
		ImageRefs:   pq.StringArray(input.ImageRefs),
	}
	if billboard.Title == "" || billboard.City == "" || billboard.Address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title, city, and address are required")
	}
	if billboard.DailyRate.IsNegative() || billboard.MonthlyRate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rates cannot be negative")
	}
	if billboard.ImageRefs == nil {
		billboard.ImageRefs = pq.StringArray{}
	}

	if err := s.repo.Create(ctx, billboard); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create billboard")
	}
	resp := toBillboardResponse(*billboard)
	return &resp, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateBillboardInput) (*BillboardResponse, error) {
	billboard, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if billboard.OwnerID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "billboard belongs to another owner")
	}
	if billboard.Status != enums.BillboardStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft listings are editable").
			WithDetails(map[string]string{"current_status": string(billboard.Status)})
	}

	updates := map[string]any{"updated_at": s.now()}
	if input.Title != nil {
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.City != nil {
		updates["city"] = strings.TrimSpace(*input.City)
	}
	if input.Address != nil {
		updates["address"] = strings.TrimSpace(*input.Address)
	}
	if input.DailyRate != nil {
		updates["daily_rate"] = *input.DailyRate
	}
	if input.MonthlyRate != nil {
		updates["monthly_rate"] = *input.MonthlyRate
	}
	if input.Illuminated != nil {
		updates["illuminated"] = *input.Illuminated
	}
	if input.ImageRefs != nil {
		updates["image_refs"] = pq.StringArray(input.ImageRefs)
	}
	if len(updates) == 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	affected, err := s.repo.UpdateDraft(ctx, id, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update billboard")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "billboard left draft state concurrently")
	}
	return s.Get(ctx, id)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*BillboardResponse, error) {
	billboard, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toBillboardResponse(*billboard)
	return &resp, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listBillboardsParams{
		OwnerID: params.OwnerID,
		Status:  params.Status,
		City:    params.City,
		Limit:   params.Limit,
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list billboards")
	}

	items := make([]BillboardResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, toBillboardResponse(row))
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

// Submit moves a draft to pending review. The owner must have cleared
// identity verification first.
func (s *service) Submit(ctx context.Context, actor Actor, id uuid.UUID) (*BillboardResponse, error) {
	billboard, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if billboard.OwnerID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "billboard belongs to another owner")
	}
	if err := s.kyc.RequireApproved(ctx, actor.ID); err != nil {
		return nil, err
	}
	if err := validateForReview(billboard); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, billboard, enums.BillboardStatusPending, "", nil)
}

// validateForReview enforces what a reviewer needs to see. Drafts may be
// saved half-finished, but nothing reaches the review queue without location,
// dimensions, rates, and at least one photo.
func validateForReview(billboard *models.Billboard) error {
	missing := []string{}
	if strings.TrimSpace(billboard.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(billboard.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(billboard.Address) == "" {
		missing = append(missing, "address")
	}
	if !billboard.WidthFt.IsPositive() {
		missing = append(missing, "width_ft")
	}
	if !billboard.HeightFt.IsPositive() {
		missing = append(missing, "height_ft")
	}
	if !billboard.DailyRate.IsPositive() && !billboard.MonthlyRate.IsPositive() {
		missing = append(missing, "daily_rate or monthly_rate")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "billboard is missing required fields").
			WithDetails(map[string]string{"missing": strings.Join(missing, ", ")})
	}
	if len(billboard.ImageRefs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one billboard image is required")
	}
	return nil
}

func (s *service) Approve(ctx context.Context, actor Actor, id uuid.UUID, adminNotes string) (*BillboardResponse, error) {
	billboard, err := s.loadForStaff(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	extra := map[string]any{
		"approved_at":      s.now(),
		"rejection_reason": nil,
	}
	if notes := strings.TrimSpace(adminNotes); notes != "" {
		extra["admin_notes"] = notes
	}
	return s.transition(ctx, actor, billboard, enums.BillboardStatusApproved, "", extra)
}

func (s *service) Reject(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*BillboardResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a rejection reason is required")
	}
	billboard, err := s.loadForStaff(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	extra := map[string]any{"rejection_reason": reason}
	return s.transition(ctx, actor, billboard, enums.BillboardStatusRejected, reason, extra)
}

// RequestReverification pulls an active billboard back to approved so a new
// site visit can be scheduled.
func (s *service) RequestReverification(ctx context.Context, actor Actor, id uuid.UUID, adminNotes string) (*BillboardResponse, error) {
	billboard, err := s.loadForStaff(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	var extra map[string]any
	if notes := strings.TrimSpace(adminNotes); notes != "" {
		extra = map[string]any{"admin_notes": notes}
	}
	return s.transition(ctx, actor, billboard, enums.BillboardStatusApproved, "reverification requested", extra)
}

func (s *service) Deactivate(ctx context.Context, actor Actor, id uuid.UUID) (*BillboardResponse, error) {
	billboard, err := s.loadForOwnerOrStaff(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, billboard, enums.BillboardStatusInactive, "", nil)
}

func (s *service) Reactivate(ctx context.Context, actor Actor, id uuid.UUID) (*BillboardResponse, error) {
	billboard, err := s.loadForOwnerOrStaff(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, billboard, enums.BillboardStatusActive, "", nil)
}

// Resubmit sends a rejected billboard back into review.
func (s *service) Resubmit(ctx context.Context, actor Actor, id uuid.UUID) (*BillboardResponse, error) {
	billboard, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if billboard.OwnerID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "billboard belongs to another owner")
	}
	if err := validateForReview(billboard); err != nil {
		return nil, err
	}
	extra := map[string]any{"rejection_reason": nil}
	return s.transition(ctx, actor, billboard, enums.BillboardStatusPending, "", extra)
}

// transition performs the guarded status update and emits the lifecycle event
// in the same transaction. Zero affected rows means a concurrent writer moved
// the billboard first.
func (s *service) transition(ctx context.Context, actor Actor, billboard *models.Billboard, target enums.BillboardStatus, reason string, extra map[string]any) (*BillboardResponse, error) {
	from := billboard.Status
	if !from.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "billboard cannot move to the requested status").
			WithDetails(map[string]string{
				"current_status":   string(from),
				"requested_status": string(target),
			})
	}

	updates := map[string]any{
		"status":     target,
		"updated_at": s.now(),
	}
	for column, value := range extra {
		updates[column] = value
	}

	var updated *BillboardResponse
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.TransitionStatus(ctx, billboard.ID, from, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition billboard status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "billboard status changed concurrently").
				WithDetails(map[string]string{"expected_status": string(from)})
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventBillboardStatusChanged,
			AggregateType: enums.AggregateBillboard,
			AggregateID:   billboard.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actor.ID, Name: actor.Name, Role: string(actor.Role)},
			Data: payloads.BillboardStatusChangedEvent{
				BillboardID:    billboard.ID,
				OwnerID:        billboard.OwnerID,
				BillboardTitle: billboard.Title,
				OldStatus:      from,
				NewStatus:      target,
				Reason:         reason,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit billboard_status_changed")
		}

		fresh, err := repo.FindByID(ctx, billboard.ID)
		if err != nil || fresh == nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload billboard")
		}
		resp := toBillboardResponse(*fresh)
		updated = &resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Billboard, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billboard id required")
	}
	billboard, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load billboard")
	}
	if billboard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "billboard not found")
	}
	return billboard, nil
}

func (s *service) loadForStaff(ctx context.Context, actor Actor, id uuid.UUID) (*models.Billboard, error) {
	if !actor.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff role required")
	}
	return s.load(ctx, id)
}

func (s *service) loadForOwnerOrStaff(ctx context.Context, actor Actor, id uuid.UUID) (*models.Billboard, error) {
	billboard, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if billboard.OwnerID != actor.ID && !actor.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "billboard belongs to another owner")
	}
	return billboard, nil
}
