package sitevisits

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
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor is the authenticated sub-admin recording a visit.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
	Name string
}

// RecordVisitInput captures one physical verification attempt. Front and
// structure photos plus written notes are mandatory evidence.
type RecordVisitInput struct {
	AssignmentID        uuid.UUID `json:"assignment_id" validate:"required"`
	Verified            bool      `json:"verified"`
	LocationAccurate    bool      `json:"location_accurate"`
	StructuralCondition string    `json:"structural_condition" validate:"required,oneof=excellent good fair poor unsafe"`
	VisibilityRating    int       `json:"visibility_rating" validate:"required,min=1,max=10"`
	IssuesFound         []string  `json:"issues_found,omitempty" validate:"omitempty,dive,max=400"`
	AccessibilityNotes  *string   `json:"accessibility_notes,omitempty" validate:"omitempty,max=2000"`
	Recommendations     *string   `json:"recommendations,omitempty" validate:"omitempty,max=2000"`
	Notes               string    `json:"notes" validate:"required,max=4000"`
	PhotoFrontRef       string    `json:"photo_front_ref" validate:"required,max=512"`
	PhotoStructureRef   string    `json:"photo_structure_ref" validate:"required,max=512"`
	ExtraPhotoRefs      []string  `json:"extra_photo_refs,omitempty" validate:"omitempty,dive,max=512"`
	VisitDate           time.Time `json:"visit_date"`
}

// SiteVisitResponse is the API-facing view of a recorded visit.
type SiteVisitResponse struct {
	ID                  uuid.UUID             `json:"id"`
	BillboardID         uuid.UUID             `json:"billboard_id"`
	AssignmentID        uuid.UUID             `json:"assignment_id"`
	SubAdminID          uuid.UUID             `json:"sub_admin_id"`
	IsVerified          bool                  `json:"is_verified"`
	LocationAccurate    bool                  `json:"location_accurate"`
	StructuralCondition string                `json:"structural_condition"`
	VisibilityRating    int                   `json:"visibility_rating"`
	IssuesFound         []string              `json:"issues_found"`
	AccessibilityNotes  *string               `json:"accessibility_notes,omitempty"`
	Recommendations     *string               `json:"recommendations,omitempty"`
	Notes               string                `json:"notes"`
	PhotoFrontRef       string                `json:"photo_front_ref"`
	PhotoStructureRef   string                `json:"photo_structure_ref"`
	ExtraPhotoRefs      []string              `json:"extra_photo_refs"`
	BillboardStatus     enums.BillboardStatus `json:"billboard_status"`
	VisitDate           time.Time             `json:"visit_date"`
	CreatedAt           time.Time             `json:"created_at"`
}

// Service defines site-visit recording and history operations.
type Service interface {
	RecordVisit(ctx context.Context, actor Actor, input RecordVisitInput) (*SiteVisitResponse, error)
	History(ctx context.Context, billboardID uuid.UUID) ([]SiteVisitResponse, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// NewService wires site-visit dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "site-visit repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outboxSvc,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// RecordVisit writes the visit, resolves the billboard, and closes the
// assignment in one transaction. A verified visit activates the billboard;
// a failed one rejects it.
func (s *service) RecordVisit(ctx context.Context, actor Actor, input RecordVisitInput) (*SiteVisitResponse, error) {
	if actor.Role != enums.UserRoleSubAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "sub-admin role required")
	}
	if input.AssignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	if strings.TrimSpace(input.PhotoFrontRef) == "" || strings.TrimSpace(input.PhotoStructureRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "front and structure photos are required")
	}
	if strings.TrimSpace(input.Notes) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "visit notes are required")
	}
	if input.VisibilityRating < 1 || input.VisibilityRating > 10 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "visibility rating must be between 1 and 10")
	}

	assignment, err := s.repo.FindAssignment(ctx, input.AssignmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	if assignment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
	}
	if assignment.SubAdminID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "assignment belongs to another sub-admin")
	}
	if !assignment.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "assignment is no longer active").
			WithDetails(map[string]string{"assignment_status": string(assignment.Status)})
	}

	billboard, err := s.repo.FindBillboard(ctx, assignment.BillboardID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load billboard")
	}
	if billboard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "billboard not found")
	}
	if billboard.Status != enums.BillboardStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "billboard is not awaiting verification").
			WithDetails(map[string]string{"current_status": string(billboard.Status)})
	}

	visitDate := input.VisitDate
	if visitDate.IsZero() {
		visitDate = s.now()
	}
	visit := &models.SiteVisit{
		BillboardID:         billboard.ID,
		AssignmentID:        assignment.ID,
		SubAdminID:          actor.ID,
		IsVerified:          input.Verified,
		LocationAccurate:    input.LocationAccurate,
		StructuralCondition: input.StructuralCondition,
		VisibilityRating:    input.VisibilityRating,
		IssuesFound:         pq.StringArray(input.IssuesFound),
		AccessibilityNotes:  input.AccessibilityNotes,
		Recommendations:     input.Recommendations,
		Notes:               strings.TrimSpace(input.Notes),
		PhotoFrontRef:       input.PhotoFrontRef,
		PhotoStructureRef:   input.PhotoStructureRef,
		ExtraPhotoRefs:      pq.StringArray(input.ExtraPhotoRefs),
		VisitDate:           visitDate,
	}
	if visit.IssuesFound == nil {
		visit.IssuesFound = pq.StringArray{}
	}
	if visit.ExtraPhotoRefs == nil {
		visit.ExtraPhotoRefs = pq.StringArray{}
	}

	target := enums.BillboardStatusActive
	extra := map[string]any{}
	if !input.Verified {
		target = enums.BillboardStatusRejected
		extra["rejection_reason"] = "failed site verification"
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.InsertVisit(ctx, visit); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert site visit")
		}

		affected, err := repo.TransitionBillboard(ctx, billboard.ID, target, extra)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve billboard")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "billboard status changed concurrently")
		}

		affected, err = repo.CompleteAssignment(ctx, assignment.ID, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete assignment")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment was closed concurrently")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventBillboardVerified,
			AggregateType: enums.AggregateSiteVisit,
			AggregateID:   visit.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actor.ID, Name: actor.Name, Role: string(actor.Role)},
			Data: payloads.BillboardVerifiedEvent{
				BillboardID:    billboard.ID,
				BillboardTitle: billboard.Title,
				SiteVisitID:    visit.ID,
				AssignmentID:   assignment.ID,
				SubAdminID:     actor.ID,
				SubAdminName:   actor.Name,
				Verified:       input.Verified,
				NewStatus:      target,
				VisitDate:      visitDate,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit billboard_verified")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toSiteVisitResponse(*visit, target)
	return &resp, nil
}

func (s *service) History(ctx context.Context, billboardID uuid.UUID) ([]SiteVisitResponse, error) {
	if billboardID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billboard id required")
	}
	billboard, err := s.repo.FindBillboard(ctx, billboardID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load billboard")
	}
	if billboard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "billboard not found")
	}

	visits, err := s.repo.ListForBillboard(ctx, billboardID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list site visits")
	}
	items := make([]SiteVisitResponse, 0, len(visits))
	for _, visit := range visits {
		items = append(items, toSiteVisitResponse(visit, billboard.Status))
	}
	return items, nil
}

func toSiteVisitResponse(visit models.SiteVisit, billboardStatus enums.BillboardStatus) SiteVisitResponse {
	return SiteVisitResponse{
		ID:                  visit.ID,
		BillboardID:         visit.BillboardID,
		AssignmentID:        visit.AssignmentID,
		SubAdminID:          visit.SubAdminID,
		IsVerified:          visit.IsVerified,
		LocationAccurate:    visit.LocationAccurate,
		StructuralCondition: visit.StructuralCondition,
		VisibilityRating:    visit.VisibilityRating,
		IssuesFound:         []string(visit.IssuesFound),
		AccessibilityNotes:  visit.AccessibilityNotes,
		Recommendations:     visit.Recommendations,
		Notes:               visit.Notes,
		PhotoFrontRef:       visit.PhotoFrontRef,
		PhotoStructureRef:   visit.PhotoStructureRef,
		ExtraPhotoRefs:      []string(visit.ExtraPhotoRefs),
		BillboardStatus:     billboardStatus,
		VisitDate:           visit.VisitDate,
		CreatedAt:           visit.CreatedAt,
	}
}
