package assignments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adspotmarket/adspot-backend/pkg/db"
	"github.com/adspotmarket/adspot-backend/pkg/db/models"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
	pkgerrors "github.com/adspotmarket/adspot-backend/pkg/errors"
	"github.com/adspotmarket/adspot-backend/pkg/outbox"
	"github.com/adspotmarket/adspot-backend/pkg/outbox/payloads"
	"github.com/adspotmarket/adspot-backend/pkg/pagination"
)

// activeAssignmentIndex is the partial unique index that enforces at most one
// active assignment per billboard.
const activeAssignmentIndex = "ux_billboard_assignments_active"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines verification assignment operations.
type Service interface {
	Assign(ctx context.Context, actor Actor, input AssignInput) (*AssignResult, error)
	Get(ctx context.Context, id uuid.UUID) (*AssignmentResponse, error)
	ListForSubAdmin(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// NewService wires assignment dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assignments repository required")
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

// Assign hands a billboard to a sub-admin for a site visit. Any prior active
// assignment is superseded inside the same transaction so the partial unique
// index slot frees up before the insert.
func (s *service) Assign(ctx context.Context, actor Actor, input AssignInput) (*AssignResult, error) {
	if !actor.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff role required")
	}
	if input.BillboardID == uuid.Nil || input.SubAdminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billboard id and sub-admin id required")
	}

	priority := enums.AssignmentPriorityMedium
	if input.Priority != "" {
		parsed, err := enums.ParseAssignmentPriority(input.Priority)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority")
		}
		priority = parsed
	}

	billboard, err := s.repo.FindBillboard(ctx, input.BillboardID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load billboard")
	}
	if billboard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "billboard not found")
	}
	if billboard.Status != enums.BillboardStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only approved billboards can be assigned for verification").
			WithDetails(map[string]string{"current_status": string(billboard.Status)})
	}

	subAdmin, err := s.repo.FindUser(ctx, input.SubAdminID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sub-admin")
	}
	if subAdmin == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sub-admin not found")
	}
	if subAdmin.Role != enums.UserRoleSubAdmin || !subAdmin.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignee must be an active sub-admin")
	}

	var result *AssignResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		prior, err := repo.FindActiveByBillboard(ctx, input.BillboardID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find active assignment")
		}

		outcome := OutcomeCreated
		var supersededID *uuid.UUID
		if prior != nil {
			if _, err := repo.Supersede(ctx, input.BillboardID, s.now()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "supersede assignment")
			}
			outcome = OutcomeSuperseded
			id := prior.ID
			supersededID = &id
		}

		assignment := &models.BillboardAssignment{
			BillboardID:  input.BillboardID,
			SubAdminID:   input.SubAdminID,
			AssignedByID: actor.ID,
			Status:       enums.AssignmentStatusPending,
			Priority:     priority,
			Notes:        input.Notes,
			IsActive:     true,
			AssignedAt:   s.now(),
		}
		if err := repo.Create(ctx, assignment); err != nil {
			if db.IsUniqueViolation(err, activeAssignmentIndex) {
				return pkgerrors.New(pkgerrors.CodeConflict, "another assignment was created concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventAssignmentChanged,
			AggregateType: enums.AggregateAssignment,
			AggregateID:   assignment.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actor.ID, Name: actor.Name, Role: string(actor.Role)},
			Data: payloads.AssignmentChangedEvent{
				AssignmentID:   assignment.ID,
				BillboardID:    billboard.ID,
				BillboardTitle: billboard.Title,
				SubAdminID:     subAdmin.ID,
				SubAdminName:   subAdmin.FullName,
				AssignedByName: actor.Name,
				Priority:       priority,
				Superseded:     supersededID,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit assignment_changed")
		}

		result = &AssignResult{
			Assignment: toAssignmentResponse(AssignmentView{
				BillboardAssignment: *assignment,
				BillboardTitle:      billboard.Title,
				BillboardCity:       billboard.City,
			}),
			Outcome:    outcome,
			Superseded: supersededID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*AssignmentResponse, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	if assignment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
	}
	resp := toAssignmentResponse(AssignmentView{BillboardAssignment: *assignment})
	return &resp, nil
}

func (s *service) ListForSubAdmin(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.SubAdminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sub-admin id required")
	}

	query := listForSubAdminParams{
		SubAdminID: params.SubAdminID,
		ActiveOnly: params.ActiveOnly,
		Limit:      params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListForSubAdmin(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}

	items := make([]AssignmentResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, toAssignmentResponse(row))
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}
