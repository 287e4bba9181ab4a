package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

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
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines admin-facing account operations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateUserInput) (*UserResponse, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService wires account management dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	resp := toUserResponse(*user)
	return &resp, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listUsersParams{
		Role:  params.Role,
		Limit: params.Limit,
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	items := make([]UserResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, toUserResponse(row))
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateUserInput) (*UserResponse, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !actor.Role.IsStaff() && actor.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot modify another account")
	}

	updates := map[string]any{}
	var fields []string
	if input.FullName != nil {
		updates["full_name"] = *input.FullName
		fields = append(fields, "full_name")
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
		fields = append(fields, "phone")
	}
	if input.IsActive != nil {
		if !actor.Role.IsStaff() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only staff can change account status")
		}
		updates["is_active"] = *input.IsActive
		fields = append(fields, "is_active")
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	var updated *UserResponse
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.UpdateProfile(ctx, id, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		user, err := repo.FindByID(ctx, id)
		if err != nil || user == nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventUserUpdated,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actor.ID, Name: actor.Name, Role: string(actor.Role)},
			Data: payloads.UserUpdatedEvent{
				UserID:        user.ID,
				FullName:      user.FullName,
				UpdatedFields: fields,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit user_updated")
		}

		resp := toUserResponse(*user)
		updated = &resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
