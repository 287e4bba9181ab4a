package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adspotmarket/adspot-backend/pkg/enums"
	pkgerrors "github.com/adspotmarket/adspot-backend/pkg/errors"
	"github.com/adspotmarket/adspot-backend/pkg/logger"
	"github.com/adspotmarket/adspot-backend/pkg/outbox"
	"github.com/adspotmarket/adspot-backend/pkg/outbox/payloads"
)

// SessionRevoker invalidates every active session for a user. Revocation is a
// best-effort side effect of deletion; the cascade does not depend on it.
type SessionRevoker interface {
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) error
}

// DeletionService removes an account and all dependent rows in one database
// transaction. Only full admins may delete, and admin accounts can never be
// targets.
type DeletionService interface {
	DeleteUser(ctx context.Context, actor Actor, targetID uuid.UUID) (*DeletionReport, error)
}

type deletionService struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	sessions SessionRevoker
	logg     *logger.Logger
}

// NewDeletionService wires the secure deletion orchestrator.
func NewDeletionService(repo Repository, tx txRunner, outboxSvc outboxPublisher, sessions SessionRevoker, logg *logger.Logger) (DeletionService, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session revoker required")
	}
	return &deletionService{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		sessions: sessions,
		logg:     logg,
	}, nil
}

func (s *deletionService) DeleteUser(ctx context.Context, actor Actor, targetID uuid.UUID) (*DeletionReport, error) {
	if targetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target user id required")
	}
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can delete accounts")
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load target user")
	}
	if target == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if target.Role == enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot be deleted")
	}

	started := time.Now()
	report := &DeletionReport{
		UserID:          targetID,
		DeletedCounts:   map[string]int64{},
		SessionsRevoked: true,
	}

	// Best effort: a dead Redis or session store must not block deletion.
	if err := s.sessions.RevokeAllSessions(ctx, targetID); err != nil {
		report.SessionsRevoked = false
		report.Warnings = append(report.Warnings, pkgerrors.New(pkgerrors.CodePartial, "session revocation failed").Error())
		if s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, targetID.String()), "session revocation failed during deletion")
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		counts, err := repo.SecureDelete(ctx, targetID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "secure delete cascade")
		}
		for _, count := range counts {
			report.DeletedCounts[count.Entity] = count.RowsDeleted
		}
		if report.DeletedCounts["users"] == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}

		report.ElapsedMS = time.Since(started).Milliseconds()
		event := outbox.DomainEvent{
			EventType:     enums.EventUserDeleted,
			AggregateType: enums.AggregateUser,
			AggregateID:   targetID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actor.ID, Name: actor.Name, Role: string(actor.Role)},
			Data: payloads.UserDeletedEvent{
				UserID:          targetID,
				Email:           target.Email,
				FullName:        target.FullName,
				Role:            target.Role,
				DeletedByName:   actor.Name,
				DeletedCounts:   report.DeletedCounts,
				ElapsedMS:       report.ElapsedMS,
				SessionsRevoked: report.SessionsRevoked,
			},
		}
		// A deleted account is deleted exactly once; a retried request must
		// not fan out a second audit event.
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit user_deleted")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.ElapsedMS = time.Since(started).Milliseconds()
	return report, nil
}
