package kyc

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adspotmarket/adspot-backend/pkg/db/models"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
	pkgerrors "github.com/adspotmarket/adspot-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DocumentInput describes one uploaded verification document.
type DocumentInput struct {
	Kind    string `json:"kind" validate:"required,oneof=id_card business_license proof_of_ownership"`
	FileRef string `json:"file_ref" validate:"required,max=512"`
}

// StatusResponse is the owner-facing view of the pipeline.
type StatusResponse struct {
	UserID         uuid.UUID            `json:"user_id"`
	Status         enums.KYCStatus      `json:"status"`
	RejectionNotes *string              `json:"rejection_notes,omitempty"`
	Documents      []models.KYCDocument `json:"documents"`
}

// Service defines the KYC pipeline operations.
type Service interface {
	Submit(ctx context.Context, ownerID uuid.UUID, docs []DocumentInput) (*StatusResponse, error)
	Approve(ctx context.Context, ownerID uuid.UUID) error
	Reject(ctx context.Context, ownerID uuid.UUID, notes string) error
	Status(ctx context.Context, ownerID uuid.UUID) (*StatusResponse, error)
	// RequireApproved is the gate billboard submission calls.
	RequireApproved(ctx context.Context, ownerID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires KYC dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "kyc repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Submit(ctx context.Context, ownerID uuid.UUID, docs []DocumentInput) (*StatusResponse, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if len(docs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one document is required")
	}

	user, err := s.loadOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	current := *user.KYCStatus
	if !current.CanTransitionTo(enums.KYCStatusSubmitted) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "kyc documents cannot be submitted in the current state").
			WithDetails(map[string]string{"current_status": string(current)})
	}

	now := time.Now().UTC()
	rows := make([]models.KYCDocument, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.FileRef) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "document file reference required")
		}
		rows = append(rows, models.KYCDocument{
			UserID:      ownerID,
			Kind:        doc.Kind,
			FileRef:     doc.FileRef,
			SubmittedAt: now,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.TransitionStatus(ctx, ownerID, current, enums.KYCStatusSubmitted, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition kyc status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "kyc status changed concurrently")
		}
		if err := repo.InsertDocuments(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store kyc documents")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Status(ctx, ownerID)
}

func (s *service) Approve(ctx context.Context, ownerID uuid.UUID) error {
	return s.review(ctx, ownerID, enums.KYCStatusApproved, nil)
}

func (s *service) Reject(ctx context.Context, ownerID uuid.UUID, notes string) error {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "rejection notes are required")
	}
	return s.review(ctx, ownerID, enums.KYCStatusRejected, &notes)
}

func (s *service) review(ctx context.Context, ownerID uuid.UUID, target enums.KYCStatus, notes *string) error {
	if ownerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	user, err := s.loadOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	current := *user.KYCStatus
	if !current.CanTransitionTo(target) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "kyc review requires a submitted application").
			WithDetails(map[string]string{"current_status": string(current)})
	}

	affected, err := s.repo.TransitionStatus(ctx, ownerID, current, target, notes)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition kyc status")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "kyc status changed concurrently")
	}
	return nil
}

func (s *service) Status(ctx context.Context, ownerID uuid.UUID) (*StatusResponse, error) {
	user, err := s.loadOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.ListDocuments(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list kyc documents")
	}
	return &StatusResponse{
		UserID:         user.ID,
		Status:         *user.KYCStatus,
		RejectionNotes: user.RejectionNotes,
		Documents:      docs,
	}, nil
}

func (s *service) RequireApproved(ctx context.Context, ownerID uuid.UUID) error {
	user, err := s.loadOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if *user.KYCStatus != enums.KYCStatusApproved {
		return pkgerrors.New(pkgerrors.CodeForbidden, "identity verification must be approved first").
			WithDetails(map[string]string{"kyc_status": string(*user.KYCStatus)})
	}
	return nil
}

func (s *service) loadOwner(ctx context.Context, ownerID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindUser(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load owner")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if user.KYCStatus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is not enrolled in identity verification")
	}
	return user, nil
}
