package sitevisits

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adspotmarket/adspot-backend/pkg/db/models"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
	pkgerrors "github.com/adspotmarket/adspot-backend/pkg/errors"
	"github.com/adspotmarket/adspot-backend/pkg/outbox"
	"github.com/adspotmarket/adspot-backend/pkg/outbox/payloads"
)

type stubVisitRepo struct {
	billboards  map[uuid.UUID]*models.Billboard
	assignments map[uuid.UUID]*models.BillboardAssignment
	visits      []models.SiteVisit

	// forceBillboardZeroRows simulates a concurrent billboard transition.
	forceBillboardZeroRows bool
}

func newStubVisitRepo() *stubVisitRepo {
	return &stubVisitRepo{
		billboards:  map[uuid.UUID]*models.Billboard{},
		assignments: map[uuid.UUID]*models.BillboardAssignment{},
	}
}

func (s *stubVisitRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubVisitRepo) FindAssignment(ctx context.Context, id uuid.UUID) (*models.BillboardAssignment, error) {
	assignment, ok := s.assignments[id]
	if !ok {
		return nil, nil
	}
	copied := *assignment
	return &copied, nil
}

func (s *stubVisitRepo) FindBillboard(ctx context.Context, id uuid.UUID) (*models.Billboard, error) {
	billboard, ok := s.billboards[id]
	if !ok {
		return nil, nil
	}
	copied := *billboard
	return &copied, nil
}

func (s *stubVisitRepo) InsertVisit(ctx context.Context, visit *models.SiteVisit) error {
	if visit.ID == uuid.Nil {
		visit.ID = uuid.New()
	}
	visit.CreatedAt = time.Now().UTC()
	s.visits = append(s.visits, *visit)
	return nil
}

func (s *stubVisitRepo) ListForBillboard(ctx context.Context, billboardID uuid.UUID) ([]models.SiteVisit, error) {
	var rows []models.SiteVisit
	for _, visit := range s.visits {
		if visit.BillboardID == billboardID {
			rows = append(rows, visit)
		}
	}
	return rows, nil
}

func (s *stubVisitRepo) TransitionBillboard(ctx context.Context, billboardID uuid.UUID, to enums.BillboardStatus, updates map[string]any) (int64, error) {
	if s.forceBillboardZeroRows {
		s.forceBillboardZeroRows = false
		return 0, nil
	}
	billboard, ok := s.billboards[billboardID]
	if !ok || billboard.Status != enums.BillboardStatusApproved {
		return 0, nil
	}
	billboard.Status = to
	if reason, ok := updates["rejection_reason"].(string); ok {
		billboard.RejectionReason = &reason
	}
	return 1, nil
}

func (s *stubVisitRepo) CompleteAssignment(ctx context.Context, assignmentID uuid.UUID, at time.Time) (int64, error) {
	assignment, ok := s.assignments[assignmentID]
	if !ok || !assignment.IsActive {
		return 0, nil
	}
	assignment.IsActive = false
	assignment.Status = enums.AssignmentStatusCompleted
	completed := at
	assignment.CompletedAt = &completed
	return 1, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type fixture struct {
	repo       *stubVisitRepo
	outbox     *stubOutbox
	svc        Service
	subAdmin   Actor
	billboard  *models.Billboard
	assignment *models.BillboardAssignment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newStubVisitRepo()
	ob := &stubOutbox{}
	svc, err := NewService(repo, stubTxRunner{}, ob)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	subAdmin := Actor{ID: uuid.New(), Role: enums.UserRoleSubAdmin, Name: "Farah Field"}
	billboard := &models.Billboard{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Status:  enums.BillboardStatusApproved,
		Title:   "Highway 7 North Face",
		City:    "Lahore",
	}
	repo.billboards[billboard.ID] = billboard

	assignment := &models.BillboardAssignment{
		ID:          uuid.New(),
		BillboardID: billboard.ID,
		SubAdminID:  subAdmin.ID,
		Status:      enums.AssignmentStatusPending,
		Priority:    enums.AssignmentPriorityMedium,
		IsActive:    true,
		AssignedAt:  time.Now().UTC(),
	}
	repo.assignments[assignment.ID] = assignment

	return &fixture{
		repo:       repo,
		outbox:     ob,
		svc:        svc,
		subAdmin:   subAdmin,
		billboard:  billboard,
		assignment: assignment,
	}
}

func sampleVisitInput(assignmentID uuid.UUID, verified bool) RecordVisitInput {
	return RecordVisitInput{
		AssignmentID:        assignmentID,
		Verified:            verified,
		LocationAccurate:    true,
		StructuralCondition: "good",
		VisibilityRating:    4,
		Notes:               "structure sound, faces oncoming traffic",
		PhotoFrontRef:       "visits/front.jpg",
		PhotoStructureRef:   "visits/structure.jpg",
	}
}

func TestVerifiedVisitActivatesBillboard(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.RecordVisit(context.Background(), f.subAdmin, sampleVisitInput(f.assignment.ID, true))
	if err != nil {
		t.Fatalf("record visit: %v", err)
	}
	if resp.BillboardStatus != enums.BillboardStatusActive {
		t.Fatalf("expected active billboard, got %s", resp.BillboardStatus)
	}
	if f.repo.billboards[f.billboard.ID].Status != enums.BillboardStatusActive {
		t.Fatal("billboard row must be active")
	}

	assignment := f.repo.assignments[f.assignment.ID]
	if assignment.IsActive || assignment.Status != enums.AssignmentStatusCompleted {
		t.Fatalf("assignment must be completed, got %+v", assignment)
	}
	if assignment.CompletedAt == nil {
		t.Fatal("completed_at must be set")
	}

	if len(f.outbox.events) != 1 {
		t.Fatalf("expected one event, got %d", len(f.outbox.events))
	}
	payload := f.outbox.events[0].Data.(payloads.BillboardVerifiedEvent)
	if !payload.Verified || payload.NewStatus != enums.BillboardStatusActive {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.SubAdminName != "Farah Field" {
		t.Fatal("sub-admin name must be denormalized")
	}
}

func TestFailedVisitRejectsBillboard(t *testing.T) {
	f := newFixture(t)

	input := sampleVisitInput(f.assignment.ID, false)
	input.IssuesFound = []string{"panel delaminating"}

	resp, err := f.svc.RecordVisit(context.Background(), f.subAdmin, input)
	if err != nil {
		t.Fatalf("record visit: %v", err)
	}
	if resp.BillboardStatus != enums.BillboardStatusRejected {
		t.Fatalf("expected rejected billboard, got %s", resp.BillboardStatus)
	}
	billboard := f.repo.billboards[f.billboard.ID]
	if billboard.RejectionReason == nil || *billboard.RejectionReason != "failed site verification" {
		t.Fatalf("expected rejection reason, got %+v", billboard.RejectionReason)
	}
}

func TestRecordVisitRequiresPhotos(t *testing.T) {
	f := newFixture(t)

	input := sampleVisitInput(f.assignment.ID, true)
	input.PhotoStructureRef = "  "

	_, err := f.svc.RecordVisit(context.Background(), f.subAdmin, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.repo.visits) != 0 {
		t.Fatal("no visit may be written on validation failure")
	}
}

func TestRecordVisitRequiresNotes(t *testing.T) {
	f := newFixture(t)

	input := sampleVisitInput(f.assignment.ID, true)
	input.Notes = " "

	_, err := f.svc.RecordVisit(context.Background(), f.subAdmin, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordVisitVisibilityRatingRange(t *testing.T) {
	f := newFixture(t)

	for _, rating := range []int{0, 11} {
		input := sampleVisitInput(f.assignment.ID, true)
		input.VisibilityRating = rating
		_, err := f.svc.RecordVisit(context.Background(), f.subAdmin, input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("rating %d: expected validation error, got %v", rating, err)
		}
	}

	// The scale runs to ten, not five.
	input := sampleVisitInput(f.assignment.ID, true)
	input.VisibilityRating = 8
	resp, err := f.svc.RecordVisit(context.Background(), f.subAdmin, input)
	if err != nil {
		t.Fatalf("rating 8 must be accepted: %v", err)
	}
	if resp.VisibilityRating != 8 {
		t.Fatalf("expected rating 8 echoed back, got %d", resp.VisibilityRating)
	}
}

func TestRecordVisitRejectsOtherSubAdmin(t *testing.T) {
	f := newFixture(t)
	stranger := Actor{ID: uuid.New(), Role: enums.UserRoleSubAdmin, Name: "Someone Else"}

	_, err := f.svc.RecordVisit(context.Background(), stranger, sampleVisitInput(f.assignment.ID, true))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRecordVisitRejectsInactiveAssignment(t *testing.T) {
	f := newFixture(t)
	f.assignment.IsActive = false
	f.assignment.Status = enums.AssignmentStatusSuperseded

	_, err := f.svc.RecordVisit(context.Background(), f.subAdmin, sampleVisitInput(f.assignment.ID, true))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRecordVisitConcurrentBillboardChange(t *testing.T) {
	f := newFixture(t)
	f.repo.forceBillboardZeroRows = true

	_, err := f.svc.RecordVisit(context.Background(), f.subAdmin, sampleVisitInput(f.assignment.ID, true))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(f.outbox.events) != 0 {
		t.Fatal("no event may be emitted when the transaction fails")
	}
}

func TestHistoryReturnsVisits(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.RecordVisit(context.Background(), f.subAdmin, sampleVisitInput(f.assignment.ID, true)); err != nil {
		t.Fatalf("record visit: %v", err)
	}

	visits, err := f.svc.History(context.Background(), f.billboard.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(visits) != 1 {
		t.Fatalf("expected one visit, got %d", len(visits))
	}
	if visits[0].AssignmentID != f.assignment.ID {
		t.Fatal("visit must reference its assignment")
	}
}
