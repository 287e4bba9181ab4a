package billboards

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/adspotmarket/adspot-backend/pkg/db/models"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
	pkgerrors "github.com/adspotmarket/adspot-backend/pkg/errors"
	"github.com/adspotmarket/adspot-backend/pkg/outbox"
	"github.com/adspotmarket/adspot-backend/pkg/outbox/payloads"
	"github.com/adspotmarket/adspot-backend/pkg/pagination"
)

type stubBillboardRepo struct {
	billboards map[uuid.UUID]*models.Billboard

	// forceZeroRows makes the next guarded update report no matching rows,
	// simulating a concurrent writer.
	forceZeroRows bool
}

func newStubBillboardRepo() *stubBillboardRepo {
	return &stubBillboardRepo{billboards: map[uuid.UUID]*models.Billboard{}}
}

func (s *stubBillboardRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubBillboardRepo) Create(ctx context.Context, billboard *models.Billboard) error {
	if billboard.ID == uuid.Nil {
		billboard.ID = uuid.New()
	}
	billboard.CreatedAt = time.Now().UTC()
	billboard.UpdatedAt = billboard.CreatedAt
	s.billboards[billboard.ID] = billboard
	return nil
}

func (s *stubBillboardRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Billboard, error) {
	billboard, ok := s.billboards[id]
	if !ok {
		return nil, nil
	}
	copied := *billboard
	return &copied, nil
}

func (s *stubBillboardRepo) List(ctx context.Context, params listBillboardsParams) ([]models.Billboard, *pagination.Cursor, error) {
	var rows []models.Billboard
	for _, billboard := range s.billboards {
		if params.OwnerID != nil && billboard.OwnerID != *params.OwnerID {
			continue
		}
		if params.Status != nil && billboard.Status != *params.Status {
			continue
		}
		rows = append(rows, *billboard)
	}
	return rows, nil, nil
}

func (s *stubBillboardRepo) UpdateDraft(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	billboard, ok := s.billboards[id]
	if !ok || billboard.Status != enums.BillboardStatusDraft {
		return 0, nil
	}
	s.apply(billboard, updates)
	return 1, nil
}

func (s *stubBillboardRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from enums.BillboardStatus, updates map[string]any) (int64, error) {
	if s.forceZeroRows {
		s.forceZeroRows = false
		return 0, nil
	}
	billboard, ok := s.billboards[id]
	if !ok || billboard.Status != from {
		return 0, nil
	}
	s.apply(billboard, updates)
	return 1, nil
}

func (s *stubBillboardRepo) apply(billboard *models.Billboard, updates map[string]any) {
	for column, value := range updates {
		switch column {
		case "status":
			billboard.Status = value.(enums.BillboardStatus)
		case "title":
			billboard.Title = value.(string)
		case "rejection_reason":
			if value == nil {
				billboard.RejectionReason = nil
			} else {
				reason := value.(string)
				billboard.RejectionReason = &reason
			}
		case "admin_notes":
			notes := value.(string)
			billboard.AdminNotes = &notes
		case "approved_at":
			at := value.(time.Time)
			billboard.ApprovedAt = &at
		case "daily_rate":
			billboard.DailyRate = value.(decimal.Decimal)
		case "updated_at":
			billboard.UpdatedAt = value.(time.Time)
		}
	}
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

type stubKYCGate struct {
	err error
}

func (s stubKYCGate) RequireApproved(ctx context.Context, ownerID uuid.UUID) error {
	return s.err
}

type fixture struct {
	repo   *stubBillboardRepo
	outbox *stubOutbox
	svc    Service
	owner  Actor
	admin  Actor
}

func newFixture(t *testing.T, gateErr error) *fixture {
	t.Helper()
	repo := newStubBillboardRepo()
	ob := &stubOutbox{}
	svc, err := NewService(repo, stubTxRunner{}, ob, stubKYCGate{err: gateErr})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{
		repo:   repo,
		outbox: ob,
		svc:    svc,
		owner:  Actor{ID: uuid.New(), Role: enums.UserRoleOwner, Name: "Olive Owner"},
		admin:  Actor{ID: uuid.New(), Role: enums.UserRoleAdmin, Name: "Ada Admin"},
	}
}

func (f *fixture) seedBillboard(status enums.BillboardStatus) *models.Billboard {
	billboard := &models.Billboard{
		ID:          uuid.New(),
		OwnerID:     f.owner.ID,
		Status:      status,
		Title:       "Highway 7 North Face",
		City:        "Lahore",
		Address:     "Mile 12, N-5",
		WidthFt:     decimal.NewFromInt(40),
		HeightFt:    decimal.NewFromInt(14),
		DailyRate:   decimal.NewFromInt(120),
		MonthlyRate: decimal.NewFromInt(2900),
		ImageRefs:   pq.StringArray{"billboards/front.jpg"},
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	f.repo.billboards[billboard.ID] = billboard
	return billboard
}

func sampleCreateInput() CreateBillboardInput {
	return CreateBillboardInput{
		Title:       "Highway 7 North Face",
		City:        "Lahore",
		Address:     "Mile 12, N-5",
		WidthFt:     decimal.NewFromInt(40),
		HeightFt:    decimal.NewFromInt(14),
		DailyRate:   decimal.NewFromInt(120),
		MonthlyRate: decimal.NewFromInt(2900),
	}
}

func TestCreateStartsAsDraft(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := f.svc.Create(context.Background(), f.owner, sampleCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Status != enums.BillboardStatusDraft {
		t.Fatalf("expected draft, got %s", resp.Status)
	}
	if resp.OwnerID != f.owner.ID {
		t.Fatal("owner mismatch")
	}
	if len(f.outbox.events) != 0 {
		t.Fatal("draft creation must not emit lifecycle events")
	}
}

func TestCreateRecheckedAgainstStoredKYC(t *testing.T) {
	gateErr := pkgerrors.New(pkgerrors.CodeForbidden, "identity verification must be approved first")
	f := newFixture(t, gateErr)

	// A token minted before a KYC rejection still says approved; the stored
	// status decides.
	_, err := f.svc.Create(context.Background(), f.owner, sampleCreateInput())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(f.repo.billboards) != 0 {
		t.Fatal("no draft may be created when the gate blocks")
	}
}

func TestCreateForbiddenForNonOwners(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Create(context.Background(), f.admin, sampleCreateInput())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSubmitGatedOnKYC(t *testing.T) {
	gateErr := pkgerrors.New(pkgerrors.CodeForbidden, "identity verification must be approved first")
	f := newFixture(t, gateErr)
	billboard := f.seedBillboard(enums.BillboardStatusDraft)

	_, err := f.svc.Submit(context.Background(), f.owner, billboard.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if f.repo.billboards[billboard.ID].Status != enums.BillboardStatusDraft {
		t.Fatal("billboard must stay in draft when the gate blocks")
	}
}

func TestSubmitMovesDraftToPending(t *testing.T) {
	f := newFixture(t, nil)
	billboard := f.seedBillboard(enums.BillboardStatusDraft)

	resp, err := f.svc.Submit(context.Background(), f.owner, billboard.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Status != enums.BillboardStatusPending {
		t.Fatalf("expected pending, got %s", resp.Status)
	}
	if len(f.outbox.events) != 1 {
		t.Fatalf("expected one event, got %d", len(f.outbox.events))
	}
	event := f.outbox.events[0]
	if event.EventType != enums.EventBillboardStatusChanged {
		t.Fatalf("unexpected event type %s", event.EventType)
	}
	payload := event.Data.(payloads.BillboardStatusChangedEvent)
	if payload.OldStatus != enums.BillboardStatusDraft || payload.NewStatus != enums.BillboardStatusPending {
		t.Fatalf("unexpected payload transition %s -> %s", payload.OldStatus, payload.NewStatus)
	}
}

func TestSubmitRequiresImage(t *testing.T) {
	f := newFixture(t, nil)
	billboard := f.seedBillboard(enums.BillboardStatusDraft)
	billboard.ImageRefs = pq.StringArray{}

	_, err := f.svc.Submit(context.Background(), f.owner, billboard.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.repo.billboards[billboard.ID].Status != enums.BillboardStatusDraft {
		t.Fatal("an imageless billboard must stay in draft")
	}
	if len(f.outbox.events) != 0 {
		t.Fatal("no event may be emitted when submission is blocked")
	}
}

func TestSubmitRequiresCompleteListing(t *testing.T) {
	f := newFixture(t, nil)
	billboard := f.seedBillboard(enums.BillboardStatusDraft)
	billboard.WidthFt = decimal.Zero
	billboard.HeightFt = decimal.Zero

	_, err := f.svc.Submit(context.Background(), f.owner, billboard.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.repo.billboards[billboard.ID].Status != enums.BillboardStatusDraft {
		t.Fatal("incomplete listings must stay in draft")
	}
}

func TestResubmitRequiresImage(t *testing.T) {
	f := newFixture(t, nil)
	billboard := f.seedBillboard(enums.BillboardStatusRejected)
	billboard.ImageRefs = pq.StringArray{}

	_, err := f.svc.Resubmit(context.Background(), f.owner, billboard.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.repo.billboards[billboard.ID].Status != enums.BillboardStatusRejected {
		t.Fatal("billboard must stay rejected until the listing is complete")
	}
}

func TestSubmitByAnotherOwnerForbidden(t *testing.T) {
	f := newFixture(t, nil)
	billboard := f.seedBillboard(enums.BillboardStatusDraft)
	stranger := Actor{ID: uuid.New(), Role: enums.UserRoleOwner}

	_, err := f.svc.Submit(context.Background(), stranger, billboard.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestApproveSetsApprovedAt(t *testing.T) {
	f := newFixture(t, nil)
	billboard := f.seedBillboard(enums.BillboardStatusPending)

	resp, err := f.svc.Approve(context.Background(), f.admin, billboard.ID, "looks good")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if resp.Status != enums.BillboardStatusApproved {
		t.Fatalf("expected approved, got %s", resp.Status)
	}
	if resp.ApprovedAt == nil {
		t.Fatal("approved_at must be set")
	}
}

func TestApproveRequiresStaff(t *testing.T) {
	f := newFixture(t, nil)
	billboard := f.seedBillboard(enums.BillboardStatusPending)

	_, err := f.svc.Approve(context.Background(), f.owner, billboard.ID, "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestApproveFromDraftRejected(t *testing.T) {
	f := newFixture(t, nil)
	billboard := f.seedBillboard(enums.BillboardStatusDraft)

	_, err := f.svc.Approve(context.Background(), f.admin, billboard.ID, "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t, nil)
	billboard := f.seedBillboard(enums.BillboardStatusPending)

	_, err := f.svc.Reject(context.Background(), f.admin, billboard.ID, "  ")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRejectStoresReason(t *testing.T) {
	f := newFixture(t, nil)
	billboard := f.seedBillboard(enums.BillboardStatusPending)

	resp, err := f.svc.Reject(context.Background(), f.admin, billboard.ID, "structure unsafe")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if resp.Status != enums.BillboardStatusRejected {
		t.Fatalf("expected rejected, got %s", resp.Status)
	}
	if resp.RejectionReason == nil || *resp.RejectionReason != "structure unsafe" {
		t.Fatalf("expected reason, got %+v", resp.RejectionReason)
	}
}

func TestConcurrentTransitionDetected(t *testing.T) {
	f := newFixture(t, nil)
	billboard := f.seedBillboard(enums.BillboardStatusPending)
	f.repo.forceZeroRows = true

	_, err := f.svc.Approve(context.Background(), f.admin, billboard.ID, "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(f.outbox.events) != 0 {
		t.Fatal("no event must be emitted when the guard fails")
	}
}

func TestReverificationPullsActiveBackToApproved(t *testing.T) {
	f := newFixture(t, nil)
	billboard := f.seedBillboard(enums.BillboardStatusActive)

	resp, err := f.svc.RequestReverification(context.Background(), f.admin, billboard.ID, "annual check")
	if err != nil {
		t.Fatalf("reverify: %v", err)
	}
	if resp.Status != enums.BillboardStatusApproved {
		t.Fatalf("expected approved, got %s", resp.Status)
	}
	payload := f.outbox.events[0].Data.(payloads.BillboardStatusChangedEvent)
	if payload.Reason != "reverification requested" {
		t.Fatalf("unexpected reason %q", payload.Reason)
	}
}

func TestDeactivateAndReactivate(t *testing.T) {
	f := newFixture(t, nil)
	billboard := f.seedBillboard(enums.BillboardStatusActive)

	resp, err := f.svc.Deactivate(context.Background(), f.owner, billboard.ID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if resp.Status != enums.BillboardStatusInactive {
		t.Fatalf("expected inactive, got %s", resp.Status)
	}

	resp, err = f.svc.Reactivate(context.Background(), f.owner, billboard.ID)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if resp.Status != enums.BillboardStatusActive {
		t.Fatalf("expected active, got %s", resp.Status)
	}
}

func TestResubmitClearsRejectionReason(t *testing.T) {
	f := newFixture(t, nil)
	billboard := f.seedBillboard(enums.BillboardStatusRejected)
	reason := "structure unsafe"
	billboard.RejectionReason = &reason

	resp, err := f.svc.Resubmit(context.Background(), f.owner, billboard.ID)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if resp.Status != enums.BillboardStatusPending {
		t.Fatalf("expected pending, got %s", resp.Status)
	}
	if resp.RejectionReason != nil {
		t.Fatal("rejection reason must be cleared on resubmission")
	}
}

func TestUpdateOnlyDraftsEditable(t *testing.T) {
	f := newFixture(t, nil)
	billboard := f.seedBillboard(enums.BillboardStatusPending)
	title := "New title"

	_, err := f.svc.Update(context.Background(), f.owner, billboard.ID, UpdateBillboardInput{Title: &title})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestGetUnknownBillboard(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Get(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
