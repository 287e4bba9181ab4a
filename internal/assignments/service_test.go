package assignments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adspotmarket/adspot-backend/pkg/db/models"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
	pkgerrors "github.com/adspotmarket/adspot-backend/pkg/errors"
	"github.com/adspotmarket/adspot-backend/pkg/outbox"
	"github.com/adspotmarket/adspot-backend/pkg/outbox/payloads"
	"github.com/adspotmarket/adspot-backend/pkg/pagination"
)

type stubAssignmentRepo struct {
	billboards  map[uuid.UUID]*models.Billboard
	users       map[uuid.UUID]*models.User
	assignments map[uuid.UUID]*models.BillboardAssignment

	createErr error
}

func newStubAssignmentRepo() *stubAssignmentRepo {
	return &stubAssignmentRepo{
		billboards:  map[uuid.UUID]*models.Billboard{},
		users:       map[uuid.UUID]*models.User{},
		assignments: map[uuid.UUID]*models.BillboardAssignment{},
	}
}

func (s *stubAssignmentRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubAssignmentRepo) FindBillboard(ctx context.Context, id uuid.UUID) (*models.Billboard, error) {
	return s.billboards[id], nil
}

func (s *stubAssignmentRepo) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users[id], nil
}

func (s *stubAssignmentRepo) Create(ctx context.Context, assignment *models.BillboardAssignment) error {
	if s.createErr != nil {
		return s.createErr
	}
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	copied := *assignment
	s.assignments[assignment.ID] = &copied
	return nil
}

func (s *stubAssignmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.BillboardAssignment, error) {
	return s.assignments[id], nil
}

func (s *stubAssignmentRepo) FindActiveByBillboard(ctx context.Context, billboardID uuid.UUID) (*models.BillboardAssignment, error) {
	for _, assignment := range s.assignments {
		if assignment.BillboardID == billboardID && assignment.IsActive {
			copied := *assignment
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubAssignmentRepo) Supersede(ctx context.Context, billboardID uuid.UUID, at time.Time) (int64, error) {
	var affected int64
	for _, assignment := range s.assignments {
		if assignment.BillboardID == billboardID && assignment.IsActive {
			assignment.IsActive = false
			assignment.Status = enums.AssignmentStatusSuperseded
			completed := at
			assignment.CompletedAt = &completed
			affected++
		}
	}
	return affected, nil
}

func (s *stubAssignmentRepo) ListForSubAdmin(ctx context.Context, params listForSubAdminParams) ([]AssignmentView, *pagination.Cursor, error) {
	var rows []AssignmentView
	for _, assignment := range s.assignments {
		if assignment.SubAdminID != params.SubAdminID {
			continue
		}
		if params.ActiveOnly && !assignment.IsActive {
			continue
		}
		view := AssignmentView{BillboardAssignment: *assignment}
		if billboard, ok := s.billboards[assignment.BillboardID]; ok {
			view.BillboardTitle = billboard.Title
			view.BillboardCity = billboard.City
		}
		rows = append(rows, view)
	}
	return rows, nil, nil
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
	repo     *stubAssignmentRepo
	outbox   *stubOutbox
	svc      Service
	admin    Actor
	subAdmin *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newStubAssignmentRepo()
	ob := &stubOutbox{}
	svc, err := NewService(repo, stubTxRunner{}, ob)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	subAdmin := &models.User{
		ID:       uuid.New(),
		Email:    "field@example.com",
		FullName: "Farah Field",
		Role:     enums.UserRoleSubAdmin,
		IsActive: true,
	}
	repo.users[subAdmin.ID] = subAdmin

	return &fixture{
		repo:     repo,
		outbox:   ob,
		svc:      svc,
		admin:    Actor{ID: uuid.New(), Role: enums.UserRoleAdmin, Name: "Ada Admin"},
		subAdmin: subAdmin,
	}
}

func (f *fixture) seedBillboard(status enums.BillboardStatus) *models.Billboard {
	billboard := &models.Billboard{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Status:  status,
		Title:   "Highway 7 North Face",
		City:    "Lahore",
	}
	f.repo.billboards[billboard.ID] = billboard
	return billboard
}

func TestAssignCreatesFirstAssignment(t *testing.T) {
	f := newFixture(t)
	billboard := f.seedBillboard(enums.BillboardStatusApproved)

	result, err := f.svc.Assign(context.Background(), f.admin, AssignInput{
		BillboardID: billboard.ID,
		SubAdminID:  f.subAdmin.ID,
		Priority:    "high",
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if result.Outcome != OutcomeCreated {
		t.Fatalf("expected created outcome, got %s", result.Outcome)
	}
	if result.Superseded != nil {
		t.Fatal("first assignment must not supersede anything")
	}
	if result.Assignment.Priority != enums.AssignmentPriorityHigh {
		t.Fatalf("expected high priority, got %s", result.Assignment.Priority)
	}
	if result.Assignment.BillboardTitle != "Highway 7 North Face" {
		t.Fatal("billboard title must be denormalized onto the response")
	}
	if len(f.outbox.events) != 1 {
		t.Fatalf("expected one event, got %d", len(f.outbox.events))
	}
	payload := f.outbox.events[0].Data.(payloads.AssignmentChangedEvent)
	if payload.SubAdminName != "Farah Field" || payload.AssignedByName != "Ada Admin" {
		t.Fatalf("names must be denormalized, got %+v", payload)
	}
}

func TestAssignSupersedesPriorAssignment(t *testing.T) {
	f := newFixture(t)
	billboard := f.seedBillboard(enums.BillboardStatusApproved)

	first, err := f.svc.Assign(context.Background(), f.admin, AssignInput{
		BillboardID: billboard.ID,
		SubAdminID:  f.subAdmin.ID,
	})
	if err != nil {
		t.Fatalf("first assign: %v", err)
	}

	other := &models.User{ID: uuid.New(), FullName: "Noor Nadeem", Role: enums.UserRoleSubAdmin, IsActive: true}
	f.repo.users[other.ID] = other

	second, err := f.svc.Assign(context.Background(), f.admin, AssignInput{
		BillboardID: billboard.ID,
		SubAdminID:  other.ID,
	})
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}
	if second.Outcome != OutcomeSuperseded {
		t.Fatalf("expected superseded outcome, got %s", second.Outcome)
	}
	if second.Superseded == nil || *second.Superseded != first.Assignment.ID {
		t.Fatal("superseded id must point at the prior assignment")
	}

	prior := f.repo.assignments[first.Assignment.ID]
	if prior.IsActive || prior.Status != enums.AssignmentStatusSuperseded {
		t.Fatalf("prior assignment must be retired, got %+v", prior)
	}

	active, _ := f.repo.FindActiveByBillboard(context.Background(), billboard.ID)
	if active == nil || active.ID != second.Assignment.ID {
		t.Fatal("only the new assignment may be active")
	}
}

func TestAssignUniqueIndexRace(t *testing.T) {
	f := newFixture(t)
	billboard := f.seedBillboard(enums.BillboardStatusApproved)
	f.repo.createErr = errors.New(`duplicate key value violates unique constraint "ux_billboard_assignments_active"`)

	_, err := f.svc.Assign(context.Background(), f.admin, AssignInput{
		BillboardID: billboard.ID,
		SubAdminID:  f.subAdmin.ID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAssignRequiresApprovedBillboard(t *testing.T) {
	f := newFixture(t)
	billboard := f.seedBillboard(enums.BillboardStatusPending)

	_, err := f.svc.Assign(context.Background(), f.admin, AssignInput{
		BillboardID: billboard.ID,
		SubAdminID:  f.subAdmin.ID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestAssignRejectsNonSubAdminAssignee(t *testing.T) {
	f := newFixture(t)
	billboard := f.seedBillboard(enums.BillboardStatusApproved)
	owner := &models.User{ID: uuid.New(), Role: enums.UserRoleOwner, IsActive: true}
	f.repo.users[owner.ID] = owner

	_, err := f.svc.Assign(context.Background(), f.admin, AssignInput{
		BillboardID: billboard.ID,
		SubAdminID:  owner.ID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAssignRequiresStaff(t *testing.T) {
	f := newFixture(t)
	billboard := f.seedBillboard(enums.BillboardStatusApproved)
	owner := Actor{ID: uuid.New(), Role: enums.UserRoleOwner}

	_, err := f.svc.Assign(context.Background(), owner, AssignInput{
		BillboardID: billboard.ID,
		SubAdminID:  f.subAdmin.ID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestListForSubAdminFiltersActive(t *testing.T) {
	f := newFixture(t)
	billboard := f.seedBillboard(enums.BillboardStatusApproved)

	if _, err := f.svc.Assign(context.Background(), f.admin, AssignInput{
		BillboardID: billboard.ID,
		SubAdminID:  f.subAdmin.ID,
	}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.svc.Assign(context.Background(), f.admin, AssignInput{
		BillboardID: billboard.ID,
		SubAdminID:  f.subAdmin.ID,
	}); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	all, err := f.svc.ListForSubAdmin(context.Background(), ListParams{SubAdminID: f.subAdmin.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all.Items) != 2 {
		t.Fatalf("expected both assignments, got %d", len(all.Items))
	}

	active, err := f.svc.ListForSubAdmin(context.Background(), ListParams{SubAdminID: f.subAdmin.ID, ActiveOnly: true})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active.Items) != 1 {
		t.Fatalf("expected one active assignment, got %d", len(active.Items))
	}
	if active.Items[0].BillboardTitle != "Highway 7 North Face" {
		t.Fatal("dashboard rows must carry the billboard title")
	}
}
