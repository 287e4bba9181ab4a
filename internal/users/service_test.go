package users

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/pkg/enums"
	pkgerrors "github.com/adspotmarket/adspot-backend/pkg/errors"
)

func TestUpdateUserEmitsEvent(t *testing.T) {
	repo := newStubUsersRepo()
	target := seedOwner(repo)
	publisher := &stubOutboxPublisher{}

	svc, err := NewService(repo, stubTxRunner{}, publisher)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	name := "Renamed Owner"
	resp, err := svc.Update(context.Background(), adminActor(), target.ID, UpdateUserInput{FullName: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if resp.FullName != name {
		t.Fatalf("expected updated name, got %q", resp.FullName)
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != enums.EventUserUpdated {
		t.Fatalf("expected user_updated event, got %+v", publisher.events)
	}
}

func TestUpdateUserSelfCannotChangeStatus(t *testing.T) {
	repo := newStubUsersRepo()
	target := seedOwner(repo)

	svc, err := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	active := false
	actor := Actor{ID: target.ID, Role: enums.UserRoleOwner, Name: target.FullName}
	_, err = svc.Update(context.Background(), actor, target.ID, UpdateUserInput{IsActive: &active})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateUserRejectsOtherAccounts(t *testing.T) {
	repo := newStubUsersRepo()
	target := seedOwner(repo)

	svc, err := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	name := "Sneaky"
	actor := Actor{ID: uuid.New(), Role: enums.UserRoleUser, Name: "Someone Else"}
	_, err = svc.Update(context.Background(), actor, target.ID, UpdateUserInput{FullName: &name})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	svc, err := NewService(newStubUsersRepo(), stubTxRunner{}, &stubOutboxPublisher{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	_, err = svc.Get(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
