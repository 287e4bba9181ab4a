package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/api/responses"
	"github.com/adspotmarket/adspot-backend/api/validators"
	"github.com/adspotmarket/adspot-backend/internal/billboards"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
	pkgerrors "github.com/adspotmarket/adspot-backend/pkg/errors"
	"github.com/adspotmarket/adspot-backend/pkg/logger"
	"github.com/adspotmarket/adspot-backend/pkg/pagination"
)

type billboardReviewRequest struct {
	AdminNotes string `json:"admin_notes" validate:"omitempty,max=2000"`
}

type billboardRejectRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=2000"`
}

// BillboardCreate opens a new draft listing for the calling owner.
func BillboardCreate(svc billboards.Service, directory userDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billboards service unavailable"))
			return
		}

		actor, err := billboardActor(r, directory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body billboards.CreateBillboardInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// BillboardUpdate edits a draft listing.
func BillboardUpdate(svc billboards.Service, directory userDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billboards service unavailable"))
			return
		}

		actor, err := billboardActor(r, directory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := billboardID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body billboards.UpdateBillboardInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), actor, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// BillboardGet returns one listing.
func BillboardGet(svc billboards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billboards service unavailable"))
			return
		}

		id, err := billboardID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		billboard, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, billboard)
	}
}

// BillboardList pages listings. Non-staff callers only see their own.
func BillboardList(svc billboards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billboards service unavailable"))
			return
		}

		userID, role, err := subjectFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := billboards.ListParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if role.IsStaff() {
			if ownerRaw := strings.TrimSpace(r.URL.Query().Get("owner_id")); ownerRaw != "" {
				ownerID, err := uuid.Parse(ownerRaw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid owner id"))
					return
				}
				params.OwnerID = &ownerID
			}
		} else {
			params.OwnerID = &userID
		}

		if statusRaw := strings.TrimSpace(r.URL.Query().Get("status")); statusRaw != "" {
			status := enums.BillboardStatus(statusRaw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			params.Status = &status
		}
		if city := strings.TrimSpace(r.URL.Query().Get("city")); city != "" {
			params.City = &city
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// BillboardSubmit moves a draft into the review queue.
func BillboardSubmit(svc billboards.Service, directory userDirectory, logg *logger.Logger) http.HandlerFunc {
	return billboardTransition(svc, directory, logg, func(r *http.Request, actor billboards.Actor, id uuid.UUID) (*billboards.BillboardResponse, error) {
		return svc.Submit(r.Context(), actor, id)
	})
}

// BillboardResubmit sends a rejected listing back to review.
func BillboardResubmit(svc billboards.Service, directory userDirectory, logg *logger.Logger) http.HandlerFunc {
	return billboardTransition(svc, directory, logg, func(r *http.Request, actor billboards.Actor, id uuid.UUID) (*billboards.BillboardResponse, error) {
		return svc.Resubmit(r.Context(), actor, id)
	})
}

// BillboardDeactivate pulls an active listing off the marketplace.
func BillboardDeactivate(svc billboards.Service, directory userDirectory, logg *logger.Logger) http.HandlerFunc {
	return billboardTransition(svc, directory, logg, func(r *http.Request, actor billboards.Actor, id uuid.UUID) (*billboards.BillboardResponse, error) {
		return svc.Deactivate(r.Context(), actor, id)
	})
}

// BillboardReactivate restores a deactivated listing.
func BillboardReactivate(svc billboards.Service, directory userDirectory, logg *logger.Logger) http.HandlerFunc {
	return billboardTransition(svc, directory, logg, func(r *http.Request, actor billboards.Actor, id uuid.UUID) (*billboards.BillboardResponse, error) {
		return svc.Reactivate(r.Context(), actor, id)
	})
}

// BillboardApprove clears a pending listing for assignment. Staff only.
func BillboardApprove(svc billboards.Service, directory userDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billboards service unavailable"))
			return
		}

		actor, err := billboardActor(r, directory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := billboardID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body billboardReviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Approve(r.Context(), actor, id, body.AdminNotes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// BillboardReject turns down a pending listing with a reason. Staff only.
func BillboardReject(svc billboards.Service, directory userDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billboards service unavailable"))
			return
		}

		actor, err := billboardActor(r, directory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := billboardID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body billboardRejectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Reject(r.Context(), actor, id, body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// BillboardReverify pulls an active listing back for a fresh site visit.
func BillboardReverify(svc billboards.Service, directory userDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billboards service unavailable"))
			return
		}

		actor, err := billboardActor(r, directory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := billboardID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body billboardReviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.RequestReverification(r.Context(), actor, id, body.AdminNotes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func billboardTransition(
	svc billboards.Service,
	directory userDirectory,
	logg *logger.Logger,
	apply func(r *http.Request, actor billboards.Actor, id uuid.UUID) (*billboards.BillboardResponse, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billboards service unavailable"))
			return
		}

		actor, err := billboardActor(r, directory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := billboardID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := apply(r, actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func billboardActor(r *http.Request, directory userDirectory) (billboards.Actor, error) {
	id, role, err := subjectFromRequest(r)
	if err != nil {
		return billboards.Actor{}, err
	}
	return billboards.Actor{
		ID:   id,
		Role: role,
		Name: resolveActorName(r.Context(), directory, id),
	}, nil
}

func billboardID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "billboardId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billboard id")
	}
	return id, nil
}
