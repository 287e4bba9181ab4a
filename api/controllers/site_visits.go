package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/api/responses"
	"github.com/adspotmarket/adspot-backend/api/validators"
	"github.com/adspotmarket/adspot-backend/internal/sitevisits"
	pkgerrors "github.com/adspotmarket/adspot-backend/pkg/errors"
	"github.com/adspotmarket/adspot-backend/pkg/logger"
)

// SiteVisitRecord files a verification outcome for an assigned billboard.
func SiteVisitRecord(svc sitevisits.Service, directory userDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "site visits service unavailable"))
			return
		}

		id, role, err := subjectFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := sitevisits.Actor{
			ID:   id,
			Role: role,
			Name: resolveActorName(r.Context(), directory, id),
		}

		var body sitevisits.RecordVisitInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		visit, err := svc.RecordVisit(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, visit)
	}
}

// SiteVisitHistory lists every recorded visit for a billboard, newest first.
func SiteVisitHistory(svc sitevisits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "site visits service unavailable"))
			return
		}

		billboardID, err := uuid.Parse(chi.URLParam(r, "billboardId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billboard id"))
			return
		}

		visits, err := svc.History(r.Context(), billboardID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": visits})
	}
}
