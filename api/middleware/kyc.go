package middleware

import (
	"net/http"

	"github.com/adspotmarket/adspot-backend/api/responses"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
	pkgerrors "github.com/adspotmarket/adspot-backend/pkg/errors"
	"github.com/adspotmarket/adspot-backend/pkg/logger"
)

// RequireApprovedKYC rejects requests whose token does not carry an approved
// verification status. The service layer re-checks against the database; this
// is only the cheap first gate.
func RequireApprovedKYC(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if KYCStatusFromContext(r.Context()) != string(enums.KYCStatusApproved) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "identity verification must be approved first"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
