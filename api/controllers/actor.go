package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/api/middleware"
	"github.com/adspotmarket/adspot-backend/internal/users"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
	pkgerrors "github.com/adspotmarket/adspot-backend/pkg/errors"
)

// userDirectory is the lookup surface used to resolve the acting user's
// display name for audit payloads. users.Service satisfies it.
type userDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*users.UserResponse, error)
}

// subjectFromRequest pulls the authenticated user's ID and role out of the
// request context seeded by the auth middleware.
func subjectFromRequest(r *http.Request) (uuid.UUID, enums.UserRole, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role")
	}
	return id, role, nil
}

// resolveActorName looks up the caller's full name for event attribution.
// Name resolution is best effort; a failed lookup yields an empty name rather
// than failing the request.
func resolveActorName(ctx context.Context, directory userDirectory, id uuid.UUID) string {
	if directory == nil {
		return ""
	}
	user, err := directory.Get(ctx, id)
	if err != nil || user == nil {
		return ""
	}
	return user.FullName
}
