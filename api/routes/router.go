package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adspotmarket/adspot-backend/api/controllers"
	"github.com/adspotmarket/adspot-backend/api/middleware"
	"github.com/adspotmarket/adspot-backend/internal/assignments"
	"github.com/adspotmarket/adspot-backend/internal/auth"
	"github.com/adspotmarket/adspot-backend/internal/billboards"
	"github.com/adspotmarket/adspot-backend/internal/kyc"
	"github.com/adspotmarket/adspot-backend/internal/notifications"
	"github.com/adspotmarket/adspot-backend/internal/sitevisits"
	"github.com/adspotmarket/adspot-backend/internal/users"
	"github.com/adspotmarket/adspot-backend/pkg/auth/session"
	"github.com/adspotmarket/adspot-backend/pkg/config"
	"github.com/adspotmarket/adspot-backend/pkg/db"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
	"github.com/adspotmarket/adspot-backend/pkg/logger"
	"github.com/adspotmarket/adspot-backend/pkg/redis"
)

// NewRouter assembles the HTTP surface: health probes, the auth endpoints,
// and the authenticated marketplace API.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	authService auth.Service,
	usersService users.Service,
	deletionService users.DeletionService,
	kycService kyc.Service,
	billboardService billboards.Service,
	assignmentService assignments.Service,
	siteVisitService sitevisits.Service,
	notificationService notifications.Service,
	hub *notifications.Hub,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			middleware.Idempotency(redisClient, logg),
		).Post("/register", controllers.AuthRegister(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Post("/logout", controllers.AuthLogout(authService, logg))
			r.Post("/revoke-all", controllers.AuthRevokeAll(authService, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/users/me", controllers.UserMe(usersService, logg))

		r.Route("/kyc", func(r chi.Router) {
			r.With(middleware.RequireRoles(logg, enums.UserRoleOwner)).
				Post("/submit", controllers.KYCSubmit(kycService, logg))
			r.Get("/status", controllers.KYCStatus(kycService, logg))
		})

		r.Route("/billboards", func(r chi.Router) {
			r.Get("/", controllers.BillboardList(billboardService, logg))
			r.With(middleware.RequireRoles(logg, enums.UserRoleOwner), middleware.RequireApprovedKYC(logg)).
				Post("/", controllers.BillboardCreate(billboardService, usersService, logg))

			r.Route("/{billboardId}", func(r chi.Router) {
				r.Get("/", controllers.BillboardGet(billboardService, logg))
				r.Put("/", controllers.BillboardUpdate(billboardService, usersService, logg))
				r.Post("/submit", controllers.BillboardSubmit(billboardService, usersService, logg))
				r.Post("/resubmit", controllers.BillboardResubmit(billboardService, usersService, logg))
				r.Post("/deactivate", controllers.BillboardDeactivate(billboardService, usersService, logg))
				r.Post("/reactivate", controllers.BillboardReactivate(billboardService, usersService, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireStaff(logg))
					r.Post("/approve", controllers.BillboardApprove(billboardService, usersService, logg))
					r.Post("/reject", controllers.BillboardReject(billboardService, usersService, logg))
					r.Post("/reverify", controllers.BillboardReverify(billboardService, usersService, logg))
					r.Get("/site-visits", controllers.SiteVisitHistory(siteVisitService, logg))
				})
			})
		})

		r.Route("/assignments", func(r chi.Router) {
			r.Use(middleware.RequireStaff(logg))
			r.Post("/", controllers.AssignmentCreate(assignmentService, usersService, logg))
			r.Get("/dashboard", controllers.AssignmentDashboard(assignmentService, logg))
			r.Get("/{assignmentId}", controllers.AssignmentGet(assignmentService, logg))
		})

		r.With(middleware.RequireRoles(logg, enums.UserRoleSubAdmin)).
			Post("/site-visits", controllers.SiteVisitRecord(siteVisitService, usersService, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.RequireStaff(logg))
			r.Get("/", controllers.ListNotifications(notificationService, logg))
			r.Get("/subscribe", controllers.SubscribeNotifications(hub, logg))
			r.Post("/{notificationId}/processed", controllers.MarkNotificationProcessed(notificationService, logg))
			r.Post("/processed-all", controllers.MarkAllNotificationsProcessed(notificationService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.UserRoleAdmin))
			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.UserList(usersService, logg))
				r.Get("/{userId}", controllers.UserGet(usersService, logg))
				r.Patch("/{userId}", controllers.UserUpdate(usersService, usersService, logg))
				r.Delete("/{userId}", controllers.UserDelete(deletionService, usersService, logg))
			})
			r.Route("/kyc/{userId}", func(r chi.Router) {
				r.Post("/approve", controllers.KYCApprove(kycService, logg))
				r.Post("/reject", controllers.KYCReject(kycService, logg))
			})
		})
	})

	return r
}
