// Package server exposes memberkit over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/unrolled/secure"

	"github.com/fernandezvara/memberkit"
)

// MemberAdmin is the registration and role administration backend.
// *memberkit.Service implements it.
type MemberAdmin interface {
	RegisterMember(ctx context.Context, userID, email string) (*memberkit.Member, error)
	SetRegistrationStatus(ctx context.Context, userID string, status memberkit.RegistrationStatus) error
	AssignRole(ctx context.Context, userID string, role memberkit.Role) error
	RevokeRole(ctx context.Context, userID string, role memberkit.Role) error
	ListMembers(ctx context.Context, filter memberkit.MemberFilter) ([]memberkit.Member, error)
}

// HealthChecker reports backend reachability.
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

// Params holds the router's dependencies.
type Params struct {
	Logger      zerolog.Logger
	Gate        *memberkit.Middleware
	Admin       MemberAdmin
	Preferences memberkit.PreferenceStore
	Health      HealthChecker
	RateLimit   int
	Production  bool
}

// NewRouter builds the HTTP handler for the memberkit API.
func NewRouter(p Params) http.Handler {
	h := &handlers{
		logger:   p.Logger,
		admin:    p.Admin,
		prefs:    p.Preferences,
		health:   p.Health,
		validate: validator.New(),
	}

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'",
		SSLRedirect:           p.Production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	rateLimit := p.RateLimit
	if rateLimit <= 0 {
		rateLimit = 120
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		requestID,
		accessLog(p.Logger),
		middleware.Recoverer,
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					p.Logger.Warn().Err(err).Msg("secure headers blocked request")
					return
				}
				next.ServeHTTP(w, r)
			})
		},
	)

	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(httprate.Limit(rateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Use(p.Gate.InjectAuditContext())

		r.With(p.Gate.Protect(memberkit.Requirement{})).Get("/me/access", h.access)
		r.With(p.Gate.Protect(memberkit.Requirement{})).Post("/me/dashboard", h.toggleDashboard)
		r.With(p.Gate.Protect(memberkit.Requirement{})).Post("/members/register", h.register)

		r.Route("/admin/members", func(r chi.Router) {
			r.With(p.Gate.Protect(memberkit.Requirement{
				Permission:      memberkit.PermManageUsers,
				RequireApproval: true,
			})).Get("/", h.listMembers)
			r.With(p.Gate.RequirePermission(memberkit.PermApproveMembers)).Post("/{id}/status", h.setStatus)
			r.With(p.Gate.RequirePermission(memberkit.PermManageRoles)).Post("/{id}/roles", h.assignRole)
			r.With(p.Gate.RequirePermission(memberkit.PermManageRoles)).Delete("/{id}/roles/{role}", h.revokeRole)
		})
	})

	return r
}

// requestID sets X-Request-ID, generating one when the client sent none.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(memberkit.WithRequestID(r.Context(), id)))
	})
}

func accessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", r.Header.Get("X-Request-ID")).
				Msg("request")
		})
	}
}
