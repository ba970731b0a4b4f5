// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services, and translate coded errors to statuses; business rules
// stay in the services.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trustface/internal/extract"
	faceservice "trustface/internal/face/service"
	"trustface/internal/jwt_token"
	"trustface/internal/session"
	"trustface/internal/user"
	"trustface/pkg/domain"
	authmw "trustface/pkg/platform/middleware/auth"
)

// maxImageBytes bounds face capture uploads.
const maxImageBytes = 8 << 20

// CredentialIssuer mints an access credential for an authenticated identity.
// The matcher never issues credentials itself; anything that can sign a
// token can stand in here.
type CredentialIssuer interface {
	GenerateAccessToken(userID domain.UserID, role string, expiresIn time.Duration) (string, error)
}

// HealthChecker is implemented by backends that can report liveness.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler carries the domain services the routes delegate to.
type Handler struct {
	logger      *slog.Logger
	users       *user.Service
	faces       *faceservice.Service
	sessions    *session.Service
	extractor   extract.Extractor
	issuer      CredentialIssuer
	validator   authmw.JWTValidator
	revocations jwttoken.RevocationList
	tokenTTL    time.Duration
	health      []HealthChecker
}

func NewHandler(
	users *user.Service,
	faces *faceservice.Service,
	sessions *session.Service,
	extractor extract.Extractor,
	issuer CredentialIssuer,
	validator authmw.JWTValidator,
	revocations jwttoken.RevocationList,
	tokenTTL time.Duration,
	logger *slog.Logger,
	health ...HealthChecker,
) *Handler {
	return &Handler{
		logger:      logger,
		users:       users,
		faces:       faces,
		sessions:    sessions,
		extractor:   extractor,
		issuer:      issuer,
		validator:   validator,
		revocations: revocations,
		tokenTTL:    tokenTTL,
		health:      health,
	}
}

// NewRouter wires every endpoint. Face captures ride as raw image bodies;
// everything else is JSON.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/token", h.handleToken)
	r.Post("/auth/face-login", h.handleFaceLogin)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(h.validator, h.revocations, h.logger))

		r.Post("/auth/logout", h.handleLogout)
		r.Get("/me", h.handleMe)

		r.Post("/faces", h.handleEnrollFace)
		r.Get("/faces", h.handleFaceStatus)
		r.Delete("/faces", h.handleClearFace)

		r.Post("/sessions", h.handleStartSession)
		r.Get("/sessions", h.handleListSessions)
		r.Get("/sessions/{sessionID}", h.handleGetSession)
		r.Post("/sessions/{sessionID}/verify", h.handleVerifySession)
		r.Post("/sessions/{sessionID}/end", h.handleEndSession)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	for _, checker := range h.health {
		if checker == nil {
			continue
		}
		if err := checker.Health(ctx); err != nil {
			h.logger.ErrorContext(ctx, "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requesterID resolves the authenticated user id placed by RequireAuth.
func (h *Handler) requesterID(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	id, err := domain.ParseUserID(authmw.GetUserID(r.Context()))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "user id missing from authenticated context")
		writeErrorMessage(w, http.StatusInternalServerError, "authentication context error")
		return domain.UserID{}, false
	}
	return id, true
}
