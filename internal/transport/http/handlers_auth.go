package httptransport

import (
	"net/http"
	"time"

	"trustface/internal/user"
	authmw "trustface/pkg/platform/middleware/auth"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type userResponse struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	FaceEnrolled bool      `json:"face_enrolled"`
	CreatedAt    time.Time `json:"created_at"`
}

func toUserResponse(u user.User) userResponse {
	return userResponse{
		ID:           u.ID.String(),
		Username:     u.Username,
		FullName:     u.FullName,
		Role:         string(u.Role),
		FaceEnrolled: u.FaceEnrolled,
		CreatedAt:    u.CreatedAt,
	}
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse reports enrollment alongside the credential so clients know
// whether to prompt for face enrollment after login.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	FaceEnrolled bool   `json:"face_enrolled"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	u, err := h.users.Register(ctx, req.Username, req.Password, req.FullName, user.Role(req.Role))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	u, err := h.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.issueToken(w, r, u)
}

// handleFaceLogin authenticates by 1:N identification against all enrolled
// templates. The response is the same token envelope as a password login.
func (h *Handler) handleFaceLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	image, err := readImage(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	u, err := h.faces.Identify(ctx, image)
	if err != nil {
		writeError(w, err)
		return
	}
	h.issueToken(w, r, u)
}

func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request, u user.User) {
	token, err := h.issuer.GenerateAccessToken(u.ID, string(u.Role), h.tokenTTL)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "token generation failed", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  token,
		TokenType:    "bearer",
		ExpiresIn:    int(h.tokenTTL.Seconds()),
		FaceEnrolled: u.FaceEnrolled,
	})
}

// handleLogout revokes the presented token for its remaining lifetime.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ttl := h.tokenTTL
	if expiry := authmw.GetTokenExpiry(ctx); !expiry.IsZero() {
		if remaining := time.Until(expiry); remaining > 0 {
			ttl = remaining
		}
	}

	jti := authmw.GetJTI(ctx)
	if err := h.revocations.RevokeToken(ctx, jti, ttl); err != nil {
		h.logger.ErrorContext(ctx, "token revocation failed", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "could not revoke token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	u, err := h.users.Get(ctx, requester)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}
