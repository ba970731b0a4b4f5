package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustface/internal/session"
	"trustface/pkg/domain"
)

type startSessionRequest struct {
	ExamID string `json:"exam_id"`
}

type sessionResponse struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	ExamID            string     `json:"exam_id"`
	Device            string     `json:"device"`
	StartedAt         time.Time  `json:"started_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
	Active            bool       `json:"active"`
	Verified          bool       `json:"verified"`
	VerificationCount int        `json:"verification_count"`
	LastVerifiedAt    *time.Time `json:"last_verified_at,omitempty"`
}

type verifyResponse struct {
	Accepted bool            `json:"accepted"`
	Distance float64         `json:"distance"`
	Session  sessionResponse `json:"session"`
}

func toSessionResponse(s session.Session) sessionResponse {
	return sessionResponse{
		ID:                s.ID.String(),
		UserID:            s.UserID.String(),
		ExamID:            s.ExamID.String(),
		Device:            s.Device,
		StartedAt:         s.StartedAt,
		EndedAt:           s.EndedAt,
		Active:            s.Active,
		Verified:          s.Verified,
		VerificationCount: s.VerificationCount,
		LastVerifiedAt:    s.LastVerifiedAt,
	}
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	var req startSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	examID, err := domain.ParseExamID(req.ExamID)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.sessions.Start(ctx, requester, examID, r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(created))
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	sessions, err := h.sessions.List(ctx, requester)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	sessionID, err := domain.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	found, err := h.sessions.Get(ctx, sessionID, requester)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(found))
}

// handleVerifySession runs one mid-exam 1:1 check. A rejected probe is a 200
// with accepted=false; only malformed input or state violations are errors.
func (h *Handler) handleVerifySession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	sessionID, err := domain.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	image, err := readImage(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	probe, err := h.extractor.Extract(ctx, image)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.sessions.Verify(ctx, sessionID, requester, probe)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{
		Accepted: result.Accepted,
		Distance: result.Distance,
		Session:  toSessionResponse(result.Session),
	})
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	sessionID, err := domain.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	ended, err := h.sessions.End(ctx, sessionID, requester)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(ended))
}
