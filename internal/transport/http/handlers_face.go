package httptransport

import (
	"net/http"
	"time"
)

type faceStatusResponse struct {
	Enrolled   bool       `json:"enrolled"`
	EnrolledAt *time.Time `json:"enrolled_at,omitempty"`
}

// handleEnrollFace stores the caller's face template, replacing any prior
// one. The body is the raw captured image.
func (h *Handler) handleEnrollFace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	image, err := readImage(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	template, err := h.faces.Enroll(ctx, requester, image)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, faceStatusResponse{
		Enrolled:   true,
		EnrolledAt: &template.CreatedAt,
	})
}

func (h *Handler) handleFaceStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	status, err := h.faces.Status(ctx, requester)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := faceStatusResponse{Enrolled: status.Enrolled}
	if status.Enrolled {
		resp.EnrolledAt = &status.EnrolledAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleClearFace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	if err := h.faces.Clear(ctx, requester); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
