package httptransport

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaceEndpoints(t *testing.T) {
	h := newHarness(t)
	token := h.registerAndLogin(t, "alice")

	t.Run("status before enrollment", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/faces", token, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[faceStatusResponse](t, rec)
		assert.False(t, body.Enrolled)
		assert.Nil(t, body.EnrolledAt)
	})

	t.Run("enroll", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/faces", token, []byte("alice.jpg"), "application/octet-stream")
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		body := decodeBody[faceStatusResponse](t, rec)
		assert.True(t, body.Enrolled)
		assert.NotNil(t, body.EnrolledAt)
	})

	t.Run("status after enrollment reflects it on the account too", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/faces", token, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decodeBody[faceStatusResponse](t, rec).Enrolled)

		me := h.do(t, http.MethodGet, "/me", token, nil, "")
		require.Equal(t, http.StatusOK, me.Code)
		assert.True(t, decodeBody[userResponse](t, me).FaceEnrolled)
	})

	t.Run("capture without a face is a bad request", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/faces", token, []byte("blurry.jpg"), "application/octet-stream")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("clear", func(t *testing.T) {
		rec := h.do(t, http.MethodDelete, "/faces", token, nil, "")
		require.Equal(t, http.StatusNoContent, rec.Code)

		status := h.do(t, http.MethodGet, "/faces", token, nil, "")
		require.Equal(t, http.StatusOK, status.Code)
		assert.False(t, decodeBody[faceStatusResponse](t, status).Enrolled)
	})

	t.Run("clearing again is a 404", func(t *testing.T) {
		rec := h.do(t, http.MethodDelete, "/faces", token, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unauthenticated access is rejected", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/faces", "", []byte("alice.jpg"), "application/octet-stream")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
