package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trustface/internal/audit"
	"trustface/internal/extract"
	"trustface/internal/face"
	faceservice "trustface/internal/face/service"
	facestore "trustface/internal/face/store"
	jwttoken "trustface/internal/jwt_token"
	"trustface/internal/session"
	"trustface/internal/user"
)

// stubExtractor resolves image bytes to canned descriptors so handler tests
// never need a vision backend.
type stubExtractor struct {
	descriptors map[string]face.Descriptor
}

func (e stubExtractor) Extract(_ context.Context, image []byte) (face.Descriptor, error) {
	if d, ok := e.descriptors[string(image)]; ok {
		return d.Clone(), nil
	}
	return nil, extract.ErrNoFace
}

type harness struct {
	router http.Handler
}

func descriptorAt(v float64) face.Descriptor {
	d := make(face.Descriptor, face.DescriptorSize)
	d[0] = v
	return d
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	templates := facestore.NewInMemoryTemplateStore()
	users := user.NewService(user.NewInMemoryStore(), logger)
	trail := audit.NewPublisher(audit.NewInMemoryStore())
	extractor := stubExtractor{descriptors: map[string]face.Descriptor{
		"alice.jpg":       descriptorAt(0),
		"alice-again.jpg": descriptorAt(0.2),
		"stranger.jpg":    descriptorAt(50),
	}}
	faces := faceservice.NewService(extractor, templates, users, trail, nil, logger, 0.6)
	sessions := session.NewService(session.NewInMemoryStore(), templates, trail, nil, logger, 0.6)
	jwtService := jwttoken.NewJWTService("handler-test-key", "trustface-test")
	revocations := jwttoken.NewInMemoryRevocationList()

	h := NewHandler(users, faces, sessions, extractor, jwtService,
		jwttoken.NewJWTServiceAdapter(jwtService), revocations, 30*time.Minute, logger)
	return &harness{router: NewRouter(h)}
}

func (h *harness) do(t *testing.T, method, path, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	return h.do(t, method, path, token, encoded, "application/json")
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), "body: %s", rec.Body.String())
	return out
}

// registerAndLogin creates an account and returns a bearer token for it.
func (h *harness) registerAndLogin(t *testing.T, username string) string {
	t.Helper()
	rec := h.doJSON(t, http.MethodPost, "/auth/register", "", registerRequest{
		Username: username,
		Password: "correct-horse",
		FullName: fmt.Sprintf("Test %s", username),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.doJSON(t, http.MethodPost, "/auth/token", "", tokenRequest{
		Username: username,
		Password: "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[tokenResponse](t, rec).AccessToken
}

func (h *harness) enroll(t *testing.T, token, image string) {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/faces", token, []byte(image), "application/octet-stream")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
