package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"trustface/internal/face"
	dErrors "trustface/pkg/domain-errors"
)

const defaultTimeout = 10 * time.Second

// HTTPExtractor calls a remote descriptor-extraction service. The service
// accepts raw image bytes and answers with either a descriptor or a typed
// error code, which is mapped back onto the package's sentinel errors.
type HTTPExtractor struct {
	baseURL string
	client  *http.Client
}

func NewHTTPExtractor(baseURL string, timeout time.Duration) *HTTPExtractor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPExtractor{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type extractResponse struct {
	Descriptor []float64 `json:"descriptor"`
	Error      string    `json:"error,omitempty"`
}

func (e *HTTPExtractor) Extract(ctx context.Context, image []byte) (face.Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/descriptors", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "extraction service unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read extraction response: %w", err)
	}

	var parsed extractResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "malformed extraction response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, mapExtractionError(parsed.Error, resp.StatusCode)
	}

	descriptor := face.Descriptor(parsed.Descriptor)
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}
	return descriptor, nil
}

func mapExtractionError(code string, status int) error {
	switch code {
	case "no_face":
		return ErrNoFace
	case "multiple_faces":
		return ErrMultipleFaces
	case "decode_failure":
		return ErrDecodeFailure
	default:
		return dErrors.New(dErrors.CodeInternal, fmt.Sprintf("extraction service error (status %d)", status))
	}
}
