// Package extract defines the contract with the external vision pipeline
// that turns a captured image into a face descriptor. Image decoding, face
// detection, and landmark extraction happen on the other side of this
// interface; this service only consumes the resulting vector or a typed
// rejection.
package extract

import (
	"context"

	"trustface/internal/face"
	dErrors "trustface/pkg/domain-errors"
)

var (
	// ErrNoFace means no face was found in the capture. Ambiguous and empty
	// captures are rejected upstream by policy, never disambiguated here.
	ErrNoFace = dErrors.New(dErrors.CodeInvalidInput, "no face detected in the image")

	// ErrMultipleFaces means the capture contained more than one face.
	ErrMultipleFaces = dErrors.New(dErrors.CodeInvalidInput, "multiple faces detected in the image")

	// ErrDecodeFailure means the submitted bytes were not a decodable image.
	ErrDecodeFailure = dErrors.New(dErrors.CodeInvalidInput, "image could not be decoded")
)

// Extractor produces exactly one fixed-dimension descriptor per capture, or
// one of the typed errors above. Implementations must respect the context
// deadline; retry policy belongs to the caller.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (face.Descriptor, error)
}
