// Package face defines the descriptor type shared by the matching engine and
// the template store. A descriptor is the fixed-length numeric vector an
// external vision pipeline extracts from a face image; this service never
// touches pixels, only these vectors.
package face

import (
	"encoding/binary"
	"math"

	dErrors "trustface/pkg/domain-errors"
)

// DescriptorSize is the fixed descriptor dimensionality. It matches the
// 128-dimensional output of the dlib face recognition model the extraction
// service runs.
const DescriptorSize = 128

// ErrInvalidDescriptor is returned whenever a vector of the wrong
// dimensionality reaches a component that requires DescriptorSize elements.
// Mismatched vectors are rejected up front, never truncated or padded.
var ErrInvalidDescriptor = dErrors.New(dErrors.CodeInvalidInput, "descriptor must have exactly 128 dimensions")

// Descriptor is a face descriptor in IEEE-754 double precision.
type Descriptor []float64

// Validate checks the dimensionality invariant.
func (d Descriptor) Validate() error {
	if len(d) != DescriptorSize {
		return ErrInvalidDescriptor
	}
	return nil
}

// Clone returns an independent copy so stored templates cannot be mutated
// through a retained caller slice.
func (d Descriptor) Clone() Descriptor {
	out := make(Descriptor, len(d))
	copy(out, d)
	return out
}

// Bytes encodes the descriptor as little-endian float64s for storage.
func (d Descriptor) Bytes() []byte {
	buf := make([]byte, 8*len(d))
	for i, v := range d {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// DescriptorFromBytes decodes a stored descriptor and enforces the
// dimensionality invariant on the way out of storage.
func DescriptorFromBytes(b []byte) (Descriptor, error) {
	if len(b) != 8*DescriptorSize {
		return nil, ErrInvalidDescriptor
	}
	d := make(Descriptor, DescriptorSize)
	for i := range d {
		d[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return d, nil
}
