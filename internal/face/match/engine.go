// Package match implements the biometric matching decision engine: Euclidean
// distance between descriptors, a strict threshold rule for 1:1 checks, and a
// global-minimum reduction with tie detection for 1:N identification.
package match

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"trustface/internal/face"
	"trustface/pkg/domain"
	dErrors "trustface/pkg/domain-errors"
)

// DefaultThreshold is the maximum accepted distance in normalized descriptor
// units. 0.6 is the conventional operating point for dlib descriptors;
// higher-security deployments should configure a lower value.
const DefaultThreshold = 0.6

// ErrEmptyGallery distinguishes "no one is enrolled" from "probe did not
// match anyone" in 1:N identification.
var ErrEmptyGallery = dErrors.New(dErrors.CodeNotFound, "no templates enrolled")

// Decision is the outcome of comparing a probe against one template.
type Decision struct {
	Accepted bool
	Distance float64
}

// Identification is a 1:N decision attributed to a gallery identity.
type Identification struct {
	UserID   domain.UserID
	Distance float64
}

// Candidate pairs a gallery identity with its enrolled descriptor.
type Candidate struct {
	UserID     domain.UserID
	Descriptor face.Descriptor
}

// Distance returns the Euclidean distance between two descriptors. Both
// vectors must be of full dimension; no arithmetic happens otherwise.
func Distance(a, b face.Descriptor) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	return distance(a, b), nil
}

func distance(a, b face.Descriptor) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Decide1to1 compares a probe against a single claimed template. The
// comparison is strict: a distance exactly at the threshold is rejected.
func Decide1to1(probe, template face.Descriptor, threshold float64) (Decision, error) {
	d, err := Distance(probe, template)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Accepted: d < threshold, Distance: d}, nil
}

// Decide1toN identifies a probe against the whole gallery. The gallery is
// sharded across workers, each reducing to its local minimum, and the shard
// results are reduced to a global minimum. Ambiguity fails closed: if two or
// more identities sit at the exact minimum distance, no identity is returned.
//
// A nil result with a nil error means "not matched". ErrEmptyGallery is
// returned when there are no candidates at all.
func Decide1toN(ctx context.Context, probe face.Descriptor, candidates []Candidate, threshold float64) (*Identification, error) {
	if err := probe.Validate(); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrEmptyGallery
	}
	// Every candidate is dimension-checked before any distance arithmetic.
	for i := range candidates {
		if err := candidates[i].Descriptor.Validate(); err != nil {
			return nil, err
		}
	}

	shards := runtime.GOMAXPROCS(0)
	if shards > len(candidates) {
		shards = len(candidates)
	}

	results := make([]shardResult, shards)
	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(candidates) + shards - 1) / shards
	for s := range shards {
		lo := s * chunk
		hi := min(lo+chunk, len(candidates))
		g.Go(func() error {
			res := shardResult{best: math.Inf(1)}
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				d := distance(probe, candidates[i].Descriptor)
				switch {
				case d < res.best:
					res.best = d
					res.userID = candidates[i].UserID
					res.atBest = 1
				case d == res.best:
					res.atBest++
				}
			}
			results[s] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	global := shardResult{best: math.Inf(1)}
	for _, res := range results {
		switch {
		case res.best < global.best:
			global = res
		case res.best == global.best && !math.IsInf(res.best, 1):
			global.atBest += res.atBest
		}
	}

	if global.best >= threshold {
		return nil, nil
	}
	if global.atBest > 1 {
		// Two identities at the exact minimum distance: ambiguous capture.
		return nil, nil
	}
	return &Identification{UserID: global.userID, Distance: global.best}, nil
}

type shardResult struct {
	userID domain.UserID
	best   float64
	atBest int
}
