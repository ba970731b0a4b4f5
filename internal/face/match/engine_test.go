package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustface/internal/face"
	"trustface/pkg/domain"
	dErrors "trustface/pkg/domain-errors"
)

// descriptorAt builds a full-size descriptor whose distance from the zero
// descriptor is exactly d (all mass on the first axis).
func descriptorAt(d float64) face.Descriptor {
	v := make(face.Descriptor, face.DescriptorSize)
	v[0] = d
	return v
}

func TestDistance(t *testing.T) {
	a := descriptorAt(0.3)
	b := descriptorAt(0.9)

	t.Run("is symmetric", func(t *testing.T) {
		ab, err := Distance(a, b)
		require.NoError(t, err)
		ba, err := Distance(b, a)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
	})

	t.Run("identity is zero", func(t *testing.T) {
		d, err := Distance(a, a)
		require.NoError(t, err)
		assert.Zero(t, d)
	})

	t.Run("rejects short vectors before arithmetic", func(t *testing.T) {
		_, err := Distance(face.Descriptor{1, 2, 3}, b)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestDecide1to1(t *testing.T) {
	origin := descriptorAt(0)

	t.Run("accepts below threshold", func(t *testing.T) {
		dec, err := Decide1to1(descriptorAt(0.3), origin, DefaultThreshold)
		require.NoError(t, err)
		assert.True(t, dec.Accepted)
		assert.InDelta(t, 0.3, dec.Distance, 1e-12)
	})

	t.Run("rejects above threshold", func(t *testing.T) {
		dec, err := Decide1to1(descriptorAt(0.9), origin, DefaultThreshold)
		require.NoError(t, err)
		assert.False(t, dec.Accepted)
	})

	t.Run("distance exactly at threshold is rejected", func(t *testing.T) {
		dec, err := Decide1to1(descriptorAt(DefaultThreshold), origin, DefaultThreshold)
		require.NoError(t, err)
		assert.False(t, dec.Accepted)
		assert.Equal(t, DefaultThreshold, dec.Distance)
	})

	t.Run("monotonic in distance", func(t *testing.T) {
		closer, err := Decide1to1(descriptorAt(0.2), origin, 0.5)
		require.NoError(t, err)
		farther, err := Decide1to1(descriptorAt(0.4), origin, 0.5)
		require.NoError(t, err)
		if farther.Accepted {
			assert.True(t, closer.Accepted)
		}
	})

	t.Run("dimension mismatch fails closed", func(t *testing.T) {
		_, err := Decide1to1(face.Descriptor{0.1}, origin, DefaultThreshold)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestDecide1toN(t *testing.T) {
	ctx := context.Background()
	probe := descriptorAt(0)

	t.Run("empty gallery is a distinct error", func(t *testing.T) {
		_, err := Decide1toN(ctx, probe, nil, DefaultThreshold)
		require.ErrorIs(t, err, ErrEmptyGallery)
	})

	t.Run("picks the global minimum", func(t *testing.T) {
		near := domain.NewUserID()
		candidates := []Candidate{
			{UserID: domain.NewUserID(), Descriptor: descriptorAt(0.5)},
			{UserID: near, Descriptor: descriptorAt(0.2)},
			{UserID: domain.NewUserID(), Descriptor: descriptorAt(0.4)},
		}
		id, err := Decide1toN(ctx, probe, candidates, DefaultThreshold)
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, near, id.UserID)
		assert.InDelta(t, 0.2, id.Distance, 1e-12)
	})

	t.Run("minimum above threshold means no match", func(t *testing.T) {
		candidates := []Candidate{
			{UserID: domain.NewUserID(), Descriptor: descriptorAt(0.9)},
		}
		id, err := Decide1toN(ctx, probe, candidates, DefaultThreshold)
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("tie at the minimum fails closed", func(t *testing.T) {
		candidates := []Candidate{
			{UserID: domain.NewUserID(), Descriptor: descriptorAt(0.2)},
			{UserID: domain.NewUserID(), Descriptor: descriptorAt(0.2)},
			{UserID: domain.NewUserID(), Descriptor: descriptorAt(0.5)},
		}
		id, err := Decide1toN(ctx, probe, candidates, DefaultThreshold)
		require.NoError(t, err)
		assert.Nil(t, id, "ambiguous minimum must not resolve to either identity")
	})

	t.Run("large gallery reduces across shards", func(t *testing.T) {
		winner := domain.NewUserID()
		candidates := make([]Candidate, 0, 501)
		for range 500 {
			candidates = append(candidates, Candidate{UserID: domain.NewUserID(), Descriptor: descriptorAt(0.55)})
		}
		candidates = append(candidates, Candidate{UserID: winner, Descriptor: descriptorAt(0.1)})
		id, err := Decide1toN(ctx, probe, candidates, DefaultThreshold)
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, winner, id.UserID)
	})

	t.Run("bad candidate dimension rejected up front", func(t *testing.T) {
		candidates := []Candidate{
			{UserID: domain.NewUserID(), Descriptor: face.Descriptor{0.1, 0.2}},
		}
		_, err := Decide1toN(ctx, probe, candidates, DefaultThreshold)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		candidates := make([]Candidate, 100)
		for i := range candidates {
			candidates[i] = Candidate{UserID: domain.NewUserID(), Descriptor: descriptorAt(0.5)}
		}
		_, err := Decide1toN(cancelled, probe, candidates, DefaultThreshold)
		require.ErrorIs(t, err, context.Canceled)
	})
}
