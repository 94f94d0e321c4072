package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryMainFirst(t *testing.T) {
	r := NewRegistry(nil)
	assert.False(t, r.HasMain())

	_, err := r.RegisterSecondary()
	assert.Error(t, err, "secondary before main is rejected")

	main, err := NewRegistry(nil).RegisterMain(8, 8)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), main.MaxNodes())
}

func TestRegistryRegisterMainOnce(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.RegisterMain(8, 8)
	require.NoError(t, err)
	assert.True(t, r.HasMain())
	assert.False(t, r.StartTime().IsZero())

	_, err = r.RegisterMain(8, 8)
	assert.ErrorIs(t, err, ErrMainRegistered)
	assert.Equal(t, 1, r.TreeCount())
}

func TestRegistrySecondaryInheritsLimits(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.RegisterMain(42, 7)
	require.NoError(t, err)

	sec, err := r.RegisterSecondary()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), sec.MaxNodes())
	assert.Equal(t, uint32(7), sec.MaxLevels())
	assert.Zero(t, sec.VMSizeAtCreation(), "only the main tree samples VM size")
	assert.Equal(t, 2, r.TreeCount())
}

func TestRegistryFull(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.RegisterMain(2, 2)
	require.NoError(t, err)

	for i := 1; i < MaxTrees; i++ {
		_, err := r.RegisterSecondary()
		require.NoError(t, err)
	}
	assert.Equal(t, MaxTrees, r.TreeCount())

	_, err = r.RegisterSecondary()
	assert.ErrorIs(t, err, ErrRegistryFull)
	assert.Equal(t, MaxTrees, r.TreeCount(), "overflow does not disturb registered trees")
}

func TestRegistryAggregation(t *testing.T) {
	r := NewRegistry(nil)
	main, err := r.RegisterMain(8, 8)
	require.NoError(t, err)
	sec, err := r.RegisterSecondary()
	require.NoError(t, err)

	main.TrackAlloc(Malloc, 100)
	sec.TrackAlloc(Malloc, 300)
	sec.TrackFree(Free, 50)

	alloc, freed := r.CollectAllocatedFreedAll()
	assert.Equal(t, uint64(400), alloc)
	assert.Equal(t, uint64(50), freed)
	assert.Greater(t, r.SelfUsage(), uint64(0))
}

func TestRegistryCollectSharedDenominator(t *testing.T) {
	r := NewRegistry(nil)
	main, err := r.RegisterMain(8, 8)
	require.NoError(t, err)
	sec, err := r.RegisterSecondary()
	require.NoError(t, err)

	main.TrackAlloc(Malloc, 25)
	sec.TrackAlloc(Malloc, 75)

	v := &pathVisitor{}
	r.Collect(v)
	assert.Equal(t, 2, v.trees)

	// Weights are shares of the process-wide total, not the per-tree total.
	assert.Equal(t, uint64(2500), main.Root().WeightTotal())
	assert.Equal(t, uint64(7500), sec.Root().WeightTotal())
}

func TestRegistryCloseIdempotent(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.RegisterMain(8, 8)
	require.NoError(t, err)
	_, err = r.RegisterSecondary()
	require.NoError(t, err)

	r.Close()
	assert.Equal(t, 0, r.TreeCount())
	assert.False(t, r.HasMain())

	r.Close()
	assert.Equal(t, 0, r.TreeCount())

	_, err = r.RegisterSecondary()
	assert.ErrorIs(t, err, ErrShutdown)
}
