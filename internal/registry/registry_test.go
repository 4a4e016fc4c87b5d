package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/optgridgo/internal/config"
	"github.com/vk/optgridgo/internal/ops"
)

func descriptor(name string, caps ...Capability) Descriptor {
	return Descriptor{
		Name:         name,
		Category:     CategoryElementWise,
		Complexity:   0.3,
		Capabilities: caps,
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := New()
	op := ops.NewBaseCounting()
	require.NoError(t, r.Register(descriptor("base_counting", CapScalar, CapSIMD), op))

	got, err := r.Get("base_counting")
	require.NoError(t, err)
	assert.Equal(t, op, got)

	desc, err := r.Describe("base_counting")
	require.NoError(t, err)
	assert.True(t, desc.Has(CapSIMD))
	assert.False(t, desc.Has(CapGPU))
}

func TestRegisterDuplicateName(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(descriptor("op"), ops.NewBaseCounting()))

	err := r.Register(descriptor("op"), ops.NewGcContent())
	var dup *DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "op", dup.Name)
}

func TestGetNotFound(t *testing.T) {
	_, err := New().Get("missing")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.Name)
}

func TestFreezeBlocksRegistration(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(descriptor("op"), ops.NewBaseCounting()))
	r.Freeze()
	assert.True(t, r.Frozen())

	err := r.Register(descriptor("late"), ops.NewGcContent())
	var frozen *FrozenError
	require.ErrorAs(t, err, &frozen)
	assert.Equal(t, "late", frozen.Name)
}

func TestNamesSorted(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(descriptor("zeta"), ops.NewBaseCounting()))
	require.NoError(t, r.Register(descriptor("alpha"), ops.NewGcContent()))

	assert.Equal(t, []string{"alpha", "zeta"}, r.Names())
}

func TestByCategory(t *testing.T) {
	r := New()
	d := descriptor("counting")
	require.NoError(t, r.Register(d, ops.NewBaseCounting()))

	agg := Descriptor{Name: "ratio", Category: CategoryAggregation, Complexity: 0.4}
	require.NoError(t, r.Register(agg, ops.NewGcContent()))

	assert.Equal(t, []string{"counting"}, r.ByCategory(CategoryElementWise))
	assert.Equal(t, []string{"ratio"}, r.ByCategory(CategoryAggregation))
	assert.Empty(t, r.ByCategory(CategorySearch))
}

func TestSupportsHardware(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(descriptor("op", CapScalar, CapSIMD, CapParallel), ops.NewBaseCounting()))

	cases := []struct {
		name string
		hw   config.Hardware
		want bool
	}{
		{"scalar", config.Hardware{Threads: 1}, true},
		{"simd", config.Hardware{Threads: 1, SIMD: true}, true},
		{"parallel", config.Hardware{Threads: 4}, true},
		{"gpu_unsupported", config.Hardware{Threads: 1, GPU: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.SupportsHardware("op", tc.hw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := r.SupportsHardware("missing", config.Hardware{})
	assert.Error(t, err)
}
