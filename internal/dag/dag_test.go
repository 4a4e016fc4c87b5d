package dag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/optgridgo/internal/config"
)

func node(id string, kind config.NodeKind, parent string) config.NodeSpec {
	return config.NodeSpec{
		ID:     id,
		Kind:   kind,
		Parent: parent,
		Hardware: config.Hardware{
			Threads:  1,
			Affinity: config.AffinityDefault,
			Encoding: config.EncodingASCII,
		},
	}
}

func planWith(nodes ...config.NodeSpec) *config.Plan {
	return &config.Plan{Nodes: nodes}
}

func TestFromPlanWellFormed(t *testing.T) {
	g, err := FromPlan(context.Background(), planWith(
		node("scalar", config.KindBaseline, ""),
		node("simd", config.KindAlternative, "scalar"),
		node("mt", config.KindAlternative, "scalar"),
		node("simd_mt", config.KindComposition, "simd"),
		node("simd_mt_pcores", config.KindRefinement, "simd_mt"),
	))
	require.NoError(t, err)

	assert.True(t, g.Validated())
	assert.Equal(t, "scalar", g.Baseline())
	assert.Equal(t, 5, g.Len())
	assert.Equal(t, []string{"scalar", "simd", "mt", "simd_mt", "simd_mt_pcores"}, g.NodeIDs())
}

func TestFromPlanDuplicateNodeID(t *testing.T) {
	_, err := FromPlan(context.Background(), planWith(
		node("scalar", config.KindBaseline, ""),
		node("simd", config.KindAlternative, "scalar"),
		node("simd", config.KindAlternative, "scalar"),
	))

	var bad *MalformedDagError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, []string{"simd"}, bad.NodeIDs)
}

func TestValidateBaselineCount(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		_, err := FromPlan(context.Background(), planWith(
			node("a", config.KindAlternative, "b"),
			node("b", config.KindAlternative, "a"),
		))
		var bad *MalformedDagError
		require.ErrorAs(t, err, &bad)
		assert.Contains(t, bad.Error(), "no baseline node declared")
	})

	t.Run("two", func(t *testing.T) {
		_, err := FromPlan(context.Background(), planWith(
			node("scalar", config.KindBaseline, ""),
			node("scalar2", config.KindBaseline, ""),
		))
		var bad *MalformedDagError
		require.ErrorAs(t, err, &bad)
		assert.ElementsMatch(t, []string{"scalar", "scalar2"}, bad.NodeIDs)
	})
}

func TestValidateBaselineWithParent(t *testing.T) {
	_, err := FromPlan(context.Background(), planWith(
		node("simd", config.KindAlternative, "scalar"),
		node("scalar", config.KindBaseline, "simd"),
	))

	var bad *MalformedDagError
	require.ErrorAs(t, err, &bad)
	assert.Contains(t, bad.Error(), "must not declare a parent")
}

func TestValidateUnknownParent(t *testing.T) {
	_, err := FromPlan(context.Background(), planWith(
		node("scalar", config.KindBaseline, ""),
		node("simd", config.KindAlternative, "ghost"),
	))

	var bad *MalformedDagError
	require.ErrorAs(t, err, &bad)
	assert.Contains(t, bad.NodeIDs, "simd")
	assert.Contains(t, bad.Error(), `unknown parent "ghost"`)
}

func TestValidateOrphanNonBaseline(t *testing.T) {
	_, err := FromPlan(context.Background(), planWith(
		node("scalar", config.KindBaseline, ""),
		node("simd", config.KindAlternative, ""),
	))

	var bad *MalformedDagError
	require.ErrorAs(t, err, &bad)
	assert.Contains(t, bad.Error(), "has no parent")
}

func TestValidateCycle(t *testing.T) {
	_, err := FromPlan(context.Background(), planWith(
		node("scalar", config.KindBaseline, ""),
		node("a", config.KindComposition, "b"),
		node("b", config.KindComposition, "a"),
	))

	var bad *MalformedDagError
	require.ErrorAs(t, err, &bad)
	assert.Contains(t, bad.Error(), "cycle detected")
}

func TestChildrenOfKeepsDeclarationOrder(t *testing.T) {
	g, err := FromPlan(context.Background(), planWith(
		node("scalar", config.KindBaseline, ""),
		node("zeta", config.KindAlternative, "scalar"),
		node("alpha", config.KindAlternative, "scalar"),
		node("mid", config.KindAlternative, "scalar"),
		node("combo", config.KindComposition, "alpha"),
	))
	require.NoError(t, err)

	var ids []string
	for _, child := range g.ChildrenOf("scalar", config.KindAlternative) {
		ids = append(ids, child.ID)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, ids)

	comps := g.ChildrenOf("alpha", config.KindComposition)
	require.Len(t, comps, 1)
	assert.Equal(t, "combo", comps[0].ID)

	assert.Empty(t, g.ChildrenOf("zeta", config.KindComposition))
}

func TestAncestorChain(t *testing.T) {
	g, err := FromPlan(context.Background(), planWith(
		node("scalar", config.KindBaseline, ""),
		node("simd", config.KindAlternative, "scalar"),
		node("simd_mt", config.KindComposition, "simd"),
		node("simd_mt_pcores", config.KindRefinement, "simd_mt"),
	))
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"scalar", "simd", "simd_mt", "simd_mt_pcores"},
		g.AncestorChain("simd_mt_pcores"))
	assert.Equal(t, []string{"scalar"}, g.AncestorChain("scalar"))
}
