package causal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/storygraph/pkg/graph"
)

func event(order int, desc string, participants ...string) *graph.Event {
	return &graph.Event{Order: order, Description: desc, Participants: participants}
}

func TestRelations_MarkerAndSharedParticipant(t *testing.T) {
	events := []*graph.Event{
		event(0, "李明说：“因为下雨，我们取消了比赛。”", "李明"),
		event(1, "李明回到了长安城。", "李明", "长安城"),
	}

	rels := New().Relations(events)
	require.Len(t, rels, 1)
	assert.Same(t, events[0], rels[0].Cause)
	assert.Same(t, events[1], rels[0].Effect)
	assert.InDelta(t, 0.6, rels[0].Confidence, 1e-9)
	assert.Contains(t, rels[0].Basis, "causal marker (cause): 因为")
	assert.Contains(t, rels[0].Basis, "shared participants: 李明")
}

func TestRelations_BelowThreshold(t *testing.T) {
	events := []*graph.Event{
		event(0, "李明来到长安城。", "李明"),
		event(1, "王五离开了洛阳。", "王五"),
	}
	assert.Empty(t, New().Relations(events))

	// shared participant alone reaches only 0.3
	events[1].Participants = []string{"李明"}
	assert.Empty(t, New().Relations(events))
}

func TestRelations_AbsoluteTimes(t *testing.T) {
	a := event(0, "李明出发。", "李明")
	a.TimeInfo = &graph.TimeExpression{Type: "absolute_date", Normalized: "2024-01-01"}
	b := event(1, "李明到达。", "李明")
	b.TimeInfo = &graph.TimeExpression{Type: "absolute_date", Normalized: "2024-01-02"}

	rels := New().Relations([]*graph.Event{a, b})
	require.Len(t, rels, 1)
	assert.InDelta(t, 0.5, rels[0].Confidence, 1e-9)
	assert.Contains(t, rels[0].Basis, "temporal order: 2024-01-01 -> 2024-01-02")
}

func TestRelations_LatinMarkersNeedWordBoundary(t *testing.T) {
	events := []*graph.Event{
		event(0, "Alice gave a gift.", "Alice"),
		event(1, "Bob smiled.", "Bob"),
	}
	assert.Empty(t, New().Relations(events))

	events[0].Description = "Alice gave a gift because it rained."
	events[1].Participants = []string{"Alice"}
	rels := New().Relations(events)
	require.Len(t, rels, 1)
	assert.Contains(t, rels[0].Basis, "causal marker (cause): because")
}

func TestAnalyze_ChainsAndImpact(t *testing.T) {
	events := []*graph.Event{
		event(0, "因为下雨，李明留在长安城。", "李明", "长安城"),
		event(1, "李明读书。", "李明"),
		event(2, "所以王五陪李明来到长安城。", "王五", "李明", "长安城"),
	}

	got := New().Analyze(events)
	require.Len(t, got.Relations, 2)

	require.Len(t, got.Chains, 2)
	li := got.Chains[0]
	assert.Equal(t, "李明", li.Theme)
	require.Len(t, li.Events, 3)
	assert.Equal(t, graph.RoleCause, li.Events[0].Role)
	assert.Equal(t, graph.RoleNeutral, li.Events[1].Role)
	assert.Equal(t, graph.RoleEffect, li.Events[2].Role)
	assert.InDelta(t, 0.7, li.Events[0].Importance, 1e-9)
	assert.InDelta(t, 0.75, li.Events[1].Importance, 1e-9)
	assert.InDelta(t, 0.75, li.Events[2].Importance, 1e-9)
	assert.InDelta(t, 2.2/3, li.Significance, 1e-9)

	city := got.Chains[1]
	assert.Equal(t, "长安城", city.Theme)
	assert.InDelta(t, 0.725, city.Significance, 1e-9)

	assert.InDelta(t, 0.7, events[0].Impact, 1e-9)
	assert.InDelta(t, 0.75, events[2].Impact, 1e-9)
}
