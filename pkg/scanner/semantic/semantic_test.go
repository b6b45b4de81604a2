package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/storygraph/pkg/graph"
)

func fixture() ([]*graph.Entity, []*graph.Event) {
	entities := []*graph.Entity{
		{Type: graph.TypeCharacter, Name: "李明"},
		{Type: graph.TypeCharacter, Name: "王五"},
		{Type: graph.TypeOrganization, Name: "青云派"},
		{Type: graph.TypeLocation, Name: "长安城"},
	}
	events := []*graph.Event{
		{Order: 0, Description: "李明和王五加入了青云派。", Participants: []string{"李明", "王五", "青云派"}},
		{Order: 1, Description: "李明拜王五为师，相信天道。", Participants: []string{"李明", "王五"}},
		{Order: 2, Description: "王五回到了长安城，过年祭祀。", Participants: []string{"王五", "长安城"}},
	}
	return entities, events
}

func TestAnalyze_ConceptNetwork(t *testing.T) {
	entities, events := fixture()
	got := New().Analyze(entities, events, nil)

	require.Len(t, got.ConceptNetwork, 4)
	byConcept := make(map[string]graph.ConceptNode)
	for _, n := range got.ConceptNetwork {
		byConcept[n.Concept] = n
	}

	wang := byConcept["王五"]
	require.Len(t, wang.RelatedConcepts, 3)
	assert.Equal(t, "李明", wang.RelatedConcepts[0].Concept)
	assert.InDelta(t, 0.7, wang.RelatedConcepts[0].Strength, 1e-9)
	assert.Equal(t, []string{"same event description", "event co-participants"}, wang.RelatedConcepts[0].Basis)
	assert.InDelta(t, 2.1/4, wang.GlobalImportance, 1e-9)

	assert.InDelta(t, 0.35, byConcept["李明"].GlobalImportance, 1e-9)
	assert.InDelta(t, 0.175, byConcept["长安城"].GlobalImportance, 1e-9)
	assert.Len(t, byConcept["长安城"].RelatedConcepts, 1)
}

func TestAnalyze_Clusters(t *testing.T) {
	entities, events := fixture()
	got := New().Analyze(entities, events, nil)

	require.Len(t, got.ThematicClusters, 3)
	themes := []string{got.ThematicClusters[0].Theme, got.ThematicClusters[1].Theme, got.ThematicClusters[2].Theme}
	assert.Equal(t, []string{"李明", "王五", "青云派"}, themes)

	wang := got.ThematicClusters[1]
	assert.Equal(t, []string{"王五", "李明", "青云派", "长安城"}, wang.Concepts)
	assert.Len(t, wang.Events, 3)
	assert.ElementsMatch(t, []string{"李明", "王五", "青云派", "长安城"}, wang.Entities)
	assert.InDelta(t, (0.525+1+1)/3, wang.Significance, 1e-9)
}

func TestAnalyze_DefinitionReference(t *testing.T) {
	entities := []*graph.Entity{
		{Type: graph.TypeCharacter, Name: "李明"},
		{Type: graph.TypeItem, Name: "玄铁剑"},
	}
	events := []*graph.Event{
		{Description: "李明拔出玄铁剑。", Participants: []string{"李明"}},
	}

	got := New().Analyze(entities, events, map[string]string{"玄铁剑": "李明的佩剑"})
	require.Len(t, got.ConceptNetwork[0].RelatedConcepts, 1)
	edge := got.ConceptNetwork[0].RelatedConcepts[0]
	assert.InDelta(t, 0.5, edge.Strength, 1e-9)
	assert.Equal(t, []string{"same event description", "definition reference"}, edge.Basis)

	got = New().Analyze(entities, events, nil)
	assert.Len(t, got.ConceptNetwork[0].RelatedConcepts, 1)
	assert.InDelta(t, 0.3, got.ConceptNetwork[0].RelatedConcepts[0].Strength, 1e-9)
}

func TestAnalyze_WorldBuilding(t *testing.T) {
	entities, events := fixture()
	world := New().Analyze(entities, events, nil).WorldBuildingElements

	assert.Equal(t, []string{"李明拜王五为师，相信天道。"}, world.CoreBeliefs)

	require.Len(t, world.SocialStructures, 1)
	sect := world.SocialStructures[0]
	assert.Equal(t, "青云派", sect.Name)
	assert.Equal(t, []string{"李明", "王五"}, sect.Members)
	require.Len(t, sect.Relationships, 1)
	assert.Equal(t, "master_apprentice", sect.Relationships[0].Type)

	require.Len(t, world.CulturalElements, 1)
	customs := world.CulturalElements[0]
	assert.Equal(t, "customs", customs.Category)
	assert.Equal(t, []string{"过年", "祭祀"}, customs.Elements)
	assert.Equal(t, SignificanceMajor, customs.Significance)
}

func TestAnalyze_Empty(t *testing.T) {
	got := New().Analyze(nil, nil, nil)
	assert.Empty(t, got.ConceptNetwork)
	assert.Empty(t, got.ThematicClusters)
	assert.Empty(t, got.WorldBuildingElements.CoreBeliefs)
	assert.Empty(t, got.WorldBuildingElements.CulturalElements)
}
