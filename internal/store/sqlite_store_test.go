package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/storygraph/pkg/graph"
	"github.com/kittclouds/storygraph/pkg/scanner/conductor"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateNodeAndRelationship(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	li := &graph.Entity{Type: graph.TypeCharacter, Name: "李明", Description: "勇敢的侠客", Aliases: []string{"阿明"}}
	li.Attributes.Frequency = 3
	city := &graph.Entity{Type: graph.TypeLocation, Name: "长安城"}

	n1, err := s.CreateNode(ctx, li)
	require.NoError(t, err)
	n2, err := s.CreateNode(ctx, city)
	require.NoError(t, err)
	assert.NotEqual(t, n1.ID, n2.ID)
	assert.Equal(t, "李明", n1.Key)

	rel := &graph.Relation{
		Source: "李明", Target: "长安城", Type: graph.RelAppearsIn,
		Attributes: graph.RelationAttributes{Confidence: 0.7, Inferred: true},
	}
	edge, err := s.CreateRelationship(ctx, rel, n1.ID, n2.ID)
	require.NoError(t, err)
	assert.Equal(t, n1.ID, edge.SourceID)

	got, err := s.GetEntity(ctx, n1.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "CHARACTER", got.Kind)
	assert.Equal(t, "勇敢的侠客", got.Description)
	assert.Equal(t, []string{"阿明"}, got.Aliases)
	assert.Equal(t, 3, got.Frequency)

	edges, err := s.ListEdgesForEntity(ctx, n2.ID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "APPEARS_IN", edges[0].RelType)
	assert.InDelta(t, 0.7, edges[0].Confidence, 1e-9)
	assert.True(t, edges[0].Inferred)

	missing, err := s.GetEntity(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListEntitiesFilters(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	a := s.ForDocument("a.txt")
	b := s.ForDocument("b.txt")
	_, err := a.CreateNode(ctx, &graph.Entity{Type: graph.TypeCharacter, Name: "李明"})
	require.NoError(t, err)
	_, err = a.CreateNode(ctx, &graph.Entity{Type: graph.TypeLocation, Name: "长安城"})
	require.NoError(t, err)
	_, err = b.CreateNode(ctx, &graph.Entity{Type: graph.TypeCharacter, Name: "王五"})
	require.NoError(t, err)

	all, err := s.ListEntities(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	inA, err := s.ListEntities(ctx, "a.txt", "")
	require.NoError(t, err)
	assert.Len(t, inA, 2)

	chars, err := s.ListEntities(ctx, "", "CHARACTER")
	require.NoError(t, err)
	require.Len(t, chars, 2)

	charsB, err := s.ListEntities(ctx, "b.txt", "CHARACTER")
	require.NoError(t, err)
	require.Len(t, charsB, 1)
	assert.Equal(t, "王五", charsB[0].Label)

	require.NoError(t, s.ClearDocument(ctx, "a.txt"))
	n, err := s.CountEntities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDocuments(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.UpsertDocument(ctx, &Document{ID: "a.txt", Version: 1, TotalWords: 10}))
	require.NoError(t, s.UpsertDocument(ctx, &Document{ID: "a.txt", Version: 2, TotalWords: 12}))

	doc, err := s.GetDocument(ctx, "a.txt")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, int64(2), doc.Version)
	assert.Equal(t, 12, doc.TotalWords)

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	none, err := s.GetDocument(ctx, "b.txt")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.UpsertDocument(ctx, &Document{ID: "a.txt", Title: "第一卷"}))
	w := s.ForDocument("a.txt")
	n1, err := w.CreateNode(ctx, &graph.Entity{Type: graph.TypeCharacter, Name: "李明"})
	require.NoError(t, err)
	n2, err := w.CreateNode(ctx, &graph.Entity{Type: graph.TypeCharacter, Name: "王五"})
	require.NoError(t, err)
	_, err = w.CreateRelationship(ctx, &graph.Relation{Source: "李明", Target: "王五", Type: graph.RelCharacterRelation}, n1.ID, n2.ID)
	require.NoError(t, err)

	data, err := s.Export()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	s2 := newStore(t)
	require.NoError(t, s2.Import(data))

	entities, err := s2.CountEntities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, entities)
	edges, err := s2.CountEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, edges)

	got, err := s2.GetEntity(ctx, n1.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a.txt", got.DocumentID)
	assert.Empty(t, got.Aliases)

	doc, err := s2.GetDocument(ctx, "a.txt")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "第一卷", doc.Title)

	// Import replaces rather than merges.
	require.NoError(t, s2.Import(data))
	entities, err = s2.CountEntities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, entities)

	assert.Error(t, s2.Import([]byte("not json")))
}

func TestPersistAnalysis(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	c, err := conductor.New(conductor.DefaultOptions())
	require.NoError(t, err)
	res, err := c.Analyze("李明是一位勇敢的侠客，他住在长安城。")
	require.NoError(t, err)

	report, err := conductor.Persist(ctx, s.ForDocument("scene.txt"), res)
	require.NoError(t, err)
	assert.Len(t, report.Nodes, len(res.KnowledgeGraph.Entities))
	assert.Equal(t, len(res.KnowledgeGraph.Relations), len(report.Edges)+report.Skipped)
	assert.NotEmpty(t, report.Edges)

	n, err := s.CountEntities(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(res.KnowledgeGraph.Entities), n)

	stored, err := s.ListEntities(ctx, "scene.txt", "LOCATION")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "长安城", stored[0].Label)
}
