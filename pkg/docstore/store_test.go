package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/storygraph/pkg/scanner/conductor"
)

func TestStore_UpsertVersions(t *testing.T) {
	s := New()
	assert.Equal(t, int64(1), s.Upsert("a.txt", "第一版", "text/plain"))
	assert.Equal(t, int64(2), s.Upsert("a.txt", "第二版", "text/plain"))

	doc, ok := s.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, "第二版", doc.Text)
	assert.Equal(t, int64(2), doc.Version)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStore_BatchOrderedByID(t *testing.T) {
	s := New()
	n := s.Hydrate([]Document{
		{ID: "b", Text: "乙"},
		{ID: "a", Text: "甲"},
		{ID: "c", Text: "丙"},
	})
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"a", "b", "c"}, s.AllIDs())

	s.Remove("c")
	assert.Equal(t, []conductor.Document{{ID: "a", Text: "甲"}, {ID: "b", Text: "乙"}}, s.Batch())

	s.Clear()
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.Batch())
}

func TestStore_UnchangedTextKeepsVersion(t *testing.T) {
	s := New()
	assert.Equal(t, int64(1), s.Upsert("a.txt", "李明出发了。", "text/plain"))
	assert.Equal(t, int64(1), s.Upsert("a.txt", "李明出发了。", "text/markdown"))

	doc, ok := s.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, "text/markdown", doc.Mime)
}

func TestStore_PendingBatch(t *testing.T) {
	s := New()
	s.Upsert("a.txt", "甲", "")
	s.Upsert("b.txt", "乙", "")
	assert.Len(t, s.PendingBatch(), 2)

	s.MarkAnalyzed("a.txt", 1)
	assert.Equal(t, []conductor.Document{{ID: "b.txt", Text: "乙"}}, s.PendingBatch())

	// A new revision is pending again; a stale mark does not clear it.
	s.Upsert("a.txt", "甲二", "")
	s.MarkAnalyzed("a.txt", 1)
	doc, _ := s.Get("a.txt")
	assert.True(t, doc.Pending())
	assert.Equal(t, int64(1), doc.Analyzed)

	s.MarkAnalyzed("a.txt", 2)
	s.MarkAnalyzed("b.txt", 1)
	assert.Empty(t, s.PendingBatch())
	assert.Len(t, s.Batch(), 2)
}
