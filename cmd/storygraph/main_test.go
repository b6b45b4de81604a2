package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/storygraph/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func lines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var docs []map[string]any
	sc := bufio.NewScanner(bytes.NewBufferString(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<24)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		docs = append(docs, m)
	}
	require.NoError(t, sc.Err())
	return docs
}

func manuscript(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "storygraph dev\n", out)
}

func TestAnalyzeSlim(t *testing.T) {
	dir := t.TempDir()
	path := manuscript(t, dir, "scene.txt", "李明是一位勇敢的侠客，他住在长安城。")

	out, err := execute(t, "analyze", "--slim", path)
	require.NoError(t, err)

	docs := lines(t, out)
	require.Len(t, docs, 1)
	assert.Equal(t, path, docs[0]["id"])

	result := docs[0]["result"].(map[string]any)
	assert.Equal(t, float64(16), result["totalWords"])
	nodes := result["graph"].(map[string]any)["nodes"].(map[string]any)
	assert.Contains(t, nodes, "李明")
	assert.Contains(t, nodes, "长安城")
}

func TestAnalyzeReportsFailuresPerDocument(t *testing.T) {
	dir := t.TempDir()
	good := manuscript(t, dir, "good.txt", "李明回到了长安城。")
	empty := manuscript(t, dir, "empty.txt", "   ")
	pdf := manuscript(t, dir, "novel.pdf", "%PDF")

	out, err := execute(t, "analyze", good, empty, pdf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 documents failed")

	docs := lines(t, out)
	require.Len(t, docs, 3)
	assert.Equal(t, good, docs[0]["id"])
	assert.Contains(t, docs[0], "result")
	assert.Contains(t, docs[1]["error"], "invalid content")
	assert.Contains(t, docs[2]["error"], "unsupported format")
}

func TestAnalyzePersists(t *testing.T) {
	dir := t.TempDir()
	path := manuscript(t, dir, "scene.txt", "李明是一位勇敢的侠客，他住在长安城。")
	dsn := filepath.Join(dir, "graph.db")

	// Analyzing twice replaces the stored graph.
	for range 2 {
		_, err := execute(t, "analyze", "--db", dsn, path)
		require.NoError(t, err)
	}

	s, err := store.NewSQLiteStoreWithDSN(dsn)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	doc, err := s.GetDocument(ctx, path)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, 16, doc.TotalWords)

	entities, err := s.ListEntities(ctx, path, "")
	require.NoError(t, err)
	labels := map[string]int{}
	for _, e := range entities {
		labels[e.Label]++
	}
	assert.Equal(t, 1, labels["李明"])
	assert.Equal(t, 1, labels["长安城"])
}

func TestAnalyzeRejectsBadFlags(t *testing.T) {
	path := manuscript(t, t.TempDir(), "scene.txt", "李明回到了长安城。")
	_, err := execute(t, "analyze", "--concurrency=-1", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch.concurrency must be positive")

	_, err = execute(t, "analyze")
	assert.Error(t, err)
}
