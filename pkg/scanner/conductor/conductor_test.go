package conductor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kittclouds/storygraph/pkg/graph"
)

const (
	scenarioLocation = "李明是一位勇敢的侠客，他住在长安城。"
	scenarioTwins    = "老小明说：“我老了。”前辈小明道：“是啊。”小小明笑道：“我还小。”"
	scenarioCausal   = "李明说：“因为下雨，我们取消了比赛。”李明回到了长安城。"
)

func newConductor(t *testing.T, options ...Option) *Conductor {
	t.Helper()
	c, err := New(DefaultOptions(), options...)
	require.NoError(t, err)
	return c
}

func entity(t *testing.T, res *graph.AnalysisResult, key string) *graph.Entity {
	t.Helper()
	e := res.KnowledgeGraph.EntityByKey(key)
	require.NotNil(t, e, "entity %s", key)
	return e
}

func TestAnalyze_CharacterLivesInCity(t *testing.T) {
	res, err := newConductor(t).Analyze(scenarioLocation)
	require.NoError(t, err)

	li := entity(t, res, "李明")
	assert.Equal(t, graph.TypeCharacter, li.Type)
	city := entity(t, res, "长安城")
	assert.Equal(t, graph.TypeLocation, city.Type)

	require.Len(t, res.KnowledgeGraph.Relations, 1)
	rel := res.KnowledgeGraph.Relations[0]
	assert.Equal(t, graph.RelAppearsIn, rel.Type)
	assert.Equal(t, "李明", rel.Source)
	assert.Equal(t, "长安城", rel.Target)

	require.Len(t, res.KnowledgeGraph.References, 1)
	assert.Equal(t, "他", res.KnowledgeGraph.References[0].Pronoun)
	assert.Equal(t, "李明", res.KnowledgeGraph.References[0].Referent)

	require.Len(t, res.Timeline.Events, 1)
	ev := res.Timeline.Events[0]
	assert.Equal(t, []string{"李明", "长安城"}, ev.Participants)
	assert.Equal(t, "长安城", ev.Location)
	require.NotNil(t, ev.Sentiment)

	require.Len(t, li.EmotionalArcs, 1)
	assert.Equal(t, string(graph.Neutral), li.EmotionalArcs[0].Emotion)
	assert.Equal(t, "0", li.EmotionalArcs[0].Timestamp)
	require.Len(t, rel.EmotionalDynamics, 1)
	assert.Equal(t, scenarioLocation, rel.EmotionalDynamics[0].Context)

	assert.Equal(t, 16, res.TotalWords)
	assert.Equal(t, scenarioLocation, res.Summary)
}

func TestAnalyze_ShortTextSingleChapter(t *testing.T) {
	text := "  " + scenarioLocation + "\n"
	res, err := newConductor(t).Analyze(text)
	require.NoError(t, err)

	require.Len(t, res.Chapters, 1)
	assert.Equal(t, 1, res.EstimatedChapters)
	assert.Equal(t, "第一章", res.Chapters[0].Title)
	assert.Equal(t, scenarioLocation, res.Chapters[0].Content)
}

func TestAnalyze_ChapterKeepsSpacing(t *testing.T) {
	body := "李明走了。\n\n\n   王五  来了。"
	res, err := newConductor(t).Analyze("\n  " + body + "  \n")
	require.NoError(t, err)

	require.Len(t, res.Chapters, 1)
	assert.Equal(t, body, res.Chapters[0].Content)
	assert.Equal(t, "李明走了。\n\n王五 来了。", res.Summary)
}

func TestAnalyze_ContentErrors(t *testing.T) {
	for _, text := range []string{"", "   \n\t", "\xff\xfe", "12345 ..."} {
		t.Run(fmt.Sprintf("%q", text), func(t *testing.T) {
			res, err := newConductor(t).Analyze(text)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrInvalidContent))
			assert.True(t, IsContentError(err))

			var ce *ContentError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, 400, ce.StatusCode())
		})
	}
}

func TestAnalyze_SameNameDisambiguated(t *testing.T) {
	res, err := newConductor(t).Analyze(scenarioTwins)
	require.NoError(t, err)

	var ids []string
	for _, e := range res.KnowledgeGraph.Entities {
		if e.Name == "小明" {
			require.NotEmpty(t, e.DisambiguatedID)
			ids = append(ids, e.DisambiguatedID)
		}
	}
	assert.ElementsMatch(t, []string{"小明_年长", "小明_年幼"}, ids)
}

func TestAnalyze_TitledSpeakersOwnFirstPerson(t *testing.T) {
	res, err := newConductor(t).Analyze(scenarioTwins)
	require.NoError(t, err)

	var first []graph.PronounReference
	for _, r := range res.KnowledgeGraph.References {
		if r.Pronoun == "我" {
			first = append(first, r)
		}
	}
	require.Len(t, first, 2)
	assert.Equal(t, "小明_年长", first[0].Referent)
	assert.Equal(t, "小明_年幼", first[1].Referent)
	for _, r := range first {
		assert.InDelta(t, 0.9, r.Confidence, 1e-9)
	}
}

func TestAnalyze_DistantTimeStillAttached(t *testing.T) {
	text := "2024年3月5日，" + strings.Repeat("天色渐渐暗了下来，风很大。", 12) + "李明是一位侠客，他住在长安城。"
	res, err := newConductor(t).Analyze(text)
	require.NoError(t, err)

	var found bool
	for _, ev := range res.Timeline.Events {
		if ev.Description == "李明是一位侠客，他住在长安城。" {
			found = true
			require.NotNil(t, ev.TimeInfo)
			assert.Equal(t, "2024-03-05", ev.TimeInfo.Normalized)
		}
	}
	assert.True(t, found)
}

func TestAnalyze_CausalMarker(t *testing.T) {
	res, err := newConductor(t).Analyze(scenarioCausal)
	require.NoError(t, err)

	require.Len(t, res.Timeline.Events, 2)
	require.Len(t, res.Timeline.CausalRelations, 1)
	cr := res.Timeline.CausalRelations[0]
	assert.Greater(t, cr.Confidence, 0.4)
	assert.Contains(t, cr.Basis, "causal marker (cause): 因为")

	require.NotEmpty(t, res.Timeline.EventChains)
	assert.Equal(t, "李明", res.Timeline.EventChains[0].Theme)
	assert.Greater(t, res.Timeline.Events[0].Impact, 0.0)
}

func TestAnalyze_Idempotent(t *testing.T) {
	c := newConductor(t)
	for _, text := range []string{scenarioLocation, scenarioTwins, scenarioCausal} {
		a, err := c.Analyze(text)
		require.NoError(t, err)
		b, err := c.Analyze(text)
		require.NoError(t, err)

		require.Equal(t, len(a.KnowledgeGraph.Entities), len(b.KnowledgeGraph.Entities))
		for i := range a.KnowledgeGraph.Entities {
			ea, eb := a.KnowledgeGraph.Entities[i], b.KnowledgeGraph.Entities[i]
			assert.Equal(t, ea.Name, eb.Name)
			assert.Equal(t, ea.Type, eb.Type)
			assert.Equal(t, ea.DisambiguatedID, eb.DisambiguatedID)
		}
		assert.Equal(t, a.KnowledgeGraph.Relations, b.KnowledgeGraph.Relations)
	}
}

func TestAnalyze_RelationInvariants(t *testing.T) {
	text := "王五拜李明为师。李明收王五为徒。李明和王五一起来到长安城。"
	res, err := newConductor(t).Analyze(text)
	require.NoError(t, err)

	seen := make(map[[2]string]bool)
	for _, r := range res.KnowledgeGraph.Relations {
		assert.Greater(t, r.Attributes.Confidence, 0.3)
		assert.LessOrEqual(t, r.Attributes.Confidence, 0.9)

		pair := [2]string{r.Source, r.Target}
		if pair[1] < pair[0] {
			pair[0], pair[1] = pair[1], pair[0]
		}
		assert.False(t, seen[pair], "duplicate pair %v", pair)
		seen[pair] = true
	}
}

func TestAnalyze_StageFaultRecovered(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c := newConductor(t, WithLogger(zap.New(core)))
	c.beforeStage = func(stage string) {
		if stage == StageRelations {
			panic("boom")
		}
	}

	res, err := c.Analyze(scenarioLocation)
	require.NoError(t, err)
	assert.Empty(t, res.KnowledgeGraph.Relations)
	assert.NotEmpty(t, res.KnowledgeGraph.Entities)

	entries := logs.FilterMessage("stage failed, continuing with empty result").All()
	require.Len(t, entries, 1)
	assert.Equal(t, StageRelations, entries[0].ContextMap()["stage"])
}

func TestAnalyze_MergeFaultIsAnalysisError(t *testing.T) {
	c := newConductor(t)
	c.beforeStage = func(stage string) {
		if stage == StageMerge {
			panic(errors.New("broken merge"))
		}
	}

	res, err := c.Analyze(scenarioLocation)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAnalysisFailed))
	assert.False(t, IsContentError(err))

	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, StageMerge, ae.Stage)
	assert.Equal(t, 500, ae.StatusCode())
	assert.EqualError(t, ae.Unwrap(), "broken merge")
}

func TestAnalyzeBatch(t *testing.T) {
	docs := []Document{
		{ID: "a", Text: scenarioLocation},
		{ID: "b", Text: ""},
		{ID: "c", Text: scenarioCausal},
	}
	results := newConductor(t).AnalyzeBatch(context.Background(), docs, 2)
	require.Len(t, results, 3)

	assert.Equal(t, "a", results[0].ID)
	assert.NoError(t, results[0].Err)
	assert.NotNil(t, results[0].Result)

	assert.Equal(t, "b", results[1].ID)
	assert.ErrorIs(t, results[1].Err, ErrInvalidContent)
	assert.Nil(t, results[1].Result)

	assert.NoError(t, results[2].Err)
	assert.Len(t, results[2].Result.Timeline.CausalRelations, 1)
}

func TestAnalyzeBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := newConductor(t).AnalyzeBatch(ctx, []Document{{ID: "a", Text: scenarioLocation}}, 1)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

type memPersister struct {
	nodes int
	edges []string
	fail  bool
}

func (m *memPersister) CreateNode(_ context.Context, e *graph.Entity) (*graph.StoredNode, error) {
	if m.fail {
		return nil, errors.New("disk full")
	}
	m.nodes++
	return &graph.StoredNode{ID: fmt.Sprintf("n%d", m.nodes), Key: e.Key(), Entity: e}, nil
}

func (m *memPersister) CreateRelationship(_ context.Context, r *graph.Relation, src, dst string) (*graph.StoredEdge, error) {
	m.edges = append(m.edges, src+"->"+dst)
	return &graph.StoredEdge{ID: fmt.Sprintf("e%d", len(m.edges)), SourceID: src, TargetID: dst, Relation: r}, nil
}

func TestPersist(t *testing.T) {
	res, err := newConductor(t).Analyze(scenarioLocation)
	require.NoError(t, err)
	res.KnowledgeGraph.Relations = append(res.KnowledgeGraph.Relations, &graph.Relation{Source: "李明", Target: "无名"})

	p := &memPersister{}
	report, err := Persist(context.Background(), p, res)
	require.NoError(t, err)
	assert.Len(t, report.Nodes, 2)
	assert.Len(t, report.Edges, 1)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, []string{"n1->n2"}, p.edges)

	_, err = Persist(context.Background(), &memPersister{fail: true}, res)
	assert.ErrorContains(t, err, "disk full")
}
