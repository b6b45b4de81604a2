package sentiment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/storygraph/pkg/graph"
)

func TestLexiconShape(t *testing.T) {
	require.Len(t, Lexicon, 12)
	seen := make(map[string]string)
	for _, e := range Lexicon {
		assert.GreaterOrEqual(t, len(e.Keywords), 10, e.Label)
		for _, k := range e.Keywords {
			prev, dup := seen[k]
			assert.False(t, dup, "%s listed under %s and %s", k, prev, e.Label)
			seen[k] = e.Label
		}
	}
}

func TestAnalyze(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	tests := []struct {
		name      string
		text      string
		polarity  graph.Polarity
		emotions  map[string]int
		intensity float64
	}{
		{"positive", "李明大笑，非常高兴。", graph.Positive, map[string]int{"joy": 2}, 0.02},
		{"negative", "王五愤怒地离开，心里很伤心。", graph.Negative, map[string]int{"anger": 1, "sadness": 1}, 0.02},
		{"tie", "他很高兴，也很害怕。", graph.Neutral, map[string]int{"joy": 1, "fear": 1}, 0.02},
		{"neutral tier", "众人十分惊讶。", graph.Neutral, map[string]int{"surprise": 1}, 0.01},
		{"none", "李明来到长安城。", graph.Neutral, map[string]int{}, 0},
		{"english", "Alice was happy but afraid.", graph.Neutral, map[string]int{"joy": 1, "fear": 1}, 0.02},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.text)
			assert.Equal(t, tt.polarity, got.Sentiment)
			assert.Equal(t, tt.emotions, got.Emotions)
			assert.InDelta(t, tt.intensity, got.Intensity, 1e-9)
		})
	}
}

func TestAnalyze_KeywordsAndCap(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	got := a.Analyze(strings.Repeat("高兴", 150))
	assert.Equal(t, []string{"高兴"}, got.Keywords)
	assert.Equal(t, 150, got.Emotions["joy"])
	assert.Equal(t, 1.0, got.Intensity)
}

func TestAnalyze_LatinWordStart(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	assert.Empty(t, a.Analyze("She showed courage.").Emotions)
}

func TestDominant(t *testing.T) {
	assert.Equal(t, "", Dominant(graph.Sentiment{}))
	assert.Equal(t, "joy", Dominant(graph.Sentiment{Emotions: map[string]int{"fear": 1, "joy": 1}}))
	assert.Equal(t, "fear", Dominant(graph.Sentiment{Emotions: map[string]int{"fear": 2, "joy": 1}}))
}
