package discovery

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/storygraph/pkg/graph"
)

func byName(ents []*graph.Entity, name string) *graph.Entity {
	for _, e := range ents {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func TestRecognize_CharacterAndLocation(t *testing.T) {
	text := "李明是一位勇敢的侠客，他住在长安城。"
	ents := NewRecognizer(DefaultOptions()).Recognize(text)

	require.Len(t, ents, 2)

	li := byName(ents, "李明")
	require.NotNil(t, li)
	assert.Equal(t, graph.TypeCharacter, li.Type)
	assert.Equal(t, 1, li.Attributes.Frequency)
	assert.Equal(t, 0, li.Attributes.FirstAppearance)
	assert.Contains(t, li.Attributes.Get(graph.AttrPersonality), "勇敢")
	assert.Contains(t, li.Attributes.Get(graph.AttrStatus), "侠客")

	city := byName(ents, "长安城")
	require.NotNil(t, city)
	assert.Equal(t, graph.TypeLocation, city.Type)
	assert.Equal(t, 14, city.Attributes.FirstAppearance)
}

func TestRecognize_DuplicateSuppressed(t *testing.T) {
	text := "李明说：“走吧。”李明说：“好。”"
	ents := NewRecognizer(DefaultOptions()).Recognize(text)

	require.Len(t, ents, 1)
	assert.Equal(t, "李明", ents[0].Name)
	assert.Equal(t, 2, ents[0].Attributes.Frequency)
	assert.Equal(t, []int{0, 9}, ents[0].Positions)
}

func TestRecognize_TypePrecedence(t *testing.T) {
	rules := []Rule{
		{Type: graph.TypeLocation, Pattern: regexp.MustCompile(`(青云山)`), Groups: []int{1}, Description: "test"},
		{Type: graph.TypeCharacter, Pattern: regexp.MustCompile(`(青云山)`), Groups: []int{1}, Description: "test"},
	}
	ents := NewRecognizerWithRules(DefaultOptions(), rules).Recognize("青云山很高。")

	require.Len(t, ents, 1)
	assert.Equal(t, graph.TypeCharacter, ents[0].Type)
}

func TestRecognize_ItemAttributes(t *testing.T) {
	text := "他得到了一把玄铁剑，这把剑稀有无比。"
	ents := NewRecognizer(DefaultOptions()).Recognize(text)

	sword := byName(ents, "玄铁剑")
	require.NotNil(t, sword)
	assert.Equal(t, graph.TypeItem, sword.Type)
	assert.Equal(t, "玄铁", sword.Attributes.First(graph.AttrMaterial))
	assert.Equal(t, "稀有", sword.Attributes.First(graph.AttrRarity))
}

func TestRecognize_EnglishStopWords(t *testing.T) {
	ents := NewRecognizer(DefaultOptions()).Recognize("He said no. Alice said yes.")

	require.Len(t, ents, 1)
	assert.Equal(t, "Alice", ents[0].Name)
	assert.Equal(t, graph.TypeCharacter, ents[0].Type)
}

func TestRecognize_NoMatches(t *testing.T) {
	assert.Empty(t, NewRecognizer(DefaultOptions()).Recognize("天很蓝。"))
}

func TestQuick(t *testing.T) {
	text := "《天龙八部》很好看。张三说：“是吗？”"
	ents := NewRecognizer(DefaultOptions()).Quick(text)

	require.Len(t, ents, 2)
	assert.Equal(t, "张三", ents[0].Name)
	assert.Equal(t, graph.TypeCharacter, ents[0].Type)
	assert.Equal(t, "天龙八部", ents[1].Name)
	assert.Equal(t, graph.TypeItem, ents[1].Type)
}

func TestQuick_Cap(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxQuickCandidates = 1
	ents := NewRecognizer(opts).Quick("张三说：“好。”李四说：“行。”")

	require.Len(t, ents, 1)
	assert.Equal(t, "张三", ents[0].Name)
}

func TestTrimCandidate(t *testing.T) {
	assert.Equal(t, "李明", TrimCandidate("于是李明"))
	assert.Equal(t, "长安城", TrimCandidate("长安城的"))
	assert.Equal(t, "然后", TrimCandidate("然后"))
}

func TestRegistry_StopWords(t *testing.T) {
	reg := NewRegistry(2, 20)
	reg.AddStopWord("Shadow")

	_, ok := reg.Offer(graph.TypeCharacter, "Shadow", "test")
	assert.False(t, ok)

	_, ok = reg.Offer(graph.TypeCharacter, "大家", "test")
	assert.False(t, ok)

	name, ok := reg.Offer(graph.TypeCharacter, "Kaido", "test")
	assert.True(t, ok)
	assert.Equal(t, "Kaido", name)
	assert.Equal(t, 1, reg.Len())
}
