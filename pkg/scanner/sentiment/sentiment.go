// Package sentiment reads the polarity and emotions of event descriptions
// from a fixed keyword lexicon.
package sentiment

import (
	"unicode"

	"github.com/kittclouds/storygraph/pkg/graph"
	implicitmatcher "github.com/kittclouds/storygraph/pkg/implicit-matcher"
)

// Emotion is one lexicon entry.
type Emotion struct {
	Label    string
	Tier     graph.Polarity
	Keywords []string
}

// Lexicon lists every emotion in tie-break order. English keywords match at
// a word start.
var Lexicon = []Emotion{
	{"joy", graph.Positive, []string{"高兴", "开心", "快乐", "喜悦", "欢喜", "欣喜", "大笑", "笑道", "愉快", "兴奋", "欢乐", "happy", "joy", "laugh", "delight"}},
	{"love", graph.Positive, []string{"爱", "喜欢", "深情", "思念", "爱慕", "倾心", "心仪", "钟情", "疼爱", "温柔", "love", "adore", "cherish"}},
	{"hope", graph.Positive, []string{"希望", "期待", "盼望", "憧憬", "期盼", "渴望", "梦想", "信心", "祈愿", "愿望", "hope", "wish", "dream"}},
	{"peace", graph.Positive, []string{"平静", "安宁", "宁静", "安心", "从容", "淡然", "祥和", "悠闲", "安详", "平和", "calm", "peace", "serene"}},
	{"gratitude", graph.Positive, []string{"感谢", "感激", "谢谢", "多谢", "感恩", "报答", "恩情", "致谢", "道谢", "谢恩", "thank", "grateful"}},

	{"anger", graph.Negative, []string{"愤怒", "生气", "大怒", "怒道", "恼怒", "怒火", "暴怒", "气愤", "发火", "怒吼", "angry", "rage", "furious"}},
	{"sadness", graph.Negative, []string{"悲伤", "难过", "伤心", "痛苦", "哭", "流泪", "悲痛", "哀伤", "落泪", "凄凉", "sad", "cry", "grief", "tears"}},
	{"fear", graph.Negative, []string{"害怕", "恐惧", "惊恐", "畏惧", "胆怯", "颤抖", "惶恐", "战栗", "惊慌", "心惊", "afraid", "fear", "terrified"}},
	{"hate", graph.Negative, []string{"恨", "憎恨", "仇恨", "厌恶", "痛恨", "怨恨", "鄙视", "嫌弃", "敌视", "憎恶", "hate", "loathe", "despise"}},
	{"anxiety", graph.Negative, []string{"焦虑", "担心", "不安", "忧虑", "紧张", "着急", "焦急", "忐忑", "烦躁", "担忧", "anxious", "worry", "nervous"}},

	{"surprise", graph.Neutral, []string{"惊讶", "吃惊", "震惊", "惊奇", "诧异", "意外", "愕然", "惊异", "目瞪口呆", "大吃一惊", "surprised", "astonish", "shock"}},
	{"confusion", graph.Neutral, []string{"困惑", "疑惑", "迷茫", "茫然", "不解", "纳闷", "糊涂", "迷惑", "疑问", "莫名其妙", "confused", "puzzled", "bewildered"}},
}

// IntensityScale is the hit count that maps to full intensity.
const IntensityScale = 100.0

// Analyzer scores descriptions against Lexicon.
type Analyzer struct {
	dict  *implicitmatcher.Dictionary
	tiers map[string]graph.Polarity
}

// New compiles the lexicon.
func New() (*Analyzer, error) {
	entries := make([]implicitmatcher.Entry, 0, len(Lexicon))
	tiers := make(map[string]graph.Polarity, len(Lexicon))
	for _, e := range Lexicon {
		entries = append(entries, implicitmatcher.Entry{ID: e.Label, Surfaces: e.Keywords})
		tiers[e.Label] = e.Tier
	}
	dict, err := implicitmatcher.Compile(entries)
	if err != nil {
		return nil, err
	}
	return &Analyzer{dict: dict, tiers: tiers}, nil
}

// Analyze returns the sentiment of text. Polarity is the tier with the
// strictly highest hit count, neutral on ties or no hits.
func (a *Analyzer) Analyze(text string) graph.Sentiment {
	runes := []rune(text)
	out := graph.Sentiment{Sentiment: graph.Neutral, Emotions: make(map[string]int)}
	tier := make(map[graph.Polarity]int, 3)
	total := 0
	seen := make(map[string]bool)

	for _, m := range a.dict.ScanLongest(text) {
		if isLatin(runes[m.Start]) && m.Start > 0 && isLatin(runes[m.Start-1]) {
			continue
		}
		for _, label := range m.IDs {
			out.Emotions[label]++
			tier[a.tiers[label]]++
			total++
		}
		if !seen[m.Text] {
			seen[m.Text] = true
			out.Keywords = append(out.Keywords, m.Text)
		}
	}

	pos, neg, neu := tier[graph.Positive], tier[graph.Negative], tier[graph.Neutral]
	switch {
	case pos > neg && pos > neu:
		out.Sentiment = graph.Positive
	case neg > pos && neg > neu:
		out.Sentiment = graph.Negative
	}
	out.Intensity = min(max(float64(total)/IntensityScale, 0), 1)
	return out
}

// Dominant returns the emotion with the most hits, earlier lexicon entries
// first on ties, or "" when nothing matched.
func Dominant(s graph.Sentiment) string {
	best, bestCount := "", 0
	for _, e := range Lexicon {
		if c := s.Emotions[e.Label]; c > bestCount {
			best, bestCount = e.Label, c
		}
	}
	return best
}

func isLatin(r rune) bool {
	return r < unicode.MaxLatin1 && unicode.IsLetter(r)
}
