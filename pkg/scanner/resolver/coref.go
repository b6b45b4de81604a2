package resolver

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kittclouds/storygraph/pkg/graph"
	implicitmatcher "github.com/kittclouds/storygraph/pkg/implicit-matcher"
	"github.com/kittclouds/storygraph/pkg/scanner/chunker"
)

// Pronoun categories.
const (
	CategoryFirst     = "first_person"
	CategorySecond    = "second_person"
	CategoryThird     = "third_person"
	CategoryNeuter    = "third_person_neuter"
	CategoryNear      = "demonstrative_near"
	CategoryFar       = "demonstrative_far"
	CategoryReflexive = "reflexive"

	// categoryStop marks words that contain a pronoun but are not one.
	categoryStop = "stop"
)

// PronounVocabulary lists the surface forms of each category.
var PronounVocabulary = map[string][]string{
	CategoryFirst:     {"我", "我们", "咱们", "咱", "本人", "在下", "老夫", "本座", "I", "me", "we", "us"},
	CategorySecond:    {"你", "你们", "您", "you"},
	CategoryThird:     {"他", "她", "他们", "她们", "he", "him", "she", "her", "they", "them"},
	CategoryNeuter:    {"它", "它们", "it"},
	CategoryNear:      {"这个人", "此人", "这位", "这人"},
	CategoryFar:       {"那个人", "那人", "那位"},
	CategoryReflexive: {"自己", "他自己", "她自己", "我自己", "himself", "herself", "myself"},
	categoryStop:      {"其他", "其它", "他人", "他乡", "吉他", "其他人", "你好"},
}

var categoryOrder = []string{
	categoryStop, CategoryReflexive, CategoryNear, CategoryFar,
	CategoryFirst, CategorySecond, CategoryThird, CategoryNeuter,
}

var pronounGender = map[string]Gender{
	"他": GenderMale, "他们": GenderPlural, "he": GenderMale, "him": GenderMale, "himself": GenderMale, "他自己": GenderMale,
	"她": GenderFemale, "她们": GenderPlural, "she": GenderFemale, "her": GenderFemale, "herself": GenderFemale, "她自己": GenderFemale,
	"they": GenderPlural, "them": GenderPlural,
}

// speechVerbs identify a speaker when written right after a name.
var speechVerbs = []string{
	"冷笑道", "笑道", "怒道", "喝道", "叹道", "说道", "问道", "答道", "喊道", "叫道", "低声道",
	"说", "道", "问", "答", "喊", " said", " asked", " replied",
}

// Confidence of each resolution path.
const (
	confSpeaker = 0.9
	confThird   = 0.8
	confRecent  = 0.7
	confSecond  = 0.6
)

var pronouns = func() *implicitmatcher.Dictionary {
	entries := make([]implicitmatcher.Entry, 0, len(categoryOrder))
	for _, c := range categoryOrder {
		entries = append(entries, implicitmatcher.Entry{ID: c, Surfaces: PronounVocabulary[c]})
	}
	return implicitmatcher.MustCompile(entries)
}()

// CorefResolver maps pronouns to the entities they refer to.
type CorefResolver struct {
	MaxHistory int
}

// NewCoref creates a coreference resolver tracking maxHistory recent
// mentions.
func NewCoref(maxHistory int) *CorefResolver {
	return &CorefResolver{MaxHistory: maxHistory}
}

type mention struct {
	pos    int
	end    int
	key    string
	isName bool
	word   string
	cat    string
}

// Resolve walks text sentence by sentence and returns one reference per
// resolvable pronoun. Unresolvable pronouns are skipped.
func (c *CorefResolver) Resolve(text string, entities []*graph.Entity) []graph.PronounReference {
	if len(entities) == 0 || text == "" {
		return nil
	}

	ctx := NewContext(c.MaxHistory)
	var names []mention
	for _, e := range entities {
		ctx.Register(EntityMetadata{Key: e.Key(), Name: e.Name, Type: e.Type, Gender: genderOf(e)})
		nameLen := utf8.RuneCountInString(e.Name)
		for _, p := range e.Positions {
			names = append(names, mention{pos: p, end: p + nameLen, key: e.Key(), isName: true})
		}
	}
	sort.SliceStable(names, func(i, j int) bool { return names[i].pos < names[j].pos })

	runes := []rune(text)
	var found []mention
	for _, m := range pronouns.ScanLongest(text) {
		cat := m.IDs[0]
		if cat == categoryStop || !wordBounded(runes, m.Start, m.End) {
			continue
		}
		if insideName(names, m.Start) {
			continue
		}
		found = append(found, mention{pos: m.Start, end: m.End, word: m.Text, cat: cat})
	}

	var out []graph.PronounReference
	for _, s := range chunker.Sentences(text) {
		stream := between(names, s.Range)
		if sp := speakerOf(runes, stream); sp != "" {
			ctx.Speaker = sp
		}
		stream = append(stream, between(found, s.Range)...)
		sort.SliceStable(stream, func(i, j int) bool { return stream[i].pos < stream[j].pos })

		for _, m := range stream {
			if m.isName {
				ctx.PushMention(m.key)
				continue
			}
			if ref, ok := resolvePronoun(ctx, m); ok {
				out = append(out, ref)
			}
		}
	}
	return out
}

func resolvePronoun(ctx *NarrativeContext, m mention) (graph.PronounReference, bool) {
	word := strings.ToLower(m.word)
	gender := pronounGender[word]
	person := func(meta EntityMetadata) bool {
		return meta.Type == graph.TypeCharacter && gendersCompatible(meta.Gender, gender)
	}

	var key string
	var conf float64
	switch m.cat {
	case CategoryFirst, CategoryReflexive:
		if ctx.Speaker != "" {
			key, conf = ctx.Speaker, confSpeaker
		} else {
			key, conf = ctx.FindRecent(0, person), confRecent
		}
	case CategoryThird:
		key, conf = ctx.FindRecent(0, person), confThird
	case CategoryNeuter:
		key, conf = ctx.FindRecent(0, func(meta EntityMetadata) bool {
			return meta.Type != graph.TypeCharacter
		}), confRecent
	case CategoryNear:
		key, conf = ctx.FindRecent(0, nil), confRecent
	case CategoryFar:
		key, conf = ctx.FindRecent(1, nil), confRecent
	case CategorySecond:
		var exclude []string
		if ctx.Speaker != "" {
			exclude = append(exclude, ctx.Speaker)
		}
		key, conf = ctx.FindRecent(0, person, exclude...), confSecond
	}
	if key == "" {
		return graph.PronounReference{}, false
	}
	return graph.PronounReference{
		Pronoun:    m.word,
		Category:   m.cat,
		Referent:   key,
		Position:   m.pos,
		Confidence: conf,
	}, true
}

// speakerOf returns the first name in the sentence followed by a speech verb.
func speakerOf(runes []rune, names []mention) string {
	for _, m := range names {
		if m.end > len(runes) {
			continue
		}
		rest := string(runes[m.end:min(len(runes), m.end+8)])
		for _, v := range speechVerbs {
			if strings.HasPrefix(rest, v) {
				return m.key
			}
		}
	}
	return ""
}

func between(ms []mention, r chunker.TextRange) []mention {
	var out []mention
	for _, m := range ms {
		if m.pos >= r.Start && m.pos < r.End {
			out = append(out, m)
		}
	}
	return out
}

func insideName(names []mention, pos int) bool {
	for _, n := range names {
		if pos >= n.pos && pos < n.end {
			return true
		}
	}
	return false
}

// wordBounded rejects Latin pronouns found inside longer words.
func wordBounded(runes []rune, start, end int) bool {
	if start >= end || !isLatinLetter(runes[start]) {
		return true
	}
	if start > 0 && isLatinLetter(runes[start-1]) {
		return false
	}
	if end < len(runes) && isLatinLetter(runes[end]) {
		return false
	}
	return true
}

func isLatinLetter(r rune) bool {
	return r < unicode.MaxLatin1 && unicode.IsLetter(r)
}
