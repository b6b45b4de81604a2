package discovery

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/orsinium-labs/stopwords"

	"github.com/kittclouds/storygraph/pkg/graph"
)

// leadingNoise are words a lazy capture can drag in front of a name.
var leadingNoise = []string{
	"于是", "然后", "这时", "此时", "只见", "突然", "忽然", "原来", "但是", "可是",
	"不过", "只是", "随后", "接着", "终于", "便", "却", "而", "又", "再",
}

// trailingNoise are particles a capture can drag after a name.
var trailingNoise = []string{"的", "了", "着", "过", "们"}

// pronounChars disqualify a name outright.
const pronounChars = "他她它我你您咱"

// Candidate is one accepted name with the rule that produced it.
type Candidate struct {
	Type        graph.EntityType
	Name        string
	Description string
}

// CandidateRegistry deduplicates (type, name) pairs and enforces type
// precedence: a name claimed by one type is never claimed by another.
type CandidateRegistry struct {
	MinLen int
	MaxLen int

	StopWords       map[string]bool      // Custom stopwords
	stopwordChecker *stopwords.Stopwords // English stopwords

	claimed    map[string]graph.EntityType
	candidates []Candidate
}

// NewRegistry creates a registry accepting names of minLen..maxLen runes.
func NewRegistry(minLen, maxLen int) *CandidateRegistry {
	r := &CandidateRegistry{
		MinLen:          minLen,
		MaxLen:          maxLen,
		StopWords:       make(map[string]bool),
		stopwordChecker: stopwords.MustGet("en"),
		claimed:         make(map[string]graph.EntityType),
	}
	for _, w := range []string{"这里", "那里", "什么", "怎么", "大家", "自己", "众人", "有人"} {
		r.StopWords[w] = true
	}
	return r
}

// AddStopWord adds a custom ignored word
func (r *CandidateRegistry) AddStopWord(word string) {
	r.StopWords[strings.ToLower(word)] = true
}

// Offer proposes raw as a name of type t. It returns the cleaned name and
// true when the candidate was accepted.
func (r *CandidateRegistry) Offer(t graph.EntityType, raw, description string) (string, bool) {
	name, ok := r.clean(raw)
	if !ok {
		return "", false
	}
	if _, taken := r.claimed[name]; taken {
		return name, false
	}
	r.claimed[name] = t
	r.candidates = append(r.candidates, Candidate{Type: t, Name: name, Description: description})
	return name, true
}

// TypeOf returns the type that claimed name, if any.
func (r *CandidateRegistry) TypeOf(name string) (graph.EntityType, bool) {
	t, ok := r.claimed[name]
	return t, ok
}

// Candidates returns accepted candidates in acceptance order.
func (r *CandidateRegistry) Candidates() []Candidate {
	return r.candidates
}

// Len returns the number of accepted candidates.
func (r *CandidateRegistry) Len() int {
	return len(r.candidates)
}

func (r *CandidateRegistry) clean(raw string) (string, bool) {
	name := TrimCandidate(raw)
	length := utf8.RuneCountInString(name)
	if length < r.MinLen || length > r.MaxLen {
		return "", false
	}
	if strings.ContainsAny(name, pronounChars) {
		return "", false
	}

	key := strings.ToLower(name)
	if r.StopWords[key] {
		return "", false
	}
	if r.stopwordChecker != nil && isLatin(name) {
		// English names: reject when the name (or its first word) is a stopword.
		first := strings.Fields(key)[0]
		if r.stopwordChecker.Contains(key) || r.stopwordChecker.Contains(first) {
			return "", false
		}
	}
	return name, true
}

// TrimCandidate strips connective words and particles a pattern capture
// picked up around a name.
func TrimCandidate(raw string) string {
	name := strings.TrimSpace(raw)
	for changed := true; changed; {
		changed = false
		for _, w := range leadingNoise {
			if strings.HasPrefix(name, w) && utf8.RuneCountInString(name)-utf8.RuneCountInString(w) >= 2 {
				name = strings.TrimPrefix(name, w)
				changed = true
			}
		}
	}
	for _, w := range trailingNoise {
		if strings.HasSuffix(name, w) && utf8.RuneCountInString(name) > 2 {
			name = strings.TrimSuffix(name, w)
		}
	}
	return strings.TrimSpace(name)
}

func isLatin(s string) bool {
	for _, r := range s {
		if r > unicode.MaxLatin1 {
			return false
		}
	}
	return s != ""
}
