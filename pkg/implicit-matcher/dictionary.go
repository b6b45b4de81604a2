// Package implicitmatcher provides a runtime dictionary using Aho-Corasick.
// One automaton serves both as an exact surface-form lookup and as a text
// scanner: entity names for mention positions, fixed vocabularies for
// lexicon hits.
package implicitmatcher

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"
)

// Entry registers one payload ID under any number of surface forms.
type Entry struct {
	ID       string
	Surfaces []string
}

// Dictionary maps surface forms to IDs and scans text for them.
type Dictionary struct {
	// The AC automaton built from all surface forms
	ac *ahocorasick.Automaton

	// Pattern index -> IDs (several IDs may share a surface form)
	patternToIDs [][]string

	// Canonical pattern -> pattern index
	patternIndex map[string]int

	// All patterns in insertion order (for the AC builder)
	patterns []string

	// Rune length of each pattern
	patternRunes []int
}

// Match is one surface form found in text. Start and End are rune offsets
// into the original text.
type Match struct {
	Start      int
	End        int
	Text       string
	PatternIdx int
	IDs        []string
}

// Canonicalize folds case; rune count is preserved so offsets found in the
// canonical text are valid in the original.
func Canonicalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Compile builds a Dictionary from entries. Empty surfaces are skipped.
func Compile(entries []Entry) (*Dictionary, error) {
	d := &Dictionary{patternIndex: make(map[string]int)}

	for _, e := range entries {
		for _, surface := range e.Surfaces {
			key := Canonicalize(strings.TrimSpace(surface))
			if key == "" {
				continue
			}
			if idx, exists := d.patternIndex[key]; exists {
				d.patternToIDs[idx] = appendUnique(d.patternToIDs[idx], e.ID)
				continue
			}
			d.patternIndex[key] = len(d.patterns)
			d.patterns = append(d.patterns, key)
			d.patternRunes = append(d.patternRunes, utf8.RuneCountInString(key))
			d.patternToIDs = append(d.patternToIDs, []string{e.ID})
		}
	}

	if len(d.patterns) == 0 {
		return d, nil
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(d.patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	d.ac = automaton
	return d, nil
}

// MustCompile is Compile for package-level vocabularies; it panics on error.
func MustCompile(entries []Entry) *Dictionary {
	d, err := Compile(entries)
	if err != nil {
		panic("implicitmatcher: " + err.Error())
	}
	return d
}

// Size returns the number of distinct surface forms.
func (d *Dictionary) Size() int {
	return len(d.patterns)
}

// Lookup returns the IDs registered under an exact surface form.
func (d *Dictionary) Lookup(surface string) []string {
	idx, ok := d.patternIndex[Canonicalize(strings.TrimSpace(surface))]
	if !ok {
		return nil
	}
	return d.patternToIDs[idx]
}

// ScanAll returns every occurrence of every surface form, overlaps
// included, ordered by start then by longer span first.
func (d *Dictionary) ScanAll(text string) []Match {
	if d.ac == nil || text == "" {
		return nil
	}

	canon := Canonicalize(text)
	byteToRune := runeIndex(canon)
	runes := []rune(text)

	raw := d.ac.FindAllOverlapping([]byte(canon))
	out := make([]Match, 0, len(raw))
	for _, m := range raw {
		if m.Start < 0 || m.End > len(canon) || m.Start >= m.End {
			continue
		}
		start := byteToRune[m.Start]
		end := start + d.patternRunes[m.PatternID]
		if end > len(runes) {
			continue
		}
		out = append(out, Match{
			Start:      start,
			End:        end,
			Text:       string(runes[start:end]),
			PatternIdx: m.PatternID,
			IDs:        d.patternToIDs[m.PatternID],
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End > out[j].End
	})
	return out
}

// ScanLongest returns non-overlapping matches, preferring at each position
// the leftmost and then the longest surface form.
func (d *Dictionary) ScanLongest(text string) []Match {
	all := d.ScanAll(text)
	out := make([]Match, 0, len(all))
	cursor := 0
	for _, m := range all {
		if m.Start < cursor {
			continue
		}
		out = append(out, m)
		cursor = m.End
	}
	return out
}

// Positions returns the rune start offsets of every occurrence per ID.
func (d *Dictionary) Positions(text string) map[string][]int {
	out := make(map[string][]int)
	for _, m := range d.ScanAll(text) {
		for _, id := range m.IDs {
			out[id] = append(out[id], m.Start)
		}
	}
	return out
}

// Count returns the number of hits per ID, overlaps included.
func (d *Dictionary) Count(text string) map[string]int {
	out := make(map[string]int)
	for _, m := range d.ScanAll(text) {
		for _, id := range m.IDs {
			out[id]++
		}
	}
	return out
}

// Keywords returns the distinct matched surface forms per ID in order of
// first appearance.
func (d *Dictionary) Keywords(text string) map[string][]string {
	out := make(map[string][]string)
	for _, m := range d.ScanAll(text) {
		for _, id := range m.IDs {
			out[id] = appendUnique(out[id], m.Text)
		}
	}
	return out
}

// runeIndex maps each byte offset of s to the rune offset containing it.
func runeIndex(s string) []int {
	idx := make([]int, len(s)+1)
	n := 0
	for i := 0; i < len(s); {
		_, w := utf8.DecodeRuneInString(s[i:])
		for k := 0; k < w; k++ {
			idx[i+k] = n
		}
		i += w
		n++
	}
	idx[len(s)] = n
	return idx
}

func appendUnique(slice []string, item string) []string {
	for _, s := range slice {
		if s == item {
			return slice
		}
	}
	return append(slice, item)
}
