// Package causal infers cause/effect edges between consecutive events and
// groups each participant's events into a chain.
package causal

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/kittclouds/storygraph/pkg/graph"
	implicitmatcher "github.com/kittclouds/storygraph/pkg/implicit-matcher"
)

// Marker categories.
const (
	MarkerCause     = "cause"
	MarkerEffect    = "effect"
	MarkerCondition = "condition"
	MarkerPurpose   = "purpose"
)

// Markers is the causal-marker vocabulary per category.
var Markers = []implicitmatcher.Entry{
	{ID: MarkerCause, Surfaces: []string{"因为", "由于", "之所以", "原因是", "起因于", "because", "due to"}},
	{ID: MarkerEffect, Surfaces: []string{"所以", "因此", "于是", "结果", "导致", "以致", "从而", "因而", "therefore", "thus", "hence", "as a result"}},
	{ID: MarkerCondition, Surfaces: []string{"如果", "假如", "要是", "只要", "除非", "倘若", "若是", "if", "unless"}},
	{ID: MarkerPurpose, Surfaces: []string{"为了", "以便", "为的是", "好让", "以免", "in order to"}},
}

// Scoring weights.
const (
	BaseConfidence   = 0.1
	TimeBonus        = 0.2
	ParticipantBonus = 0.2
	MarkerBonus      = 0.3
	Threshold        = 0.4
)

var markers = implicitmatcher.MustCompile(Markers)

// Analysis is the causal reading of a timeline.
type Analysis struct {
	Chains    []graph.EventChain
	Relations []graph.CausalRelation
}

// Analyzer scores consecutive event pairs.
type Analyzer struct{}

// New creates an Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze returns the causal relations and participant chains of events,
// which must already be in timeline order. Each event's Impact is set to the
// highest importance it reaches in any chain.
func (a *Analyzer) Analyze(events []*graph.Event) Analysis {
	rels := a.Relations(events)
	chains := a.Chains(events, rels)
	for _, c := range chains {
		for _, l := range c.Events {
			if l.Importance > l.Event.Impact {
				l.Event.Impact = l.Importance
			}
		}
	}
	return Analysis{Chains: chains, Relations: rels}
}

// Relations scores every consecutive pair and keeps those above Threshold.
func (a *Analyzer) Relations(events []*graph.Event) []graph.CausalRelation {
	var out []graph.CausalRelation
	for i := 0; i+1 < len(events); i++ {
		cause, effect := events[i], events[i+1]
		conf := BaseConfidence
		var basis []string

		if cause.TimeInfo.IsAbsolute() && effect.TimeInfo.IsAbsolute() {
			conf += TimeBonus
			basis = append(basis, fmt.Sprintf("temporal order: %s -> %s", cause.Timestamp(), effect.Timestamp()))
		}
		if shared := sharedParticipants(cause, effect); len(shared) > 0 {
			conf += ParticipantBonus
			basis = append(basis, "shared participants: "+strings.Join(shared, ", "))
		}
		hits, found := markerHits(cause.Description + "\n" + effect.Description)
		conf += MarkerBonus * float64(hits)
		basis = append(basis, found...)

		if conf > 1 {
			conf = 1
		}
		if conf > Threshold {
			out = append(out, graph.CausalRelation{Cause: cause, Effect: effect, Confidence: conf, Basis: basis})
		}
	}
	return out
}

// Chains groups events by participant. Participants with fewer than two
// events get no chain. Chains are sorted by descending significance.
func (a *Analyzer) Chains(events []*graph.Event, rels []graph.CausalRelation) []graph.EventChain {
	asCause := make(map[*graph.Event]int)
	asEffect := make(map[*graph.Event]int)
	for _, r := range rels {
		asCause[r.Cause]++
		asEffect[r.Effect]++
	}

	var order []string
	byParticipant := make(map[string][]*graph.Event)
	for _, e := range events {
		for _, p := range e.Participants {
			if _, ok := byParticipant[p]; !ok {
				order = append(order, p)
			}
			byParticipant[p] = append(byParticipant[p], e)
		}
	}

	var chains []graph.EventChain
	for _, p := range order {
		evs := byParticipant[p]
		if len(evs) < 2 {
			continue
		}
		sort.SliceStable(evs, func(i, j int) bool { return evs[i].Order < evs[j].Order })

		chain := graph.EventChain{Theme: p}
		total := 0.0
		for _, e := range evs {
			imp := 0.5 + 0.1*float64(asCause[e]+asEffect[e]) + 0.05*float64(len(e.Participants))
			if e.TimeInfo.IsAbsolute() {
				imp += 0.1
			}
			role := graph.RoleNeutral
			switch {
			case asCause[e] > asEffect[e]:
				role = graph.RoleCause
			case asEffect[e] > asCause[e]:
				role = graph.RoleEffect
			}
			chain.Events = append(chain.Events, graph.ChainLink{Event: e, Role: role, Importance: imp})
			total += imp
		}
		chain.Significance = total / float64(len(evs))
		chains = append(chains, chain)
	}

	sort.SliceStable(chains, func(i, j int) bool { return chains[i].Significance > chains[j].Significance })
	return chains
}

func sharedParticipants(a, b *graph.Event) []string {
	var out []string
	for _, p := range a.Participants {
		if b.HasParticipant(p) {
			out = append(out, p)
		}
	}
	return out
}

// markerHits counts marker occurrences in text and describes each distinct
// marker found.
func markerHits(text string) (int, []string) {
	runes := []rune(text)
	hits := 0
	var found []string
	seen := make(map[string]bool)
	for _, m := range markers.ScanLongest(text) {
		if !wordBounded(runes, m.Start, m.End) {
			continue
		}
		hits++
		if seen[m.Text] {
			continue
		}
		seen[m.Text] = true
		for _, cat := range m.IDs {
			found = append(found, fmt.Sprintf("causal marker (%s): %s", cat, m.Text))
		}
	}
	return hits, found
}

// wordBounded rejects Latin markers that sit inside a longer word.
func wordBounded(runes []rune, start, end int) bool {
	if !isLatin(runes[start]) {
		return true
	}
	if start > 0 && isLatin(runes[start-1]) {
		return false
	}
	return end >= len(runes) || !isLatin(runes[end])
}

func isLatin(r rune) bool {
	return r < unicode.MaxLatin1 && unicode.IsLetter(r)
}
