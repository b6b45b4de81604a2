// Package relation extracts typed relations between resolved entities: an
// explicit template pass first, then a proximity pass over every remaining
// entity pair.
package relation

import (
	"sort"
	"unicode/utf8"

	"github.com/kittclouds/storygraph/pkg/graph"
	"github.com/kittclouds/storygraph/pkg/scanner/chunker"
)

const (
	// ExplicitConfidence is the confidence of every template match.
	ExplicitConfidence = 0.9
	// MaxConfidence caps inferred relations.
	MaxConfidence = 0.9
)

// Options tunes the extractor.
type Options struct {
	Window        int     // co-occurrence window in runes
	MinConfidence float64 // relations at or below are dropped
	ContextRadius int     // runes of context kept around a match
}

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{Window: 50, MinConfidence: 0.3, ContextRadius: 20}
}

// Extractor finds relations in one document.
type Extractor struct {
	opts      Options
	templates []Template
}

// New creates an Extractor over Templates.
func New(opts Options) *Extractor {
	return &Extractor{opts: opts, templates: Templates}
}

type mention struct {
	entity *graph.Entity
	start  int
	end    int
}

// Extract returns the deduplicated relations of text, sorted by descending
// confidence. Endpoints are entity keys.
func (x *Extractor) Extract(entities []*graph.Entity, text string) []*graph.Relation {
	if len(entities) < 2 {
		return nil
	}
	runes := []rune(text)
	mentions := mentionsOf(entities)

	candidates := x.explicit(text, runes, mentions)
	candidates = append(candidates, x.cooccurrence(entities, runes, related(candidates))...)
	return x.finish(candidates)
}

// Explicit runs only the template pass.
func (x *Extractor) Explicit(entities []*graph.Entity, text string) []*graph.Relation {
	return x.explicit(text, []rune(text), mentionsOf(entities))
}

func (x *Extractor) explicit(text string, runes []rune, mentions []mention) []*graph.Relation {
	offsets := chunker.NewOffsets(text)
	var out []*graph.Relation
	for _, tpl := range x.templates {
		for _, loc := range tpl.Pattern.FindAllStringSubmatchIndex(text, -1) {
			if len(loc) < 6 || loc[2] < 0 || loc[4] < 0 {
				continue
			}
			srcSpan := [2]int{offsets.Rune(loc[2]), offsets.Rune(loc[3])}
			dstSpan := [2]int{offsets.Rune(loc[4]), offsets.Rune(loc[5])}

			src := last(mentions, srcSpan, tpl.SourceTypes)
			dst := first(mentions, dstSpan, tpl.TargetTypes)
			if tpl.Swap {
				src = last(mentions, srcSpan, tpl.TargetTypes)
				dst = first(mentions, dstSpan, tpl.SourceTypes)
			}
			if src == nil || dst == nil || src.entity == dst.entity {
				continue
			}
			source, target := src.entity, dst.entity
			if tpl.Swap {
				source, target = target, source
			}

			rel := &graph.Relation{
				Source: source.Key(),
				Target: target.Key(),
				Type:   tpl.Type,
				Attributes: graph.RelationAttributes{
					Confidence: ExplicitConfidence,
					Context:    chunker.Window(runes, offsets.Rune(loc[0]), offsets.Rune(loc[1]), x.opts.ContextRadius),
					Pattern:    tpl.Name,
				},
			}
			for k, v := range tpl.Extra {
				if rel.Attributes.Extra == nil {
					rel.Attributes.Extra = make(map[string]string)
				}
				rel.Attributes.Extra[k] = v
			}
			out = append(out, rel)
		}
	}
	return out
}

// cooccurrence relates every unrelated pair whose closest occurrences fall
// inside the window.
func (x *Extractor) cooccurrence(entities []*graph.Entity, runes []rune, done map[pairKey]bool) []*graph.Relation {
	var out []*graph.Relation
	for i := 0; i < len(entities); i++ {
		for j := i + 1; j < len(entities); j++ {
			a, b := entities[i], entities[j]
			if done[keyOf(a.Key(), b.Key())] {
				continue
			}
			dist, pa, pb, pairs := closest(a.Positions, b.Positions, x.opts.Window)
			if dist < 0 || dist >= x.opts.Window {
				continue
			}

			relType, swap := inferType(a.Type, b.Type)
			source, target := a, b
			if swap {
				source, target = b, a
			}
			conf := CoOccurrenceBase[relType] * (1 - float64(dist)/float64(x.opts.Window))
			if conf > MaxConfidence {
				conf = MaxConfidence
			}

			lo, hi := pa, pb+utf8.RuneCountInString(b.Name)
			if pb < pa {
				lo, hi = pb, pa+utf8.RuneCountInString(a.Name)
			}
			out = append(out, &graph.Relation{
				Source: source.Key(),
				Target: target.Key(),
				Type:   relType,
				Attributes: graph.RelationAttributes{
					Confidence:    conf,
					Context:       chunker.Window(runes, lo, hi, x.opts.ContextRadius/2),
					Inferred:      true,
					Distance:      dist,
					CoOccurrences: pairs,
				},
			})
		}
	}
	return out
}

// finish applies symmetric deduplication, ordering and the confidence
// filter.
func (x *Extractor) finish(candidates []*graph.Relation) []*graph.Relation {
	seen := make(map[pairKey]bool, len(candidates))
	out := make([]*graph.Relation, 0, len(candidates))
	for _, r := range candidates {
		k := keyOf(r.Source, r.Target)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Attributes.Confidence > out[j].Attributes.Confidence
	})

	kept := out[:0]
	for _, r := range out {
		if r.Attributes.Confidence > x.opts.MinConfidence {
			kept = append(kept, r)
		}
	}
	return kept
}

type pairKey struct{ a, b string }

func keyOf(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

func related(rels []*graph.Relation) map[pairKey]bool {
	done := make(map[pairKey]bool, len(rels))
	for _, r := range rels {
		done[keyOf(r.Source, r.Target)] = true
	}
	return done
}

// closest returns the minimum start distance over all occurrence pairs, the
// positions achieving it and the number of pairs within window. dist is -1
// when either side has no occurrence.
func closest(as, bs []int, window int) (dist, pa, pb, pairs int) {
	dist = -1
	for _, a := range as {
		for _, b := range bs {
			d := a - b
			if d < 0 {
				d = -d
			}
			if d < window {
				pairs++
			}
			if dist < 0 || d < dist {
				dist, pa, pb = d, a, b
			}
		}
	}
	return dist, pa, pb, pairs
}

func mentionsOf(entities []*graph.Entity) []mention {
	var out []mention
	for _, e := range entities {
		n := utf8.RuneCountInString(e.Name)
		for _, p := range e.Positions {
			out = append(out, mention{entity: e, start: p, end: p + n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

func typeAllowed(t graph.EntityType, allowed []graph.EntityType) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}

// last returns the mention inside span that ends latest, longer names first
// on ties.
func last(ms []mention, span [2]int, types []graph.EntityType) *mention {
	var best *mention
	for i := range ms {
		m := &ms[i]
		if m.start < span[0] || m.end > span[1] || !typeAllowed(m.entity.Type, types) {
			continue
		}
		if best == nil || m.end > best.end || (m.end == best.end && m.start < best.start) {
			best = m
		}
	}
	return best
}

// first returns the mention inside span that starts earliest, longer names
// first on ties.
func first(ms []mention, span [2]int, types []graph.EntityType) *mention {
	var best *mention
	for i := range ms {
		m := &ms[i]
		if m.start < span[0] || m.end > span[1] || !typeAllowed(m.entity.Type, types) {
			continue
		}
		if best == nil || m.start < best.start || (m.start == best.start && m.end > best.end) {
			best = m
		}
	}
	return best
}
