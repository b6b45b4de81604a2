// Package discovery recognizes named entities in narrative text. Ordered
// per-type surface rules propose candidates, a registry deduplicates them
// under a fixed type precedence, and attribute rules read the context
// around every occurrence.
package discovery

import (
	"sort"

	"github.com/kittclouds/storygraph/pkg/graph"
	implicitmatcher "github.com/kittclouds/storygraph/pkg/implicit-matcher"
)

// Options tunes the recognizer.
type Options struct {
	ContextWindow      int // runes on each side of an occurrence
	MinNameLength      int
	MaxNameLength      int
	QuickMaxLength     int
	MaxQuickCandidates int
}

// DefaultOptions returns the stock recognizer settings.
func DefaultOptions() Options {
	return Options{
		ContextWindow:      100,
		MinNameLength:      2,
		MaxNameLength:      20,
		QuickMaxLength:     10,
		MaxQuickCandidates: 10,
	}
}

// Recognizer runs the rule tables over a document.
type Recognizer struct {
	opts  Options
	rules []Rule
	attrs *AttributeExtractor
}

// NewRecognizer creates a recognizer over PrimaryRules.
func NewRecognizer(opts Options) *Recognizer {
	return NewRecognizerWithRules(opts, PrimaryRules)
}

// NewRecognizerWithRules creates a recognizer over a custom rule table. Rules
// run in type precedence order, table order within a type.
func NewRecognizerWithRules(opts Options, rules []Rule) *Recognizer {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Type.Rank() < ordered[j].Type.Rank()
	})
	return &Recognizer{
		opts:  opts,
		rules: ordered,
		attrs: NewAttributeExtractor(opts.ContextWindow),
	}
}

// Recognize returns every candidate entity of text with attributes,
// frequency and first appearance populated. It never fails; no match means
// no entities.
func (r *Recognizer) Recognize(text string) []*graph.Entity {
	reg := NewRegistry(r.opts.MinNameLength, r.opts.MaxNameLength)
	for _, rule := range r.rules {
		apply(reg, rule, text, 0)
	}
	return r.build(text, reg.Candidates())
}

// Quick is the lightweight path: speech verbs and title marks only, short
// names, and at most MaxQuickCandidates results.
func (r *Recognizer) Quick(text string) []*graph.Entity {
	reg := NewRegistry(r.opts.MinNameLength, r.opts.QuickMaxLength)
	for _, rule := range QuickRules {
		apply(reg, rule, text, r.opts.MaxQuickCandidates)
		if r.opts.MaxQuickCandidates > 0 && reg.Len() >= r.opts.MaxQuickCandidates {
			break
		}
	}
	return r.build(text, reg.Candidates())
}

func apply(reg *CandidateRegistry, rule Rule, text string, limit int) {
	for _, sub := range rule.Pattern.FindAllStringSubmatch(text, -1) {
		for _, g := range rule.Groups {
			if g >= len(sub) || sub[g] == "" {
				continue
			}
			reg.Offer(rule.Type, sub[g], "recognized by "+rule.Description+" rule")
			if limit > 0 && reg.Len() >= limit {
				return
			}
		}
	}
}

func (r *Recognizer) build(text string, cands []Candidate) []*graph.Entity {
	if len(cands) == 0 {
		return nil
	}

	entries := make([]implicitmatcher.Entry, len(cands))
	for i, c := range cands {
		entries[i] = implicitmatcher.Entry{ID: c.Name, Surfaces: []string{c.Name}}
	}
	dict, err := implicitmatcher.Compile(entries)
	if err != nil {
		return nil
	}
	positions := dict.Positions(text)
	runes := []rune(text)

	out := make([]*graph.Entity, 0, len(cands))
	for _, c := range cands {
		e := &graph.Entity{
			Type:        c.Type,
			Name:        c.Name,
			Description: c.Description,
			Positions:   positions[c.Name],
		}
		e.Attributes.Frequency = len(e.Positions)
		if len(e.Positions) > 0 {
			e.Attributes.FirstAppearance = e.Positions[0]
		}
		r.attrs.Extract(e, runes)
		out = append(out, e)
	}
	return out
}
