package narrative

import (
	"sort"

	"github.com/kittclouds/storygraph/pkg/graph"
	"github.com/kittclouds/storygraph/pkg/scanner/chunker"
)

// Options tunes event extraction.
type Options struct {
	// TimeReach is the largest rune distance between a sentence and the
	// time expression attached to it. Zero means unbounded.
	TimeReach int
}

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{}
}

// Extractor turns sentences into events and builds the base timeline.
type Extractor struct {
	opts       Options
	times      *TimeExtractor
	indicators *IndicatorMatcher
}

// New creates an Extractor.
func New(opts Options) (*Extractor, error) {
	indicators, err := NewIndicatorMatcher()
	if err != nil {
		return nil, err
	}
	return &Extractor{
		opts:       opts,
		times:      NewTimeExtractor(),
		indicators: indicators,
	}, nil
}

// TimeExpressions returns the time expressions of text.
func (x *Extractor) TimeExpressions(text string) []graph.TimeExpression {
	return x.times.Extract(text)
}

// Events returns one event per sentence that carries event-indicator
// vocabulary and mentions at least one entity, in sentence order.
func (x *Extractor) Events(text string, entities []*graph.Entity, times []graph.TimeExpression) []*graph.Event {
	var out []*graph.Event
	for _, s := range chunker.Sentences(text) {
		if len(x.indicators.Classes(s.Text)) == 0 {
			continue
		}

		participants, location := x.participants(entities, s.Range)
		if len(participants) == 0 {
			continue
		}

		ev := &graph.Event{
			Description:  s.Text,
			Participants: participants,
			Location:     location,
			Order:        s.Index,
			Confidence:   0.6,
			Start:        s.Range.Start,
			End:          s.Range.End,
		}
		if len(participants) >= 2 {
			ev.Confidence = 0.8
		}
		if t := x.nearest(times, s.Range); t != nil {
			ev.TimeInfo = t
		}
		out = append(out, ev)
	}
	return out
}

type hit struct {
	key string
	pos int
	typ graph.EntityType
}

func (x *Extractor) participants(entities []*graph.Entity, r chunker.TextRange) ([]string, string) {
	var hits []hit
	for _, e := range entities {
		for _, p := range e.Positions {
			if p >= r.Start && p < r.End {
				hits = append(hits, hit{key: e.Key(), pos: p, typ: e.Type})
				break
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	var names []string
	location := ""
	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		if seen[h.key] {
			continue
		}
		seen[h.key] = true
		names = append(names, h.key)
		if location == "" && h.typ == graph.TypeLocation {
			location = h.key
		}
	}
	return names, location
}

// nearest returns the time expression closest to the range; the first one
// wins ties.
func (x *Extractor) nearest(times []graph.TimeExpression, r chunker.TextRange) *graph.TimeExpression {
	best, bestDist := -1, 0
	for i, t := range times {
		d := 0
		switch {
		case t.Position < r.Start:
			d = r.Start - t.Position
		case t.Position >= r.End:
			d = t.Position - r.End + 1
		}
		if x.opts.TimeReach > 0 && d > x.opts.TimeReach {
			continue
		}
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return nil
	}
	t := times[best]
	return &t
}

// SortTimeline orders events by sentence order, then reorders the events
// anchored to a full calendar date among their own slots so that dated
// events are chronological. Undated events keep their positions.
func SortTimeline(events []*graph.Event) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Order < events[j].Order })

	var slots []int
	var dated []*graph.Event
	for i, e := range events {
		if _, ok := e.TimeInfo.DateKey(); ok {
			slots = append(slots, i)
			dated = append(dated, e)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		a, _ := dated[i].TimeInfo.DateKey()
		b, _ := dated[j].TimeInfo.DateKey()
		return a < b
	})
	for k, slot := range slots {
		events[slot] = dated[k]
	}
}
