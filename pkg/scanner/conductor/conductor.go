// Package conductor orchestrates the analysis pipeline.
// It wires together Chunker, Discovery, Resolver, Relation, Narrative,
// Causal, Sentiment and Semantic, then back-propagates the sentiment of
// events onto entities and relations.
package conductor

import (
	"sort"
	"strconv"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kittclouds/storygraph/pkg/graph"
	"github.com/kittclouds/storygraph/pkg/scanner/causal"
	"github.com/kittclouds/storygraph/pkg/scanner/chunker"
	"github.com/kittclouds/storygraph/pkg/scanner/discovery"
	"github.com/kittclouds/storygraph/pkg/scanner/narrative"
	"github.com/kittclouds/storygraph/pkg/scanner/relation"
	"github.com/kittclouds/storygraph/pkg/scanner/resolver"
	"github.com/kittclouds/storygraph/pkg/scanner/semantic"
	"github.com/kittclouds/storygraph/pkg/scanner/sentiment"
)

// Stage names used in logs and errors.
const (
	StageRecognize   = "recognize"
	StageQuick       = "recognize_quick"
	StageResolve     = "resolve"
	StageCoreference = "coreference"
	StageRelations   = "relations"
	StageTime        = "time"
	StageEvents      = "events"
	StageSentiment   = "sentiment"
	StageCausal      = "causal"
	StageSemantic    = "semantic"
	StageMerge       = "merge"
)

// Options tunes every stage.
type Options struct {
	ContextWindow         int
	CooccurrenceWindow    int
	MinConfidence         float64
	SummaryMaxLength      int
	FallbackChapterSize   int
	MaxFallbackCandidates int
	MaxTrackedMentions    int
	TimeReach             int
}

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{
		ContextWindow:         100,
		CooccurrenceWindow:    50,
		MinConfidence:         0.3,
		SummaryMaxLength:      chunker.DefaultSummaryLength,
		FallbackChapterSize:   chunker.DefaultChapterSize,
		MaxFallbackCandidates: 10,
		MaxTrackedMentions:    5,
	}
}

// Option configures a Conductor.
type Option func(*Conductor)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Conductor) {
		if l != nil {
			c.logger = l
		}
	}
}

// Conductor manages the analysis pipeline. It holds only compiled rule
// tables, so one Conductor may analyze several documents concurrently.
type Conductor struct {
	opts       Options
	logger     *zap.Logger
	chunker    *chunker.Chunker
	recognizer *discovery.Recognizer
	resolver   *resolver.Resolver
	coref      *resolver.CorefResolver
	relations  *relation.Extractor
	events     *narrative.Extractor
	sentiment  *sentiment.Analyzer
	causal     *causal.Analyzer
	semantic   *semantic.Clusterer

	// beforeStage runs ahead of every stage when set.
	beforeStage func(stage string)
}

// New creates a Conductor with all sub-components initialized.
func New(opts Options, options ...Option) (*Conductor, error) {
	events, err := narrative.New(narrative.Options{TimeReach: opts.TimeReach})
	if err != nil {
		return nil, err
	}
	sa, err := sentiment.New()
	if err != nil {
		return nil, err
	}

	dopts := discovery.DefaultOptions()
	dopts.ContextWindow = opts.ContextWindow
	dopts.MaxQuickCandidates = opts.MaxFallbackCandidates

	ropts := relation.DefaultOptions()
	ropts.Window = opts.CooccurrenceWindow
	ropts.MinConfidence = opts.MinConfidence

	c := &Conductor{
		opts:       opts,
		logger:     zap.NewNop(),
		chunker:    chunker.NewWithSize(opts.FallbackChapterSize),
		recognizer: discovery.NewRecognizer(dopts),
		resolver:   resolver.New(),
		coref:      resolver.NewCoref(opts.MaxTrackedMentions),
		relations:  relation.New(ropts),
		events:     events,
		sentiment:  sa,
		causal:     causal.New(),
		semantic:   semantic.New(),
	}
	for _, o := range options {
		o(c)
	}
	return c, nil
}

// Validate cleans text and rejects documents no stage could use.
func Validate(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", &ContentError{Reason: "text is not valid UTF-8"}
	}
	clean := chunker.Clean(text)
	if clean == "" {
		return "", &ContentError{Reason: "text is empty"}
	}
	if !chunker.HasNarrative(clean) {
		return "", &ContentError{Reason: "text has no narrative content"}
	}
	return clean, nil
}

// Analyze runs every stage once over text. Content problems surface as a
// ContentError; a stage that fails internally contributes an empty result
// and a warning; faults outside the stages surface as an AnalysisError.
func (c *Conductor) Analyze(text string) (result *graph.AnalysisResult, err error) {
	clean, err := Validate(text)
	if err != nil {
		c.logger.Error("document rejected", zap.Error(err))
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &AnalysisError{Stage: StageMerge, Err: panicError(r)}
			c.logger.Error("analysis failed", zap.Error(err))
		}
	}()

	entities := run(c, StageRecognize, func() []*graph.Entity {
		return c.recognizer.Recognize(clean)
	})
	if len(entities) == 0 {
		entities = run(c, StageQuick, func() []*graph.Entity {
			return c.recognizer.Quick(clean)
		})
	}
	entities = run(c, StageResolve, func() []*graph.Entity {
		return c.resolver.Resolve(entities, clean)
	})

	refs := run(c, StageCoreference, func() []graph.PronounReference {
		return c.coref.Resolve(clean, entities)
	})
	relations := run(c, StageRelations, func() []*graph.Relation {
		return c.relations.Extract(entities, clean)
	})

	times := run(c, StageTime, func() []graph.TimeExpression {
		return c.events.TimeExpressions(clean)
	})
	events := run(c, StageEvents, func() []*graph.Event {
		evs := c.events.Events(clean, entities, times)
		narrative.SortTimeline(evs)
		return evs
	})
	run(c, StageSentiment, func() bool {
		for _, ev := range events {
			s := c.sentiment.Analyze(ev.Description)
			ev.Sentiment = &s
		}
		return true
	})
	chains := run(c, StageCausal, func() causal.Analysis {
		return c.causal.Analyze(events)
	})
	sem := run(c, StageSemantic, func() graph.SemanticAnalysis {
		return c.semantic.Analyze(entities, events, definitions(entities))
	})

	c.hook(StageMerge)
	backPropagate(entities, relations, events)
	// Chapter content keeps the author's own spacing.
	chapters := c.chunker.Chapters(text)

	result = &graph.AnalysisResult{
		TotalWords:        chunker.WordCount(clean),
		EstimatedChapters: len(chapters),
		Chapters:          nonNil(chapters),
		Summary:           chunker.Summarize(clean, c.opts.SummaryMaxLength),
		KnowledgeGraph: graph.KnowledgeGraph{
			Entities:   nonNil(entities),
			Relations:  nonNil(relations),
			References: nonNil(refs),
		},
		Timeline: graph.Timeline{
			Events:          nonNil(events),
			TimeExpressions: nonNil(times),
			EventChains:     nonNil(chains.Chains),
			CausalRelations: nonNil(chains.Relations),
		},
		SemanticAnalysis: sem,
	}
	c.logger.Debug("analysis complete",
		zap.Int("entities", len(entities)),
		zap.Int("relations", len(relations)),
		zap.Int("events", len(events)),
		zap.Int("chapters", len(chapters)),
	)
	return result, nil
}

// run executes one stage, substituting the zero value when it panics.
func run[T any](c *Conductor, stage string, fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("stage failed, continuing with empty result",
				zap.String("stage", stage),
				zap.Error(panicError(r)),
			)
			var zero T
			out = zero
		}
	}()
	c.logger.Debug("stage start", zap.String("stage", stage))
	c.hook(stage)
	out = fn()
	c.logger.Debug("stage done", zap.String("stage", stage))
	return out
}

func (c *Conductor) hook(stage string) {
	if c.beforeStage != nil {
		c.beforeStage(stage)
	}
}

func definitions(entities []*graph.Entity) map[string]string {
	defs := make(map[string]string, len(entities))
	for _, e := range entities {
		if e.Description != "" {
			defs[e.Key()] = e.Description
		}
	}
	return defs
}

// backPropagate attaches emotional arcs to entities and emotional dynamics
// to relations, walking events in document order.
func backPropagate(entities []*graph.Entity, relations []*graph.Relation, events []*graph.Event) {
	ordered := make([]*graph.Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	for _, e := range entities {
		key := e.Key()
		for _, ev := range ordered {
			if !ev.HasParticipant(key) {
				continue
			}
			s := sentimentOf(ev)
			emotion := sentiment.Dominant(s)
			if emotion == "" {
				emotion = string(s.Sentiment)
			}
			e.EmotionalArcs = append(e.EmotionalArcs, graph.EmotionalArc{
				Event:     ev.Description,
				Emotion:   emotion,
				Intensity: s.Intensity,
				Timestamp: timestamp(ev),
			})
		}
	}

	for _, r := range relations {
		for _, ev := range ordered {
			if !ev.HasParticipant(r.Source) || !ev.HasParticipant(r.Target) {
				continue
			}
			s := sentimentOf(ev)
			r.EmotionalDynamics = append(r.EmotionalDynamics, graph.EmotionalDynamic{
				Timestamp: timestamp(ev),
				Sentiment: s.Sentiment,
				Intensity: s.Intensity,
				Context:   ev.Description,
			})
		}
	}
}

func sentimentOf(ev *graph.Event) graph.Sentiment {
	if ev.Sentiment == nil {
		return graph.Sentiment{Sentiment: graph.Neutral}
	}
	return *ev.Sentiment
}

// timestamp falls back to the event order when no time expression is
// attached.
func timestamp(ev *graph.Event) string {
	if ts := ev.Timestamp(); ts != "" {
		return ts
	}
	return strconv.Itoa(ev.Order)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
