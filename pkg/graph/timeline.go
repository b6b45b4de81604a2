package graph

import "strings"

// TimeExpression is a time phrase found in the text. Type is
// category_subtype, e.g. absolute_date, relative_past, period_age.
type TimeExpression struct {
	Expression string `json:"expression"`
	Type       string `json:"type"`
	Normalized string `json:"normalized,omitempty"`
	Position   int    `json:"position"`
}

// IsAbsolute reports whether the expression is in the absolute family.
func (t *TimeExpression) IsAbsolute() bool {
	return t != nil && strings.HasPrefix(t.Type, "absolute_")
}

// DateKey returns a sortable key when the expression normalizes to a full
// calendar date (YYYY-MM-DD, optionally followed by a clock time).
func (t *TimeExpression) DateKey() (string, bool) {
	if !t.IsAbsolute() || len(t.Normalized) < 10 {
		return "", false
	}
	n := t.Normalized
	if n[4] != '-' || n[7] != '-' {
		return "", false
	}
	return n, true
}

// Polarity is the overall sentiment of a description.
type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
	Neutral  Polarity = "neutral"
)

// Sentiment is the lexicon reading of one event description.
type Sentiment struct {
	Sentiment Polarity       `json:"sentiment"`
	Intensity float64        `json:"intensity"`
	Emotions  map[string]int `json:"emotions"`
	Keywords  []string       `json:"keywords"`
}

// Event is a sentence-level narrative occurrence.
type Event struct {
	Description  string          `json:"description"`
	Participants []string        `json:"participants"`
	TimeInfo     *TimeExpression `json:"timeInfo,omitempty"`
	Location     string          `json:"location,omitempty"`
	Order        int             `json:"order"`
	Confidence   float64         `json:"confidence"`
	Sentiment    *Sentiment      `json:"sentiment,omitempty"`
	Impact       float64         `json:"impact,omitempty"`

	// Start and End are the rune span of the source sentence.
	Start int `json:"start"`
	End   int `json:"end"`
}

// HasParticipant reports whether name is among the event participants.
func (e *Event) HasParticipant(name string) bool {
	for _, p := range e.Participants {
		if p == name {
			return true
		}
	}
	return false
}

// Timestamp is the best available time label of the event.
func (e *Event) Timestamp() string {
	if e.TimeInfo != nil {
		if e.TimeInfo.Normalized != "" {
			return e.TimeInfo.Normalized
		}
		return e.TimeInfo.Expression
	}
	return ""
}

// CausalRelation is an inferred cause -> effect edge between two events.
type CausalRelation struct {
	Cause      *Event   `json:"cause"`
	Effect     *Event   `json:"effect"`
	Confidence float64  `json:"confidence"`
	Basis      []string `json:"basis"`
}

// ChainRole is the part an event plays within a chain.
type ChainRole string

const (
	RoleCause   ChainRole = "cause"
	RoleEffect  ChainRole = "effect"
	RoleNeutral ChainRole = "neutral"
)

// ChainLink is one event inside an EventChain.
type ChainLink struct {
	Event      *Event    `json:"event"`
	Role       ChainRole `json:"role"`
	Importance float64   `json:"importance"`
}

// EventChain groups the events of one participant in order.
type EventChain struct {
	Events       []ChainLink `json:"events"`
	Theme        string      `json:"theme"`
	Significance float64     `json:"significance"`
}

// Timeline is the reconstructed event timeline.
type Timeline struct {
	Events          []*Event         `json:"events"`
	TimeExpressions []TimeExpression `json:"timeExpressions"`
	EventChains     []EventChain     `json:"eventChains"`
	CausalRelations []CausalRelation `json:"causalRelations"`
}
