// Package graph holds the knowledge-graph model produced by one analysis run:
// entities, relations, pronoun references, the event timeline and the
// semantic analysis. Everything here is plain data; the scanner packages fill
// it in and the persistence collaborator stores it afterwards.
package graph

// EntityType is the closed set of entity categories.
type EntityType string

const (
	TypeCharacter    EntityType = "CHARACTER"
	TypeLocation     EntityType = "LOCATION"
	TypeOrganization EntityType = "ORGANIZATION"
	TypeItem         EntityType = "ITEM"
	TypeSkill        EntityType = "SKILL"
	TypeRace         EntityType = "RACE"
	TypeTitle        EntityType = "TITLE"
	TypeEvent        EntityType = "EVENT"
	TypeConcept      EntityType = "CONCEPT"
	TypeFaction      EntityType = "FACTION"
	TypeRelationship EntityType = "RELATIONSHIP"
)

// validTypes is the set of recognized entity types for validation.
var validTypes = map[EntityType]bool{
	TypeCharacter:    true,
	TypeLocation:     true,
	TypeOrganization: true,
	TypeItem:         true,
	TypeSkill:        true,
	TypeRace:         true,
	TypeTitle:        true,
	TypeEvent:        true,
	TypeConcept:      true,
	TypeFaction:      true,
	TypeRelationship: true,
}

// IsValidType checks if a string is a recognized EntityType.
func IsValidType(s string) bool {
	return validTypes[EntityType(s)]
}

// Precedence orders types during recognition. A name claimed by a type with
// a higher precedence is never claimed again by a lower one.
var Precedence = []EntityType{
	TypeCharacter,
	TypeOrganization,
	TypeLocation,
	TypeItem,
	TypeSkill,
	TypeRace,
	TypeTitle,
}

// Rank returns the position of t in Precedence, or len(Precedence) for
// types that recognition never produces.
func (t EntityType) Rank() int {
	for i, p := range Precedence {
		if p == t {
			return i
		}
	}
	return len(Precedence)
}

// Entity is a recognized named thing in the narrative.
type Entity struct {
	Type            EntityType     `json:"type"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Attributes      Attributes     `json:"attributes"`
	Aliases         []string       `json:"aliases,omitempty"`
	DisambiguatedID string         `json:"disambiguatedId,omitempty"`
	EmotionalArcs   []EmotionalArc `json:"emotionalArcs,omitempty"`

	// Positions are rune offsets of every mention attributed to this entity.
	Positions []int `json:"-"`
}

// Key identifies the entity inside one result: the disambiguated ID when the
// name is shared, the surface name otherwise.
func (e *Entity) Key() string {
	if e.DisambiguatedID != "" {
		return e.DisambiguatedID
	}
	return e.Name
}

// MentionedIn reports whether any mention of e falls in [start, end).
func (e *Entity) MentionedIn(start, end int) bool {
	for _, p := range e.Positions {
		if p >= start && p < end {
			return true
		}
	}
	return false
}

// AddAlias appends alias unless it is empty, the entity name, or present.
func (e *Entity) AddAlias(alias string) {
	if alias == "" || alias == e.Name {
		return
	}
	for _, a := range e.Aliases {
		if a == alias {
			return
		}
	}
	e.Aliases = append(e.Aliases, alias)
}

// EmotionalArc is one point of an entity's emotional trajectory.
type EmotionalArc struct {
	Event     string  `json:"event"`
	Emotion   string  `json:"emotion"`
	Intensity float64 `json:"intensity"`
	Timestamp string  `json:"timestamp"`
}

// RelationType labels a relation edge.
type RelationType string

const (
	RelRelatedTo         RelationType = "RELATED_TO"
	RelBelongsTo         RelationType = "BELONGS_TO"
	RelAppearsIn         RelationType = "APPEARS_IN"
	RelPossesses         RelationType = "POSSESSES"
	RelOwns              RelationType = "OWNS"
	RelCharacterRelation RelationType = "CHARACTER_RELATION"
	RelMasterOf          RelationType = "MASTER_OF"
	RelFamily            RelationType = "FAMILY"
	RelMemberOf          RelationType = "MEMBER_OF"
	RelLocatedIn         RelationType = "LOCATED_IN"
	RelLearns            RelationType = "LEARNS"
	RelAcquires          RelationType = "ACQUIRES"
)

// Relation is a directed, typed edge between two entity keys.
type Relation struct {
	Source            string             `json:"source"`
	Target            string             `json:"target"`
	Type              RelationType       `json:"type"`
	Attributes        RelationAttributes `json:"attributes"`
	EmotionalDynamics []EmotionalDynamic `json:"emotionalDynamics,omitempty"`
}

// RelationAttributes carries the evidence behind a relation.
type RelationAttributes struct {
	Confidence    float64           `json:"confidence"`
	Context       string            `json:"context"`
	Pattern       string            `json:"pattern,omitempty"`
	Inferred      bool              `json:"inferred"`
	Distance      int               `json:"distance,omitempty"`
	CoOccurrences int               `json:"coOccurrences,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// EmotionalDynamic is one sentiment reading of a relation over time.
type EmotionalDynamic struct {
	Timestamp string   `json:"timestamp"`
	Sentiment Polarity `json:"sentiment"`
	Intensity float64  `json:"intensity"`
	Context   string   `json:"context"`
}

// PronounReference maps one pronoun occurrence to its referent.
type PronounReference struct {
	Pronoun    string  `json:"pronoun"`
	Category   string  `json:"category"`
	Referent   string  `json:"referent"`
	Position   int     `json:"position"`
	Confidence float64 `json:"confidence"`
}

// KnowledgeGraph is the resolved entity/relation graph.
type KnowledgeGraph struct {
	Entities   []*Entity          `json:"entities"`
	Relations  []*Relation        `json:"relations"`
	References []PronounReference `json:"references"`
}

// Chapter is one segment of the manuscript.
type Chapter struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

// AnalysisResult is the aggregate output of one pipeline run.
type AnalysisResult struct {
	TotalWords        int              `json:"totalWords"`
	EstimatedChapters int              `json:"estimatedChapters"`
	Chapters          []Chapter        `json:"chapters"`
	Summary           string           `json:"summary"`
	KnowledgeGraph    KnowledgeGraph   `json:"knowledgeGraph"`
	Timeline          Timeline         `json:"timeline"`
	SemanticAnalysis  SemanticAnalysis `json:"semanticAnalysis"`
}

// EntityByKey returns the entity with the given key, or nil.
func (kg *KnowledgeGraph) EntityByKey(key string) *Entity {
	for _, e := range kg.Entities {
		if e.Key() == key {
			return e
		}
	}
	return nil
}
