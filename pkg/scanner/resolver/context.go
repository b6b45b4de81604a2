package resolver

import "github.com/kittclouds/storygraph/pkg/graph"

// Gender of an entity or pronoun
type Gender int

const (
	GenderUnknown Gender = iota
	GenderMale
	GenderFemale
	GenderNeutral
	GenderPlural
)

// EntityMetadata represents a known entity in the context
type EntityMetadata struct {
	Key    string
	Name   string
	Type   graph.EntityType
	Gender Gender
}

// NarrativeContext tracks the state of the narrative while walking
// sentences: who spoke last and who was mentioned recently.
type NarrativeContext struct {
	history    []string // Stack of entity keys (most recent at front)
	registry   map[string]EntityMetadata
	maxHistory int

	Speaker string
}

// NewContext creates a new narrative context tracking at most maxHistory
// recent mentions.
func NewContext(maxHistory int) *NarrativeContext {
	if maxHistory <= 0 {
		maxHistory = 5
	}
	return &NarrativeContext{
		history:    make([]string, 0, maxHistory),
		registry:   make(map[string]EntityMetadata),
		maxHistory: maxHistory,
	}
}

// Register adds an entity to the known registry
func (nc *NarrativeContext) Register(e EntityMetadata) {
	nc.registry[e.Key] = e
}

// Lookup returns the metadata of a registered key.
func (nc *NarrativeContext) Lookup(key string) (EntityMetadata, bool) {
	m, ok := nc.registry[key]
	return m, ok
}

// PushMention records a mention, moving it to the front of history
func (nc *NarrativeContext) PushMention(key string) {
	for i, id := range nc.history {
		if id == key {
			nc.history = append(nc.history[:i], nc.history[i+1:]...)
			break
		}
	}

	nc.history = append([]string{key}, nc.history...)

	if len(nc.history) > nc.maxHistory {
		nc.history = nc.history[:nc.maxHistory]
	}
}

// History returns the tracked keys, most recent first.
func (nc *NarrativeContext) History() []string {
	return nc.history
}

// FindRecent returns the nth (0-based) most recent entity accepted by
// match, skipping the keys in exclude.
func (nc *NarrativeContext) FindRecent(nth int, match func(EntityMetadata) bool, exclude ...string) string {
	seen := 0
	for _, key := range nc.history {
		if contains(exclude, key) {
			continue
		}
		meta, ok := nc.registry[key]
		if !ok || (match != nil && !match(meta)) {
			continue
		}
		if seen == nth {
			return key
		}
		seen++
	}
	return ""
}

// FindMostRecent finds the most recent entity matching the gender
func (nc *NarrativeContext) FindMostRecent(gender Gender) string {
	return nc.FindRecent(0, func(m EntityMetadata) bool {
		return m.Type == graph.TypeCharacter && gendersCompatible(m.Gender, gender)
	})
}

func gendersCompatible(entityGender, pronounGender Gender) bool {
	if entityGender == pronounGender {
		return true
	}
	if pronounGender == GenderUnknown || entityGender == GenderUnknown {
		return true
	}
	if pronounGender == GenderPlural {
		return entityGender == GenderPlural || entityGender == GenderNeutral
	}
	return false
}

// genderOf guesses a character's gender from its status words.
func genderOf(e *graph.Entity) Gender {
	if e.Type != graph.TypeCharacter {
		return GenderNeutral
	}
	for _, v := range e.Attributes.Get(graph.AttrStatus) {
		switch v {
		case "公主", "女侠", "夫人", "姑娘":
			return GenderFemale
		case "王子", "国王", "皇帝", "书生", "king", "knight":
			return GenderMale
		}
	}
	return GenderUnknown
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
