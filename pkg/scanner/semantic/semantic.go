// Package semantic builds the concept network of a document, seeds thematic
// clusters from its most connected concepts and surfaces world-building
// elements.
package semantic

import (
	"sort"
	"strings"

	"github.com/kittclouds/storygraph/pkg/graph"
)

// Relatedness weights.
const (
	SameDescription = 0.3
	CoParticipants  = 0.4
	Definition      = 0.2

	// MinEdgeStrength and MinSeedImportance are exclusive lower bounds.
	MinEdgeStrength   = 0.2
	MinSeedImportance = 0.3
	MinClusterEdge    = 0.3
)

// Clusterer runs the semantic stage.
type Clusterer struct {
	world *worldExtractor
}

// New creates a Clusterer.
func New() *Clusterer {
	return &Clusterer{world: newWorldExtractor()}
}

type concept struct {
	key  string
	name string
}

// Analyze returns the concept network, thematic clusters and world-building
// elements. Concepts are entity keys; definitions maps a concept to a free
// text definition and may be nil.
func (c *Clusterer) Analyze(entities []*graph.Entity, events []*graph.Event, definitions map[string]string) graph.SemanticAnalysis {
	concepts := make([]concept, 0, len(entities))
	for _, e := range entities {
		concepts = append(concepts, concept{key: e.Key(), name: e.Name})
	}

	network := buildNetwork(concepts, events, definitions)
	return graph.SemanticAnalysis{
		ConceptNetwork:        network,
		ThematicClusters:      clusters(network, concepts, events),
		WorldBuildingElements: c.world.extract(entities, events),
	}
}

// buildNetwork scores every concept pair and keeps edges above MinEdgeStrength.
func buildNetwork(concepts []concept, events []*graph.Event, definitions map[string]string) []graph.ConceptNode {
	nodes := make([]graph.ConceptNode, len(concepts))
	for i, a := range concepts {
		nodes[i].Concept = a.key
		nodes[i].RelatedConcepts = []graph.ConceptEdge{}
	}

	for i := 0; i < len(concepts); i++ {
		for j := i + 1; j < len(concepts); j++ {
			strength, basis := relatedness(concepts[i], concepts[j], events, definitions)
			if strength <= MinEdgeStrength {
				continue
			}
			nodes[i].RelatedConcepts = append(nodes[i].RelatedConcepts, graph.ConceptEdge{Concept: concepts[j].key, Strength: strength, Basis: basis})
			nodes[j].RelatedConcepts = append(nodes[j].RelatedConcepts, graph.ConceptEdge{Concept: concepts[i].key, Strength: strength, Basis: basis})
		}
	}

	for i := range nodes {
		edges := nodes[i].RelatedConcepts
		sort.SliceStable(edges, func(a, b int) bool { return edges[a].Strength > edges[b].Strength })
		sum := 0.0
		for _, e := range edges {
			sum += e.Strength
		}
		if len(concepts) > 0 {
			nodes[i].GlobalImportance = sum / float64(len(concepts))
		}
	}
	return nodes
}

func relatedness(a, b concept, events []*graph.Event, definitions map[string]string) (float64, []string) {
	var sameDesc, coPart bool
	for _, ev := range events {
		if !sameDesc && strings.Contains(ev.Description, a.name) && strings.Contains(ev.Description, b.name) {
			sameDesc = true
		}
		if !coPart && ev.HasParticipant(a.key) && ev.HasParticipant(b.key) {
			coPart = true
		}
	}

	strength := 0.0
	var basis []string
	if sameDesc {
		strength += SameDescription
		basis = append(basis, "same event description")
	}
	if coPart {
		strength += CoParticipants
		basis = append(basis, "event co-participants")
	}
	if defines(definitions[a.key], b.name) || defines(definitions[b.key], a.name) {
		strength += Definition
		basis = append(basis, "definition reference")
	}
	return strength, basis
}

func defines(definition, name string) bool {
	return definition != "" && name != "" && strings.Contains(definition, name)
}

// clusters seeds one cluster per concept whose importance exceeds
// MinSeedImportance.
func clusters(network []graph.ConceptNode, concepts []concept, events []*graph.Event) []graph.ThematicCluster {
	names := make(map[string]string, len(concepts))
	for _, c := range concepts {
		names[c.key] = c.name
	}

	var out []graph.ThematicCluster
	for _, node := range network {
		if node.GlobalImportance <= MinSeedImportance {
			continue
		}
		members := []string{node.Concept}
		for _, e := range node.RelatedConcepts {
			if e.Strength > MinClusterEdge {
				members = append(members, e.Concept)
			}
		}

		var entities, descriptions []string
		for _, ev := range events {
			if !references(ev, members, names) {
				continue
			}
			descriptions = append(descriptions, ev.Description)
			for _, p := range ev.Participants {
				entities = appendUnique(entities, p)
			}
		}

		eventRatio, entityRatio := 0.0, 0.0
		if len(events) > 0 {
			eventRatio = float64(len(descriptions)) / float64(len(events))
		}
		if len(concepts) > 0 {
			entityRatio = float64(len(entities)) / float64(len(concepts))
		}

		out = append(out, graph.ThematicCluster{
			Theme:        node.Concept,
			Concepts:     members,
			Entities:     entities,
			Events:       descriptions,
			Significance: (node.GlobalImportance + eventRatio + entityRatio) / 3,
		})
	}
	return out
}

func references(ev *graph.Event, concepts []string, names map[string]string) bool {
	for _, c := range concepts {
		if ev.HasParticipant(c) || (names[c] != "" && strings.Contains(ev.Description, names[c])) {
			return true
		}
	}
	return false
}

func appendUnique(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}
