// Package response provides compact JSON projections of an analysis for
// presentation layers.
package response

import (
	"encoding/json"

	"github.com/kittclouds/storygraph/pkg/graph"
)

// SlimGraph is a minimal graph representation keyed by entity key.
type SlimGraph struct {
	Nodes map[string]SlimNode `json:"nodes"`
	Edges []SlimEdge          `json:"edges"`
}

// SlimNode is one entity.
type SlimNode struct {
	Label   string   `json:"label"`
	Kind    string   `json:"kind"`
	Aliases []string `json:"aliases,omitempty"`
}

// SlimEdge is one relation.
type SlimEdge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// SlimAnalysisResponse is the compact analysis response.
type SlimAnalysisResponse struct {
	Graph      *SlimGraph `json:"graph"`
	TotalWords int        `json:"totalWords"`
	Chapters   int        `json:"chapters"`
	Summary    string     `json:"summary"`
	Events     int        `json:"events"`
	TimingUS   int64      `json:"timing_us"`
}

// FromKnowledgeGraph converts a knowledge graph to a SlimGraph.
func FromKnowledgeGraph(kg *graph.KnowledgeGraph) *SlimGraph {
	if kg == nil {
		return nil
	}

	sg := &SlimGraph{
		Nodes: make(map[string]SlimNode, len(kg.Entities)),
		Edges: make([]SlimEdge, 0, len(kg.Relations)),
	}

	for _, e := range kg.Entities {
		sg.Nodes[e.Key()] = SlimNode{
			Label:   e.Name,
			Kind:    string(e.Type),
			Aliases: e.Aliases,
		}
	}

	for _, r := range kg.Relations {
		sg.Edges = append(sg.Edges, SlimEdge{
			Source:     r.Source,
			Target:     r.Target,
			Type:       string(r.Type),
			Confidence: r.Attributes.Confidence,
		})
	}

	return sg
}

// Slim builds the compact response of res.
func Slim(res *graph.AnalysisResult, timingUS int64) SlimAnalysisResponse {
	if res == nil {
		return SlimAnalysisResponse{TimingUS: timingUS}
	}
	return SlimAnalysisResponse{
		Graph:      FromKnowledgeGraph(&res.KnowledgeGraph),
		TotalWords: res.TotalWords,
		Chapters:   res.EstimatedChapters,
		Summary:    res.Summary,
		Events:     len(res.Timeline.Events),
		TimingUS:   timingUS,
	}
}

// MarshalSlimResponse creates a minimal JSON response.
func MarshalSlimResponse(res *graph.AnalysisResult, timingUS int64) ([]byte, error) {
	return json.Marshal(Slim(res, timingUS))
}
