package conductor

import (
	"context"
	"fmt"

	"github.com/kittclouds/storygraph/pkg/graph"
)

// PersistReport lists what the persister stored.
type PersistReport struct {
	Nodes []*graph.StoredNode
	Edges []*graph.StoredEdge
	// Skipped counts relations whose endpoints were not stored.
	Skipped int
}

// Persist hands a finished result to p: one node per entity, then one edge
// per relation with its endpoint keys mapped to the stored node IDs.
func Persist(ctx context.Context, p graph.Persister, result *graph.AnalysisResult) (*PersistReport, error) {
	report := &PersistReport{}
	if result == nil {
		return report, nil
	}

	ids := make(map[string]string, len(result.KnowledgeGraph.Entities))
	for _, e := range result.KnowledgeGraph.Entities {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		node, err := p.CreateNode(ctx, e)
		if err != nil {
			return report, fmt.Errorf("persist entity %q: %w", e.Key(), err)
		}
		ids[e.Key()] = node.ID
		report.Nodes = append(report.Nodes, node)
	}

	for _, r := range result.KnowledgeGraph.Relations {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		src, ok1 := ids[r.Source]
		dst, ok2 := ids[r.Target]
		if !ok1 || !ok2 {
			report.Skipped++
			continue
		}
		edge, err := p.CreateRelationship(ctx, r, src, dst)
		if err != nil {
			return report, fmt.Errorf("persist relation %s -> %s: %w", r.Source, r.Target, err)
		}
		report.Edges = append(report.Edges, edge)
	}
	return report, nil
}
