package graph

import "context"

// StoredNode is an entity after the persistence collaborator assigned it a
// durable identifier.
type StoredNode struct {
	ID     string  `json:"id"`
	Key    string  `json:"key"`
	Entity *Entity `json:"entity"`
}

// StoredEdge is a relation after persistence.
type StoredEdge struct {
	ID       string    `json:"id"`
	SourceID string    `json:"sourceId"`
	TargetID string    `json:"targetId"`
	Relation *Relation `json:"relation"`
}

// Persister stores a finished graph. Implementations assign durable IDs and
// accept arbitrary attribute maps.
type Persister interface {
	CreateNode(ctx context.Context, e *Entity) (*StoredNode, error)
	CreateRelationship(ctx context.Context, r *Relation, sourceID, targetID string) (*StoredEdge, error)
}
