// Package store provides SQLite-backed persistence for analysis results.
// It is the persistence collaborator of the pipeline: entities become
// nodes and relations become edges, each with a durable UUID.
package store

import (
	"context"
	"encoding/json"

	"github.com/kittclouds/storygraph/pkg/graph"
)

// Document is one analyzed manuscript.
type Document struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Mime       string `json:"mime"`
	Version    int64  `json:"version"`
	TotalWords int    `json:"totalWords"`
	Chapters   int    `json:"chapters"`
	Summary    string `json:"summary"`
	AnalyzedAt int64  `json:"analyzedAt"`
}

// Entity is a stored node.
type Entity struct {
	ID              string          `json:"id"`
	DocumentID      string          `json:"documentId,omitempty"`
	Key             string          `json:"key"`
	Label           string          `json:"label"`
	Kind            string          `json:"kind"`
	Description     string          `json:"description,omitempty"`
	DisambiguatedID string          `json:"disambiguatedId,omitempty"`
	Aliases         []string        `json:"aliases"`
	Attributes      json.RawMessage `json:"attributes,omitempty"`
	Frequency       int             `json:"frequency"`
	CreatedAt       int64           `json:"createdAt"`
}

// Edge is a stored relationship between two nodes.
type Edge struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"documentId,omitempty"`
	SourceID   string          `json:"sourceId"`
	TargetID   string          `json:"targetId"`
	RelType    string          `json:"relType"`
	Confidence float64         `json:"confidence"`
	Inferred   bool            `json:"inferred"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
	CreatedAt  int64           `json:"createdAt"`
}

// Storer is the full store surface.
type Storer interface {
	graph.Persister

	UpsertDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	ClearDocument(ctx context.Context, docID string) error

	GetEntity(ctx context.Context, id string) (*Entity, error)
	ListEntities(ctx context.Context, documentID, kind string) ([]*Entity, error)
	CountEntities(ctx context.Context) (int, error)

	ListEdgesForEntity(ctx context.Context, entityID string) ([]*Edge, error)
	CountEdges(ctx context.Context) (int, error)

	Export() ([]byte, error)
	Import(data []byte) error
	Close() error
}
