package store

// Uses ncruces/go-sqlite3/driver which provides a database/sql interface.
// The sqlite-vec extension is registered alongside it.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"

	"github.com/kittclouds/storygraph/pkg/graph"
)

// SQLiteStore implements Storer using SQLite.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

var _ Storer = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	mime TEXT NOT NULL DEFAULT '',
	version INTEGER NOT NULL DEFAULT 1,
	total_words INTEGER NOT NULL DEFAULT 0,
	chapters INTEGER NOT NULL DEFAULT 0,
	summary TEXT NOT NULL DEFAULT '',
	analyzed_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS entities (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL DEFAULT '',
	key TEXT NOT NULL,
	label TEXT NOT NULL,
	kind TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	disambiguated_id TEXT NOT NULL DEFAULT '',
	aliases TEXT NOT NULL DEFAULT '[]',
	attributes TEXT NOT NULL DEFAULT '{}',
	frequency INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entities_document ON entities(document_id);
CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(kind);

CREATE TABLE IF NOT EXISTS edges (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL DEFAULT '',
	source_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	rel_type TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	inferred INTEGER NOT NULL DEFAULT 0,
	attributes TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a custom DSN.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// VecVersion reports the version of the loaded sqlite-vec extension.
func (s *SQLiteStore) VecVersion(ctx context.Context) (string, error) {
	var v string
	if err := s.db.QueryRowContext(ctx, "SELECT vec_version()").Scan(&v); err != nil {
		return "", fmt.Errorf("vec_version: %w", err)
	}
	return v, nil
}

// ForDocument returns a Persister that tags every row with docID.
func (s *SQLiteStore) ForDocument(docID string) graph.Persister {
	return &documentWriter{store: s, docID: docID}
}

type documentWriter struct {
	store *SQLiteStore
	docID string
}

func (w *documentWriter) CreateNode(ctx context.Context, e *graph.Entity) (*graph.StoredNode, error) {
	return w.store.createNode(ctx, w.docID, e)
}

func (w *documentWriter) CreateRelationship(ctx context.Context, r *graph.Relation, sourceID, targetID string) (*graph.StoredEdge, error) {
	return w.store.createRelationship(ctx, w.docID, r, sourceID, targetID)
}

// =============================================================================
// Document CRUD
// =============================================================================

// UpsertDocument creates or updates a document row.
func (s *SQLiteStore) UpsertDocument(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, mime, version, total_words, chapters, summary, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			mime = excluded.mime,
			version = excluded.version,
			total_words = excluded.total_words,
			chapters = excluded.chapters,
			summary = excluded.summary,
			analyzed_at = excluded.analyzed_at
	`, doc.ID, doc.Title, doc.Mime, doc.Version, doc.TotalWords, doc.Chapters, doc.Summary, doc.AnalyzedAt)
	return err
}

// GetDocument retrieves a document by ID. Returns nil if missing.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, mime, version, total_words, chapters, summary, analyzed_at
		FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return doc, err
}

// ListDocuments returns all documents ordered by ID.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, mime, version, total_words, chapters, summary, analyzed_at
		FROM documents ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ClearDocument removes the nodes and edges stored for a document so it can
// be persisted again. The document row itself is kept.
func (s *SQLiteStore) ClearDocument(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM edges WHERE document_id = ?", docID); err != nil {
		return fmt.Errorf("clear edges of %s: %w", docID, err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entities WHERE document_id = ?", docID); err != nil {
		return fmt.Errorf("clear entities of %s: %w", docID, err)
	}
	return nil
}

func scanDocument(sc interface{ Scan(...any) error }) (*Document, error) {
	var d Document
	err := sc.Scan(&d.ID, &d.Title, &d.Mime, &d.Version, &d.TotalWords, &d.Chapters, &d.Summary, &d.AnalyzedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// =============================================================================
// Entity CRUD
// =============================================================================

// CreateNode stores e as a node without a document scope.
func (s *SQLiteStore) CreateNode(ctx context.Context, e *graph.Entity) (*graph.StoredNode, error) {
	return s.createNode(ctx, "", e)
}

func (s *SQLiteStore) createNode(ctx context.Context, docID string, e *graph.Entity) (*graph.StoredNode, error) {
	aliases := e.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	aliasesJSON, err := json.Marshal(aliases)
	if err != nil {
		return nil, err
	}
	attrsJSON, err := json.Marshal(e.Attributes)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (id, document_id, key, label, kind, description, disambiguated_id, aliases, attributes, frequency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, docID, e.Key(), e.Name, string(e.Type), e.Description, e.DisambiguatedID,
		string(aliasesJSON), string(attrsJSON), e.Attributes.Frequency, time.Now().Unix())
	if err != nil {
		return nil, err
	}

	return &graph.StoredNode{ID: id, Key: e.Key(), Entity: e}, nil
}

// GetEntity retrieves an entity by ID. Returns nil if missing.
func (s *SQLiteStore) GetEntity(ctx context.Context, id string) (*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, key, label, kind, description, disambiguated_id, aliases, attributes, frequency, created_at
		FROM entities WHERE id = ?
	`, id)

	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// ListEntities returns entities, optionally filtered by document and kind.
// Empty filters match everything.
func (s *SQLiteStore) ListEntities(ctx context.Context, documentID, kind string) ([]*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, document_id, key, label, kind, description, disambiguated_id, aliases, attributes, frequency, created_at
		FROM entities WHERE 1 = 1`
	var args []any
	if documentID != "" {
		query += " AND document_id = ?"
		args = append(args, documentID)
	}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY frequency DESC, key"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntity(sc interface{ Scan(...any) error }) (*Entity, error) {
	var (
		e       Entity
		aliases string
		attrs   string
	)
	err := sc.Scan(&e.ID, &e.DocumentID, &e.Key, &e.Label, &e.Kind, &e.Description,
		&e.DisambiguatedID, &aliases, &attrs, &e.Frequency, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(aliases), &e.Aliases); err != nil {
		return nil, fmt.Errorf("entity %s aliases: %w", e.ID, err)
	}
	e.Attributes = json.RawMessage(attrs)
	return &e, nil
}

// CountEntities returns the number of stored entities.
func (s *SQLiteStore) CountEntities(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM entities")
}

// =============================================================================
// Edge CRUD
// =============================================================================

// CreateRelationship stores r between two previously created nodes.
func (s *SQLiteStore) CreateRelationship(ctx context.Context, r *graph.Relation, sourceID, targetID string) (*graph.StoredEdge, error) {
	return s.createRelationship(ctx, "", r, sourceID, targetID)
}

func (s *SQLiteStore) createRelationship(ctx context.Context, docID string, r *graph.Relation, sourceID, targetID string) (*graph.StoredEdge, error) {
	attrsJSON, err := json.Marshal(r.Attributes)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO edges (id, document_id, source_id, target_id, rel_type, confidence, inferred, attributes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, docID, sourceID, targetID, string(r.Type), r.Attributes.Confidence,
		boolToInt(r.Attributes.Inferred), string(attrsJSON), time.Now().Unix())
	if err != nil {
		return nil, err
	}

	return &graph.StoredEdge{ID: id, SourceID: sourceID, TargetID: targetID, Relation: r}, nil
}

// ListEdgesForEntity returns all edges touching an entity.
func (s *SQLiteStore) ListEdgesForEntity(ctx context.Context, entityID string) ([]*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, source_id, target_id, rel_type, confidence, inferred, attributes, created_at
		FROM edges WHERE source_id = ? OR target_id = ?
		ORDER BY confidence DESC, id
	`, entityID, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEdge(sc interface{ Scan(...any) error }) (*Edge, error) {
	var (
		e        Edge
		inferred int
		attrs    string
	)
	err := sc.Scan(&e.ID, &e.DocumentID, &e.SourceID, &e.TargetID, &e.RelType,
		&e.Confidence, &inferred, &attrs, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Inferred = inferred == 1
	e.Attributes = json.RawMessage(attrs)
	return &e, nil
}

// CountEdges returns the number of stored edges.
func (s *SQLiteStore) CountEdges(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM edges")
}

func (s *SQLiteStore) count(ctx context.Context, query string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, query).Scan(&n)
	return n, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// Export / Import
// =============================================================================

// ExportData is the serialized form of the whole database.
type ExportData struct {
	Documents []*Document `json:"documents"`
	Entities  []*Entity   `json:"entities"`
	Edges     []*Edge     `json:"edges"`
}

// Export serializes the database to JSON.
func (s *SQLiteStore) Export() ([]byte, error) {
	ctx := context.Background()

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("export documents: %w", err)
	}
	entities, err := s.ListEntities(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("export entities: %w", err)
	}
	edges, err := s.allEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("export edges: %w", err)
	}

	return json.Marshal(ExportData{Documents: docs, Entities: entities, Edges: edges})
}

func (s *SQLiteStore) allEdges(ctx context.Context) ([]*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, source_id, target_id, rel_type, confidence, inferred, attributes, created_at
		FROM edges ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Import replaces the database contents with data produced by Export.
func (s *SQLiteStore) Import(data []byte) error {
	var in ExportData
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to unmarshal import data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"edges", "entities", "documents"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, d := range in.Documents {
		_, err := tx.Exec(`
			INSERT INTO documents (id, title, mime, version, total_words, chapters, summary, analyzed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, d.ID, d.Title, d.Mime, d.Version, d.TotalWords, d.Chapters, d.Summary, d.AnalyzedAt)
		if err != nil {
			return fmt.Errorf("import document %s: %w", d.ID, err)
		}
	}

	for _, e := range in.Entities {
		aliases, err := json.Marshal(orEmpty(e.Aliases))
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO entities (id, document_id, key, label, kind, description, disambiguated_id, aliases, attributes, frequency, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, e.ID, e.DocumentID, e.Key, e.Label, e.Kind, e.Description, e.DisambiguatedID,
			string(aliases), rawOrEmpty(e.Attributes), e.Frequency, e.CreatedAt)
		if err != nil {
			return fmt.Errorf("import entity %s: %w", e.ID, err)
		}
	}

	for _, e := range in.Edges {
		_, err := tx.Exec(`
			INSERT INTO edges (id, document_id, source_id, target_id, rel_type, confidence, inferred, attributes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, e.ID, e.DocumentID, e.SourceID, e.TargetID, e.RelType, e.Confidence,
			boolToInt(e.Inferred), rawOrEmpty(e.Attributes), e.CreatedAt)
		if err != nil {
			return fmt.Errorf("import edge %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func rawOrEmpty(r json.RawMessage) string {
	if len(r) == 0 {
		return "{}"
	}
	return string(r)
}
