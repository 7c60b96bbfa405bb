//go:build cgo

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements Store using KuzuDB as the graph backend. Unlike a
// schema with one relationship table per edge kind, the type registry this
// engine serves is open-ended (extended types can be registered at
// runtime), so the persisted shape is a single generic GraphNode table and
// a single generic, type-tagged GraphEdge relationship table — mirroring
// the nodes/edges/edge_types relational shape the engine exposes to
// callers rather than baking a fixed relationship per edge kind.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(":memory:", cfg)
	if err != nil {
		return nil, NewError(KindIO, "NewKuzuStore", fmt.Errorf("open database: %w", err))
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, NewError(KindIO, "NewKuzuStore", fmt.Errorf("open connection: %w", err))
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at
// dbPath, persisting the graph index across process runs.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, NewError(KindIO, "NewKuzuFileStore", fmt.Errorf("create parent directory: %w", err))
	}
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, NewError(KindIO, "NewKuzuFileStore", fmt.Errorf("open file database: %w", err))
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, NewError(KindIO, "NewKuzuFileStore", fmt.Errorf("open connection: %w", err))
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS GraphNode(
		id STRING,
		type STRING,
		name STRING,
		file_path STRING,
		language STRING,
		start_line INT64,
		end_line INT64,
		exported BOOLEAN,
		metadata STRING,
		updated_at INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS GraphEdge(
		FROM GraphNode TO GraphNode,
		type STRING,
		source_file STRING,
		confidence DOUBLE,
		metadata STRING,
		created_at INT64
	)`,
}

func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return NewError(KindIO, "KuzuStore.InitSchema", err)
		}
		res.Close()
	}
	return nil
}

func (s *KuzuStore) UpsertNode(_ context.Context, n Node) error {
	meta, err := json.Marshal(n.Metadata)
	if err != nil {
		return NewError(KindValidationFailed, "KuzuStore.UpsertNode", err)
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now()
	}
	return s.exec(
		`MERGE (x:GraphNode {id: $id})
		 SET x.type = $type, x.name = $name, x.file_path = $fp, x.language = $lang,
		     x.start_line = $sl, x.end_line = $el, x.exported = $exp,
		     x.metadata = $meta, x.updated_at = $updated`,
		map[string]any{
			"id":      n.ID,
			"type":    string(n.Type),
			"name":    n.Name,
			"fp":      n.FilePath,
			"lang":    string(n.Language),
			"sl":      int64(n.StartLine),
			"el":      int64(n.EndLine),
			"exp":     n.Exported,
			"meta":    string(meta),
			"updated": n.UpdatedAt.UnixNano(),
		},
	)
}

func (s *KuzuStore) UpsertEdge(_ context.Context, e Edge) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return NewError(KindValidationFailed, "KuzuStore.UpsertEdge", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return s.exec(
		`MATCH (a:GraphNode {id: $src}), (b:GraphNode {id: $dst})
		 MERGE (a)-[r:GraphEdge {type: $type}]->(b)
		 SET r.source_file = $sf, r.confidence = $conf, r.metadata = $meta, r.created_at = $created`,
		map[string]any{
			"src":     e.SourceID,
			"dst":     e.TargetID,
			"type":    e.Type,
			"sf":      e.SourceFile,
			"conf":    e.Confidence,
			"meta":    string(meta),
			"created": e.CreatedAt.UnixNano(),
		},
	)
}

func (s *KuzuStore) GetNode(_ context.Context, id string) (*Node, error) {
	rows, err := s.query(
		`MATCH (x:GraphNode {id: $id})
		 RETURN x.id, x.type, x.name, x.file_path, x.language, x.start_line, x.end_line, x.exported, x.metadata, x.updated_at`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToNode(rows[0]), nil
}

func (s *KuzuStore) FindNodes(_ context.Context, filter NodeFilter) ([]Node, error) {
	cypher := "MATCH (x:GraphNode) WHERE 1=1"
	params := map[string]any{}
	if filter.Type != "" {
		cypher += " AND x.type = $type"
		params["type"] = string(filter.Type)
	}
	if filter.FilePath != "" {
		cypher += " AND x.file_path = $fp"
		params["fp"] = filter.FilePath
	}
	if filter.NamePart != "" {
		cypher += " AND lower(x.name) CONTAINS lower($namePart)"
		params["namePart"] = filter.NamePart
	}
	cypher += " RETURN x.id, x.type, x.name, x.file_path, x.language, x.start_line, x.end_line, x.exported, x.metadata, x.updated_at"
	if filter.Limit > 0 {
		cypher += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]Node, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToNode(r))
	}
	return out, nil
}

func (s *KuzuStore) FindEdges(_ context.Context, filter EdgeFilter) ([]Edge, error) {
	cypher := "MATCH (a:GraphNode)-[r:GraphEdge]->(b:GraphNode) WHERE 1=1"
	params := map[string]any{}
	if filter.SourceID != "" {
		cypher += " AND a.id = $src"
		params["src"] = filter.SourceID
	}
	if filter.TargetID != "" {
		cypher += " AND b.id = $dst"
		params["dst"] = filter.TargetID
	}
	if filter.Type != "" {
		cypher += " AND r.type = $type"
		params["type"] = filter.Type
	}
	cypher += " RETURN a.id, b.id, r.type, r.source_file, r.confidence, r.metadata, r.created_at"
	if filter.Limit > 0 {
		cypher += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]Edge, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToEdge(r))
	}
	return out, nil
}

func (s *KuzuStore) DeleteEdgesBySourceAndTypes(_ context.Context, sourceFile string, types []string) (int, error) {
	if len(types) == 0 {
		return 0, nil
	}
	rows, err := s.query(
		`MATCH ()-[r:GraphEdge]->() WHERE r.source_file = $sf AND r.type IN $types
		 AND NOT r.source_file STARTS WITH $userPrefix
		 RETURN count(r)`,
		map[string]any{"sf": sourceFile, "types": types, "userPrefix": UserSourcePrefix},
	)
	if err != nil {
		return 0, err
	}
	count := 0
	if len(rows) > 0 && len(rows[0]) > 0 {
		count = toInt(rows[0][0])
	}
	if err := s.exec(
		`MATCH ()-[r:GraphEdge]->() WHERE r.source_file = $sf AND r.type IN $types
		 AND NOT r.source_file STARTS WITH $userPrefix
		 DELETE r`,
		map[string]any{"sf": sourceFile, "types": types, "userPrefix": UserSourcePrefix},
	); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *KuzuStore) DeleteNodesByFile(_ context.Context, filePath string) (int, error) {
	rows, err := s.query(
		"MATCH (x:GraphNode {file_path: $fp}) RETURN count(x)",
		map[string]any{"fp": filePath},
	)
	if err != nil {
		return 0, err
	}
	count := 0
	if len(rows) > 0 && len(rows[0]) > 0 {
		count = toInt(rows[0][0])
	}
	if err := s.exec("MATCH (x:GraphNode {file_path: $fp}) DETACH DELETE x", map[string]any{"fp": filePath}); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	stats := &GraphStats{NodesByType: map[string]int{}, EdgesByType: map[string]int{}}

	nodeRows, err := s.query("MATCH (x:GraphNode) RETURN x.type, count(x)", nil)
	if err != nil {
		return nil, err
	}
	for _, r := range nodeRows {
		t := toString(r[0])
		c := toInt(r[1])
		stats.NodesByType[t] = c
		stats.NodeCount += c
	}

	edgeRows, err := s.query("MATCH ()-[r:GraphEdge]->() RETURN r.type, count(r)", nil)
	if err != nil {
		return nil, err
	}
	for _, r := range edgeRows {
		t := toString(r[0])
		c := toInt(r[1])
		stats.EdgesByType[t] = c
		stats.EdgeCount += c
	}

	return stats, nil
}

// ---------- Internal helpers ----------

func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return NewError(KindIO, "KuzuStore.exec", fmt.Errorf("prepare: %w", err))
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return NewError(KindIO, "KuzuStore.exec", fmt.Errorf("execute: %w", err))
	}
	res.Close()
	return nil
}

func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, NewError(KindIO, "KuzuStore.query", fmt.Errorf("prepare: %w", err))
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, NewError(KindIO, "KuzuStore.query", fmt.Errorf("query: %w", err))
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, NewError(KindIO, "KuzuStore.query", fmt.Errorf("next: %w", err))
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, NewError(KindIO, "KuzuStore.query", fmt.Errorf("row values: %w", err))
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func rowToNode(r []any) *Node {
	var meta map[string]any
	_ = json.Unmarshal([]byte(toString(r[8])), &meta)
	return &Node{
		ID:        toString(r[0]),
		Type:      NodeType(toString(r[1])),
		Name:      toString(r[2]),
		FilePath:  toString(r[3]),
		Language:  Language(toString(r[4])),
		StartLine: toInt(r[5]),
		EndLine:   toInt(r[6]),
		Exported:  toBool(r[7]),
		Metadata:  meta,
		UpdatedAt: time.Unix(0, int64(toInt64(r[9]))),
	}
}

func rowToEdge(r []any) Edge {
	var meta map[string]any
	_ = json.Unmarshal([]byte(toString(r[5])), &meta)
	return Edge{
		SourceID:   toString(r[0]),
		TargetID:   toString(r[1]),
		Type:       toString(r[2]),
		SourceFile: toString(r[3]),
		Confidence: toFloat64(r[4]),
		Metadata:   meta,
		CreatedAt:  time.Unix(0, toInt64(r[6])),
	}
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
