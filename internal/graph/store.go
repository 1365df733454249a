package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/platform/neo4jdb"
)

const vectorIndexName = "chunk_embedding_index"

// Store is the property-graph adapter over Neo4j: nodes, edges, native
// cosine vector search and prerequisite traversal.
type Store struct {
	client    *neo4jdb.Client
	log       *logger.Logger
	dimension int
}

func NewStore(client *neo4jdb.Client, dimension int, baseLog *logger.Logger) *Store {
	return &Store{
		client:    client,
		log:       baseLog.With("store", "GraphStore"),
		dimension: dimension,
	}
}

func (s *Store) Available() bool {
	return s != nil && s.client != nil && s.client.Driver != nil
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.client.Database,
	})
}

func (s *Store) Ping(ctx context.Context) error {
	if !s.Available() {
		return fmt.Errorf("graph: driver not configured")
	}
	return s.client.Driver.VerifyConnectivity(ctx)
}

// EnsureIndexes creates the vector index over Chunk.embedding plus lookup
// indexes. Best-effort for restricted users; failures are returned so the
// caller can decide whether search is viable.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if !s.Available() {
		return nil
	}
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	statements := []struct {
		query  string
		params map[string]any
	}{
		{`CREATE CONSTRAINT chunk_id_unique IF NOT EXISTS FOR (c:Chunk) REQUIRE c.id IS UNIQUE`, nil},
		{`CREATE INDEX chunk_subject_idx IF NOT EXISTS FOR (c:Chunk) ON (c.subject)`, nil},
		{`CREATE INDEX chunk_concept_idx IF NOT EXISTS FOR (c:Chunk) ON (c.concept_name)`, nil},
		{fmt.Sprintf(`CREATE VECTOR INDEX %s IF NOT EXISTS
FOR (c:Chunk) ON (c.embedding)
OPTIONS {indexConfig: {
  `+"`vector.dimensions`"+`: $dimension,
  `+"`vector.similarity_function`"+`: 'cosine'
}}`, vectorIndexName), map[string]any{"dimension": s.dimension}},
	}

	for _, stmt := range statements {
		res, err := session.Run(ctx, stmt.query, stmt.params)
		if err != nil {
			return fmt.Errorf("graph: ensure indexes: %w", err)
		}
		if _, err := res.Consume(ctx); err != nil {
			return fmt.Errorf("graph: ensure indexes: %w", err)
		}
	}
	return nil
}

// IngestSubtree writes one textbook's full subtree in a single transaction
// so re-runs and failures stay all-or-nothing.
func (s *Store) IngestSubtree(ctx context.Context, textbook Textbook, chapters []Chapter, sections []Section, concepts []Concept, chunks []ChunkNode) error {
	if !s.Available() {
		return fmt.Errorf("graph: driver not configured")
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	chapterRows := make([]map[string]any, 0, len(chapters))
	for _, c := range chapters {
		chapterRows = append(chapterRows, map[string]any{
			"textbook_id": c.TextbookID,
			"number":      c.Number,
			"title":       c.Title,
			"pages":       c.Pages,
		})
	}
	sectionRows := make([]map[string]any, 0, len(sections))
	for _, sec := range sections {
		sectionRows = append(sectionRows, map[string]any{
			"textbook_id":    sec.TextbookID,
			"number":         sec.Number,
			"title":          sec.Title,
			"chapter_number": sec.ChapterNumber,
		})
	}
	conceptRows := make([]map[string]any, 0, len(concepts))
	for _, con := range concepts {
		conceptRows = append(conceptRows, map[string]any{
			"textbook_id":    con.TextbookID,
			"section_number": con.SectionNumber,
			"name":           con.Name,
		})
	}
	chunkRows := make([]map[string]any, 0, len(chunks))
	for _, ch := range chunks {
		chunkRows = append(chunkRows, chunkProps(ch))
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := runConsume(ctx, tx, `
MERGE (t:Textbook {id: $id})
SET t.title = $title, t.subject = $subject, t.processed_at = $processed_at
`, map[string]any{
			"id":           textbook.ID,
			"title":        textbook.Title,
			"subject":      textbook.Subject,
			"processed_at": textbook.ProcessedAt.UTC().Format(time.RFC3339Nano),
		}); err != nil {
			return nil, err
		}

		if len(chapterRows) > 0 {
			if err := runConsume(ctx, tx, `
UNWIND $rows AS row
MATCH (t:Textbook {id: row.textbook_id})
MERGE (c:Chapter {textbook_id: row.textbook_id, number: row.number})
SET c.title = row.title, c.pages = row.pages
MERGE (t)-[:HAS_CHAPTER]->(c)
`, map[string]any{"rows": chapterRows}); err != nil {
				return nil, err
			}
			// Chapter ordering.
			if err := runConsume(ctx, tx, `
UNWIND $rows AS row
MATCH (a:Chapter {textbook_id: row.textbook_id, number: row.number})
MATCH (b:Chapter {textbook_id: row.textbook_id, number: row.number + 1})
MERGE (a)-[:PRECEDES]->(b)
`, map[string]any{"rows": chapterRows}); err != nil {
				return nil, err
			}
		}

		if len(sectionRows) > 0 {
			if err := runConsume(ctx, tx, `
UNWIND $rows AS row
MATCH (c:Chapter {textbook_id: row.textbook_id, number: row.chapter_number})
MERGE (s:Section {textbook_id: row.textbook_id, number: row.number})
SET s.title = row.title, s.chapter_number = row.chapter_number
MERGE (c)-[:HAS_SECTION]->(s)
`, map[string]any{"rows": sectionRows}); err != nil {
				return nil, err
			}
		}

		if len(conceptRows) > 0 {
			if err := runConsume(ctx, tx, `
UNWIND $rows AS row
MATCH (s:Section {textbook_id: row.textbook_id, number: row.section_number})
MERGE (k:Concept {textbook_id: row.textbook_id, name: row.name})
SET k.section_number = row.section_number
MERGE (s)-[:CONTAINS_CONCEPT]->(k)
`, map[string]any{"rows": conceptRows}); err != nil {
				return nil, err
			}
		}

		if len(chunkRows) > 0 {
			if err := runConsume(ctx, tx, `
UNWIND $rows AS row
MERGE (c:Chunk {id: row.id})
SET c += row
`, map[string]any{"rows": chunkRows}); err != nil {
				return nil, err
			}
			if err := runConsume(ctx, tx, `
UNWIND $rows AS row
MATCH (c:Chunk {id: row.id})
MATCH (s:Section {textbook_id: row.textbook_id, number: row.section_number})
MERGE (c)-[:BELONGS_TO]->(s)
`, map[string]any{"rows": chunkRows}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("graph: ingest subtree %s: %w", textbook.ID, err)
	}

	s.log.Info("Graph subtree ingested",
		"textbook_id", textbook.ID,
		"chapters", len(chapters),
		"sections", len(sections),
		"concepts", len(concepts),
		"chunks", len(chunks),
	)
	return nil
}

// UpsertChunk writes one chunk node outside of a bulk ingest.
func (s *Store) UpsertChunk(ctx context.Context, chunk ChunkNode) error {
	if !s.Available() {
		return fmt.Errorf("graph: driver not configured")
	}
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, runConsume(ctx, tx, `
MERGE (c:Chunk {id: $row.id})
SET c += $row
`, map[string]any{"row": chunkProps(chunk)})
	})
	if err != nil {
		return fmt.Errorf("graph: upsert chunk %s: %w", chunk.ID, err)
	}
	return nil
}

var allowedEdgeTypes = map[string]bool{
	"HAS_CHAPTER":      true,
	"HAS_SECTION":      true,
	"CONTAINS_CONCEPT": true,
	"BELONGS_TO":       true,
	"PRECEDES":         true,
	"NEXT":             true,
	"HAS_PREREQUISITE": true,
}

// Link creates one edge between chunk-level nodes with MERGE semantics.
// The edge type is validated against a fixed whitelist because Cypher cannot
// parameterize relationship types.
func (s *Store) Link(ctx context.Context, edgeType, fromID, toID string, props map[string]any) error {
	if !s.Available() {
		return fmt.Errorf("graph: driver not configured")
	}
	if !allowedEdgeTypes[edgeType] {
		return fmt.Errorf("graph: unknown edge type %q", edgeType)
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
MATCH (a {id: $from_id})
MATCH (b {id: $to_id})
MERGE (a)-[e:%s]->(b)
SET e += $props
`, edgeType)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if props == nil {
			props = map[string]any{}
		}
		return nil, runConsume(ctx, tx, query, map[string]any{
			"from_id": fromID,
			"to_id":   toID,
			"props":   props,
		})
	})
	if err != nil {
		return fmt.Errorf("graph: link %s %s->%s: %w", edgeType, fromID, toID, err)
	}
	return nil
}

func chunkProps(ch ChunkNode) map[string]any {
	props := map[string]any{
		"id":             ch.ID,
		"textbook_id":    ch.TextbookID,
		"subject":        ch.Subject,
		"chapter_number": ch.ChapterNumber,
		"section_number": ch.SectionNumber,
		"concept_name":   ch.ConceptName,
		"text":           ch.Text,
		"has_embedding":  len(ch.Embedding) > 0,
		"char_count":     ch.CharCount,
		"word_count":     ch.WordCount,
	}
	if len(ch.Embedding) > 0 {
		emb := make([]any, len(ch.Embedding))
		for i, v := range ch.Embedding {
			emb[i] = float64(v)
		}
		props["embedding"] = emb
	}
	return props
}

func runConsume(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) error {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

func chunkFromRecord(props map[string]any) ChunkNode {
	ch := ChunkNode{
		ID:            stringProp(props, "id"),
		TextbookID:    stringProp(props, "textbook_id"),
		Subject:       stringProp(props, "subject"),
		SectionNumber: stringProp(props, "section_number"),
		ConceptName:   stringProp(props, "concept_name"),
		Text:          stringProp(props, "text"),
	}
	ch.ChapterNumber = intProp(props, "chapter_number")
	ch.CharCount = intProp(props, "char_count")
	ch.WordCount = intProp(props, "word_count")
	if v, ok := props["has_embedding"].(bool); ok {
		ch.HasEmbedding = v
	}
	ch.HasPrerequisite = stringSliceProp(props, "has_prerequisite")
	ch.PrerequisiteFor = stringSliceProp(props, "prerequisite_for")
	return ch
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func intProp(props map[string]any, key string) int {
	switch v := props[key].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func stringSliceProp(props map[string]any, key string) []string {
	raw, ok := props[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
