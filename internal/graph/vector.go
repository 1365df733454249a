package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"golang.org/x/sync/errgroup"
)

// VectorSearch queries the native cosine index and returns up to limit
// chunks whose similarity is at least minScore, best first, optionally
// filtered by subject.
func (s *Store) VectorSearch(ctx context.Context, embedding []float32, minScore float64, limit int, subject string) ([]SearchResult, error) {
	if !s.Available() {
		return nil, fmt.Errorf("graph: driver not configured")
	}
	if limit <= 0 {
		limit = 5
	}

	query := fmt.Sprintf(`
CALL db.index.vector.queryNodes('%s', $fetch, $embedding)
YIELD node, score
WHERE score >= $min_score
`, vectorIndexName)
	if subject != "" {
		query += "AND node.subject = $subject\n"
	}
	query += "RETURN node, score\nORDER BY score DESC\nLIMIT $limit"

	emb := make([]any, len(embedding))
	for i, v := range embedding {
		emb[i] = float64(v)
	}
	params := map[string]any{
		"embedding": emb,
		"min_score": minScore,
		"limit":     limit,
		// Over-fetch so score and subject filters still fill the limit.
		"fetch": limit * 4,
	}
	if subject != "" {
		params["subject"] = subject
	}

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("graph: vector search: %w", err)
	}

	var out []SearchResult
	for _, rec := range records.([]*neo4j.Record) {
		nodeVal, ok := rec.Get("node")
		if !ok {
			continue
		}
		node, ok := nodeVal.(neo4j.Node)
		if !ok {
			continue
		}
		scoreVal, _ := rec.Get("score")
		score, _ := scoreVal.(float64)
		out = append(out, SearchResult{Chunk: chunkFromRecord(node.Props), Score: score})
	}
	return out, nil
}

// BulkVectorSearch runs one search per embedding concurrently, preserving
// input order. A nil embedding yields a nil result slot.
func (s *Store) BulkVectorSearch(ctx context.Context, embeddings [][]float32, minScore float64, limitPer int, subject string) ([][]SearchResult, error) {
	if !s.Available() {
		return nil, fmt.Errorf("graph: driver not configured")
	}

	out := make([][]SearchResult, len(embeddings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range embeddings {
		if len(embeddings[i]) == 0 {
			continue
		}
		g.Go(func() error {
			results, err := s.VectorSearch(gctx, embeddings[i], minScore, limitPer, subject)
			if err != nil {
				return err
			}
			out[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetChunk fetches one chunk node by id. Missing chunks return (nil, nil).
func (s *Store) GetChunk(ctx context.Context, chunkID string) (*ChunkNode, error) {
	if !s.Available() {
		return nil, fmt.Errorf("graph: driver not configured")
	}

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	record, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (c:Chunk {id: $id}) RETURN c LIMIT 1`, map[string]any{"id": chunkID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, nil
		}
		return records[0], nil
	})
	if err != nil {
		return nil, fmt.Errorf("graph: get chunk %s: %w", chunkID, err)
	}
	if record == nil {
		return nil, nil
	}

	nodeVal, ok := record.(*neo4j.Record).Get("c")
	if !ok {
		return nil, nil
	}
	node, ok := nodeVal.(neo4j.Node)
	if !ok {
		return nil, nil
	}
	chunk := chunkFromRecord(node.Props)
	return &chunk, nil
}

// Stats returns node and relationship counts for the health surface.
func (s *Store) Stats(ctx context.Context) (map[string]int64, error) {
	if !s.Available() {
		return nil, fmt.Errorf("graph: driver not configured")
	}

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	counts, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		out := map[string]int64{}
		for label, q := range map[string]string{
			"textbooks": `MATCH (n:Textbook) RETURN count(n) AS n`,
			"chapters":  `MATCH (n:Chapter) RETURN count(n) AS n`,
			"sections":  `MATCH (n:Section) RETURN count(n) AS n`,
			"concepts":  `MATCH (n:Concept) RETURN count(n) AS n`,
			"chunks":    `MATCH (n:Chunk) RETURN count(n) AS n`,
			"embedded":  `MATCH (n:Chunk) WHERE n.has_embedding RETURN count(n) AS n`,
		} {
			res, err := tx.Run(ctx, q, nil)
			if err != nil {
				return nil, err
			}
			rec, err := res.Single(ctx)
			if err != nil {
				return nil, err
			}
			v, _ := rec.Get("n")
			if n, ok := v.(int64); ok {
				out[label] = n
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("graph: stats: %w", err)
	}
	return counts.(map[string]int64), nil
}
