package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const maxChainDepth = 5

// ErrCycle is returned when an edge would make the HAS_PREREQUISITE
// subgraph cyclic.
var ErrCycle = errors.New("prerequisite edge would create a cycle")

// CreatePrerequisite links two chunks with a HAS_PREREQUISITE edge and keeps
// the denormalized id arrays on both nodes in sync. Idempotent. Edges that
// would close a cycle are refused with ErrCycle.
func (s *Store) CreatePrerequisite(ctx context.Context, chunkID, prereqChunkID, requirement string) error {
	if chunkID == prereqChunkID {
		return fmt.Errorf("graph: chunk %s cannot be its own prerequisite", chunkID)
	}
	switch requirement {
	case RequirementStrong, RequirementWeak, RequirementOptional:
	case "":
		requirement = RequirementStrong
	default:
		return fmt.Errorf("graph: unknown requirement type %q", requirement)
	}
	if !s.Available() {
		return fmt.Errorf("graph: driver not configured")
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// The edge a->b is only safe when b does not already depend on a,
		// directly or transitively. Checking inside the write transaction
		// keeps the check and the MERGE atomic.
		res, err := tx.Run(ctx, `
MATCH (:Chunk {id: $prereq_id})-[:HAS_PREREQUISITE*1..]->(:Chunk {id: $chunk_id})
RETURN 1 LIMIT 1
`, map[string]any{"chunk_id": chunkID, "prereq_id": prereqChunkID})
		if err != nil {
			return nil, err
		}
		found, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(found) > 0 {
			return nil, ErrCycle
		}
		return nil, runConsume(ctx, tx, `
MATCH (a:Chunk {id: $chunk_id})
MATCH (b:Chunk {id: $prereq_id})
MERGE (a)-[e:HAS_PREREQUISITE]->(b)
SET e.requirement_type = $requirement
SET a.has_prerequisite = CASE
  WHEN a.has_prerequisite IS NULL THEN [$prereq_id]
  WHEN NOT $prereq_id IN a.has_prerequisite THEN a.has_prerequisite + $prereq_id
  ELSE a.has_prerequisite END
SET b.prerequisite_for = CASE
  WHEN b.prerequisite_for IS NULL THEN [$chunk_id]
  WHEN NOT $chunk_id IN b.prerequisite_for THEN b.prerequisite_for + $chunk_id
  ELSE b.prerequisite_for END
`, map[string]any{
			"chunk_id":    chunkID,
			"prereq_id":   prereqChunkID,
			"requirement": requirement,
		})
	})
	if err != nil {
		return fmt.Errorf("graph: create prerequisite %s->%s: %w", chunkID, prereqChunkID, err)
	}
	return nil
}

// PrerequisiteChain walks HAS_PREREQUISITE edges outward from a chunk up to
// maxDepth hops, nearest first. Depth is clamped to [1, 5]; the bound has to
// be interpolated because Cypher cannot parameterize pattern lengths.
func (s *Store) PrerequisiteChain(ctx context.Context, chunkID string, maxDepth int) ([]ChainEntry, error) {
	return s.chain(ctx, chunkID, maxDepth, `
MATCH path = (c:Chunk {id: $id})-[:HAS_PREREQUISITE*1..%d]->(p:Chunk)
WITH p, min(length(path)) AS depth,
     [r IN relationships(path) | r.requirement_type][0] AS requirement
RETURN p AS node, depth, requirement
ORDER BY depth ASC, p.id ASC
`)
}

// Dependents walks the reverse direction: chunks that require this one.
func (s *Store) Dependents(ctx context.Context, chunkID string, maxDepth int) ([]ChainEntry, error) {
	return s.chain(ctx, chunkID, maxDepth, `
MATCH path = (d:Chunk)-[:HAS_PREREQUISITE*1..%d]->(c:Chunk {id: $id})
WITH d, min(length(path)) AS depth,
     [r IN relationships(path) | r.requirement_type][0] AS requirement
RETURN d AS node, depth, requirement
ORDER BY depth ASC, d.id ASC
`)
}

func (s *Store) chain(ctx context.Context, chunkID string, maxDepth int, template string) ([]ChainEntry, error) {
	if !s.Available() {
		return nil, fmt.Errorf("graph: driver not configured")
	}
	if maxDepth <= 0 {
		maxDepth = 3
	}
	if maxDepth > maxChainDepth {
		maxDepth = maxChainDepth
	}

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf(template, maxDepth), map[string]any{"id": chunkID})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("graph: chain from %s: %w", chunkID, err)
	}

	var out []ChainEntry
	for _, rec := range records.([]*neo4j.Record) {
		nodeVal, ok := rec.Get("node")
		if !ok {
			continue
		}
		node, ok := nodeVal.(neo4j.Node)
		if !ok {
			continue
		}
		entry := ChainEntry{Chunk: chunkFromRecord(node.Props)}
		if d, ok := rec.Get("depth"); ok {
			if n, ok := d.(int64); ok {
				entry.Depth = int(n)
			}
		}
		if r, ok := rec.Get("requirement"); ok {
			if sv, ok := r.(string); ok {
				entry.Type = sv
			}
		}
		out = append(out, entry)
	}
	return out, nil
}
