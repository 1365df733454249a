package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/types"
)

type PrerequisiteRepo interface {
	// Create is idempotent on (concept_id, prereq_concept_id) and refuses
	// edges that would close a cycle.
	Create(ctx context.Context, tx *gorm.DB, row *types.Prerequisite) (*types.Prerequisite, error)
	GetByConceptIDs(ctx context.Context, tx *gorm.DB, conceptIDs []uuid.UUID) ([]*types.Prerequisite, error)
}

type prerequisiteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPrerequisiteRepo(db *gorm.DB, baseLog *logger.Logger) PrerequisiteRepo {
	return &prerequisiteRepo{db: db, log: baseLog.With("repo", "PrerequisiteRepo")}
}

func (r *prerequisiteRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Prerequisite) (*types.Prerequisite, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil, nil
	}
	if row.ConceptID == row.PrereqConceptID {
		return nil, fmt.Errorf("prerequisite: self-referencing edge for concept %s", row.ConceptID)
	}

	cyclic, err := r.wouldCreateCycle(ctx, transaction, row.ConceptID, row.PrereqConceptID)
	if err != nil {
		return nil, err
	}
	if cyclic {
		return nil, fmt.Errorf("prerequisite: edge %s -> %s would create a cycle", row.ConceptID, row.PrereqConceptID)
	}

	if err := transaction.WithContext(ctx).
		Where("concept_id = ? AND prereq_concept_id = ?", row.ConceptID, row.PrereqConceptID).
		FirstOrCreate(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// wouldCreateCycle walks prereq edges out of prereqID looking for conceptID.
// The per-path prerequisite graphs are small, so a Go-side BFS is fine.
func (r *prerequisiteRepo) wouldCreateCycle(ctx context.Context, tx *gorm.DB, conceptID, prereqID uuid.UUID) (bool, error) {
	visited := map[uuid.UUID]bool{}
	frontier := []uuid.UUID{prereqID}
	for len(frontier) > 0 {
		var rows []*types.Prerequisite
		if err := tx.WithContext(ctx).
			Where("concept_id IN ?", frontier).
			Find(&rows).Error; err != nil {
			return false, err
		}
		next := make([]uuid.UUID, 0, len(rows))
		for _, edge := range rows {
			if edge.PrereqConceptID == conceptID {
				return true, nil
			}
			if !visited[edge.PrereqConceptID] {
				visited[edge.PrereqConceptID] = true
				next = append(next, edge.PrereqConceptID)
			}
		}
		frontier = next
	}
	return false, nil
}

func (r *prerequisiteRepo) GetByConceptIDs(ctx context.Context, tx *gorm.DB, conceptIDs []uuid.UUID) ([]*types.Prerequisite, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Prerequisite
	if len(conceptIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("concept_id IN ?", conceptIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
