package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	log, err := logger.New("development")
	require.NoError(t, err)
	return NewStore(nil, 1536, log)
}

func TestCreatePrerequisite_RejectsSelfLoop(t *testing.T) {
	s := testStore(t)

	err := s.CreatePrerequisite(context.Background(), "doc_c1", "doc_c1", RequirementStrong)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "own prerequisite")
}

func TestCreatePrerequisite_RejectsUnknownRequirement(t *testing.T) {
	s := testStore(t)

	err := s.CreatePrerequisite(context.Background(), "doc_c1", "doc_c2", "MANDATORY")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown requirement type")
}

func TestCreatePrerequisite_EmptyRequirementPassesValidation(t *testing.T) {
	s := testStore(t)

	// An empty requirement defaults to STRONG, so validation succeeds and
	// the unconfigured store is the first thing to complain.
	err := s.CreatePrerequisite(context.Background(), "doc_c1", "doc_c2", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver not configured")
}
