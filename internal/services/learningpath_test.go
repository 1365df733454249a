package services

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/studygraph-backend/internal/llm"
	"github.com/yungbote/studygraph-backend/internal/platform/apierr"
)

func validPathRequest() CreatePathRequest {
	return CreatePathRequest{
		UserID: "user-1",
		Query:  "graph basics",
		Chunks: []PathChunk{
			{ID: "c1", Content: "Vertices and edges.", Concept: "graphs", Score: 0.9},
		},
	}
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	var apiErr *apierr.Error
	require.True(t, errors.As(err, &apiErr))
	return apiErr.Status
}

func TestValidateCreatePath_AppliesDefaults(t *testing.T) {
	req := validPathRequest()
	require.NoError(t, validateCreatePath(&req))

	assert.Equal(t, 3, req.Difficulty)
	assert.Equal(t, "Learning path: graph basics", req.Title)
	assert.Equal(t, "vector_search", req.LearningType)
}

func TestValidateCreatePath_KeepsExplicitValues(t *testing.T) {
	req := validPathRequest()
	req.Difficulty = 5
	req.Title = "Graphs 101"
	req.LearningType = "manual"
	require.NoError(t, validateCreatePath(&req))

	assert.Equal(t, 5, req.Difficulty)
	assert.Equal(t, "Graphs 101", req.Title)
	assert.Equal(t, "manual", req.LearningType)
}

func TestValidateCreatePath_Rejections(t *testing.T) {
	req := validPathRequest()
	req.UserID = ""
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, validateCreatePath(&req)))

	req = validPathRequest()
	req.Query = ""
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, validateCreatePath(&req)))

	req = validPathRequest()
	req.Chunks = nil
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, validateCreatePath(&req)))

	req = validPathRequest()
	req.Chunks[0].Concept = ""
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, validateCreatePath(&req)))

	req = validPathRequest()
	req.Chunks[0].Score = -0.1
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, validateCreatePath(&req)))
}

func TestCannedQuestion(t *testing.T) {
	q := cannedQuestion("graph traversal", 4)

	assert.Equal(t, "What is the key concept in graph traversal?", q.Question)
	assert.Contains(t, q.ExpectedAnswer, "graph traversal")
	assert.Equal(t, 4, q.Difficulty)
	assert.Equal(t, llm.TypeComprehension, q.Type)
	assert.False(t, q.GeneratedAt.IsZero())
}
