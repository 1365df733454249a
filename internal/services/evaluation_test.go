package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/studygraph-backend/internal/llm"
	"github.com/yungbote/studygraph-backend/internal/platform/apierr"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	require.NoError(t, err)
	return log
}

func apiError(t *testing.T, err error) *apierr.Error {
	t.Helper()
	var apiErr *apierr.Error
	require.True(t, errors.As(err, &apiErr))
	return apiErr
}

// stubModel implements openai.Client with a canned text reply.
type stubModel struct {
	reply string
	err   error
}

func (m *stubModel) GenerateText(ctx context.Context, system, user string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *stubModel) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (m *stubModel) EmbedOne(ctx context.Context, input string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (m *stubModel) Dimension(ctx context.Context) (int, error) { return 3, nil }

type fakeTicketRepo struct {
	tickets    map[int64]*types.Ticket
	getErr     error
	statusSets []string
}

func (f *fakeTicketRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Ticket) (*types.Ticket, error) {
	return row, nil
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Ticket, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.tickets[id], nil
}

func (f *fakeTicketRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []int64) ([]*types.Ticket, error) {
	var out []*types.Ticket
	for _, id := range ids {
		if t, ok := f.tickets[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, status, resolution string, at time.Time) error {
	f.statusSets = append(f.statusSets, fmt.Sprintf("%d:%s/%s", id, status, resolution))
	return nil
}

type fakeTicketCustomRepo struct {
	fields map[int64]map[string]string
}

func (f *fakeTicketCustomRepo) SetMany(ctx context.Context, tx *gorm.DB, ticketID int64, fields map[string]string) error {
	if f.fields == nil {
		f.fields = map[int64]map[string]string{}
	}
	if f.fields[ticketID] == nil {
		f.fields[ticketID] = map[string]string{}
	}
	for k, v := range fields {
		f.fields[ticketID][k] = v
	}
	return nil
}

func (f *fakeTicketCustomRepo) GetByTicketID(ctx context.Context, tx *gorm.DB, ticketID int64) (map[string]string, error) {
	return f.fields[ticketID], nil
}

func (f *fakeTicketCustomRepo) GetValue(ctx context.Context, tx *gorm.DB, ticketID int64, name string) (string, bool, error) {
	v, ok := f.fields[ticketID][name]
	return v, ok, nil
}

func (f *fakeTicketCustomRepo) FindTicketsByField(ctx context.Context, tx *gorm.DB, name, value string) ([]int64, error) {
	return nil, nil
}

type fakeTicketChangeRepo struct {
	rows []*types.TicketChange
}

func (f *fakeTicketChangeRepo) Append(ctx context.Context, tx *gorm.DB, rows []*types.TicketChange) error {
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeTicketChangeRepo) GetByTicketID(ctx context.Context, tx *gorm.DB, ticketID int64) ([]*types.TicketChange, error) {
	var out []*types.TicketChange
	for _, row := range f.rows {
		if row.TicketID == ticketID {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeConceptRecordRepo struct {
	byTicket map[int64]*types.ConceptRecord
}

func (f *fakeConceptRecordRepo) CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.ConceptRecord) ([]*types.ConceptRecord, error) {
	return rows, nil
}

func (f *fakeConceptRecordRepo) GetByTicketID(ctx context.Context, tx *gorm.DB, ticketID int64) (*types.ConceptRecord, error) {
	return f.byTicket[ticketID], nil
}

func (f *fakeConceptRecordRepo) GetByPathID(ctx context.Context, tx *gorm.DB, pathID uuid.UUID) ([]*types.ConceptRecord, error) {
	return nil, nil
}

func (f *fakeConceptRecordRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ConceptRecord, error) {
	return nil, nil
}

type fakeProgressRepo struct {
	rows map[string]*types.Progress
}

func progressKey(userID string, conceptID uuid.UUID) string {
	return userID + "|" + conceptID.String()
}

func (f *fakeProgressRepo) GetByUserAndConcept(ctx context.Context, tx *gorm.DB, userID string, conceptID uuid.UUID) (*types.Progress, error) {
	return f.rows[progressKey(userID, conceptID)], nil
}

func (f *fakeProgressRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]*types.Progress, error) {
	var out []*types.Progress
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) GetByUserAndTicket(ctx context.Context, tx *gorm.DB, userID string, ticketID int64) (*types.Progress, error) {
	for _, row := range f.rows {
		if row.UserID == userID && row.TicketID == ticketID {
			return row, nil
		}
	}
	return nil, nil
}

func (f *fakeProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Progress) error {
	if f.rows == nil {
		f.rows = map[string]*types.Progress{}
	}
	saved := *row
	f.rows[progressKey(row.UserID, row.ConceptID)] = &saved
	return nil
}

func evalReply(score string) string {
	return "SCORE: " + score + "\nFEEDBACK: Solid grasp of the main idea.\nSUGGESTIONS: Revisit the formal definition."
}

type evalHarness struct {
	tickets  *fakeTicketRepo
	custom   *fakeTicketCustomRepo
	changes  *fakeTicketChangeRepo
	concepts *fakeConceptRecordRepo
	progress *fakeProgressRepo
	model    *stubModel
	concept  *types.ConceptRecord
	svc      EvaluationService
}

const evalTicketID = int64(7)

func newEvalHarness(t *testing.T, reply string) *evalHarness {
	t.Helper()
	log := testLogger(t)

	h := &evalHarness{
		tickets: &fakeTicketRepo{tickets: map[int64]*types.Ticket{
			evalTicketID: {ID: evalTicketID, Status: "new", Summary: "graph traversal"},
		}},
		custom: &fakeTicketCustomRepo{fields: map[int64]map[string]string{
			evalTicketID: {
				"question":            "How does breadth first search order its visits?",
				"expected_answer":     "Breadth first search visits vertices level by level, nearest first.",
				"question_difficulty": "3",
			},
		}},
		changes:  &fakeTicketChangeRepo{},
		progress: &fakeProgressRepo{rows: map[string]*types.Progress{}},
		model:    &stubModel{reply: reply},
	}
	h.concept = &types.ConceptRecord{
		ConceptID:   uuid.New(),
		TicketID:    evalTicketID,
		ConceptName: "graph traversal",
	}
	h.concepts = &fakeConceptRecordRepo{byTicket: map[int64]*types.ConceptRecord{evalTicketID: h.concept}}

	cache := llm.NewResponseCache(nil, log)
	orch := llm.NewOrchestrator(h.model, cache, llm.NewCircuitBreaker(5, 30*time.Second, log), log)
	h.svc = NewEvaluationService(nil, h.tickets, h.custom, h.changes, h.concepts, h.progress, orch, cache, log)
	return h
}

func evalRequest() EvaluateRequest {
	return EvaluateRequest{
		TicketID:         evalTicketID,
		StudentAnswer:    "It visits vertices level by level starting from the source.",
		TimeSpentMinutes: 10,
	}
}

func TestEvaluate_ScoreAtThresholdMasters(t *testing.T) {
	h := newEvalHarness(t, evalReply("0.8"))

	res, err := h.svc.Evaluate(context.Background(), "user-1", evalRequest())
	require.NoError(t, err)

	assert.InDelta(t, 0.8, res.Score, 1e-9)
	assert.Equal(t, types.ProgressMastered, res.Status)
	assert.True(t, res.Mastered)

	row := h.progress.rows[progressKey("user-1", h.concept.ConceptID)]
	require.NotNil(t, row)
	assert.Equal(t, types.ProgressMastered, row.Status)
	assert.Equal(t, 1, row.AttemptCount)
	assert.Equal(t, 10, row.TimeSpentMinutes)
	require.NotNil(t, row.MasteryScore)
	assert.InDelta(t, 0.8, *row.MasteryScore, 1e-9)
	assert.NotNil(t, row.CompletedAt)
}

func TestEvaluate_ScoreBelowThresholdCompletes(t *testing.T) {
	h := newEvalHarness(t, evalReply("0.79"))

	res, err := h.svc.Evaluate(context.Background(), "user-1", evalRequest())
	require.NoError(t, err)

	assert.Equal(t, types.ProgressCompleted, res.Status)
	assert.False(t, res.Mastered)
	assert.Empty(t, h.tickets.statusSets)
	assert.Empty(t, h.changes.rows)
}

func TestEvaluate_RecordThresholdOverridesDefault(t *testing.T) {
	h := newEvalHarness(t, evalReply("0.85"))
	h.concept.MasteryThreshold = 0.9

	res, err := h.svc.Evaluate(context.Background(), "user-1", evalRequest())
	require.NoError(t, err)

	assert.Equal(t, types.ProgressCompleted, res.Status)
	assert.False(t, res.Mastered)
}

func TestEvaluate_MasteryClosesTicket(t *testing.T) {
	h := newEvalHarness(t, evalReply("0.92"))

	_, err := h.svc.Evaluate(context.Background(), "user-1", evalRequest())
	require.NoError(t, err)

	require.Equal(t, []string{"7:closed/fixed"}, h.tickets.statusSets)
	require.Len(t, h.changes.rows, 3)
	assert.Equal(t, "status", h.changes.rows[0].Field)
	assert.Equal(t, "new", h.changes.rows[0].OldValue)
	assert.Equal(t, "closed", h.changes.rows[0].NewValue)
	assert.Equal(t, "resolution", h.changes.rows[1].Field)
	assert.Equal(t, "fixed", h.changes.rows[1].NewValue)
	assert.Equal(t, "comment", h.changes.rows[2].Field)
}

func TestEvaluate_TicketClosureIsBestEffort(t *testing.T) {
	h := newEvalHarness(t, evalReply("0.95"))
	h.tickets.getErr = errors.New("connection reset")

	res, err := h.svc.Evaluate(context.Background(), "user-1", evalRequest())
	require.NoError(t, err)

	assert.True(t, res.Mastered)
	assert.Empty(t, h.tickets.statusSets)
	assert.Empty(t, h.changes.rows)
}

func TestEvaluate_AccumulatesAttemptsAndTime(t *testing.T) {
	h := newEvalHarness(t, evalReply("0.85"))
	completed := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	h.progress.rows[progressKey("user-1", h.concept.ConceptID)] = &types.Progress{
		UserID:           "user-1",
		ConceptID:        h.concept.ConceptID,
		TicketID:         evalTicketID,
		Status:           types.ProgressInProgress,
		AttemptCount:     2,
		TimeSpentMinutes: 30,
		CompletedAt:      &completed,
	}

	req := evalRequest()
	req.TimeSpentMinutes = 15
	_, err := h.svc.Evaluate(context.Background(), "user-1", req)
	require.NoError(t, err)

	row := h.progress.rows[progressKey("user-1", h.concept.ConceptID)]
	require.NotNil(t, row)
	assert.Equal(t, 3, row.AttemptCount)
	assert.Equal(t, 45, row.TimeSpentMinutes)
	require.NotNil(t, row.CompletedAt)
	assert.Equal(t, completed, *row.CompletedAt)
}

func TestEvaluate_UnknownQuestionIsNotFound(t *testing.T) {
	h := newEvalHarness(t, evalReply("0.8"))
	delete(h.custom.fields, evalTicketID)

	_, err := h.svc.Evaluate(context.Background(), "user-1", evalRequest())
	apiErr := apiError(t, err)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "question_not_found", apiErr.Code)
}

func TestEvaluate_MissingConceptRecordIsNotFound(t *testing.T) {
	h := newEvalHarness(t, evalReply("0.8"))
	delete(h.concepts.byTicket, evalTicketID)

	_, err := h.svc.Evaluate(context.Background(), "user-1", evalRequest())
	apiErr := apiError(t, err)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "ticket_not_found", apiErr.Code)
}

func TestEvaluate_ModelFailureUsesOfflineGrader(t *testing.T) {
	h := newEvalHarness(t, "")
	h.model.err = errors.New("upstream down")

	res, err := h.svc.Evaluate(context.Background(), "user-1", evalRequest())
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.NotEmpty(t, res.Feedback)
}

func TestEvaluate_Validation(t *testing.T) {
	h := newEvalHarness(t, evalReply("0.8"))

	_, err := h.svc.Evaluate(context.Background(), "", evalRequest())
	assert.Equal(t, http.StatusUnauthorized, apiError(t, err).Status)

	req := evalRequest()
	req.TicketID = 0
	_, err = h.svc.Evaluate(context.Background(), "user-1", req)
	assert.Equal(t, http.StatusBadRequest, apiError(t, err).Status)

	req = evalRequest()
	req.StudentAnswer = ""
	_, err = h.svc.Evaluate(context.Background(), "user-1", req)
	assert.Equal(t, http.StatusBadRequest, apiError(t, err).Status)
}

func TestHistory_UnknownTicketIsNotFound(t *testing.T) {
	h := newEvalHarness(t, evalReply("0.8"))

	_, err := h.svc.History(context.Background(), "user-1", 99)
	apiErr := apiError(t, err)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "history_not_found", apiErr.Code)
}
