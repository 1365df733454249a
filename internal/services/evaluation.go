package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/studygraph-backend/internal/db"
	"github.com/yungbote/studygraph-backend/internal/llm"
	"github.com/yungbote/studygraph-backend/internal/platform/apierr"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/repos"
	"github.com/yungbote/studygraph-backend/internal/types"
)

const defaultMasteryThreshold = 0.8

type EvaluateRequest struct {
	TicketID         int64  `json:"ticket_id"`
	StudentAnswer    string `json:"student_answer"`
	TimeSpentMinutes int    `json:"time_spent_minutes,omitempty"`
}

type EvaluateResult struct {
	TicketID    int64    `json:"ticket_id"`
	Score       float64  `json:"score"`
	Feedback    string   `json:"feedback"`
	Suggestions []string `json:"suggestions,omitempty"`
	Status      string   `json:"status"`
	Mastered    bool     `json:"mastered"`
	Fallback    bool     `json:"fallback,omitempty"`
	EvaluatedAt string   `json:"evaluated_at"`
}

type EvaluationHistory struct {
	TicketID int64                 `json:"ticket_id"`
	Progress *types.Progress       `json:"progress,omitempty"`
	Changes  []*types.TicketChange `json:"changes,omitempty"`
}

type EvaluationService interface {
	Evaluate(ctx context.Context, userID string, req EvaluateRequest) (*EvaluateResult, error)
	History(ctx context.Context, userID string, ticketID int64) (*EvaluationHistory, error)
}

type evaluationService struct {
	pg       *db.PostgresService
	tickets  repos.TicketRepo
	custom   repos.TicketCustomRepo
	changes  repos.TicketChangeRepo
	concepts repos.ConceptRecordRepo
	progress repos.ProgressRepo
	llm      *llm.Orchestrator
	cache    *llm.ResponseCache
	log      *logger.Logger
}

func NewEvaluationService(
	pg *db.PostgresService,
	tickets repos.TicketRepo,
	custom repos.TicketCustomRepo,
	changes repos.TicketChangeRepo,
	concepts repos.ConceptRecordRepo,
	progress repos.ProgressRepo,
	orchestrator *llm.Orchestrator,
	cache *llm.ResponseCache,
	baseLog *logger.Logger,
) EvaluationService {
	return &evaluationService{
		pg:       pg,
		tickets:  tickets,
		custom:   custom,
		changes:  changes,
		concepts: concepts,
		progress: progress,
		llm:      orchestrator,
		cache:    cache,
		log:      baseLog.With("service", "EvaluationService"),
	}
}

// Evaluate grades one answer and updates progress. Ticket closure and cache
// maintenance are best-effort; only the grade and the progress upsert can
// fail the call.
func (s *evaluationService) Evaluate(ctx context.Context, userID string, req EvaluateRequest) (*EvaluateResult, error) {
	if userID == "" {
		return nil, apierr.New(http.StatusUnauthorized, "missing_user", fmt.Errorf("user id is required"))
	}
	if req.TicketID <= 0 || req.StudentAnswer == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_request", fmt.Errorf("ticket_id and student_answer are required"))
	}

	fields, err := s.custom.GetByTicketID(ctx, nil, req.TicketID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "ticket_lookup_failed", err)
	}
	question := fields["question"]
	if question == "" {
		return nil, apierr.New(http.StatusNotFound, "question_not_found", fmt.Errorf("Question not found"))
	}
	difficulty, _ := strconv.Atoi(fields["question_difficulty"])

	eval, err := s.llm.EvaluateAnswer(ctx, llm.EvaluationRequest{
		Question:      question,
		Expected:      fields["expected_answer"],
		StudentAnswer: req.StudentAnswer,
		Context:       fields["question_context"],
		Difficulty:    difficulty,
	})
	if err != nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "evaluation_failed", err)
	}

	rec, err := s.concepts.GetByTicketID(ctx, nil, req.TicketID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "concept_lookup_failed", err)
	}
	if rec == nil {
		return nil, apierr.New(http.StatusNotFound, "ticket_not_found", fmt.Errorf("no concept record for ticket %d", req.TicketID))
	}

	threshold := rec.MasteryThreshold
	if threshold <= 0 {
		threshold = defaultMasteryThreshold
	}
	status := types.ProgressCompleted
	if eval.Score >= threshold {
		status = types.ProgressMastered
	}

	now := time.Now().UTC()
	err = runInTx(ctx, s.pg, func(tx *gorm.DB) error {
		existing, err := s.progress.GetByUserAndConcept(ctx, tx, userID, rec.ConceptID)
		if err != nil {
			return err
		}
		row := &types.Progress{
			UserID:    userID,
			ConceptID: rec.ConceptID,
			TicketID:  req.TicketID,
		}
		if existing != nil {
			*row = *existing
		}
		row.Status = status
		row.MasteryScore = &eval.Score
		row.AttemptCount++
		row.TimeSpentMinutes += req.TimeSpentMinutes
		row.LastAccessed = now
		if row.CompletedAt == nil {
			row.CompletedAt = &now
		}
		notes, _ := json.Marshal(map[string]string{
			"last_answer":    req.StudentAnswer,
			"last_feedback":  eval.Feedback,
			"last_evaluated": now.Format(time.RFC3339),
		})
		row.Notes = datatypes.JSON(notes)
		return s.progress.Upsert(ctx, tx, row)
	})
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "progress_update_failed", err)
	}

	if status == types.ProgressMastered {
		s.closeTicket(ctx, req.TicketID, eval.Score, now)
	}

	result := &EvaluateResult{
		TicketID:    req.TicketID,
		Score:       eval.Score,
		Feedback:    eval.Feedback,
		Suggestions: eval.Suggestions,
		Status:      status,
		Mastered:    status == types.ProgressMastered,
		Fallback:    eval.Fallback,
		EvaluatedAt: now.Format(time.RFC3339),
	}

	s.cache.Set(ctx, fmt.Sprintf("evaluation:%s:%d", userID, req.TicketID), result, time.Hour)
	s.invalidateDerived(ctx, userID, req.TicketID)

	s.log.Info("Answer evaluated",
		"ticket_id", req.TicketID,
		"user_id", userID,
		"score", eval.Score,
		"status", status,
	)
	return result, nil
}

// closeTicket transitions a mastered ticket to closed/fixed with a change
// log. Failures are logged, never propagated.
func (s *evaluationService) closeTicket(ctx context.Context, ticketID int64, score float64, at time.Time) {
	ticket, err := s.tickets.GetByID(ctx, nil, ticketID)
	if err != nil || ticket == nil {
		s.log.Warn("Ticket closure skipped", "ticket_id", ticketID, "error", err)
		return
	}
	if err := s.tickets.UpdateStatus(ctx, nil, ticketID, "closed", "fixed", at); err != nil {
		s.log.Warn("Ticket closure failed", "ticket_id", ticketID, "error", err)
		return
	}
	rows := []*types.TicketChange{
		{TicketID: ticketID, Time: at, Field: "status", Author: ticketReporter, OldValue: ticket.Status, NewValue: "closed"},
		{TicketID: ticketID, Time: at, Field: "resolution", Author: ticketReporter, OldValue: ticket.Resolution, NewValue: "fixed"},
		{TicketID: ticketID, Time: at, Field: "comment", Author: ticketReporter, NewValue: fmt.Sprintf("Concept mastered with score %.2f.", score)},
	}
	if err := s.changes.Append(ctx, nil, rows); err != nil {
		s.log.Warn("Ticket change log failed", "ticket_id", ticketID, "error", err)
	}
}

func (s *evaluationService) invalidateDerived(ctx context.Context, userID string, ticketID int64) {
	s.cache.DeletePrefix(ctx, "milestone_graph:")
	s.cache.DeletePrefix(ctx, fmt.Sprintf("user_progress:%s", userID))
	s.cache.Delete(ctx, fmt.Sprintf("ticket_progress:%d", ticketID))
}

func (s *evaluationService) History(ctx context.Context, userID string, ticketID int64) (*EvaluationHistory, error) {
	if ticketID <= 0 {
		return nil, apierr.New(http.StatusBadRequest, "invalid_ticket", fmt.Errorf("ticket_id is required"))
	}
	prog, err := s.progress.GetByUserAndTicket(ctx, nil, userID, ticketID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "progress_lookup_failed", err)
	}
	changes, err := s.changes.GetByTicketID(ctx, nil, ticketID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "history_lookup_failed", err)
	}
	if prog == nil && len(changes) == 0 {
		return nil, apierr.New(http.StatusNotFound, "history_not_found", fmt.Errorf("no history for ticket %d", ticketID))
	}
	return &EvaluationHistory{TicketID: ticketID, Progress: prog, Changes: changes}, nil
}
