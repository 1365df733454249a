package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/studygraph-backend/internal/db"
	"github.com/yungbote/studygraph-backend/internal/graph"
	"github.com/yungbote/studygraph-backend/internal/llm"
	"github.com/yungbote/studygraph-backend/internal/platform/apierr"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/repos"
	"github.com/yungbote/studygraph-backend/internal/types"
)

const (
	ticketReporter      = "learning-system"
	ticketTypeLearning  = "learning_concept"
	questionFanOutLimit = 4
)

// PathChunk is one retrieval result feeding path assembly.
type PathChunk struct {
	ID              string            `json:"id"`
	Content         string            `json:"content"`
	Concept         string            `json:"concept"`
	Subject         string            `json:"subject"`
	Score           float64           `json:"score"`
	HasPrerequisite []string          `json:"has_prerequisite,omitempty"`
	PrerequisiteFor []string          `json:"prerequisite_for,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

type CreatePathRequest struct {
	UserID       string      `json:"user_id"`
	Query        string      `json:"query"`
	Title        string      `json:"title,omitempty"`
	Difficulty   int         `json:"difficulty"`
	LearningType string      `json:"learning_type,omitempty"`
	Chunks       []PathChunk `json:"chunks"`
}

type CreatePathResult struct {
	PathID    uuid.UUID `json:"path_id"`
	TicketIDs []int64   `json:"ticket_ids"`
	Prereqs   int       `json:"prerequisites_created"`
}

type PathTicket struct {
	Ticket       *types.Ticket        `json:"ticket"`
	CustomFields map[string]string    `json:"custom_fields"`
	Concept      *types.ConceptRecord `json:"concept"`
	Progress     *types.Progress      `json:"progress,omitempty"`
}

type ProgressUpdate struct {
	Status           string   `json:"status,omitempty"`
	TimeSpentMinutes int      `json:"time_spent_minutes,omitempty"`
	MasteryScore     *float64 `json:"mastery_score,omitempty"`
}

type LearningPathService interface {
	CreatePath(ctx context.Context, req CreatePathRequest) (*CreatePathResult, error)
	CreatePathFromSearch(ctx context.Context, userID string, search SearchRequest, title string, difficulty int) (*CreatePathResult, error)
	GetPathTickets(ctx context.Context, userID string, pathID uuid.UUID) ([]PathTicket, error)
	UpdateProgress(ctx context.Context, userID string, ticketID int64, update ProgressUpdate) (*types.Progress, error)
}

type learningPathService struct {
	pg       *db.PostgresService
	paths    repos.LearningPathRepo
	tickets  repos.TicketRepo
	custom   repos.TicketCustomRepo
	concepts repos.ConceptRecordRepo
	prereqs  repos.PrerequisiteRepo
	progress repos.ProgressRepo
	llm      *llm.Orchestrator
	search   SearchService
	store    *graph.Store
	log      *logger.Logger
}

func NewLearningPathService(
	pg *db.PostgresService,
	paths repos.LearningPathRepo,
	tickets repos.TicketRepo,
	custom repos.TicketCustomRepo,
	concepts repos.ConceptRecordRepo,
	prereqs repos.PrerequisiteRepo,
	progress repos.ProgressRepo,
	orchestrator *llm.Orchestrator,
	search SearchService,
	store *graph.Store,
	baseLog *logger.Logger,
) LearningPathService {
	return &learningPathService{
		pg:       pg,
		paths:    paths,
		tickets:  tickets,
		custom:   custom,
		concepts: concepts,
		prereqs:  prereqs,
		progress: progress,
		llm:      orchestrator,
		search:   search,
		store:    store,
		log:      baseLog.With("service", "LearningPathService"),
	}
}

func validateCreatePath(req *CreatePathRequest) error {
	if req.UserID == "" {
		return apierr.New(http.StatusBadRequest, "missing_user", fmt.Errorf("user_id is required"))
	}
	if n := len(req.Query); n < 1 || n > maxQueryLength {
		return apierr.New(http.StatusBadRequest, "invalid_query", fmt.Errorf("query length must be in [1, %d]", maxQueryLength))
	}
	if len(req.Chunks) == 0 {
		return apierr.New(http.StatusBadRequest, "missing_chunks", fmt.Errorf("at least one chunk is required"))
	}
	for i, ch := range req.Chunks {
		if ch.ID == "" || ch.Content == "" || ch.Concept == "" {
			return apierr.New(http.StatusBadRequest, "invalid_chunk", fmt.Errorf("chunk %d missing id, content or concept", i))
		}
		if ch.Score < 0 {
			return apierr.New(http.StatusBadRequest, "invalid_chunk", fmt.Errorf("chunk %d has negative score", i))
		}
	}
	if req.Difficulty < 1 || req.Difficulty > 5 {
		req.Difficulty = 3
	}
	if req.Title == "" {
		req.Title = "Learning path: " + req.Query
	}
	if req.LearningType == "" {
		req.LearningType = "vector_search"
	}
	return nil
}

// generateQuestions fans out over chunks in parallel; slot i always holds a
// question for chunk i, canned when generation failed.
func (s *learningPathService) generateQuestions(ctx context.Context, req CreatePathRequest) []*llm.GeneratedQuestion {
	questions := make([]*llm.GeneratedQuestion, len(req.Chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(questionFanOutLimit)
	for i := range req.Chunks {
		g.Go(func() error {
			ch := req.Chunks[i]
			if s.llm != nil && s.llm.Available() {
				q, err := s.llm.GenerateQuestion(gctx, llm.QuestionRequest{
					ChunkText:  ch.Content,
					Concept:    ch.Concept,
					Difficulty: req.Difficulty,
				})
				if err == nil {
					questions[i] = q
					return nil
				}
				s.log.Warn("Question generation failed, using canned question", "concept", ch.Concept, "error", err)
			}
			questions[i] = cannedQuestion(ch.Concept, req.Difficulty)
			return nil
		})
	}
	// Workers never return errors; Wait only fans in.
	_ = g.Wait()
	return questions
}

func cannedQuestion(concept string, difficulty int) *llm.GeneratedQuestion {
	return &llm.GeneratedQuestion{
		Question:       fmt.Sprintf("What is the key concept in %s?", concept),
		ExpectedAnswer: fmt.Sprintf("A complete answer explains what %s is, why it matters, and how it is used in practice.", concept),
		Concept:        concept,
		Difficulty:     difficulty,
		Type:           llm.TypeComprehension,
		GeneratedAt:    time.Now().UTC(),
	}
}

// CreatePath builds the whole path in one SQL transaction: path row, one
// ticket plus custom fields per chunk, concept mirror rows in input order,
// then prerequisite rows resolved by concept name.
func (s *learningPathService) CreatePath(ctx context.Context, req CreatePathRequest) (*CreatePathResult, error) {
	if err := validateCreatePath(&req); err != nil {
		return nil, err
	}

	// Question generation happens outside the transaction so slow model
	// calls never hold row locks.
	questions := s.generateQuestions(ctx, req)

	result := &CreatePathResult{}
	err := runInTx(ctx, s.pg, func(tx *gorm.DB) error {
		path, err := s.paths.Create(ctx, tx, &types.LearningPath{
			UserID:     req.UserID,
			Title:      req.Title,
			Query:      req.Query,
			Difficulty: req.Difficulty,
		})
		if err != nil {
			return err
		}
		result.PathID = path.ID

		conceptRows := make([]*types.ConceptRecord, 0, len(req.Chunks))
		for i, ch := range req.Chunks {
			q := questions[i]
			ticket, err := s.tickets.Create(ctx, tx, &types.Ticket{
				Type:        ticketTypeLearning,
				Summary:     ch.Concept,
				Description: ch.Content,
				Status:      "new",
				Owner:       req.UserID,
				Reporter:    ticketReporter,
				Keywords:    fmt.Sprintf("learning,%s,%s", ch.Subject, ch.Concept),
			})
			if err != nil {
				return err
			}
			result.TicketIDs = append(result.TicketIDs, ticket.ID)

			fields := map[string]string{
				"question":            q.Question,
				"expected_answer":     q.ExpectedAnswer,
				"question_difficulty": strconv.Itoa(q.Difficulty),
				"question_context":    ch.Content,
				"chunk_id":            ch.ID,
				"cognito_user_id":     req.UserID,
				"relevance_score":     strconv.FormatFloat(ch.Score, 'f', 4, 64),
				"learning_type":       req.LearningType,
				"auto_generated":      "true",
			}
			for k, v := range ch.Metadata {
				fields["metadata_"+k] = v
			}
			if err := s.custom.SetMany(ctx, tx, ticket.ID, fields); err != nil {
				return err
			}

			tags, _ := json.Marshal([]string{ch.Subject, ch.Concept})
			conceptRows = append(conceptRows, &types.ConceptRecord{
				TicketID:      ticket.ID,
				PathID:        path.ID,
				ConceptName:   ch.Concept,
				SequenceOrder: i + 1,
				Tags:          datatypes.JSON(tags),
			})
		}

		conceptRows, err = s.concepts.CreateBatch(ctx, tx, conceptRows)
		if err != nil {
			return err
		}

		// First occurrence wins when a concept name repeats within a path.
		byName := map[string]uuid.UUID{}
		for _, row := range conceptRows {
			if _, ok := byName[row.ConceptName]; !ok {
				byName[row.ConceptName] = row.ConceptID
			}
		}
		for i, ch := range req.Chunks {
			conceptID := conceptRows[i].ConceptID
			for _, prereqName := range ch.HasPrerequisite {
				prereqID, ok := byName[prereqName]
				if !ok || prereqID == conceptID {
					continue
				}
				if _, err := s.prereqs.Create(ctx, tx, &types.Prerequisite{
					ConceptID:       conceptID,
					PrereqConceptID: prereqID,
					RequirementType: "STRONG",
				}); err != nil {
					return err
				}
				result.Prereqs++
			}
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(*apierr.Error); ok {
			return nil, err
		}
		return nil, apierr.New(http.StatusBadRequest, "path_creation_failed", err)
	}

	s.log.Info("Learning path created",
		"path_id", result.PathID,
		"user_id", req.UserID,
		"tickets", len(result.TicketIDs),
		"prerequisites", result.Prereqs,
	)
	return result, nil
}

// CreatePathFromSearch runs a vector search and feeds the hits into path
// assembly, carrying the graph's prerequisite arrays through.
func (s *learningPathService) CreatePathFromSearch(ctx context.Context, userID string, search SearchRequest, title string, difficulty int) (*CreatePathResult, error) {
	search.IncludePrerequisites = false
	search.IncludeDependents = false
	resp, err := s.search.Search(ctx, search)
	if err != nil {
		return nil, err
	}
	if len(resp.Hits) == 0 {
		return nil, apierr.New(http.StatusNotFound, "no_results", fmt.Errorf("no chunks matched query %q", search.Query))
	}

	chunks := make([]PathChunk, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		concept := hit.Chunk.ConceptName
		if concept == "" {
			concept = hit.Chunk.ID
		}
		chunks = append(chunks, PathChunk{
			ID:              hit.Chunk.ID,
			Content:         hit.Chunk.Text,
			Concept:         concept,
			Subject:         hit.Chunk.Subject,
			Score:           hit.Score,
			HasPrerequisite: s.prereqConceptNames(ctx, hit.Chunk.HasPrerequisite),
		})
	}
	return s.CreatePath(ctx, CreatePathRequest{
		UserID:     userID,
		Query:      search.Query,
		Title:      title,
		Difficulty: difficulty,
		Chunks:     chunks,
	})
}

// prereqConceptNames maps prerequisite chunk ids to their concept names via
// the graph, dropping unresolvable entries.
func (s *learningPathService) prereqConceptNames(ctx context.Context, chunkIDs []string) []string {
	if s.store == nil || !s.store.Available() {
		return nil
	}
	var out []string
	for _, id := range chunkIDs {
		chunk, err := s.store.GetChunk(ctx, id)
		if err != nil || chunk == nil || chunk.ConceptName == "" {
			continue
		}
		out = append(out, chunk.ConceptName)
	}
	return out
}

func (s *learningPathService) GetPathTickets(ctx context.Context, userID string, pathID uuid.UUID) ([]PathTicket, error) {
	path, err := s.paths.GetByID(ctx, nil, pathID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "path_lookup_failed", err)
	}
	if path == nil {
		return nil, apierr.New(http.StatusNotFound, "path_not_found", fmt.Errorf("learning path %s not found", pathID))
	}
	if path.UserID != userID {
		return nil, apierr.New(http.StatusForbidden, "forbidden", fmt.Errorf("path belongs to another user"))
	}

	records, err := s.concepts.GetByPathID(ctx, nil, pathID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "concept_lookup_failed", err)
	}

	out := make([]PathTicket, 0, len(records))
	for _, rec := range records {
		ticket, err := s.tickets.GetByID(ctx, nil, rec.TicketID)
		if err != nil {
			return nil, apierr.New(http.StatusInternalServerError, "ticket_lookup_failed", err)
		}
		if ticket == nil {
			continue
		}
		fields, err := s.custom.GetByTicketID(ctx, nil, rec.TicketID)
		if err != nil {
			return nil, apierr.New(http.StatusInternalServerError, "ticket_lookup_failed", err)
		}
		prog, err := s.progress.GetByUserAndTicket(ctx, nil, userID, rec.TicketID)
		if err != nil {
			return nil, apierr.New(http.StatusInternalServerError, "progress_lookup_failed", err)
		}
		out = append(out, PathTicket{
			Ticket:       ticket,
			CustomFields: fields,
			Concept:      rec,
			Progress:     prog,
		})
	}
	return out, nil
}

// UpdateProgress records manual progress on a ticket (marking in_progress,
// logging study time) without going through answer evaluation.
func (s *learningPathService) UpdateProgress(ctx context.Context, userID string, ticketID int64, update ProgressUpdate) (*types.Progress, error) {
	switch update.Status {
	case "", types.ProgressNotStarted, types.ProgressInProgress, types.ProgressCompleted, types.ProgressMastered:
	default:
		return nil, apierr.New(http.StatusBadRequest, "invalid_status", fmt.Errorf("unknown status %q", update.Status))
	}
	if update.MasteryScore != nil && (*update.MasteryScore < 0 || *update.MasteryScore > 1) {
		return nil, apierr.New(http.StatusBadRequest, "invalid_score", fmt.Errorf("mastery_score must be in [0,1]"))
	}

	rec, err := s.concepts.GetByTicketID(ctx, nil, ticketID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "concept_lookup_failed", err)
	}
	if rec == nil {
		return nil, apierr.New(http.StatusNotFound, "ticket_not_found", fmt.Errorf("no concept record for ticket %d", ticketID))
	}

	now := time.Now().UTC()
	existing, err := s.progress.GetByUserAndConcept(ctx, nil, userID, rec.ConceptID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "progress_lookup_failed", err)
	}

	row := &types.Progress{
		UserID:       userID,
		ConceptID:    rec.ConceptID,
		TicketID:     ticketID,
		Status:       types.ProgressInProgress,
		LastAccessed: now,
	}
	if existing != nil {
		*row = *existing
		row.LastAccessed = now
	}
	if update.Status != "" {
		row.Status = update.Status
	}
	if update.TimeSpentMinutes > 0 {
		row.TimeSpentMinutes += update.TimeSpentMinutes
	}
	if update.MasteryScore != nil {
		row.MasteryScore = update.MasteryScore
	}
	if (row.Status == types.ProgressCompleted || row.Status == types.ProgressMastered) && row.CompletedAt == nil {
		row.CompletedAt = &now
	}

	if err := s.progress.Upsert(ctx, nil, row); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "progress_update_failed", err)
	}
	return row, nil
}
