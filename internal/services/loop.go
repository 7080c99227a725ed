package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/echoloop-backend/internal/clients/evaluation"
	"github.com/yungbote/echoloop-backend/internal/data/graph"
	"github.com/yungbote/echoloop-backend/internal/data/repos"
	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/platform/apierr"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
	"github.com/yungbote/echoloop-backend/internal/platform/neo4jdb"
	"github.com/yungbote/echoloop-backend/internal/realtime"
)

type CreateLoopInput struct {
	Title                string     `json:"title"`
	SourceText           string     `json:"source_text"`
	SourceType           string     `json:"source_type"`
	Precision            string     `json:"precision"`
	SubjectID            *uuid.UUID `json:"subject_id,omitempty"`
	AssessPriorKnowledge bool       `json:"assess_prior_knowledge"`
}

type SubmitAttemptInput struct {
	Transcript      string `json:"transcript"`
	DurationSeconds int    `json:"duration_seconds"`
	Persona         string `json:"persona,omitempty"`
}

// AttemptResult pairs the inserted ledger row with the loop state it moved
// the loop into.
type AttemptResult struct {
	Attempt *types.LoopAttempt  `json:"attempt"`
	Loop    *types.LearningLoop `json:"loop"`
}

type LoopService interface {
	CreateLoop(ctx context.Context, userID uuid.UUID, input CreateLoopInput) (*types.LearningLoop, error)
	GetLoop(dbc dbctx.Context, userID, loopID uuid.UUID) (*types.LearningLoop, []*types.LoopAttempt, error)
	ListLoops(dbc dbctx.Context, userID uuid.UUID, status string) ([]*types.LearningLoop, error)
	SubmitAttempt(ctx context.Context, userID, loopID uuid.UUID, input SubmitAttemptInput) (*AttemptResult, error)
	// AdvancePhase drives the continuation edges: results phases gate on the
	// latest attempt score, completion triggers the scheduler.
	AdvancePhase(ctx context.Context, userID, loopID uuid.UUID) (*types.LearningLoop, error)
	SubmitPriorKnowledge(ctx context.Context, userID, loopID uuid.UUID, transcript string) (*types.LearningLoop, error)
	SkipPriorKnowledge(ctx context.Context, userID, loopID uuid.UUID) (*types.LearningLoop, error)
	FinishReading(ctx context.Context, userID, loopID uuid.UUID) (*types.LearningLoop, error)
	ViewFocusAreas(ctx context.Context, userID, loopID uuid.UUID) (*types.LearningLoop, error)
	AbandonLoop(ctx context.Context, userID, loopID uuid.UUID) (*types.LearningLoop, error)

	// CompleteSocratic is the learning-phase exit used by SocraticService.
	CompleteSocratic(dbc dbctx.Context, userID, loopID uuid.UUID, skipped bool) (*types.LearningLoop, error)
}

type loopService struct {
	db               *gorm.DB
	log              *logger.Logger
	evalClient       evaluation.Client
	loopRepo         repos.LoopRepo
	attemptRepo      repos.LoopAttemptRepo
	conceptRepo      repos.ConceptRepo
	loopConceptRepo  repos.LoopConceptRepo
	relationshipRepo repos.ConceptRelationshipRepo
	knowledge        KnowledgeService
	reviews          ReviewService
	usage            UsageService
	emitter          SSEEmitter
	graphClient      *neo4jdb.Client
}

func NewLoopService(
	db *gorm.DB,
	log *logger.Logger,
	evalClient evaluation.Client,
	loopRepo repos.LoopRepo,
	attemptRepo repos.LoopAttemptRepo,
	conceptRepo repos.ConceptRepo,
	loopConceptRepo repos.LoopConceptRepo,
	relationshipRepo repos.ConceptRelationshipRepo,
	knowledge KnowledgeService,
	reviews ReviewService,
	usage UsageService,
	emitter SSEEmitter,
	graphClient *neo4jdb.Client,
) LoopService {
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	return &loopService{
		db:               db,
		log:              log.With("service", "LoopService"),
		evalClient:       evalClient,
		loopRepo:         loopRepo,
		attemptRepo:      attemptRepo,
		conceptRepo:      conceptRepo,
		loopConceptRepo:  loopConceptRepo,
		relationshipRepo: relationshipRepo,
		knowledge:        knowledge,
		reviews:          reviews,
		usage:            usage,
		emitter:          emitter,
		graphClient:      graphClient,
	}
}

func (s *loopService) CreateLoop(ctx context.Context, userID uuid.UUID, input CreateLoopInput) (*types.LearningLoop, error) {
	if userID == uuid.Nil {
		return nil, apierr.InvalidArgument(fmt.Errorf("missing user id"))
	}
	title := strings.TrimSpace(input.Title)
	sourceText := strings.TrimSpace(input.SourceText)
	if title == "" || sourceText == "" {
		return nil, apierr.InvalidArgument(fmt.Errorf("title and source_text are required"))
	}

	sourceType := input.SourceType
	switch sourceType {
	case types.SourceTypeArticle, types.SourceTypeVideo, types.SourceTypeBookChapter, types.SourceTypeLongForm:
	case "":
		sourceType = types.SourceTypeArticle
	default:
		return nil, apierr.InvalidArgument(fmt.Errorf("unknown source_type %q", input.SourceType))
	}

	precision := input.Precision
	switch precision {
	case types.PrecisionEssential, types.PrecisionBalanced, types.PrecisionPrecise:
	case "":
		precision = types.PrecisionBalanced
	default:
		return nil, apierr.InvalidArgument(fmt.Errorf("unknown precision %q", input.Precision))
	}

	// Extraction happens exactly once per loop; the result is cached on the
	// row and reused by every later evaluation.
	extraction, err := s.evalClient.ExtractConcepts(ctx, sourceText, precision)
	if err != nil {
		return nil, err
	}

	keyConceptsJSON, err := json.Marshal(extraction.KeyConcepts)
	if err != nil {
		return nil, fmt.Errorf("marshal key concepts: %w", err)
	}
	conceptMapJSON, err := json.Marshal(extraction.ConceptMap)
	if err != nil {
		return nil, fmt.Errorf("marshal concept map: %w", err)
	}
	focusAreasJSON, err := json.Marshal(extraction.FocusAreas)
	if err != nil {
		return nil, fmt.Errorf("marshal focus areas: %w", err)
	}

	mode := types.EntryModeForSource(sourceType)
	loop := &types.LearningLoop{
		ID:              uuid.New(),
		UserID:          userID,
		SubjectID:       input.SubjectID,
		Title:           title,
		SourceText:      sourceText,
		SourceWordCount: len(strings.Fields(sourceText)),
		SourceType:      sourceType,
		Precision:       precision,
		KeyConcepts:     datatypes.JSON(keyConceptsJSON),
		ConceptMap:      datatypes.JSON(conceptMapJSON),
		FocusAreas:      datatypes.JSON(focusAreasJSON),
		Status:          types.LoopStatusInProgress,
		EntryMode:       string(mode),
		CurrentPhase:    string(types.EntryPhase(mode, input.AssessPriorKnowledge)),
	}

	var (
		concepts []*types.Concept
		rels     []*types.ConceptRelationship
	)
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}

		if err := s.loopRepo.Create(inner, loop); err != nil {
			return fmt.Errorf("create loop: %w", err)
		}

		byNormalized := make(map[string]*types.Concept, len(extraction.KeyConcepts))
		loopConcepts := make([]*types.LoopConcept, 0, len(extraction.KeyConcepts))
		for _, kc := range extraction.KeyConcepts {
			concept, err := s.conceptRepo.UpsertByName(inner, kc.Name)
			if err != nil {
				return fmt.Errorf("upsert concept %q: %w", kc.Name, err)
			}
			if concept == nil {
				continue
			}
			if _, dup := byNormalized[concept.NormalizedName]; dup {
				continue
			}
			byNormalized[concept.NormalizedName] = concept
			concepts = append(concepts, concept)

			importance := kc.Importance
			if importance != types.ImportanceEssential {
				importance = types.ImportanceSupporting
			}
			loopConcepts = append(loopConcepts, &types.LoopConcept{
				ID:          uuid.New(),
				LoopID:      loop.ID,
				ConceptID:   concept.ID,
				Importance:  importance,
				Explanation: kc.Explanation,
			})
		}
		if err := s.loopConceptRepo.CreateBatch(inner, loopConcepts); err != nil {
			return fmt.Errorf("create loop concepts: %w", err)
		}

		for _, edge := range extraction.ConceptMap {
			from, okFrom := byNormalized[types.NormalizeConceptName(edge.From)]
			to, okTo := byNormalized[types.NormalizeConceptName(edge.To)]
			if !okFrom || !okTo || from.ID == to.ID {
				continue
			}
			relType := edge.Type
			switch relType {
			case types.RelationshipRelated, types.RelationshipPrerequisite, types.RelationshipPartOf:
			default:
				relType = types.RelationshipRelated
			}
			if err := s.relationshipRepo.UpsertIncrementStrength(inner, from.ID, to.ID, relType, 1); err != nil {
				return fmt.Errorf("upsert relationship: %w", err)
			}
			rels = append(rels, &types.ConceptRelationship{
				FromConceptID:    from.ID,
				ToConceptID:      to.ID,
				RelationshipType: relType,
				Strength:         1,
			})
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if s.graphClient != nil {
		if err := graph.UpsertConceptGraph(ctx, s.graphClient, s.log, loop.ID, concepts, rels); err != nil {
			s.log.Warn("neo4j concept mirror failed", "loop_id", loop.ID, "error", err)
		}
	}

	s.log.Info("loop created",
		"loop_id", loop.ID,
		"user_id", userID,
		"entry_mode", loop.EntryMode,
		"phase", loop.CurrentPhase,
		"concepts", len(concepts),
	)
	return loop, nil
}

func (s *loopService) GetLoop(dbc dbctx.Context, userID, loopID uuid.UUID) (*types.LearningLoop, []*types.LoopAttempt, error) {
	loop, err := s.ownedLoop(dbc, userID, loopID)
	if err != nil {
		return nil, nil, err
	}
	attempts, err := s.attemptRepo.ListByLoop(dbc, loopID)
	if err != nil {
		return nil, nil, err
	}
	return loop, attempts, nil
}

func (s *loopService) ListLoops(dbc dbctx.Context, userID uuid.UUID, status string) ([]*types.LearningLoop, error) {
	if userID == uuid.Nil {
		return nil, apierr.InvalidArgument(fmt.Errorf("missing user id"))
	}
	return s.loopRepo.ListByUser(dbc, userID, status)
}

func (s *loopService) SubmitAttempt(ctx context.Context, userID, loopID uuid.UUID, input SubmitAttemptInput) (*AttemptResult, error) {
	transcript := strings.TrimSpace(input.Transcript)
	if transcript == "" {
		return nil, apierr.InvalidArgument(fmt.Errorf("transcript is required"))
	}

	// Pre-flight contract check outside the transaction so an obviously
	// illegal submission never reaches the evaluation service.
	loop, err := s.ownedLoop(dbctx.Context{Ctx: ctx}, userID, loopID)
	if err != nil {
		return nil, err
	}
	phase, err := s.parsePhase(loop)
	if err != nil {
		return nil, err
	}
	if !types.AcceptsAttempt(phase) {
		return nil, apierr.ContractViolation(fmt.Errorf("phase %q does not accept attempts", phase))
	}
	if loop.Status != types.LoopStatusInProgress {
		return nil, apierr.ContractViolation(fmt.Errorf("loop status %q does not accept attempts", loop.Status))
	}

	if err := s.usage.ConsumeAttempt(ctx, userID); err != nil {
		return nil, err
	}

	var keyConcepts []evaluation.KeyConcept
	if len(loop.KeyConcepts) > 0 {
		if err := json.Unmarshal(loop.KeyConcepts, &keyConcepts); err != nil {
			return nil, apierr.DataIntegrity(fmt.Errorf("decode cached key concepts: %w", err))
		}
	}

	metrics := speechMetricsFor(transcript, input.DurationSeconds)
	eval, err := s.evalClient.EvaluateExplanation(ctx, evaluation.EvaluationRequest{
		SourceText:  loop.SourceText,
		Transcript:  transcript,
		Precision:   loop.Precision,
		AttemptType: types.AttemptTypeFor(phase),
		KeyConcepts: keyConcepts,
		Persona:     input.Persona,
		Metrics:     &metrics,
	})
	if err != nil {
		return nil, err
	}

	score := types.ComposeScore(eval.Coverage, eval.Accuracy)
	analysis := types.ExplanationAnalysis{
		CoveredPoints:  eval.CoveredPoints,
		MissedPoints:   eval.MissedPoints,
		Feedback:       eval.Feedback,
		DeliveryScript: eval.DeliveryScript,
	}
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return nil, fmt.Errorf("marshal speech metrics: %w", err)
	}

	var (
		attempt  *types.LoopAttempt
		evidence []ConceptEvidence
	)
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}

		// Row lock serializes attempt numbering and the phase write; the
		// unique (loop_id, attempt_number) index backstops it.
		locked, err := s.loopRepo.GetByIDForUpdate(inner, loopID)
		if err != nil {
			return err
		}
		if locked == nil || locked.UserID != userID {
			return apierr.NotFound(fmt.Errorf("loop not found"))
		}
		if locked.Status != types.LoopStatusInProgress {
			// Evaluation finished after the learner moved on; discard.
			return apierr.ContractViolation(fmt.Errorf("loop status %q does not accept attempts", locked.Status))
		}
		lockedPhase, err := s.parsePhase(locked)
		if err != nil {
			return err
		}
		if !types.AcceptsAttempt(lockedPhase) {
			return apierr.ContractViolation(fmt.Errorf("phase %q does not accept attempts", lockedPhase))
		}

		count, err := s.attemptRepo.CountByLoop(inner, loopID)
		if err != nil {
			return err
		}
		prior, err := s.attemptRepo.LatestByLoop(inner, loopID)
		if err != nil {
			return err
		}

		var scoreDelta *int
		newlyCovered := []string{}
		if prior != nil {
			delta := score - prior.Score
			scoreDelta = &delta
			newlyCovered = types.NewlyCovered(eval.CoveredPoints, coveredPointsOf(prior))
		}
		newlyCoveredJSON, err := json.Marshal(newlyCovered)
		if err != nil {
			return fmt.Errorf("marshal newly covered: %w", err)
		}

		attempt = &types.LoopAttempt{
			ID:              uuid.New(),
			LoopID:          loopID,
			AttemptNumber:   int(count) + 1,
			AttemptType:     types.AttemptTypeFor(lockedPhase),
			Transcript:      transcript,
			DurationSeconds: input.DurationSeconds,
			Score:           score,
			Coverage:        eval.Coverage,
			Accuracy:        eval.Accuracy,
			Analysis:        datatypes.JSON(analysisJSON),
			SpeechMetrics:   datatypes.JSON(metricsJSON),
			ScoreDelta:      scoreDelta,
			NewlyCovered:    datatypes.JSON(newlyCoveredJSON),
			Persona:         input.Persona,
		}
		if err := s.attemptRepo.Create(inner, attempt); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}

		loopConcepts, err := s.loopConceptRepo.ListByLoop(inner, loopID)
		if err != nil {
			return err
		}
		demonstratedIDs := matchConcepts(loopConcepts, eval.CoveredPoints)
		if err := s.loopConceptRepo.MarkDemonstrated(inner, loopID, demonstratedIDs, string(lockedPhase), time.Now().UTC()); err != nil {
			return fmt.Errorf("mark demonstrated: %w", err)
		}

		demonstratedSet := make(map[uuid.UUID]bool, len(demonstratedIDs))
		for _, id := range demonstratedIDs {
			demonstratedSet[id] = true
		}
		evidence = evidence[:0]
		for _, lc := range loopConcepts {
			evidence = append(evidence, ConceptEvidence{
				ConceptID:    lc.ConceptID,
				Demonstrated: demonstratedSet[lc.ConceptID],
				Score:        score,
			})
		}

		next, err := types.Next(types.EntryMode(locked.EntryMode), lockedPhase, types.EventAttemptSubmitted, score)
		if err != nil {
			return apierr.ContractViolation(err)
		}
		if err := s.loopRepo.UpdateFields(inner, loopID, map[string]interface{}{
			"current_phase": string(next),
		}); err != nil {
			return fmt.Errorf("advance phase: %w", err)
		}
		locked.CurrentPhase = string(next)
		loop = locked
		return nil
	}); err != nil {
		return nil, err
	}

	// Knowledge feed and events run post-commit; the ledger write is the
	// source of truth either way.
	if err := s.knowledge.RecordEvidence(dbctx.Context{Ctx: ctx}, userID, evidence); err != nil {
		s.log.Warn("knowledge feed failed", "loop_id", loopID, "error", err)
	}

	s.emitter.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventAttemptScored,
		Data: map[string]any{
			"loop_id":        loopID,
			"attempt_number": attempt.AttemptNumber,
			"score":          attempt.Score,
			"score_delta":    attempt.ScoreDelta,
		},
	})
	s.emitPhaseChanged(ctx, userID, loopID, loop.CurrentPhase)

	return &AttemptResult{Attempt: attempt, Loop: loop}, nil
}

func (s *loopService) AdvancePhase(ctx context.Context, userID, loopID uuid.UUID) (*types.LearningLoop, error) {
	var (
		completed bool
		schedule  *types.ReviewSchedule
	)
	loop, err := s.transition(ctx, userID, loopID, func(inner dbctx.Context, locked *types.LearningLoop, phase types.Phase) (types.Phase, error) {
		latest, err := s.attemptRepo.LatestByLoop(inner, loopID)
		if err != nil {
			return "", err
		}
		latestScore := 0
		if latest != nil {
			latestScore = latest.Score
		}
		next, err := types.Next(types.EntryMode(locked.EntryMode), phase, types.EventResultsContinued, latestScore)
		if err != nil {
			return "", apierr.ContractViolation(err)
		}
		completed = next == types.PhaseComplete
		return next, nil
	}, func(updates map[string]interface{}) {
		if completed {
			updates["status"] = types.LoopStatusMastered
		}
	}, func(inner dbctx.Context, locked *types.LearningLoop) error {
		if !completed {
			return nil
		}
		// Completion and its schedule commit together; complete is terminal,
		// so a failed schedule write must also roll the advance back.
		row, err := s.reviews.ScheduleForLoop(inner, userID, loopID)
		if err != nil {
			return fmt.Errorf("schedule review: %w", err)
		}
		schedule = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	if schedule != nil {
		s.emitter.Emit(ctx, realtime.SSEMessage{
			Channel: realtime.UserChannel(userID),
			Event:   realtime.SSEEventReviewScheduled,
			Data: map[string]any{
				"loop_id":        loopID,
				"interval_days":  schedule.IntervalDays,
				"next_review_at": schedule.NextReviewAt,
			},
		})
	}
	return loop, nil
}

func (s *loopService) SubmitPriorKnowledge(ctx context.Context, userID, loopID uuid.UUID, transcript string) (*types.LearningLoop, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, apierr.InvalidArgument(fmt.Errorf("transcript is required"))
	}

	loop, err := s.ownedLoop(dbctx.Context{Ctx: ctx}, userID, loopID)
	if err != nil {
		return nil, err
	}
	phase, err := s.parsePhase(loop)
	if err != nil {
		return nil, err
	}
	if phase != types.PhasePriorKnowledge {
		return nil, apierr.ContractViolation(fmt.Errorf("phase %q does not accept a prior-knowledge transcript", phase))
	}

	eval, err := s.evalClient.EvaluateExplanation(ctx, evaluation.EvaluationRequest{
		SourceText:  loop.SourceText,
		Transcript:  transcript,
		Precision:   loop.Precision,
		AttemptType: types.AttemptTypeFullExplanation,
	})
	if err != nil {
		return nil, err
	}
	score := types.ComposeScore(eval.Coverage, eval.Accuracy)
	analysisJSON, err := json.Marshal(types.ExplanationAnalysis{
		CoveredPoints:  eval.CoveredPoints,
		MissedPoints:   eval.MissedPoints,
		Feedback:       eval.Feedback,
		DeliveryScript: eval.DeliveryScript,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal prior-knowledge analysis: %w", err)
	}

	return s.transition(ctx, userID, loopID, func(inner dbctx.Context, locked *types.LearningLoop, lockedPhase types.Phase) (types.Phase, error) {
		next, err := types.Next(types.EntryMode(locked.EntryMode), lockedPhase, types.EventPriorKnowledgeEvaluated, score)
		if err != nil {
			return "", apierr.ContractViolation(err)
		}
		return next, nil
	}, func(updates map[string]interface{}) {
		updates["prior_knowledge_transcript"] = transcript
		updates["prior_knowledge_analysis"] = datatypes.JSON(analysisJSON)
		updates["prior_knowledge_score"] = score
	}, nil)
}

func (s *loopService) SkipPriorKnowledge(ctx context.Context, userID, loopID uuid.UUID) (*types.LearningLoop, error) {
	return s.transition(ctx, userID, loopID, func(inner dbctx.Context, locked *types.LearningLoop, phase types.Phase) (types.Phase, error) {
		next, err := types.Next(types.EntryMode(locked.EntryMode), phase, types.EventPriorKnowledgeSkipped, 0)
		if err != nil {
			return "", apierr.ContractViolation(err)
		}
		return next, nil
	}, func(updates map[string]interface{}) {
		// A skipped assessment is recorded as zero prior knowledge.
		updates["prior_knowledge_score"] = 0
	}, nil)
}

func (s *loopService) FinishReading(ctx context.Context, userID, loopID uuid.UUID) (*types.LearningLoop, error) {
	return s.simpleTransition(ctx, userID, loopID, types.EventReadingFinished)
}

func (s *loopService) ViewFocusAreas(ctx context.Context, userID, loopID uuid.UUID) (*types.LearningLoop, error) {
	return s.simpleTransition(ctx, userID, loopID, types.EventFocusAreasViewed)
}

func (s *loopService) AbandonLoop(ctx context.Context, userID, loopID uuid.UUID) (*types.LearningLoop, error) {
	dbc := dbctx.Context{Ctx: ctx}
	loop, err := s.ownedLoop(dbc, userID, loopID)
	if err != nil {
		return nil, err
	}
	if loop.Status == types.LoopStatusMastered {
		return nil, apierr.ContractViolation(fmt.Errorf("completed loop cannot be abandoned"))
	}
	if err := s.loopRepo.UpdateFields(dbc, loopID, map[string]interface{}{
		"status": types.LoopStatusAbandoned,
	}); err != nil {
		return nil, err
	}
	loop.Status = types.LoopStatusAbandoned
	s.log.Info("loop abandoned", "loop_id", loopID, "user_id", userID)
	return loop, nil
}

func (s *loopService) CompleteSocratic(dbc dbctx.Context, userID, loopID uuid.UUID, skipped bool) (*types.LearningLoop, error) {
	event := types.EventSocraticCompleted
	if skipped {
		event = types.EventSocraticSkipped
	}

	run := func(inner dbctx.Context) (*types.LearningLoop, error) {
		locked, err := s.loopRepo.GetByIDForUpdate(inner, loopID)
		if err != nil {
			return nil, err
		}
		if locked == nil || locked.UserID != userID {
			return nil, apierr.NotFound(fmt.Errorf("loop not found"))
		}
		phase, err := s.parsePhase(locked)
		if err != nil {
			return nil, err
		}
		next, err := types.Next(types.EntryMode(locked.EntryMode), phase, event, 0)
		if err != nil {
			return nil, apierr.ContractViolation(err)
		}
		if err := s.loopRepo.UpdateFields(inner, loopID, map[string]interface{}{
			"current_phase": string(next),
		}); err != nil {
			return nil, err
		}
		locked.CurrentPhase = string(next)
		return locked, nil
	}

	var loop *types.LearningLoop
	if dbc.Tx != nil {
		var err error
		loop, err = run(dbc)
		if err != nil {
			return nil, err
		}
	} else {
		if err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
			row, err := run(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
			if err != nil {
				return err
			}
			loop = row
			return nil
		}); err != nil {
			return nil, err
		}
	}

	s.emitPhaseChanged(dbc.Ctx, userID, loopID, loop.CurrentPhase)
	return loop, nil
}

// transition runs one lock-check-advance cycle: the decide callback picks the
// next phase, mutate (optional) adds extra column writes to the same update,
// and after (optional) runs further writes inside the same transaction so a
// phase advance and its side effects commit or roll back together.
func (s *loopService) transition(
	ctx context.Context,
	userID, loopID uuid.UUID,
	decide func(inner dbctx.Context, locked *types.LearningLoop, phase types.Phase) (types.Phase, error),
	mutate func(updates map[string]interface{}),
	after func(inner dbctx.Context, locked *types.LearningLoop) error,
) (*types.LearningLoop, error) {
	var loop *types.LearningLoop
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		locked, err := s.loopRepo.GetByIDForUpdate(inner, loopID)
		if err != nil {
			return err
		}
		if locked == nil || locked.UserID != userID {
			return apierr.NotFound(fmt.Errorf("loop not found"))
		}
		if locked.Status == types.LoopStatusAbandoned {
			return apierr.ContractViolation(fmt.Errorf("abandoned loop cannot advance"))
		}
		phase, err := s.parsePhase(locked)
		if err != nil {
			return err
		}

		next, err := decide(inner, locked, phase)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"current_phase": string(next),
		}
		if mutate != nil {
			mutate(updates)
		}
		if err := s.loopRepo.UpdateFields(inner, loopID, updates); err != nil {
			return err
		}
		locked.CurrentPhase = string(next)
		if status, ok := updates["status"].(string); ok {
			locked.Status = status
		}
		if after != nil {
			if err := after(inner, locked); err != nil {
				return err
			}
		}
		loop = locked
		return nil
	}); err != nil {
		return nil, err
	}

	s.emitPhaseChanged(ctx, userID, loopID, loop.CurrentPhase)
	return loop, nil
}

func (s *loopService) simpleTransition(ctx context.Context, userID, loopID uuid.UUID, event types.Event) (*types.LearningLoop, error) {
	return s.transition(ctx, userID, loopID, func(inner dbctx.Context, locked *types.LearningLoop, phase types.Phase) (types.Phase, error) {
		next, err := types.Next(types.EntryMode(locked.EntryMode), phase, event, 0)
		if err != nil {
			return "", apierr.ContractViolation(err)
		}
		return next, nil
	}, nil, nil)
}

func (s *loopService) ownedLoop(dbc dbctx.Context, userID, loopID uuid.UUID) (*types.LearningLoop, error) {
	if userID == uuid.Nil || loopID == uuid.Nil {
		return nil, apierr.InvalidArgument(fmt.Errorf("missing user or loop id"))
	}
	loop, err := s.loopRepo.GetByID(dbc, loopID)
	if err != nil {
		return nil, err
	}
	if loop == nil || loop.UserID != userID {
		return nil, apierr.NotFound(fmt.Errorf("loop not found"))
	}
	return loop, nil
}

func (s *loopService) parsePhase(loop *types.LearningLoop) (types.Phase, error) {
	phase, err := types.ParsePhase(types.EntryMode(loop.EntryMode), loop.CurrentPhase)
	if err != nil {
		// Persisted garbage is a data problem, not a caller bug.
		return "", apierr.DataIntegrity(err)
	}
	return phase, nil
}

func (s *loopService) emitPhaseChanged(ctx context.Context, userID, loopID uuid.UUID, phase string) {
	s.emitter.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventLoopPhaseChanged,
		Data: map[string]any{
			"loop_id": loopID,
			"phase":   phase,
		},
	})
}

func coveredPointsOf(attempt *types.LoopAttempt) []string {
	if attempt == nil || len(attempt.Analysis) == 0 {
		return nil
	}
	var analysis types.ExplanationAnalysis
	if err := json.Unmarshal(attempt.Analysis, &analysis); err != nil {
		return nil
	}
	return analysis.CoveredPoints
}

// matchConcepts maps covered-point strings onto the loop's concepts: a
// concept counts as demonstrated when a point equals its normalized name or
// contains it as a substring.
func matchConcepts(loopConcepts []*types.LoopConcept, coveredPoints []string) []uuid.UUID {
	normalizedPoints := make([]string, 0, len(coveredPoints))
	for _, p := range coveredPoints {
		if n := types.NormalizeConceptName(p); n != "" {
			normalizedPoints = append(normalizedPoints, n)
		}
	}

	out := make([]uuid.UUID, 0, len(loopConcepts))
	for _, lc := range loopConcepts {
		if lc == nil || lc.Concept == nil {
			continue
		}
		name := lc.Concept.NormalizedName
		if name == "" {
			continue
		}
		for _, p := range normalizedPoints {
			if p == name || strings.Contains(p, name) {
				out = append(out, lc.ConceptID)
				break
			}
		}
	}
	return out
}

func speechMetricsFor(transcript string, durationSeconds int) types.SpeechMetrics {
	words := strings.Fields(transcript)
	m := types.SpeechMetrics{WordCount: len(words)}
	if durationSeconds > 0 {
		m.WordsPerMinute = float64(len(words)) / (float64(durationSeconds) / 60.0)
	}
	for _, w := range words {
		switch strings.ToLower(strings.Trim(w, ".,!?")) {
		case "um", "uh", "er", "uhm", "hmm":
			m.FillerWords++
		}
	}
	return m
}
