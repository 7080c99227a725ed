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
	"github.com/yungbote/echoloop-backend/internal/data/repos"
	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/platform/apierr"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
	"github.com/yungbote/echoloop-backend/internal/realtime"
)

// SocraticTurnResult is one exchange: the tutor's reply plus the session
// state it left behind.
type SocraticTurnResult struct {
	Session      *types.SocraticSession `json:"session"`
	Reply        string                 `json:"reply"`
	AllAddressed bool                   `json:"all_addressed"`
	Loop         *types.LearningLoop    `json:"loop,omitempty"`
}

type SocraticService interface {
	// StartSession opens the loop's remediation dialogue. Targets come from
	// the triggering attempt's missed points; an existing active session is
	// returned rather than duplicated.
	StartSession(ctx context.Context, userID, loopID uuid.UUID) (*types.SocraticSession, error)
	SendMessage(ctx context.Context, userID, sessionID uuid.UUID, content string) (*SocraticTurnResult, error)
	// SkipSession abandons the dialogue and forces the learning-phase exit.
	SkipSession(ctx context.Context, userID, sessionID uuid.UUID) (*types.LearningLoop, error)
}

type socraticService struct {
	db          *gorm.DB
	log         *logger.Logger
	evalClient  evaluation.Client
	sessionRepo repos.SocraticSessionRepo
	loopRepo    repos.LoopRepo
	attemptRepo repos.LoopAttemptRepo
	loops       LoopService
	emitter     SSEEmitter
}

func NewSocraticService(
	db *gorm.DB,
	log *logger.Logger,
	evalClient evaluation.Client,
	sessionRepo repos.SocraticSessionRepo,
	loopRepo repos.LoopRepo,
	attemptRepo repos.LoopAttemptRepo,
	loops LoopService,
	emitter SSEEmitter,
) SocraticService {
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	return &socraticService{
		db:          db,
		log:         log.With("service", "SocraticService"),
		evalClient:  evalClient,
		sessionRepo: sessionRepo,
		loopRepo:    loopRepo,
		attemptRepo: attemptRepo,
		loops:       loops,
		emitter:     emitter,
	}
}

func (s *socraticService) StartSession(ctx context.Context, userID, loopID uuid.UUID) (*types.SocraticSession, error) {
	if userID == uuid.Nil || loopID == uuid.Nil {
		return nil, apierr.InvalidArgument(fmt.Errorf("missing user or loop id"))
	}

	var session *types.SocraticSession
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}

		loop, err := s.loopRepo.GetByIDForUpdate(inner, loopID)
		if err != nil {
			return err
		}
		if loop == nil || loop.UserID != userID {
			return apierr.NotFound(fmt.Errorf("loop not found"))
		}
		if loop.CurrentPhase != string(types.PhaseLearning) {
			return apierr.ContractViolation(fmt.Errorf("phase %q has no socratic session", loop.CurrentPhase))
		}

		existing, err := s.sessionRepo.GetActiveByLoop(inner, loopID)
		if err != nil {
			return err
		}
		if existing != nil {
			session = existing
			return nil
		}

		latest, err := s.attemptRepo.LatestByLoop(inner, loopID)
		if err != nil {
			return err
		}
		if latest == nil {
			return apierr.ContractViolation(fmt.Errorf("no attempt to derive targets from"))
		}
		targets := missedPointsOf(latest)

		targetsJSON, err := json.Marshal(targets)
		if err != nil {
			return fmt.Errorf("marshal targets: %w", err)
		}
		session = &types.SocraticSession{
			ID:                uuid.New(),
			LoopID:            loopID,
			AttemptID:         &latest.ID,
			UserID:            userID,
			TargetConcepts:    datatypes.JSON(targetsJSON),
			ConceptsAddressed: datatypes.JSON([]byte(`[]`)),
			Messages:          datatypes.JSON([]byte(`[]`)),
			Status:            types.SocraticStatusActive,
		}
		return s.sessionRepo.Create(inner, session)
	}); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *socraticService) SendMessage(ctx context.Context, userID, sessionID uuid.UUID, content string) (*SocraticTurnResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apierr.InvalidArgument(fmt.Errorf("message content is required"))
	}

	session, loop, err := s.ownedActiveSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	turn, err := s.evalClient.SocraticTurn(ctx, evaluation.SocraticRequest{
		SourceText:     loop.SourceText,
		TargetConcepts: decodeStrings(session.TargetConcepts),
		History:        decodeMessages(session.Messages),
		LearnerMessage: content,
	})
	if err != nil {
		return nil, err
	}

	result := &SocraticTurnResult{Reply: turn.Reply}
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}

		// The loop lock serializes concurrent turns; merging against the
		// re-read row keeps the message list append-only.
		if _, err := s.loopRepo.GetByIDForUpdate(inner, session.LoopID); err != nil {
			return err
		}
		fresh, err := s.sessionRepo.GetByID(inner, sessionID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return apierr.NotFound(fmt.Errorf("socratic session not found"))
		}
		if fresh.Status != types.SocraticStatusActive {
			return apierr.ContractViolation(fmt.Errorf("session status %q is not active", fresh.Status))
		}

		now := time.Now().UTC()
		history := append(decodeMessages(fresh.Messages),
			types.SocraticMessage{Role: types.SocraticRoleLearner, Content: content, SentAt: now},
			types.SocraticMessage{Role: types.SocraticRoleTutor, Content: turn.Reply, SentAt: now},
		)
		// The addressed set only grows; a later turn can never un-address a
		// concept.
		addressed := types.MergeAddressed(decodeStrings(fresh.ConceptsAddressed), turn.ConceptsAddressed)
		done := types.AllAddressed(decodeStrings(fresh.TargetConcepts), addressed)
		result.AllAddressed = done

		messagesJSON, err := json.Marshal(history)
		if err != nil {
			return fmt.Errorf("marshal messages: %w", err)
		}
		addressedJSON, err := json.Marshal(addressed)
		if err != nil {
			return fmt.Errorf("marshal addressed: %w", err)
		}

		updates := map[string]interface{}{
			"messages":           datatypes.JSON(messagesJSON),
			"concepts_addressed": datatypes.JSON(addressedJSON),
		}
		if done {
			updates["status"] = types.SocraticStatusCompleted
		}
		if err := s.sessionRepo.UpdateFields(inner, sessionID, updates); err != nil {
			return err
		}

		if done {
			advanced, err := s.loops.CompleteSocratic(inner, userID, session.LoopID, false)
			if err != nil {
				return err
			}
			result.Loop = advanced
		}

		stored, err := s.sessionRepo.GetByID(inner, sessionID)
		if err != nil {
			return err
		}
		result.Session = stored
		return nil
	}); err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventSocraticReply,
		Data: map[string]any{
			"session_id":    sessionID,
			"loop_id":       session.LoopID,
			"all_addressed": result.AllAddressed,
		},
	})
	return result, nil
}

func (s *socraticService) SkipSession(ctx context.Context, userID, sessionID uuid.UUID) (*types.LearningLoop, error) {
	session, _, err := s.ownedActiveSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	var loop *types.LearningLoop
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.sessionRepo.UpdateFields(inner, sessionID, map[string]interface{}{
			"status": types.SocraticStatusAbandoned,
		}); err != nil {
			return err
		}
		advanced, err := s.loops.CompleteSocratic(inner, userID, session.LoopID, true)
		if err != nil {
			return err
		}
		loop = advanced
		return nil
	}); err != nil {
		return nil, err
	}
	return loop, nil
}

func (s *socraticService) ownedActiveSession(ctx context.Context, userID, sessionID uuid.UUID) (*types.SocraticSession, *types.LearningLoop, error) {
	if userID == uuid.Nil || sessionID == uuid.Nil {
		return nil, nil, apierr.InvalidArgument(fmt.Errorf("missing user or session id"))
	}
	dbc := dbctx.Context{Ctx: ctx}
	session, err := s.sessionRepo.GetByID(dbc, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil || session.UserID != userID {
		return nil, nil, apierr.NotFound(fmt.Errorf("socratic session not found"))
	}
	if session.Status != types.SocraticStatusActive {
		return nil, nil, apierr.ContractViolation(fmt.Errorf("session status %q is not active", session.Status))
	}
	loop, err := s.loopRepo.GetByID(dbc, session.LoopID)
	if err != nil {
		return nil, nil, err
	}
	if loop == nil {
		return nil, nil, apierr.DataIntegrity(fmt.Errorf("session %s references missing loop", sessionID))
	}
	if loop.Status != types.LoopStatusInProgress {
		return nil, nil, apierr.ContractViolation(fmt.Errorf("loop status %q has no active remediation", loop.Status))
	}
	return session, loop, nil
}

func missedPointsOf(attempt *types.LoopAttempt) []string {
	if attempt == nil || len(attempt.Analysis) == 0 {
		return []string{}
	}
	var analysis types.ExplanationAnalysis
	if err := json.Unmarshal(attempt.Analysis, &analysis); err != nil {
		return []string{}
	}
	if analysis.MissedPoints == nil {
		return []string{}
	}
	return analysis.MissedPoints
}

func decodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func decodeMessages(raw datatypes.JSON) []types.SocraticMessage {
	if len(raw) == 0 {
		return []types.SocraticMessage{}
	}
	var out []types.SocraticMessage
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []types.SocraticMessage{}
	}
	return out
}
