package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/echoloop-backend/internal/data/graph"
	"github.com/yungbote/echoloop-backend/internal/data/repos"
	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
	"github.com/yungbote/echoloop-backend/internal/platform/neo4jdb"
)

// ConceptEvidence is one concept's outcome from an evaluated explanation.
type ConceptEvidence struct {
	ConceptID    uuid.UUID
	Demonstrated bool
	Score        int
}

// KnowledgeStats is the decayed aggregate over a user's concept graph.
type KnowledgeStats struct {
	TotalConcepts   int                      `json:"total_concepts"`
	AverageMastery  float64                  `json:"average_mastery"`
	Buckets         map[string]int           `json:"buckets"`
	CrossConnection []*repos.CrossConnection `json:"cross_connections"`
}

type KnowledgeService interface {
	// RecordEvidence folds one attempt's outcome into the per-user mastery
	// rows: every listed concept is an encounter, demonstrated ones take the
	// attempt score as their new raw mastery.
	RecordEvidence(dbc dbctx.Context, userID uuid.UUID, evidence []ConceptEvidence) error
	Stats(dbc dbctx.Context, userID uuid.UUID) (*KnowledgeStats, error)
	NeedsReview(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserConcept, error)
	WeakSpots(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserConcept, error)
	RecentProgress(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserConcept, error)
	CrossConnections(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*repos.CrossConnection, error)
}

type knowledgeService struct {
	db              *gorm.DB
	log             *logger.Logger
	userConceptRepo repos.UserConceptRepo
	loopConceptRepo repos.LoopConceptRepo
	graphClient     *neo4jdb.Client
}

func NewKnowledgeService(
	db *gorm.DB,
	log *logger.Logger,
	userConceptRepo repos.UserConceptRepo,
	loopConceptRepo repos.LoopConceptRepo,
	graphClient *neo4jdb.Client,
) KnowledgeService {
	return &knowledgeService{
		db:              db,
		log:             log.With("service", "KnowledgeService"),
		userConceptRepo: userConceptRepo,
		loopConceptRepo: loopConceptRepo,
		graphClient:     graphClient,
	}
}

func (s *knowledgeService) RecordEvidence(dbc dbctx.Context, userID uuid.UUID, evidence []ConceptEvidence) error {
	if userID == uuid.Nil {
		return fmt.Errorf("missing user id")
	}
	if len(evidence) == 0 {
		return nil
	}

	touched := make([]*types.UserConcept, 0, len(evidence))
	for _, ev := range evidence {
		if ev.ConceptID == uuid.Nil {
			continue
		}
		existing, err := s.userConceptRepo.Get(dbc, userID, ev.ConceptID)
		if err != nil {
			return fmt.Errorf("load user concept: %w", err)
		}

		update := repos.ProgressUpdate{
			TimesEncountered: 1,
			Demonstrated:     ev.Demonstrated,
		}
		if existing != nil {
			update.TimesEncountered = existing.TimesEncountered + 1
			update.TimesDemonstrated = existing.TimesDemonstrated
			update.MasteryScore = existing.MasteryScore
		}
		if ev.Demonstrated {
			update.TimesDemonstrated++
			// Raw mastery is the last evaluated value; decay happens at
			// read time.
			update.MasteryScore = float64(ev.Score)
		}

		if err := s.userConceptRepo.UpsertProgress(dbc, userID, ev.ConceptID, update); err != nil {
			return fmt.Errorf("upsert progress: %w", err)
		}
		row, err := s.userConceptRepo.Get(dbc, userID, ev.ConceptID)
		if err == nil && row != nil {
			touched = append(touched, row)
		}
	}

	// Graph mirror is best-effort; postgres stays authoritative.
	if s.graphClient != nil && len(touched) > 0 {
		if err := graph.UpsertUserConceptMastery(dbc.Ctx, s.graphClient, s.log, userID, touched); err != nil {
			s.log.Warn("neo4j mastery mirror failed", "user_id", userID, "error", err)
		}
	}
	return nil
}

func (s *knowledgeService) Stats(dbc dbctx.Context, userID uuid.UUID) (*KnowledgeStats, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id")
	}

	var (
		rows  []*types.UserConcept
		conns []*repos.CrossConnection
	)
	// Reads fan out on the pooled connection; a shared gorm Tx is not safe
	// across goroutines.
	g, gctx := errgroup.WithContext(dbc.Ctx)
	g.Go(func() error {
		var err error
		rows, err = s.userConceptRepo.ListByUser(dbctx.Context{Ctx: gctx}, userID)
		return err
	})
	g.Go(func() error {
		var err error
		conns, err = s.loopConceptRepo.CrossConnections(dbctx.Context{Ctx: gctx}, userID, 10)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stats := &KnowledgeStats{
		TotalConcepts: len(rows),
		Buckets: map[string]int{
			types.BucketMastered: 0,
			types.BucketLearning: 0,
			types.BucketNew:      0,
		},
		CrossConnection: conns,
	}
	var sum float64
	for _, r := range rows {
		effective := types.EffectiveMastery(r.MasteryScore, r.LastSeenAt, now)
		sum += effective
		stats.Buckets[types.MasteryBucket(effective)]++
	}
	if len(rows) > 0 {
		stats.AverageMastery = sum / float64(len(rows))
	}
	return stats, nil
}

func (s *knowledgeService) NeedsReview(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserConcept, error) {
	return s.userConceptRepo.NeedsReview(dbc, userID, time.Now().UTC(), limit)
}

func (s *knowledgeService) WeakSpots(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserConcept, error) {
	return s.userConceptRepo.WeakSpots(dbc, userID, limit)
}

func (s *knowledgeService) RecentProgress(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserConcept, error) {
	return s.userConceptRepo.RecentProgress(dbc, userID, time.Now().UTC(), limit)
}

func (s *knowledgeService) CrossConnections(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*repos.CrossConnection, error) {
	return s.loopConceptRepo.CrossConnections(dbc, userID, limit)
}
