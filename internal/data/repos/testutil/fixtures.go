package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/echoloop-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: "Test Learner",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedLoop(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, phase types.Phase) *types.LearningLoop {
	tb.Helper()
	l := &types.LearningLoop{
		ID:              uuid.New(),
		UserID:          userID,
		Title:           "Cellular Respiration",
		SourceText:      "Cells convert glucose into ATP through respiration.",
		SourceWordCount: 8,
		SourceType:      types.SourceTypeArticle,
		Precision:       types.PrecisionBalanced,
		Status:          types.LoopStatusInProgress,
		EntryMode:       string(types.EntryModeStandard),
		CurrentPhase:    string(phase),
		KeyConcepts:     datatypes.JSON([]byte(`[]`)),
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed loop: %v", err)
	}
	return l
}

func SeedAttempt(tb testing.TB, ctx context.Context, tx *gorm.DB, loopID uuid.UUID, number, score int, covered []string) *types.LoopAttempt {
	tb.Helper()
	analysis := types.ExplanationAnalysis{CoveredPoints: covered, MissedPoints: []string{}}
	raw, err := json.Marshal(analysis)
	if err != nil {
		tb.Fatalf("seed attempt analysis: %v", err)
	}
	a := &types.LoopAttempt{
		ID:            uuid.New(),
		LoopID:        loopID,
		AttemptNumber: number,
		AttemptType:   types.AttemptTypeFullExplanation,
		Transcript:    fmt.Sprintf("attempt %d transcript", number),
		Score:         score,
		Coverage:      float64(score) / 100,
		Accuracy:      float64(score) / 100,
		Analysis:      datatypes.JSON(raw),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed attempt: %v", err)
	}
	return a
}

func SeedConcept(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Concept {
	tb.Helper()
	c := &types.Concept{
		ID:             uuid.New(),
		Name:           name,
		NormalizedName: types.NormalizeConceptName(name),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed concept: %v", err)
	}
	return c
}

func SeedUserConcept(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, conceptID uuid.UUID, mastery float64, encountered int, lastSeen *time.Time) *types.UserConcept {
	tb.Helper()
	uc := &types.UserConcept{
		ID:               uuid.New(),
		UserID:           userID,
		ConceptID:        conceptID,
		MasteryScore:     mastery,
		TimesEncountered: encountered,
		LastSeenAt:       lastSeen,
	}
	if err := tx.WithContext(ctx).Create(uc).Error; err != nil {
		tb.Fatalf("seed user concept: %v", err)
	}
	return uc
}

func SeedLoopConcept(tb testing.TB, ctx context.Context, tx *gorm.DB, loopID, conceptID uuid.UUID) *types.LoopConcept {
	tb.Helper()
	lc := &types.LoopConcept{
		ID:         uuid.New(),
		LoopID:     loopID,
		ConceptID:  conceptID,
		Importance: types.ImportanceEssential,
	}
	if err := tx.WithContext(ctx).Create(lc).Error; err != nil {
		tb.Fatalf("seed loop concept: %v", err)
	}
	return lc
}
