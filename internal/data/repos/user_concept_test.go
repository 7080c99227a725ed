package repos

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/echoloop-backend/internal/data/repos/testutil"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
)

func TestUserConceptUpsertProgress(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := testutil.SeedUser(t, ctx, tx, "upsert@test.local")
	concept := testutil.SeedConcept(t, ctx, tx, "Photosynthesis")

	repo := NewUserConceptRepo(gdb, testutil.Logger(t))

	update := ProgressUpdate{MasteryScore: 70, TimesEncountered: 1, TimesDemonstrated: 1, Demonstrated: true}
	if err := repo.UpsertProgress(dbc, user.ID, concept.ID, update); err != nil {
		t.Fatalf("UpsertProgress(create): %v", err)
	}

	row, err := repo.Get(dbc, user.ID, concept.ID)
	if err != nil || row == nil {
		t.Fatalf("Get: %v %v", row, err)
	}
	if row.MasteryScore != 70 || row.TimesEncountered != 1 || row.TimesDemonstrated != 1 {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.LastSeenAt == nil || row.LastDemonstratedAt == nil {
		t.Fatalf("timestamps not stamped: %+v", row)
	}
	firstDemonstrated := *row.LastDemonstratedAt

	// Re-applying identical absolute values is idempotent: the caller owns
	// incrementing, not the upsert.
	if err := repo.UpsertProgress(dbc, user.ID, concept.ID, update); err != nil {
		t.Fatalf("UpsertProgress(repeat): %v", err)
	}
	row, err = repo.Get(dbc, user.ID, concept.ID)
	if err != nil || row == nil {
		t.Fatalf("Get(repeat): %v %v", row, err)
	}
	if row.TimesEncountered != 1 || row.TimesDemonstrated != 1 {
		t.Fatalf("counters drifted on identical re-apply: %+v", row)
	}

	// A non-demonstration update must preserve last_demonstrated_at.
	noDemo := ProgressUpdate{MasteryScore: 55, TimesEncountered: 2, TimesDemonstrated: 1, Demonstrated: false}
	if err := repo.UpsertProgress(dbc, user.ID, concept.ID, noDemo); err != nil {
		t.Fatalf("UpsertProgress(no demo): %v", err)
	}
	row, err = repo.Get(dbc, user.ID, concept.ID)
	if err != nil || row == nil {
		t.Fatalf("Get(no demo): %v %v", row, err)
	}
	if row.MasteryScore != 55 || row.TimesEncountered != 2 {
		t.Fatalf("absolute values not applied: %+v", row)
	}
	if row.LastDemonstratedAt == nil || !row.LastDemonstratedAt.Equal(firstDemonstrated) {
		t.Fatalf("last_demonstrated_at was not preserved: %v vs %v", row.LastDemonstratedAt, firstDemonstrated)
	}
}

func TestUserConceptSelectionQueries(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := testutil.SeedUser(t, ctx, tx, "queries@test.local")
	now := time.Now().UTC()
	fresh := now.Add(-2 * 24 * time.Hour)
	stale := now.Add(-10 * 24 * time.Hour)

	weak := testutil.SeedConcept(t, ctx, tx, "Krebs Cycle")
	strong := testutil.SeedConcept(t, ctx, tx, "ATP")
	staleOne := testutil.SeedConcept(t, ctx, tx, "Electron Transport")
	unseen := testutil.SeedConcept(t, ctx, tx, "Chlorophyll")

	testutil.SeedUserConcept(t, ctx, tx, user.ID, weak.ID, 30, 3, &fresh)
	testutil.SeedUserConcept(t, ctx, tx, user.ID, strong.ID, 90, 2, &fresh)
	testutil.SeedUserConcept(t, ctx, tx, user.ID, staleOne.ID, 70, 1, &stale)
	testutil.SeedUserConcept(t, ctx, tx, user.ID, unseen.ID, 0, 0, nil)

	repo := NewUserConceptRepo(gdb, testutil.Logger(t))

	needs, err := repo.NeedsReview(dbc, user.ID, now, 10)
	if err != nil {
		t.Fatalf("NeedsReview: %v", err)
	}
	// weak (mastery < 60) and staleOne (last seen > 7d); strong is neither,
	// unseen is excluded by times_encountered > 0.
	if len(needs) != 2 {
		t.Fatalf("NeedsReview len = %d", len(needs))
	}
	if needs[0].ConceptID != staleOne.ID {
		t.Fatalf("NeedsReview should order staleness-first, got %v", needs[0].ConceptID)
	}

	spots, err := repo.WeakSpots(dbc, user.ID, 10)
	if err != nil {
		t.Fatalf("WeakSpots: %v", err)
	}
	if len(spots) != 1 || spots[0].ConceptID != weak.ID {
		t.Fatalf("WeakSpots = %+v", spots)
	}

	recent, err := repo.RecentProgress(dbc, user.ID, now, 10)
	if err != nil {
		t.Fatalf("RecentProgress: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("RecentProgress len = %d", len(recent))
	}
}
