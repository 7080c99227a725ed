package repos

import (
	"context"
	"testing"

	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/data/repos/testutil"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
)

func TestLoopAttemptCountAndLatest(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := testutil.SeedUser(t, ctx, tx, "attempts@test.local")
	loop := testutil.SeedLoop(t, ctx, tx, user.ID, types.PhaseFirstAttempt)

	repo := NewLoopAttemptRepo(gdb, testutil.Logger(t))

	count, err := repo.CountByLoop(dbc, loop.ID)
	if err != nil {
		t.Fatalf("CountByLoop(empty): %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
	latest, err := repo.LatestByLoop(dbc, loop.ID)
	if err != nil {
		t.Fatalf("LatestByLoop(empty): %v", err)
	}
	if latest != nil {
		t.Fatalf("latest should be nil with no attempts, got %+v", latest)
	}

	testutil.SeedAttempt(t, ctx, tx, loop.ID, 1, 60, []string{"glucose breakdown"})
	testutil.SeedAttempt(t, ctx, tx, loop.ID, 2, 88, []string{"glucose breakdown", "ATP yield"})

	count, err = repo.CountByLoop(dbc, loop.ID)
	if err != nil {
		t.Fatalf("CountByLoop: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	latest, err = repo.LatestByLoop(dbc, loop.ID)
	if err != nil || latest == nil {
		t.Fatalf("LatestByLoop: %v %v", latest, err)
	}
	if latest.AttemptNumber != 2 || latest.Score != 88 {
		t.Fatalf("latest = #%d score %d", latest.AttemptNumber, latest.Score)
	}

	list, err := repo.ListByLoop(dbc, loop.ID)
	if err != nil {
		t.Fatalf("ListByLoop: %v", err)
	}
	if len(list) != 2 || list[0].AttemptNumber != 1 || list[1].AttemptNumber != 2 {
		t.Fatalf("list not in attempt order: %+v", list)
	}
}

func TestLoopAttemptNumberUniquePerLoop(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := testutil.SeedUser(t, ctx, tx, "attempt-unique@test.local")
	loop := testutil.SeedLoop(t, ctx, tx, user.ID, types.PhaseFirstAttempt)

	repo := NewLoopAttemptRepo(gdb, testutil.Logger(t))
	testutil.SeedAttempt(t, ctx, tx, loop.ID, 1, 50, nil)

	dup := &types.LoopAttempt{
		LoopID:        loop.ID,
		AttemptNumber: 1,
		AttemptType:   types.AttemptTypeFullExplanation,
		Transcript:    "duplicate numbering",
		Score:         75,
	}
	// Savepoint keeps the outer test transaction usable after the
	// expected constraint violation.
	if err := tx.SavePoint("dup_attempt").Error; err != nil {
		t.Fatalf("savepoint: %v", err)
	}
	if err := repo.Create(dbc, dup); err == nil {
		t.Fatalf("duplicate (loop, attempt_number) should be rejected")
	}
	if err := tx.RollbackTo("dup_attempt").Error; err != nil {
		t.Fatalf("rollback to savepoint: %v", err)
	}

	// The same number on a different loop is fine.
	other := testutil.SeedLoop(t, ctx, tx, user.ID, types.PhaseFirstAttempt)
	testutil.SeedAttempt(t, ctx, tx, other.ID, 1, 75, nil)
}
