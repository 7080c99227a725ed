package repos

import (
	"context"
	"testing"

	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/data/repos/testutil"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
)

func TestLoopListByUserStatusFilter(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := testutil.SeedUser(t, ctx, tx, "loop-list@test.local")
	active := testutil.SeedLoop(t, ctx, tx, user.ID, types.PhaseFirstAttempt)
	done := testutil.SeedLoop(t, ctx, tx, user.ID, types.PhaseComplete)

	repo := NewLoopRepo(gdb, testutil.Logger(t))
	if err := repo.UpdateFields(dbc, done.ID, map[string]interface{}{
		"status": types.LoopStatusMastered,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	all, err := repo.ListByUser(dbc, user.ID, "")
	if err != nil {
		t.Fatalf("ListByUser(all): %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all len = %d", len(all))
	}

	completed, err := repo.ListByUser(dbc, user.ID, types.LoopStatusMastered)
	if err != nil {
		t.Fatalf("ListByUser(completed): %v", err)
	}
	if len(completed) != 1 || completed[0].ID != done.ID {
		t.Fatalf("completed filter wrong: %+v", completed)
	}

	// Soft-deleted loops drop out of listings and lookups.
	if err := tx.WithContext(ctx).Delete(&types.LearningLoop{}, "id = ?", active.ID).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	all, err = repo.ListByUser(dbc, user.ID, "")
	if err != nil {
		t.Fatalf("ListByUser(after delete): %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("soft-deleted loop still listed: %d", len(all))
	}
	row, err := repo.GetByID(dbc, active.ID)
	if err != nil {
		t.Fatalf("GetByID(deleted): %v", err)
	}
	if row != nil {
		t.Fatalf("soft-deleted loop still readable: %+v", row)
	}
}

func TestLoopUpdateFieldsAdvancesPhase(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := testutil.SeedUser(t, ctx, tx, "loop-update@test.local")
	loop := testutil.SeedLoop(t, ctx, tx, user.ID, types.PhaseFirstAttempt)

	repo := NewLoopRepo(gdb, testutil.Logger(t))
	if err := repo.UpdateFields(dbc, loop.ID, map[string]interface{}{
		"current_phase": string(types.PhaseFirstResults),
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	row, err := repo.GetByID(dbc, loop.ID)
	if err != nil || row == nil {
		t.Fatalf("GetByID: %v %v", row, err)
	}
	if row.CurrentPhase != string(types.PhaseFirstResults) {
		t.Fatalf("phase = %s", row.CurrentPhase)
	}
	if !row.UpdatedAt.After(loop.UpdatedAt) {
		t.Fatalf("updated_at not bumped: %v vs %v", row.UpdatedAt, loop.UpdatedAt)
	}
}
