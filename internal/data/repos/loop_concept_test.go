package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/data/repos/testutil"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
)

func TestLoopConceptMarkDemonstratedStampsOnce(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := testutil.SeedUser(t, ctx, tx, "demo-stamp@test.local")
	loop := testutil.SeedLoop(t, ctx, tx, user.ID, types.PhaseFirstAttempt)
	concept := testutil.SeedConcept(t, ctx, tx, "Osmosis")
	testutil.SeedLoopConcept(t, ctx, tx, loop.ID, concept.ID)

	repo := NewLoopConceptRepo(gdb, testutil.Logger(t))

	first := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	if err := repo.MarkDemonstrated(dbc, loop.ID, []uuid.UUID{concept.ID}, string(types.PhaseFirstAttempt), first); err != nil {
		t.Fatalf("MarkDemonstrated(first): %v", err)
	}

	// A later demonstration of the same concept keeps the first stamp.
	if err := repo.MarkDemonstrated(dbc, loop.ID, []uuid.UUID{concept.ID}, string(types.PhaseSecondAttempt), time.Now().UTC()); err != nil {
		t.Fatalf("MarkDemonstrated(second): %v", err)
	}

	rows, err := repo.ListByLoop(dbc, loop.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByLoop: %v rows=%d", err, len(rows))
	}
	row := rows[0]
	if !row.WasDemonstrated {
		t.Fatalf("was_demonstrated not set")
	}
	if row.DemonstratedInPhase != string(types.PhaseFirstAttempt) {
		t.Fatalf("phase stamp overwritten: %s", row.DemonstratedInPhase)
	}
	if row.DemonstratedAt == nil || !row.DemonstratedAt.Equal(first) {
		t.Fatalf("time stamp overwritten: %v", row.DemonstratedAt)
	}
	if row.Concept == nil || row.Concept.Name != "Osmosis" {
		t.Fatalf("concept not preloaded: %+v", row.Concept)
	}
}

func TestLoopConceptCreateBatchIgnoresDuplicates(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := testutil.SeedUser(t, ctx, tx, "batch@test.local")
	loop := testutil.SeedLoop(t, ctx, tx, user.ID, types.PhaseFirstAttempt)
	concept := testutil.SeedConcept(t, ctx, tx, "Diffusion")

	repo := NewLoopConceptRepo(gdb, testutil.Logger(t))
	rows := []*types.LoopConcept{
		{LoopID: loop.ID, ConceptID: concept.ID, Importance: types.ImportanceEssential},
	}
	if err := repo.CreateBatch(dbc, rows); err != nil {
		t.Fatalf("CreateBatch(first): %v", err)
	}
	if err := repo.CreateBatch(dbc, []*types.LoopConcept{
		{LoopID: loop.ID, ConceptID: concept.ID, Importance: types.ImportanceSupporting},
	}); err != nil {
		t.Fatalf("CreateBatch(duplicate): %v", err)
	}

	got, err := repo.ListByLoop(dbc, loop.ID)
	if err != nil {
		t.Fatalf("ListByLoop: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("duplicate join row inserted: %d", len(got))
	}
	if got[0].Importance != types.ImportanceEssential {
		t.Fatalf("original importance overwritten: %s", got[0].Importance)
	}
}

func TestLoopConceptCrossConnections(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := testutil.SeedUser(t, ctx, tx, "cross@test.local")
	loopA := testutil.SeedLoop(t, ctx, tx, user.ID, types.PhaseComplete)
	loopB := testutil.SeedLoop(t, ctx, tx, user.ID, types.PhaseComplete)

	shared := testutil.SeedConcept(t, ctx, tx, "Energy Transfer")
	single := testutil.SeedConcept(t, ctx, tx, "Mitochondria")

	testutil.SeedLoopConcept(t, ctx, tx, loopA.ID, shared.ID)
	testutil.SeedLoopConcept(t, ctx, tx, loopB.ID, shared.ID)
	testutil.SeedLoopConcept(t, ctx, tx, loopA.ID, single.ID)

	repo := NewLoopConceptRepo(gdb, testutil.Logger(t))
	conns, err := repo.CrossConnections(dbc, user.ID, 10)
	if err != nil {
		t.Fatalf("CrossConnections: %v", err)
	}
	if len(conns) != 1 {
		t.Fatalf("expected one cross-connection, got %d", len(conns))
	}
	if conns[0].ConceptID != shared.ID || conns[0].LoopCount != 2 {
		t.Fatalf("unexpected connection: %+v", conns[0])
	}

	// Another user's loops never leak in.
	other := testutil.SeedUser(t, ctx, tx, "cross-other@test.local")
	conns, err = repo.CrossConnections(dbc, other.ID, 10)
	if err != nil {
		t.Fatalf("CrossConnections(other): %v", err)
	}
	if len(conns) != 0 {
		t.Fatalf("cross-connections leaked across users: %+v", conns)
	}
}
