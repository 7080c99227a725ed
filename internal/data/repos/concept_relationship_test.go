package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/data/repos/testutil"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
)

func TestConceptRelationshipStrengthIncrements(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	from := testutil.SeedConcept(t, ctx, tx, "Glycolysis")
	to := testutil.SeedConcept(t, ctx, tx, "Pyruvate")

	repo := NewConceptRelationshipRepo(gdb, testutil.Logger(t))

	if err := repo.UpsertIncrementStrength(dbc, from.ID, to.ID, types.RelationshipRelated, 1); err != nil {
		t.Fatalf("UpsertIncrementStrength(first): %v", err)
	}
	if err := repo.UpsertIncrementStrength(dbc, from.ID, to.ID, types.RelationshipRelated, 1); err != nil {
		t.Fatalf("UpsertIncrementStrength(second): %v", err)
	}

	rows, err := repo.ListFrom(dbc, []uuid.UUID{from.ID})
	if err != nil {
		t.Fatalf("ListFrom: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one relationship row, got %d", len(rows))
	}
	if rows[0].Strength != 2 {
		t.Fatalf("strength = %d, want 2", rows[0].Strength)
	}

	// A different relationship type between the same pair is its own edge.
	if err := repo.UpsertIncrementStrength(dbc, from.ID, to.ID, types.RelationshipPartOf, 1); err != nil {
		t.Fatalf("UpsertIncrementStrength(other type): %v", err)
	}
	rows, err = repo.ListFrom(dbc, []uuid.UUID{from.ID})
	if err != nil {
		t.Fatalf("ListFrom(after other type): %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected two relationship rows, got %d", len(rows))
	}
}
