package repos

import (
	"context"
	"testing"

	"github.com/yungbote/echoloop-backend/internal/data/repos/testutil"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
)

func TestConceptRepoDedupesOnNormalizedName(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewConceptRepo(gdb, testutil.Logger(t))

	first, err := repo.UpsertByName(dbc, "Photosynthesis")
	if err != nil || first == nil {
		t.Fatalf("UpsertByName(first): %v %v", first, err)
	}
	second, err := repo.UpsertByName(dbc, "photosynthesis ")
	if err != nil || second == nil {
		t.Fatalf("UpsertByName(second): %v %v", second, err)
	}
	if first.ID != second.ID {
		t.Fatalf("case/whitespace variants should merge: %s vs %s", first.ID, second.ID)
	}

	rows, err := repo.GetByNormalizedNames(dbc, []string{"photosynthesis"})
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByNormalizedNames: err=%v len=%d", err, len(rows))
	}
}

func TestConceptRepoBlankName(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewConceptRepo(gdb, testutil.Logger(t))
	row, err := repo.UpsertByName(dbc, "   ")
	if err != nil {
		t.Fatalf("UpsertByName(blank): %v", err)
	}
	if row != nil {
		t.Fatalf("blank name should not create a concept: %v", row)
	}
}
