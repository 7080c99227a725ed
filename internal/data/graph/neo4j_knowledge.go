package graph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
	"github.com/yungbote/echoloop-backend/internal/platform/neo4jdb"
)

// UpsertConceptGraph mirrors a loop's extracted concepts and their typed
// relationships into neo4j. Postgres stays the source of truth; a nil client
// makes this a no-op so the engine runs without a graph store.
func UpsertConceptGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, loopID uuid.UUID, concepts []*types.Concept, rels []*types.ConceptRelationship) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if loopID == uuid.Nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	nodes := make([]map[string]any, 0, len(concepts))
	for _, c := range concepts {
		if c == nil || c.ID == uuid.Nil {
			continue
		}
		nodes = append(nodes, map[string]any{
			"id":              c.ID.String(),
			"name":            c.Name,
			"normalized_name": c.NormalizedName,
			"loop_id":         loopID.String(),
			"synced_at":       now,
		})
	}

	edges := make([]map[string]any, 0, len(rels))
	for _, e := range rels {
		if e == nil || e.FromConceptID == uuid.Nil || e.ToConceptID == uuid.Nil || e.RelationshipType == "" {
			continue
		}
		edges = append(edges, map[string]any{
			"from_id":   e.FromConceptID.String(),
			"to_id":     e.ToConceptID.String(),
			"type":      e.RelationshipType,
			"strength":  int64(e.Strength),
			"synced_at": now,
		})
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	// Best-effort schema init.
	if res, err := session.Run(ctx, `CREATE CONSTRAINT concept_id_unique IF NOT EXISTS FOR (c:Concept) REQUIRE c.id IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if len(nodes) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $nodes AS n
MERGE (c:Concept {id: n.id})
SET c.name = n.name,
    c.normalized_name = n.normalized_name,
    c.synced_at = n.synced_at
WITH c, n
MERGE (l:Loop {id: n.loop_id})
SET l.synced_at = n.synced_at
MERGE (l)-[:COVERS]->(c)
`, map[string]any{"nodes": nodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(edges) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $edges AS e
MERGE (from:Concept {id: e.from_id})
MERGE (to:Concept {id: e.to_id})
MERGE (from)-[r:RELATES {type: e.type}]->(to)
SET r.strength = e.strength,
    r.synced_at = e.synced_at
`, map[string]any{"edges": edges})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// UpsertUserConceptMastery mirrors per-user mastery state onto
// (User)-[:MASTERY]->(Concept) edges.
func UpsertUserConceptMastery(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, userID uuid.UUID, rows []*types.UserConcept) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if userID == uuid.Nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	relRows := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		if r == nil || r.UserID == uuid.Nil || r.ConceptID == uuid.Nil {
			continue
		}
		if r.UserID != userID {
			continue
		}
		relRows = append(relRows, map[string]any{
			"user_id":            r.UserID.String(),
			"concept_id":         r.ConceptID.String(),
			"mastery":            r.MasteryScore,
			"times_encountered":  int64(r.TimesEncountered),
			"times_demonstrated": int64(r.TimesDemonstrated),
			"last_seen_at": func() string {
				if r.LastSeenAt == nil || r.LastSeenAt.IsZero() {
					return ""
				}
				return r.LastSeenAt.UTC().Format(time.RFC3339Nano)
			}(),
			"synced_at": now,
		})
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	if res, err := session.Run(ctx, `CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if res, err := tx.Run(ctx, `
MERGE (u:User {id: $user_id})
SET u.synced_at = $synced_at
`, map[string]any{"user_id": userID.String(), "synced_at": now}); err != nil {
			return nil, err
		} else if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		if len(relRows) == 0 {
			return nil, nil
		}

		res, err := tx.Run(ctx, `
UNWIND $rows AS r
MERGE (u:User {id: r.user_id})
MERGE (c:Concept {id: r.concept_id})
MERGE (u)-[m:MASTERY]->(c)
SET m.mastery = r.mastery,
    m.times_encountered = r.times_encountered,
    m.times_demonstrated = r.times_demonstrated,
    m.last_seen_at = r.last_seen_at,
    m.synced_at = r.synced_at
`, map[string]any{"rows": relRows})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}
