package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/echoloop-backend/internal/clients/evaluation"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
	"github.com/yungbote/echoloop-backend/internal/platform/neo4jdb"
)

type Clients struct {
	Evaluation evaluation.Client
	Redis      *goredis.Client // nil when REDIS_ADDR unset
	Graph      *neo4jdb.Client // nil when NEO4J_URI unset
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	evalClient, err := evaluation.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init evaluation client: %w", err)
	}

	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:        cfg.RedisAddr,
			DialTimeout: 5 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			cancel()
			return Clients{}, fmt.Errorf("redis ping: %w", err)
		}
		cancel()
	}

	graph, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init neo4j client: %w", err)
	}

	return Clients{
		Evaluation: evalClient,
		Redis:      rdb,
		Graph:      graph,
	}, nil
}
