package bus

import (
	"context"

	"github.com/yungbote/echoloop-backend/internal/realtime"
)

// Bus fans SSE messages out across instances. A single-instance deploy can
// run without one; the hub alone covers local clients.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
