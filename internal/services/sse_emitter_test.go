package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/echoloop-backend/internal/platform/logger"
	"github.com/yungbote/echoloop-backend/internal/realtime"
)

type captureBus struct {
	published []realtime.SSEMessage
}

func (b *captureBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	b.published = append(b.published, msg)
	return nil
}

func (b *captureBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	return nil
}

func (b *captureBus) Close() error { return nil }

func TestRedisEmitterPublishesToBus(t *testing.T) {
	bus := &captureBus{}
	emitter := &RedisEmitter{Bus: bus}

	userID := uuid.New()
	msg := realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventAttemptScored,
		Data:    map[string]any{"score": 90},
	}
	emitter.Emit(context.Background(), msg)

	if len(bus.published) != 1 {
		t.Fatalf("published messages: want=1 got=%d", len(bus.published))
	}
	got := bus.published[0]
	if got.Channel != msg.Channel || got.Event != msg.Event {
		t.Fatalf("message altered in transit: %+v", got)
	}
}

func TestHubEmitterDeliversLocally(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() { log.Sync() })

	hub := realtime.NewSSEHub(log)
	userID := uuid.New()
	client := hub.NewSSEClient(userID)
	hub.AddChannel(client, realtime.UserChannel(userID))

	emitter := &HubEmitter{Hub: hub}
	emitter.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventLoopPhaseChanged,
	})

	select {
	case got := <-client.Outbound:
		if got.Event != realtime.SSEEventLoopPhaseChanged {
			t.Fatalf("unexpected event: %s", got.Event)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for hub delivery")
	}
}
