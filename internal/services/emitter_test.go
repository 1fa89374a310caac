package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/realtime"
)

// stalledBus never answers a publish until its context ends.
type stalledBus struct{ deadlineSet bool }

func (b *stalledBus) Publish(ctx context.Context, _ realtime.Message) error {
	_, b.deadlineSet = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func (b *stalledBus) StartForwarder(context.Context, func(realtime.Message)) error { return nil }
func (b *stalledBus) Close() error { return nil }

func TestBusEmitterBoundsPublish(t *testing.T) {
	b := &stalledBus{}
	e := &BusEmitter{Bus: b, Timeout: 20 * time.Millisecond}

	start := time.Now()
	err := e.Emit(context.Background(), realtime.Message{UserID: uuid.New(), Event: realtime.EventMessageCreated})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
	if !b.deadlineSet {
		t.Fatalf("publish context carried no deadline")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("publish not bounded: %v", elapsed)
	}
}

func TestBusEmitterDefaultTimeout(t *testing.T) {
	b := &stalledBus{}
	e := &BusEmitter{Bus: b}
	start := time.Now()
	if err := e.Emit(context.Background(), realtime.Message{Event: realtime.EventThreadUpdated}); err == nil {
		t.Fatalf("stalled publish should fail")
	}
	if elapsed := time.Since(start); elapsed < DefaultPublishTimeout/2 || elapsed > 5*DefaultPublishTimeout {
		t.Fatalf("default timeout not applied: %v", elapsed)
	}
}

func TestNilBusEmitterNotDelivered(t *testing.T) {
	var e *BusEmitter
	if err := e.Emit(context.Background(), realtime.Message{}); !errors.Is(err, ErrNotDelivered) {
		t.Fatalf("want ErrNotDelivered, got %v", err)
	}
}
