package services

import (
	"context"
	"errors"
	"time"

	"github.com/yungbote/weave-backend/internal/realtime"
	"github.com/yungbote/weave-backend/internal/realtime/bus"
)

// ErrNotDelivered reports that no live connection took the event.
var ErrNotDelivered = errors.New("event not delivered")

// Emitter hands one envelope to the stream transport.
type Emitter interface {
	Emit(ctx context.Context, msg realtime.Message) error
}

// RegistryEmitter writes straight into this instance's registry.
type RegistryEmitter struct{ Registry *realtime.Registry }

func (e *RegistryEmitter) Emit(_ context.Context, msg realtime.Message) error {
	if e == nil || e.Registry == nil {
		return ErrNotDelivered
	}
	if e.Registry.Deliver(msg) == 0 {
		return ErrNotDelivered
	}
	return nil
}

// DefaultPublishTimeout caps a bus publish when BusEmitter.Timeout is unset.
const DefaultPublishTimeout = 250 * time.Millisecond

// BusEmitter publishes to every instance; each forwarder delivers locally.
// Each publish gets its own deadline so a slow broker cannot hold up the
// request that triggered the event.
type BusEmitter struct {
	Bus     bus.Bus
	Timeout time.Duration
}

func (e *BusEmitter) Emit(ctx context.Context, msg realtime.Message) error {
	if e == nil || e.Bus == nil {
		return ErrNotDelivered
	}
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return e.Bus.Publish(pctx, msg)
}
