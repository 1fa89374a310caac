package bus

import (
	"context"

	"github.com/yungbote/weave-backend/internal/realtime"
)

// Bus carries stream envelopes between instances.
type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error
	Close() error
}
