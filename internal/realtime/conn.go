package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type CloseReason string

const (
	ReasonReplaced     CloseReason = "replaced"
	ReasonCompleted    CloseReason = "completed"
	ReasonTimeout      CloseReason = "timeout"
	ReasonError        CloseReason = "error"
	ReasonOverflow     CloseReason = "overflow"
	ReasonClosed       CloseReason = "closed"
	ReasonDisconnected CloseReason = "disconnected"
)

// Conn is the single live stream of one user. Only the registry writes to
// outbound; the channel itself is never closed, done signals the end.
type Conn struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	OpenedAt time.Time

	outbound chan Message
	done     chan struct{}
	once     sync.Once

	mu     sync.Mutex
	reason CloseReason
}

func newConn(userID uuid.UUID, buffer int) *Conn {
	return &Conn{
		ID:       uuid.New(),
		UserID:   userID,
		OpenedAt: time.Now().UTC(),
		outbound: make(chan Message, buffer),
		done:     make(chan struct{}),
	}
}

func (c *Conn) Outbound() <-chan Message { return c.outbound }

func (c *Conn) Done() <-chan struct{} { return c.done }

// Reason is empty while the connection is live.
func (c *Conn) Reason() CloseReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// finish completes the connection once; later calls keep the first reason.
func (c *Conn) finish(reason CloseReason) bool {
	first := false
	c.once.Do(func() {
		c.mu.Lock()
		c.reason = reason
		c.mu.Unlock()
		close(c.done)
		first = true
	})
	return first
}

func (c *Conn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
