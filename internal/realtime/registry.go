package realtime

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/platform/logger"
)

type Config struct {
	Shards      int
	Buffer      int
	IdleTimeout time.Duration
	Heartbeat   time.Duration
	// OnClose runs once per completed connection, outside shard locks.
	OnClose func(CloseReason)
}

func (c Config) withDefaults() Config {
	if c.Shards <= 0 {
		c.Shards = 32
	}
	if c.Buffer <= 0 {
		c.Buffer = 64
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 30 * time.Minute
	}
	if c.Heartbeat <= 0 {
		c.Heartbeat = 15 * time.Second
	}
	return c
}

type shard struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*Conn
}

// Registry maps each user to at most one live Conn. Keys are spread over
// independently locked shards, so operations on one user are serialized
// while unrelated users never contend on a global lock.
type Registry struct {
	log    *logger.Logger
	cfg    Config
	shards []*shard
}

func NewRegistry(log *logger.Logger, cfg Config) *Registry {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Nop()
	}
	r := &Registry{
		log:    log.With("component", "ConnectionRegistry"),
		cfg:    cfg,
		shards: make([]*shard, cfg.Shards),
	}
	for i := range r.shards {
		r.shards[i] = &shard{conns: make(map[uuid.UUID]*Conn)}
	}
	return r
}

func (r *Registry) Config() Config { return r.cfg }

func (r *Registry) shardFor(userID uuid.UUID) *shard {
	return r.shards[xxhash.Sum64(userID[:])%uint64(len(r.shards))]
}

// Open registers a fresh connection for userID. A previous live connection
// for the same user is completed with ReasonReplaced, never errored. The new
// connection starts with a connected event queued.
func (r *Registry) Open(userID uuid.UUID) *Conn {
	c := newConn(userID, r.cfg.Buffer)
	s := r.shardFor(userID)

	s.mu.Lock()
	prev := s.conns[userID]
	s.conns[userID] = c
	c.outbound <- Message{
		UserID: userID,
		Event:  EventConnected,
		Data:   map[string]any{"status": "connected", "userId": userID.String()},
	}
	s.mu.Unlock()

	if prev != nil {
		r.complete(prev, ReasonReplaced)
		r.log.Debug("stream replaced", "user_id", userID, "previous_conn", prev.ID, "conn", c.ID)
	}
	r.log.Debug("stream opened", "user_id", userID, "conn", c.ID)
	return c
}

// Send queues one event for userID without blocking. It reports false when
// the user has no live connection or the connection could not take the
// event; a connection whose buffer is full is retired.
func (r *Registry) Send(userID uuid.UUID, event Event, data any) bool {
	s := r.shardFor(userID)
	s.mu.Lock()
	c := s.conns[userID]
	if c == nil {
		s.mu.Unlock()
		return false
	}
	if c.closed() {
		delete(s.conns, userID)
		s.mu.Unlock()
		return false
	}
	select {
	case c.outbound <- Message{UserID: userID, Event: event, Data: data}:
		s.mu.Unlock()
		return true
	default:
	}
	delete(s.conns, userID)
	s.mu.Unlock()

	r.complete(c, ReasonOverflow)
	r.log.Warn("stream retired; outbound buffer full", "user_id", userID, "conn", c.ID, "event", event)
	return false
}

// Close completes the user's live connection, if any.
func (r *Registry) Close(userID uuid.UUID) {
	s := r.shardFor(userID)
	s.mu.Lock()
	c := s.conns[userID]
	delete(s.conns, userID)
	s.mu.Unlock()
	if c != nil {
		r.complete(c, ReasonClosed)
	}
}

// Release removes c if it is still the user's registered connection and
// then completes it. Completion, timeout and transport errors all end here.
func (r *Registry) Release(c *Conn, reason CloseReason) {
	if c == nil {
		return
	}
	s := r.shardFor(c.UserID)
	s.mu.Lock()
	if cur := s.conns[c.UserID]; cur == c {
		delete(s.conns, c.UserID)
	}
	s.mu.Unlock()
	if r.complete(c, reason) {
		r.log.Debug("stream released", "user_id", c.UserID, "conn", c.ID, "reason", reason)
	}
}

func (r *Registry) complete(c *Conn, reason CloseReason) bool {
	if !c.finish(reason) {
		return false
	}
	if r.cfg.OnClose != nil {
		r.cfg.OnClose(reason)
	}
	return true
}

func (r *Registry) Count() int {
	n := 0
	for _, s := range r.shards {
		s.mu.Lock()
		n += len(s.conns)
		s.mu.Unlock()
	}
	return n
}

// Snapshot lists the users live at call time.
func (r *Registry) Snapshot() []uuid.UUID {
	out := make([]uuid.UUID, 0)
	for _, s := range r.shards {
		s.mu.Lock()
		for uid := range s.conns {
			out = append(out, uid)
		}
		s.mu.Unlock()
	}
	return out
}

// Deliver routes an envelope into this instance's registry.
func (r *Registry) Deliver(m Message) int {
	if !m.Broadcast() {
		if r.Send(m.UserID, m.Event, m.Data) {
			return 1
		}
		return 0
	}
	n := 0
	for _, uid := range r.Snapshot() {
		if r.Send(uid, m.Event, m.Data) {
			n++
		}
	}
	return n
}
