package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/weave-backend/internal/platform/logger"
	"github.com/yungbote/weave-backend/internal/realtime"
)

// RedisConfig configures the bus. PublishTimeout bounds one PUBLISH issued on
// a request path.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	Channel        string
	PublishTimeout time.Duration
}

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisBus(log *logger.Logger, cfg RedisConfig) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = "weave:stream"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisBus{
		log:     log.With("service", "RedisStreamBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.Message) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis stream bus not initialized")
	}
	raw, err := Encode(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis stream bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				msg, err := Decode([]byte(m.Payload))
				if err != nil {
					b.log.Warn("bad stream envelope", "error", err)
					continue
				}
				onMsg(msg)
			}
		}
	}()
	return nil
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

func Encode(msg realtime.Message) ([]byte, error) {
	if strings.TrimSpace(string(msg.Event)) == "" {
		return nil, fmt.Errorf("envelope missing event name")
	}
	return json.Marshal(msg)
}

// Decode keeps the payload as raw JSON so forwarding does not re-shape it.
func Decode(raw []byte) (realtime.Message, error) {
	var env struct {
		UserID string          `json:"userId"`
		Event  realtime.Event  `json:"event"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return realtime.Message{}, err
	}
	if strings.TrimSpace(string(env.Event)) == "" {
		return realtime.Message{}, fmt.Errorf("envelope missing event name")
	}
	msg := realtime.Message{Event: env.Event}
	if len(env.Data) > 0 {
		msg.Data = env.Data
	}
	if s := strings.TrimSpace(env.UserID); s != "" {
		if err := msg.UserID.UnmarshalText([]byte(s)); err != nil {
			return realtime.Message{}, fmt.Errorf("envelope user id: %w", err)
		}
	}
	return msg, nil
}
