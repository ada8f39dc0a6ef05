package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"neosure-anc-server/internal/config"
	"neosure-anc-server/internal/logger"
)

// Bus is a Publisher whose events can be forwarded to a local handler.
type Bus interface {
	Publisher
	// StartForwarder delivers every published event to onMsg until ctx is done.
	StartForwarder(ctx context.Context, onMsg func(Event)) error
	Close() error
}

// LocalBus broadcasts straight to an in-process hub.
type LocalBus struct {
	hub *Hub
}

func NewLocalBus(hub *Hub) *LocalBus {
	return &LocalBus{hub: hub}
}

func (b *LocalBus) Publish(ctx context.Context, event Event) error {
	return b.hub.Publish(ctx, event)
}

// StartForwarder is a no-op: Publish already reaches the hub.
func (b *LocalBus) StartForwarder(context.Context, func(Event)) error { return nil }

func (b *LocalBus) Close() error { return nil }

// RedisBus fans events out over a Redis pub/sub channel.
type RedisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisBus connects and pings Redis.
func NewRedisBus(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*RedisBus, error) {
	if !cfg.Enabled() {
		return nil, errors.New("missing REDIS_ADDR")
	}
	channel := cfg.Channel
	if channel == "" {
		channel = "neosure-events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisBus{
		log:     log.With("service", "RedisBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *RedisBus) Publish(ctx context.Context, event Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes and relays messages on a background goroutine.
// It returns once the subscription is confirmed.
func (b *RedisBus) StartForwarder(ctx context.Context, onMsg func(Event)) error {
	if onMsg == nil {
		return errors.New("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad redis event payload", "error", err)
					continue
				}
				onMsg(ev)
			}
		}
	}()
	return nil
}

func (b *RedisBus) Close() error {
	return b.rdb.Close()
}

// NewBus picks the Redis bus when configured and the in-process bus otherwise.
func NewBus(ctx context.Context, cfg config.RedisConfig, hub *Hub, log *logger.Logger) (Bus, error) {
	if !cfg.Enabled() {
		return NewLocalBus(hub), nil
	}
	bus, err := NewRedisBus(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return bus, nil
}
