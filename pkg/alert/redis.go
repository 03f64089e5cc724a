// Package alert publishes freshly observed fraud transactions to Redis so
// external consumers (notification bots, case management) can react without
// polling the dashboard. Publishing is strictly best-effort: a dead Redis
// degrades to log lines, never to a poller failure.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fraudwatch/pkg/logging"
	"fraudwatch/pkg/model"

	"github.com/redis/rueidis"
)

// Config holds Redis sink configuration.
type Config struct {
	// Addr is the Redis server address, e.g. "localhost:6379".
	Addr     string
	Username string
	Password string
	DB       int

	// Channel is the pub/sub channel alerts are published to.
	Channel string

	// ListKey is the capped list of recent alerts kept for late joiners.
	ListKey string

	// ListMax caps the recent-alert list length.
	ListMax int64

	// DialTimeout bounds the initial connection check.
	DialTimeout time.Duration
}

// DefaultConfig returns a local single-node configuration.
func DefaultConfig() Config {
	return Config{
		Addr:        "localhost:6379",
		Channel:     "fraudwatch:alerts",
		ListKey:     "fraudwatch:alerts:recent",
		ListMax:     500,
		DialTimeout: 5 * time.Second,
	}
}

// RedisSink publishes fraud alerts over Redis pub/sub and mirrors them into
// a capped list.
type RedisSink struct {
	client rueidis.Client
	config Config
	logger *logging.Logger
}

// NewRedisSink connects to Redis and verifies the connection.
func NewRedisSink(config Config) (*RedisSink, error) {
	if config.Addr == "" {
		return nil, fmt.Errorf("alert: redis address required")
	}
	if config.Channel == "" {
		config.Channel = DefaultConfig().Channel
	}
	if config.ListKey == "" {
		config.ListKey = DefaultConfig().ListKey
	}
	if config.ListMax <= 0 {
		config.ListMax = DefaultConfig().ListMax
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = DefaultConfig().DialTimeout
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{config.Addr},
		Username:    config.Username,
		Password:    config.Password,
		SelectDB:    config.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("alert: failed to create redis client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("alert: failed to ping redis: %w", err)
	}

	return &RedisSink{
		client: client,
		config: config,
		logger: logging.L().Named("alert"),
	}, nil
}

// Publish sends one fraud transaction to the channel and the recent list.
func (s *RedisSink) Publish(ctx context.Context, t model.Transaction) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("alert: marshal: %w", err)
	}
	body := string(payload)

	cmds := []rueidis.Completed{
		s.client.B().Publish().Channel(s.config.Channel).Message(body).Build(),
		s.client.B().Lpush().Key(s.config.ListKey).Element(body).Build(),
		s.client.B().Ltrim().Key(s.config.ListKey).Start(0).Stop(s.config.ListMax - 1).Build(),
	}
	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("alert: publish: %w", err)
		}
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisSink) Close() error {
	s.client.Close()
	return nil
}
