package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Handler func(ctx context.Context, event Event) error

type Subscriber struct {
	client        redis.Cmdable
	group         string
	consumer      string
	stream        string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
	claimMinIdle  time.Duration
	claimInterval time.Duration
	logger        *slog.Logger
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	// ClaimMinIdle is how long a delivered message may stay unacknowledged
	// before this consumer claims and retries it.
	ClaimMinIdle time.Duration
	// ClaimInterval is how often the pending list is scanned.
	ClaimInterval time.Duration
	Logger        *slog.Logger
}

func NewSubscriber(client redis.Cmdable, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}
	if config.ClaimMinIdle == 0 {
		config.ClaimMinIdle = 30 * time.Second
	}
	if config.ClaimInterval == 0 {
		config.ClaimInterval = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Subscriber{
		client:        client,
		group:         config.Group,
		consumer:      config.Consumer,
		stream:        config.Stream,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
		claimMinIdle:  config.ClaimMinIdle,
		claimInterval: config.ClaimInterval,
		logger:        config.Logger.With("stream", config.Stream, "group", config.Group),
	}
}

// Start consumes the stream until ctx is cancelled. Messages left pending by a
// failed handler or a crashed consumer are reclaimed at startup and then every
// claim interval.
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	s.logger.Info("subscriber started", "consumer", s.consumer)

	var lastClaim time.Time
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("subscriber stopping")
			return ctx.Err()
		default:
			if time.Since(lastClaim) >= s.claimInterval {
				if err := s.claimPending(ctx); err != nil && ctx.Err() == nil {
					s.logger.Warn("error claiming pending messages", "error", err)
				}
				lastClaim = time.Now()
			}
			if err := s.readMessages(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				s.logger.Error("error reading messages", "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (s *Subscriber) readMessages(ctx context.Context) error {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, ">"},
		Count:    s.batchSize,
		Block:    s.blockDuration,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		s.handleMessages(ctx, stream.Messages)
	}

	return nil
}

// claimPending walks the group's pending list and takes over every entry idle
// for at least claimMinIdle, retrying its handler.
func (s *Subscriber) claimPending(ctx context.Context) error {
	start := "0-0"
	for {
		messages, next, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   s.stream,
			Group:    s.group,
			Consumer: s.consumer,
			MinIdle:  s.claimMinIdle,
			Start:    start,
			Count:    s.batchSize,
		}).Result()
		if err != nil {
			return fmt.Errorf("failed to claim pending messages: %w", err)
		}

		if len(messages) > 0 {
			s.logger.Info("claimed pending messages", "count", len(messages))
		}
		s.handleMessages(ctx, messages)

		if next == "" || next == "0-0" || next == start {
			return nil
		}
		start = next
	}
}

// handleMessages acks every message whose handler succeeds. A failed message
// stays in the pending list until claimPending retries it.
func (s *Subscriber) handleMessages(ctx context.Context, messages []redis.XMessage) {
	for _, message := range messages {
		// Trimmed entries come back from a claim with no values.
		if message.Values != nil {
			if err := s.processMessage(ctx, message); err != nil {
				s.logger.Error("failed to process message", "messageId", message.ID, "error", err)
				continue
			}
		}

		if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
			s.logger.Warn("failed to ack message", "messageId", message.ID, "error", err)
		}
	}
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	event, err := decodeMessage(message)
	if err != nil {
		return err
	}
	return s.handler(ctx, event)
}

func decodeMessage(message redis.XMessage) (Event, error) {
	var event Event
	eventData, ok := message.Values["event"].(string)
	if !ok {
		return event, fmt.Errorf("invalid message format")
	}
	if err := json.Unmarshal([]byte(eventData), &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}
