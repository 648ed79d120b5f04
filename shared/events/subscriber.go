package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/metrics"
)

type Handler func(ctx context.Context, event Event) error

// streamClient is the subset of redis commands a Subscriber issues.
type streamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// Subscriber reads one consumer group across one or more streams. A message is
// acknowledged only when the handler succeeds. Failed messages stay in the
// consumer's pending list and are read again from ID 0 once RetryDelay has
// passed; new messages are read with ">" only after that backlog is drained.
type Subscriber struct {
	client        streamClient
	log           *logger.Logger
	clock         clock.Clock
	group         string
	consumer      string
	streams       []string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
	retryDelay    time.Duration

	// backlog holds the per-stream cursor while re-reading pending entries;
	// nil means new messages are being read.
	backlog      map[string]string
	retryPending bool
	failedAt     time.Time
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Streams       []string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	RetryDelay    time.Duration
	Clock         clock.Clock
}

func NewSubscriber(client *redis.Client, log *logger.Logger, config SubscriberConfig) *Subscriber {
	return newSubscriber(client, log, config)
}

func newSubscriber(client streamClient, log *logger.Logger, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 5 * time.Second
	}
	if config.Clock == nil {
		config.Clock = clock.NewRealClock()
	}
	if len(config.Streams) == 0 {
		config.Streams = AllStreams
	}

	s := &Subscriber{
		client:        client,
		log:           log.With("group", config.Group, "consumer", config.Consumer),
		clock:         config.Clock,
		group:         config.Group,
		consumer:      config.Consumer,
		streams:       config.Streams,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
		retryDelay:    config.RetryDelay,
	}
	// Entries left pending by a previous run are handled first.
	s.startBacklog()
	return s
}

func (s *Subscriber) startBacklog() {
	s.backlog = make(map[string]string, len(s.streams))
	for _, stream := range s.streams {
		s.backlog[stream] = "0"
	}
	s.retryPending = false
}

func (s *Subscriber) Start(ctx context.Context) error {
	for _, stream := range s.streams {
		err := s.client.XGroupCreateMkStream(ctx, stream, s.group, "0").Err()
		if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("failed to create consumer group on %s: %w", stream, err)
		}
	}

	s.log.Info("subscriber started", "streams", s.streams)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("subscriber stopping")
			return ctx.Err()
		default:
			if err := s.readMessages(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				s.log.Warn("error reading messages", "error", err)
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

func (s *Subscriber) readMessages(ctx context.Context) error {
	if s.backlog == nil && s.retryPending && s.clock.Since(s.failedAt) >= s.retryDelay {
		s.startBacklog()
	}

	args := make([]string, 0, len(s.streams)*2)
	args = append(args, s.streams...)
	block := s.blockDuration
	for _, stream := range s.streams {
		if s.backlog != nil {
			args = append(args, s.backlog[stream])
		} else {
			args = append(args, ">")
		}
	}
	if s.backlog != nil {
		// Pending reads return immediately; a negative Block omits the option.
		block = -1
	}

	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  args,
		Count:    s.batchSize,
		Block:    block,
	}).Result()

	if errors.Is(err, redis.Nil) {
		s.backlog = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from streams: %w", err)
	}

	read := 0
	for _, stream := range streams {
		for _, message := range stream.Messages {
			read++
			if s.backlog != nil {
				s.backlog[stream.Stream] = message.ID
			}
			if err := s.processMessage(ctx, message); err != nil {
				metrics.EventsConsumedTotal.WithLabelValues(s.group, "error").Inc()
				s.log.Error("failed to process message", "stream", stream.Stream, "message_id", message.ID, "error", err)
				s.retryPending = true
				s.failedAt = s.clock.Now()
				continue
			}
			metrics.EventsConsumedTotal.WithLabelValues(s.group, "ok").Inc()

			if err := s.client.XAck(ctx, stream.Stream, s.group, message.ID).Err(); err != nil {
				s.log.Warn("failed to ack message", "stream", stream.Stream, "message_id", message.ID, "error", err)
			}
		}
	}

	if s.backlog != nil && read == 0 {
		s.backlog = nil
	}
	return nil
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	event, err := ParseMessage(message.Values)
	if err != nil {
		return err
	}
	return s.handler(ctx, event)
}

// ParseMessage decodes the "event" field of a stream entry.
func ParseMessage(values map[string]any) (Event, error) {
	var event Event
	eventData, ok := values["event"].(string)
	if !ok {
		return event, fmt.Errorf("invalid message format")
	}
	if err := json.Unmarshal([]byte(eventData), &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}
