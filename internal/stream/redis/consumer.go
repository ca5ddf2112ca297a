package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// resultMaxLen bounds the result stream; readers are expected to consume promptly.
const resultMaxLen = 10000

type Selector interface {
	Select(ctx context.Context, req models.SelectionRequest, baseURL string) (models.Outcome, error)
}

// streamClient is the subset of *redis.Client the consumer uses.
type streamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XDel(ctx context.Context, stream string, ids ...string) *redis.IntCmd
	Close() error
}

type Consumer struct {
	client       streamClient
	stream       string
	resultStream string
	groupID      string
	consumerName string
	baseURL      string
	selector     Selector
	logger       *zerolog.Logger
}

func NewConsumer(client streamClient, cfg *RedisStreamConfig, selector Selector, logger *zerolog.Logger) *Consumer {
	resultStream := cfg.ResultStream
	if resultStream == "" {
		resultStream = DefaultResultStream
	}
	return &Consumer{
		client:       client,
		stream:       cfg.Stream,
		resultStream: resultStream,
		groupID:      cfg.Group,
		consumerName: cfg.ConsumerName,
		baseURL:      cfg.IndexBaseURL,
		selector:     selector,
		logger:       logger,
	}
}

func (c *Consumer) Setup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.groupID, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("stream", c.stream).
		Str("results", c.resultStream).
		Str("group", c.groupID).
		Str("consumer", c.consumerName).
		Msg("Consumer started")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msgs, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupID,
			Consumer: c.consumerName,
			Streams:  []string{c.stream, ">"},
			Count:    1,
			Block:    2 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				// timeout, no message -> loop again
				continue
			}

			if ctx.Err() != nil {
				return ctx.Err() // context cancelled during block
			}

			c.logger.Error().Err(err).Msg("Failed to read from stream")
			continue
		}

		for _, msg := range msgs[0].Messages {
			c.process(ctx, msg)
		}
	}
}

func (c *Consumer) Stop() error {
	return c.client.Close()
}

func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	c.logger.Info().Str("id", msg.ID).Msg("Message received")

	payload, ok := msg.Values["payload"].(string)
	if !ok {
		c.logger.Error().Str("id", msg.ID).Msg("Missing payload field")
		c.ack(ctx, msg.ID)
		return
	}

	var req models.SelectionRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		c.logger.Error().Err(err).Str("id", msg.ID).Msg("Failed to decode message")
		c.ack(ctx, msg.ID) // bad message, ACK to skip it
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	outcome, err := c.selector.Select(ctx, req, c.baseURL)
	if err != nil {
		c.logger.Error().Err(err).Str("id", msg.ID).Str("request_id", req.RequestID).Msg("Selection failed")
		c.publish(ctx, map[string]any{
			"request_id": req.RequestID,
			"error":      err.Error(),
		})
		c.ack(ctx, msg.ID)
		return
	}

	data, err := json.Marshal(outcome)
	if err != nil {
		c.logger.Error().Err(err).Str("request_id", req.RequestID).Msg("Failed to encode outcome")
		c.ack(ctx, msg.ID)
		return
	}
	c.publish(ctx, map[string]any{
		"request_id": req.RequestID,
		"status":     string(outcome.Status),
		"outcome":    string(data),
	})

	c.logger.Info().
		Str("id", msg.ID).
		Str("request_id", req.RequestID).
		Str("status", string(outcome.Status)).
		Int("shortlist", len(outcome.Shortlist)).
		Msg("Selection complete")

	c.ack(ctx, msg.ID)
}

func (c *Consumer) publish(ctx context.Context, values map[string]any) {
	err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.resultStream,
		MaxLen: resultMaxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		c.logger.Error().Err(err).Any("request_id", values["request_id"]).Msg("Failed to publish result")
	}
}

// ack acknowledges and deletes the request entry so topics are not retained.
func (c *Consumer) ack(ctx context.Context, msgID string) {
	if err := c.client.XAck(ctx, c.stream, c.groupID, msgID).Err(); err != nil {
		c.logger.Error().Err(err).Str("id", msgID).Msg("Failed to ACK message")
	}
	if err := c.client.XDel(ctx, c.stream, msgID).Err(); err != nil {
		c.logger.Error().Err(err).Str("id", msgID).Msg("Failed to delete message")
	}
}
