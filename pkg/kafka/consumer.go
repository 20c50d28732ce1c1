package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	kafka_config "jdpanel/pkg/kafka/config"
	"jdpanel/pkg/logger"
)

const (
	fetchErrorPause = time.Second
	retryStep       = 200 * time.Millisecond
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads one topic as part of a consumer group. Every fetched message
// is committed once handled, whether it succeeded or was dead-lettered, so a
// poison message never blocks the partition.
type Consumer struct {
	reader     messageReader
	dlq        messageWriter
	topic      string
	groupID    string
	dlqTopic   string
	maxRetries int
	handler    MessageHandler
	middleware []Middleware
	log        *logger.Logger
	now        func() time.Time

	mu      sync.RWMutex
	closed  bool
	running sync.WaitGroup
}

func NewConsumer(cfg *kafka_config.Config, topic string, groupID string, dlqTopic string, handler MessageHandler, log *logger.Logger) (*Consumer, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("kafka config cannot be nil")
	case !cfg.Enabled():
		return nil, ErrNoBrokers
	case topic == "":
		return nil, errors.New("consumer topic cannot be empty")
	case groupID == "":
		return nil, errors.New("consumer group ID cannot be empty")
	case handler == nil:
		return nil, errors.New("message handler cannot be nil")
	}

	c := &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           cfg.Brokers,
			Topic:             topic,
			GroupID:           groupID,
			MinBytes:          cfg.ConsumerMinBytes,
			MaxBytes:          cfg.ConsumerMaxBytes,
			MaxWait:           cfg.ConsumerMaxWait,
			CommitInterval:    cfg.ConsumerCommitInterval,
			HeartbeatInterval: cfg.ConsumerHeartbeatInterval,
			SessionTimeout:    cfg.ConsumerSessionTimeout,
			RebalanceTimeout:  cfg.ConsumerRebalanceTimeout,
			StartOffset:       cfg.ConsumerStartOffset,
			Logger:            kafka.LoggerFunc(log.Debugf),
			ErrorLogger:       kafka.LoggerFunc(log.Printf),
		}),
		topic:      topic,
		groupID:    groupID,
		dlqTopic:   dlqTopic,
		maxRetries: cfg.ConsumerMaxRetries,
		handler:    handler,
		log:        log,
		now:        time.Now,
	}
	if w := newDLQWriter(cfg, dlqTopic, log); w != nil {
		c.dlq = w
	}
	return c, nil
}

func (c *Consumer) Use(mw Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = append(c.middleware, mw)
}

// Start blocks until ctx is done or the reader fails for good.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	c.running.Add(1)
	c.mu.RUnlock()
	defer c.running.Done()

	for {
		in, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.log.Error("kafka consumer failed to fetch message", "topic", c.topic, "group_id", c.groupID, "error", err)
			if !sleep(ctx, fetchErrorPause) {
				return ctx.Err()
			}
			continue
		}

		msg := fromWire(in)
		if err := c.handle(ctx, msg); err != nil {
			c.log.Error("kafka consumer gave up on message",
				"topic", c.topic,
				"offset", msg.Offset,
				"key", msg.Key,
				"error", err,
			)
		}

		if err := c.reader.CommitMessages(ctx, in); err != nil {
			c.log.Error("kafka consumer failed to commit offset", "topic", c.topic, "offset", msg.Offset, "error", err)
		}
	}
}

// handle runs the middleware chain, retrying transient failures in place
// with a linear backoff. Anything else is dead-lettered.
func (c *Consumer) handle(ctx context.Context, msg Message) error {
	c.mu.RLock()
	run := chain(c.handler, c.middleware)
	c.mu.RUnlock()

	for {
		attempt := msg.GetRetryCount()
		err := run(ctx, msg)
		if err == nil {
			return nil
		}

		if !ShouldRetry(err, attempt, c.maxRetries) {
			c.deadLetter(ctx, msg, attempt, err)
			return err
		}

		msg.IncrementRetryCount()
		c.log.Warn("retrying message", "topic", c.topic, "attempt", attempt+1, "max_retries", c.maxRetries, "error", err)
		if !sleep(ctx, retryDelay(attempt)) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) deadLetter(ctx context.Context, msg Message, attempts int, cause error) {
	if c.dlq == nil {
		return
	}
	out := deadLetter(msg, c.topic, cause, c.now(), map[string]string{HeaderDLQGroup: c.groupID})
	if err := c.dlq.WriteMessages(ctx, out); err != nil {
		c.log.Error("failed to send message to DLQ", "topic", c.topic, "dlq_error", err, "error", cause)
		return
	}
	c.log.Warn("message sent to DLQ", "topic", c.topic, "dlq_topic", c.dlqTopic, "retries", attempts, "error", cause)
}

// Close waits for Start to return, so cancel its context first.
func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.running.Wait()

	err := c.reader.Close()
	if c.dlq != nil {
		err = errors.Join(err, c.dlq.Close())
	}
	return err
}

func retryDelay(attempt int) time.Duration {
	return time.Duration(attempt+1) * retryStep
}

// sleep reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
