package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	kafka_config "jdpanel/pkg/kafka/config"
	"jdpanel/pkg/logger"
)

// Middleware intercepts a message on its way to a writer or a handler.
type Middleware func(ctx context.Context, msg Message, next MessageHandler) error

type (
	ProducerMiddleware = Middleware
	ConsumerMiddleware = Middleware
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes keyed messages to one topic. A failed write is copied to
// the dead-letter topic when one is configured, and the write error is still
// returned to the caller.
type Producer struct {
	writer     messageWriter
	dlq        messageWriter
	topic      string
	dlqTopic   string
	middleware []Middleware
	log        *logger.Logger
	now        func() time.Time

	mu     sync.RWMutex
	closed bool
}

func NewProducer(cfg *kafka_config.Config, topic string, dlqTopic string, log *logger.Logger) (*Producer, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("kafka config cannot be nil")
	case !cfg.Enabled():
		return nil, ErrNoBrokers
	case topic == "":
		return nil, errors.New("producer topic cannot be empty")
	}

	p := &Producer{
		writer: newWriter(cfg, topic, writerOptions{
			acks:        requiredAcksFor(cfg.ProducerRequireAcks),
			attempts:    cfg.ProducerMaxAttempts,
			batchWindow: cfg.ProducerBatchTimeout,
		}, log),
		topic:    topic,
		dlqTopic: dlqTopic,
		log:      log,
		now:      time.Now,
	}
	if w := newDLQWriter(cfg, dlqTopic, log); w != nil {
		p.dlq = w
	}
	return p, nil
}

func (p *Producer) Use(mw Middleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middleware = append(p.middleware, mw)
}

func (p *Producer) Publish(ctx context.Context, msg Message) error {
	p.mu.RLock()
	closed, mws := p.closed, p.middleware
	p.mu.RUnlock()

	if closed {
		return ErrProducerClosed
	}
	if err := msg.validate(); err != nil {
		return err
	}
	if msg.Topic == "" {
		msg.Topic = p.topic
	}

	return chain(p.write, mws)(ctx, msg)
}

func (p *Producer) write(ctx context.Context, msg Message) error {
	err := p.writer.WriteMessages(ctx, toWire(msg, msg.Timestamp))
	if err == nil || p.dlq == nil {
		return err
	}

	if dlqErr := p.dlq.WriteMessages(ctx, deadLetter(msg, p.topic, err, p.now(), nil)); dlqErr != nil {
		return fmt.Errorf("publish to %s: %w (dead-letter write failed: %v)", p.topic, err, dlqErr)
	}
	p.log.Warn("kafka message routed to DLQ", "topic", p.topic, "dlq_topic", p.dlqTopic, "key", msg.Key, "error", err)
	return err
}

// Close flushes and closes both writers. Calling it twice is a no-op.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	err := p.writer.Close()
	if p.dlq != nil {
		err = errors.Join(err, p.dlq.Close())
	}
	return err
}
