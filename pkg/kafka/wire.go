package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"

	kafka_config "jdpanel/pkg/kafka/config"
	"jdpanel/pkg/logger"
)

// Dead-letter headers stamped on top of the original ones.
const (
	HeaderDLQError     = "dlq-error"
	HeaderDLQTimestamp = "dlq-timestamp"
	HeaderDLQGroup     = "dlq-consumer-group"
)

const dlqMaxAttempts = 3

type writerOptions struct {
	acks        kafka.RequiredAcks
	attempts    int
	batchWindow time.Duration
}

func newWriter(cfg *kafka_config.Config, topic string, opts writerOptions, log *logger.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: opts.acks,
		Compression:  compressionFor(cfg.ProducerCompression),
		MaxAttempts:  opts.attempts,
		BatchTimeout: opts.batchWindow,
		Logger:       kafka.LoggerFunc(log.Debugf),
		ErrorLogger:  kafka.LoggerFunc(log.Printf),
	}
}

// newDLQWriter always waits for every replica; dead letters are the last copy.
func newDLQWriter(cfg *kafka_config.Config, topic string, log *logger.Logger) *kafka.Writer {
	if topic == "" {
		return nil
	}
	return newWriter(cfg, topic, writerOptions{acks: kafka.RequireAll, attempts: dlqMaxAttempts, batchWindow: cfg.ProducerBatchTimeout}, log)
}

func compressionFor(name string) compress.Compression {
	switch name {
	case "none":
		return compress.None
	case "gzip":
		return compress.Gzip
	case "lz4":
		return compress.Lz4
	case "zstd":
		return compress.Zstd
	default:
		return compress.Snappy
	}
}

func requiredAcksFor(n int) kafka.RequiredAcks {
	switch n {
	case 0:
		return kafka.RequireNone
	case 1:
		return kafka.RequireOne
	default:
		return kafka.RequireAll
	}
}

func toWire(msg Message, at time.Time) kafka.Message {
	out := kafka.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Value,
		Time:    at,
		Headers: make([]kafka.Header, 0, len(msg.Headers)),
	}
	for k, v := range msg.Headers {
		out.Headers = append(out.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return out
}

func fromWire(in kafka.Message) Message {
	msg := Message{
		Key:       string(in.Key),
		Value:     in.Value,
		Headers:   make(map[string]string, len(in.Headers)),
		Topic:     in.Topic,
		Partition: in.Partition,
		Offset:    in.Offset,
		Timestamp: in.Time,
	}
	for _, h := range in.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

// deadLetter copies msg and records where and why it failed. extra headers
// are applied last.
func deadLetter(msg Message, topic string, cause error, now time.Time, extra map[string]string) kafka.Message {
	headers := make(map[string]string, len(msg.Headers)+3+len(extra))
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = topic
	headers[HeaderDLQError] = cause.Error()
	headers[HeaderDLQTimestamp] = now.UTC().Format(time.RFC3339)
	for k, v := range extra {
		headers[k] = v
	}
	msg.Headers = headers
	return toWire(msg, now)
}

// chain wraps h so that mws[0] runs first.
func chain(h MessageHandler, mws []Middleware) MessageHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		mw, next := mws[i], h
		h = func(ctx context.Context, msg Message) error {
			return mw(ctx, msg, next)
		}
	}
	return h
}
