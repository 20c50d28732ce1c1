package kafka_middleware

import (
	"context"
	"time"

	"jdpanel/pkg/kafka"
	"jdpanel/pkg/logger"
)

// LoggingProducerMiddleware logs each booking event agenda publishes.
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return logged(log, "publish", func(msg kafka.Message) []any {
		return []any{"correlation_id", msg.GetCorrelationID()}
	})
}

// LoggingConsumerMiddleware logs each booking event contacts handles.
func LoggingConsumerMiddleware(log *logger.Logger) kafka.ConsumerMiddleware {
	return logged(log, "consume", func(msg kafka.Message) []any {
		return []any{"partition", msg.Partition, "offset", msg.Offset}
	})
}

func logged(log *logger.Logger, op string, extra func(kafka.Message) []any) kafka.Middleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		attrs := append([]any{
			"op", op,
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
		}, extra(msg)...)
		log.Debug("kafka "+op+" started", attrs...)

		start := time.Now()
		err := next(ctx, msg)
		attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())

		if err != nil {
			log.Error("kafka "+op+" failed", append(attrs, "error", err)...)
			return err
		}
		log.Info("kafka "+op+" done", attrs...)
		return nil
	}
}
