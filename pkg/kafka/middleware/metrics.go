package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"jdpanel/pkg/kafka"
)

type counter struct {
	ok     atomic.Int64
	failed atomic.Int64
	nanos  atomic.Int64
}

func (c *counter) observe(start time.Time, err error) {
	c.nanos.Add(int64(time.Since(start)))
	if err != nil {
		c.failed.Add(1)
		return
	}
	c.ok.Add(1)
}

func (c *counter) average() time.Duration {
	n := c.ok.Load() + c.failed.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(c.nanos.Load() / n)
}

func (c *counter) reset() {
	c.ok.Store(0)
	c.failed.Store(0)
	c.nanos.Store(0)
}

// Metrics counts booking events published by agenda and consumed by
// contacts. Safe for concurrent use.
type Metrics struct {
	publish counter
	consume counter
}

// Snapshot is the JSON shape reported under "kafka" on /health.
type Snapshot struct {
	Published          int64  `json:"published"`
	PublishFailed      int64  `json:"publish_failed"`
	AvgPublishDuration string `json:"avg_publish_duration"`
	Consumed           int64  `json:"consumed"`
	ConsumeFailed      int64  `json:"consume_failed"`
	AvgConsumeDuration string `json:"avg_consume_duration"`
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Reset() {
	m.publish.reset()
	m.consume.reset()
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Published:          m.publish.ok.Load(),
		PublishFailed:      m.publish.failed.Load(),
		AvgPublishDuration: m.publish.average().String(),
		Consumed:           m.consume.ok.Load(),
		ConsumeFailed:      m.consume.failed.Load(),
		AvgConsumeDuration: m.consume.average().String(),
	}
}

func (m *Metrics) Name() string { return "kafka" }

func (m *Metrics) Stats() any { return m.Snapshot() }

func measure(c *counter) kafka.Middleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		c.observe(start, err)
		return err
	}
}

func MetricsProducerMiddleware(m *Metrics) kafka.ProducerMiddleware {
	return measure(&m.publish)
}

func MetricsConsumerMiddleware(m *Metrics) kafka.ConsumerMiddleware {
	return measure(&m.consume)
}
