package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Message is the broker-agnostic view of a record. Partition and Offset are
// only set on consumed messages.
type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
}

// MessageHandler returns nil when msg was handled. Errors are classified with
// ClassifyError.
type MessageHandler func(ctx context.Context, msg Message) error

const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderCorrelationID = "correlation-id"
	HeaderSchemaVersion = "schema-version"
	HeaderSource        = "source"
	HeaderTimestamp     = "timestamp"
	HeaderRetryCount    = "retry-count"
	HeaderOriginalTopic = "original-topic"
)

type MessageBuilder struct {
	msg Message
}

func NewMessage() *MessageBuilder {
	return &MessageBuilder{msg: Message{
		Headers:   map[string]string{},
		Timestamp: time.Now(),
	}}
}

func (b *MessageBuilder) header(key, value string) *MessageBuilder {
	b.msg.Headers[key] = value
	return b
}

// WithKey sets the partition key. Booking events use the tenant id so one
// tenant's events stay ordered.
func (b *MessageBuilder) WithKey(key string) *MessageBuilder {
	b.msg.Key = key
	return b
}

// WithValue JSON-encodes value. An unencodable value leaves Value empty and
// Publish rejects it with ErrEmptyValue.
func (b *MessageBuilder) WithValue(value any) *MessageBuilder {
	data, err := json.Marshal(value)
	if err != nil {
		data = nil
	}
	b.msg.Value = data
	return b
}

func (b *MessageBuilder) WithRawValue(value []byte) *MessageBuilder {
	b.msg.Value = value
	return b
}

func (b *MessageBuilder) WithEventType(eventType string) *MessageBuilder {
	return b.header(HeaderEventType, eventType)
}

func (b *MessageBuilder) WithCorrelationID(id string) *MessageBuilder {
	return b.header(HeaderCorrelationID, id)
}

func (b *MessageBuilder) WithSchemaVersion(version string) *MessageBuilder {
	return b.header(HeaderSchemaVersion, version)
}

func (b *MessageBuilder) WithSource(source string) *MessageBuilder {
	return b.header(HeaderSource, source)
}

// Build stamps an event id and timestamp header when missing.
func (b *MessageBuilder) Build() Message {
	if b.msg.Headers[HeaderEventID] == "" {
		b.msg.Headers[HeaderEventID] = uuid.NewString()
	}
	if b.msg.Headers[HeaderTimestamp] == "" {
		b.msg.Headers[HeaderTimestamp] = b.msg.Timestamp.UTC().Format(time.RFC3339)
	}
	return b.msg
}

func (m *Message) validate() error {
	if m.Key == "" {
		return ErrEmptyKey
	}
	if len(m.Value) == 0 {
		return ErrEmptyValue
	}
	return nil
}

func (m *Message) DecodeValue(v any) error {
	return json.Unmarshal(m.Value, v)
}

func (m *Message) GetHeader(key string) (string, bool) {
	v, ok := m.Headers[key]
	return v, ok
}

func (m *Message) GetEventID() string       { return m.Headers[HeaderEventID] }
func (m *Message) GetEventType() string     { return m.Headers[HeaderEventType] }
func (m *Message) GetCorrelationID() string { return m.Headers[HeaderCorrelationID] }

// GetRetryCount treats a missing or garbled header as zero.
func (m *Message) GetRetryCount() int {
	n, err := strconv.Atoi(m.Headers[HeaderRetryCount])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (m *Message) IncrementRetryCount() {
	if m.Headers == nil {
		m.Headers = map[string]string{}
	}
	m.Headers[HeaderRetryCount] = strconv.Itoa(m.GetRetryCount() + 1)
}
