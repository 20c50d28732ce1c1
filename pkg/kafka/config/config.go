package kafka_config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Config drives the booking-events pipeline between agenda and contacts.
// Writes are synchronous so a failed publish can be dead-lettered.
type Config struct {
	// Empty disables messaging.
	Brokers []string

	BookingEventsTopic    string
	BookingEventsDLQTopic string
	ContactsGroupID       string

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerRequireAcks  int    // -1 all, 0 none, 1 leader
	ProducerCompression  string // none, gzip, snappy, lz4, zstd

	ConsumerStartOffset       int64 // -1 newest, -2 oldest
	ConsumerMinBytes          int
	ConsumerMaxBytes          int
	ConsumerMaxWait           time.Duration
	ConsumerCommitInterval    time.Duration
	ConsumerHeartbeatInterval time.Duration
	ConsumerSessionTimeout    time.Duration
	ConsumerRebalanceTimeout  time.Duration
	ConsumerMaxRetries        int

	EnableMiddleware bool
}

var compressions = []string{"none", "gzip", "snappy", "lz4", "zstd"}

// Environment keys. KAFKA_BROKERS is a comma-separated host:port list.
const (
	envBrokers      = "KAFKA_BROKERS"
	envTopic        = "KAFKA_BOOKING_EVENTS_TOPIC"
	envDLQTopic     = "KAFKA_BOOKING_EVENTS_DLQ_TOPIC"
	envGroupID      = "KAFKA_CONTACTS_GROUP_ID"
	envMaxAttempts  = "KAFKA_PRODUCER_MAX_ATTEMPTS"
	envBatchTimeout = "KAFKA_PRODUCER_BATCH_TIMEOUT"
	envRequireAcks  = "KAFKA_PRODUCER_REQUIRE_ACKS"
	envCompression  = "KAFKA_PRODUCER_COMPRESSION"
	envStartOffset  = "KAFKA_CONSUMER_START_OFFSET"
	envMinBytes     = "KAFKA_CONSUMER_MIN_BYTES"
	envMaxBytes     = "KAFKA_CONSUMER_MAX_BYTES"
	envMaxWait      = "KAFKA_CONSUMER_MAX_WAIT"
	envCommitEvery  = "KAFKA_CONSUMER_COMMIT_INTERVAL"
	envHeartbeat    = "KAFKA_CONSUMER_HEARTBEAT_INTERVAL"
	envSession      = "KAFKA_CONSUMER_SESSION_TIMEOUT"
	envRebalance    = "KAFKA_CONSUMER_REBALANCE_TIMEOUT"
	envMaxRetries   = "KAFKA_CONSUMER_MAX_RETRIES"
	envMiddleware   = "KAFKA_ENABLE_MIDDLEWARE"
)

// Defaults has no brokers, so booking events stay off until KAFKA_BROKERS
// is set.
func Defaults() Config {
	return Config{
		BookingEventsTopic:    "agenda.booking-events",
		BookingEventsDLQTopic: "agenda.booking-events.dlq",
		ContactsGroupID:       "contacts",

		ProducerMaxAttempts:  3,
		ProducerBatchTimeout: 10 * time.Millisecond,
		ProducerRequireAcks:  -1,
		ProducerCompression:  "snappy",

		ConsumerStartOffset:       -1,
		ConsumerMinBytes:          1,
		ConsumerMaxBytes:          10 << 20,
		ConsumerMaxWait:           500 * time.Millisecond,
		ConsumerCommitInterval:    time.Second,
		ConsumerHeartbeatInterval: 3 * time.Second,
		ConsumerSessionTimeout:    10 * time.Second,
		ConsumerRebalanceTimeout:  time.Minute,
		ConsumerMaxRetries:        3,

		EnableMiddleware: true,
	}
}

// Load overlays the environment on Defaults and validates the result.
func Load() (*Config, error) {
	cfg := Defaults()
	cfg.Brokers = splitBrokers(os.Getenv(envBrokers))

	overlay(&cfg.BookingEventsTopic, envTopic, identity)
	overlay(&cfg.BookingEventsDLQTopic, envDLQTopic, identity)
	overlay(&cfg.ContactsGroupID, envGroupID, identity)

	overlay(&cfg.ProducerMaxAttempts, envMaxAttempts, strconv.Atoi)
	overlay(&cfg.ProducerBatchTimeout, envBatchTimeout, time.ParseDuration)
	overlay(&cfg.ProducerRequireAcks, envRequireAcks, strconv.Atoi)
	overlay(&cfg.ProducerCompression, envCompression, identity)

	overlay(&cfg.ConsumerStartOffset, envStartOffset, parseInt64)
	overlay(&cfg.ConsumerMinBytes, envMinBytes, strconv.Atoi)
	overlay(&cfg.ConsumerMaxBytes, envMaxBytes, strconv.Atoi)
	overlay(&cfg.ConsumerMaxWait, envMaxWait, time.ParseDuration)
	overlay(&cfg.ConsumerCommitInterval, envCommitEvery, time.ParseDuration)
	overlay(&cfg.ConsumerHeartbeatInterval, envHeartbeat, time.ParseDuration)
	overlay(&cfg.ConsumerSessionTimeout, envSession, time.ParseDuration)
	overlay(&cfg.ConsumerRebalanceTimeout, envRebalance, time.ParseDuration)
	overlay(&cfg.ConsumerMaxRetries, envMaxRetries, strconv.Atoi)

	overlay(&cfg.EnableMiddleware, envMiddleware, strconv.ParseBool)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) Enabled() bool {
	return cfg != nil && len(cfg.Brokers) > 0
}

// Validate is a no-op when messaging is disabled.
func (cfg *Config) Validate() error {
	if !cfg.Enabled() {
		return nil
	}

	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(cfg.BookingEventsTopic != "", "BookingEventsTopic cannot be empty")
	check(cfg.ContactsGroupID != "", "ContactsGroupID cannot be empty")
	check(cfg.BookingEventsDLQTopic != cfg.BookingEventsTopic, "BookingEventsDLQTopic must differ from BookingEventsTopic")
	check(cfg.ProducerMaxAttempts > 0, "ProducerMaxAttempts must be positive, got: %d", cfg.ProducerMaxAttempts)
	check(cfg.ProducerBatchTimeout > 0, "ProducerBatchTimeout must be positive, got: %s", cfg.ProducerBatchTimeout)
	check(slices.Contains(compressions, cfg.ProducerCompression),
		"ProducerCompression must be one of %v, got: %s", compressions, cfg.ProducerCompression)
	check(cfg.ProducerRequireAcks >= -1 && cfg.ProducerRequireAcks <= 1,
		"ProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.ProducerRequireAcks)
	check(cfg.ConsumerStartOffset == -1 || cfg.ConsumerStartOffset == -2,
		"ConsumerStartOffset must be -1 (newest) or -2 (oldest), got: %d", cfg.ConsumerStartOffset)
	check(cfg.ConsumerMinBytes > 0, "ConsumerMinBytes must be positive, got: %d", cfg.ConsumerMinBytes)
	check(cfg.ConsumerMaxBytes >= cfg.ConsumerMinBytes,
		"ConsumerMaxBytes must be at least ConsumerMinBytes, got: %d", cfg.ConsumerMaxBytes)

	for name, d := range map[string]time.Duration{
		"ConsumerMaxWait":           cfg.ConsumerMaxWait,
		"ConsumerCommitInterval":    cfg.ConsumerCommitInterval,
		"ConsumerHeartbeatInterval": cfg.ConsumerHeartbeatInterval,
		"ConsumerSessionTimeout":    cfg.ConsumerSessionTimeout,
		"ConsumerRebalanceTimeout":  cfg.ConsumerRebalanceTimeout,
	} {
		check(d > 0, "%s must be positive, got: %s", name, d)
	}
	check(cfg.ConsumerMaxRetries >= 0, "ConsumerMaxRetries cannot be negative, got: %d", cfg.ConsumerMaxRetries)

	if len(problems) == 0 {
		return nil
	}
	slices.Sort(problems)
	return fmt.Errorf("kafka configuration invalid:\n  - %s", strings.Join(problems, "\n  - "))
}

func (cfg *Config) LogConfiguration(logFunc func(msg string, keysAndValues ...any)) {
	if logFunc == nil {
		return
	}
	if !cfg.Enabled() {
		logFunc("Kafka disabled, booking events will not be published")
		return
	}

	logFunc("Kafka configuration loaded",
		"brokers", cfg.Brokers,
		"booking_events_topic", cfg.BookingEventsTopic,
		"booking_events_dlq_topic", cfg.BookingEventsDLQTopic,
		"contacts_group_id", cfg.ContactsGroupID,
		"producer_require_acks", cfg.ProducerRequireAcks,
		"producer_compression", cfg.ProducerCompression,
		"consumer_start_offset", cfg.ConsumerStartOffset,
		"consumer_max_retries", cfg.ConsumerMaxRetries,
		"enable_middleware", cfg.EnableMiddleware,
	)
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// overlay replaces *dst with the parsed value of key. Unset or unparsable
// values keep the default.
func overlay[T any](dst *T, key string, parse func(string) (T, error)) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	if v, err := parse(raw); err == nil {
		*dst = v
	}
}

func identity(s string) (string, error) { return s, nil }

func parseInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }
