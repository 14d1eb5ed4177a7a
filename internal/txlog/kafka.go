package txlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"sahakosh/internal/platform/metrics"
)

// inboxSize bounds how many events can wait for the producer before new
// ones are dropped.
const inboxSize = 1024

// Kafka publishes events to a single topic through a background worker.
// Publish enqueues and returns immediately; delivery failures are counted
// and logged, never surfaced to the caller.
type Kafka struct {
	client *kgo.Client
	topic  string
	inbox  chan Event
	logger *slog.Logger
	m      *metrics.Metrics
	done   chan struct{}
}

// NewKafka connects to the brokers and ensures the topic exists.
func NewKafka(ctx context.Context, brokers []string, topic string, logger *slog.Logger, m *metrics.Metrics) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopic(ctx, -1, -1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}

	k := &Kafka{
		client: client,
		topic:  topic,
		inbox:  make(chan Event, inboxSize),
		logger: logger,
		m:      m,
		done:   make(chan struct{}),
	}
	go k.run()
	return k, nil
}

// Publish enqueues the event. When the inbox is full the event is dropped
// and counted rather than blocking the transfer path.
func (k *Kafka) Publish(ctx context.Context, event Event) {
	select {
	case k.inbox <- event:
	default:
		k.m.TxLogPublishFailures.Inc()
		k.logger.Warn("txlog inbox full, dropping event", "transaction_id", event.TransactionID)
	}
}

func (k *Kafka) run() {
	defer close(k.done)
	for event := range k.inbox {
		payload, err := json.Marshal(event)
		if err != nil {
			k.m.TxLogPublishFailures.Inc()
			k.logger.Error("marshal txlog event", "error", err, "transaction_id", event.TransactionID)
			continue
		}
		record := &kgo.Record{
			Key:   []byte(event.TransactionID),
			Value: payload,
			Topic: k.topic,
		}
		if err := k.client.ProduceSync(context.Background(), record).FirstErr(); err != nil {
			k.m.TxLogPublishFailures.Inc()
			k.logger.Error("produce txlog event", "error", err, "transaction_id", event.TransactionID)
		}
	}
}

// Close drains the inbox, flushes the producer, and releases the client.
func (k *Kafka) Close() {
	close(k.inbox)
	<-k.done
	k.client.Close()
}
