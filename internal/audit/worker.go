package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultBatchSize    = 100
)

// OutboxWorker drains pending events from the audit store and publishes them
// to Kafka. Records are keyed by invoice id so one invoice's history stays
// ordered within a partition. Publishing is at-least-once: an event is marked
// published only after the broker acknowledges it, so consumers must
// deduplicate on event id.
type OutboxWorker struct {
	store    Store
	client   *kgo.Client
	topic    string
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

func NewOutboxWorker(store Store, client *kgo.Client, topic string, logger *slog.Logger) *OutboxWorker {
	return &OutboxWorker{
		store:    store,
		client:   client,
		topic:    topic,
		logger:   logger,
		interval: defaultPollInterval,
		batch:    defaultBatchSize,
	}
}

// EnsureTopic creates the audit topic if the cluster does not have it yet.
func (w *OutboxWorker) EnsureTopic(ctx context.Context, partitions int32) error {
	adm := kadm.NewClient(w.client)
	_, err := adm.CreateTopic(ctx, partitions, 1, nil, w.topic)
	if err != nil {
		details, derr := adm.ListTopics(ctx, w.topic)
		if derr == nil && details.Has(w.topic) {
			return nil
		}
		return fmt.Errorf("create audit topic %s: %w", w.topic, err)
	}
	return nil
}

// Run polls the outbox until the context is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "audit outbox drain failed", "error", err)
			}
		}
	}
}

func (w *OutboxWorker) drain(ctx context.Context) error {
	events, err := w.store.PendingOutbox(ctx, w.batch)
	if err != nil {
		return fmt.Errorf("load pending events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	published := make([]string, 0, len(events))
	for _, event := range events {
		record := &kgo.Record{
			Topic: w.topic,
			Key:   []byte(strconv.FormatUint(uint64(event.InvoiceID), 10)),
			Value: mustMarshal(event),
		}
		if err := w.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			// Stop at the first failure to preserve per-invoice ordering;
			// the next tick retries from here.
			w.logger.WarnContext(ctx, "audit publish failed",
				"event_id", event.ID,
				"action", event.Action,
				"error", err,
			)
			break
		}
		published = append(published, event.ID)
	}

	if err := w.store.MarkPublished(ctx, published); err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}
