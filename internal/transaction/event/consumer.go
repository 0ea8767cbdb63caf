package event

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/gobank/internal/transaction/entity"
)

// Sink receives committed change events, typically to append an audit record.
type Sink interface {
	Record(ctx context.Context, event entity.ChangeEvent) error
}

type ConsumerConfig struct {
	Workers     int
	MaxRetries  int
	BaseBackoff time.Duration
}

// AuditConsumer drains the bus with a worker pool and hands each event to
// the sink, retrying with exponential backoff. Events are deduplicated by
// EventID so a re-published event is recorded once.
type AuditConsumer struct {
	bus         *Bus
	sink        Sink
	workers     int
	maxRetries  int
	baseBackoff time.Duration
	seen        sync.Map
	wg          sync.WaitGroup
}

func NewAuditConsumer(bus *Bus, sink Sink, cfg ConsumerConfig) *AuditConsumer {
	workers := cfg.Workers
	if workers < 1 {
		workers = 4
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	baseBackoff := cfg.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 100 * time.Millisecond
	}

	return &AuditConsumer{
		bus:         bus,
		sink:        sink,
		workers:     workers,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
	}
}

func (c *AuditConsumer) Start() {
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
}

func (c *AuditConsumer) Stop(ctx context.Context) error {
	if c.bus != nil {
		c.bus.Close()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *AuditConsumer) worker() {
	defer c.wg.Done()

	for event := range c.bus.Subscribe() {
		c.processEvent(event)
	}
}

func (c *AuditConsumer) processEvent(event entity.ChangeEvent) {
	if c.sink == nil {
		return
	}

	if event.EventID != 0 {
		if _, loaded := c.seen.LoadOrStore(event.EventID, struct{}{}); loaded {
			slog.Info("skip duplicate change event", "event_id", event.EventID, "id", event.Tx.ID)
			return
		}
	}

	backoff := c.baseBackoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err := c.sink.Record(context.Background(), event)
		if err == nil {
			return
		}

		if attempt == c.maxRetries {
			slog.Error("failed to record change event after retries",
				"event_id", event.EventID, "action", event.Action, "id", event.Tx.ID, "error", err)
			return
		}

		if !sleepBackoff(backoff) {
			return
		}
		backoff *= 2
	}
}

func sleepBackoff(d time.Duration) bool {
	if d <= 0 {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	<-timer.C
	return true
}

// LogSink writes each change event as a structured audit log record.
type LogSink struct{}

func (LogSink) Record(ctx context.Context, event entity.ChangeEvent) error {
	if event.EventID == 0 {
		return errors.New("missing event id")
	}

	slog.InfoContext(ctx, "transaction audit",
		"event_id", event.EventID,
		"action", event.Action,
		"id", event.Tx.ID,
		"trade_no", event.Tx.TradeNo,
		"amount", event.Tx.Amount.String(),
		"currency", event.Tx.Currency,
		"status", event.Tx.Status,
	)

	return nil
}
