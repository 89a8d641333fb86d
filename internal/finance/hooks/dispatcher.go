// Package hooks runs the best-effort post-settlement processing: marking
// linked appointments paid, publishing the settled event, and archiving the
// event in the settlement journal. The financial transaction has already
// committed when a hook runs; failures here are logged and swallowed, never
// surfaced to the settlement caller.
package hooks

import (
	"context"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/clinic-finance-ledger/internal/domain/appointment"
	"github.com/clinic-finance-ledger/internal/domain/settlement"
)

// EventPublisher publishes a settled event to the message broker.
// Satisfied by producers.SettledEventProducer.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// Dispatcher fans settlement events out to the scheduling subsystem, the
// message broker, and the journal, on a bounded worker pool.
type Dispatcher struct {
	pool            *ants.Pool
	logger          *slog.Logger
	appointmentRepo appointment.Repository
	publisher       EventPublisher
	journal         settlement.Journal
	timeout         time.Duration
}

// Config holds the dispatcher settings
type Config struct {
	PoolSize int
	Timeout  time.Duration
}

// NewDispatcher creates a dispatcher backed by a fixed-size worker pool.
// publisher and journal may be nil when the corresponding sink is not wired.
func NewDispatcher(
	config Config,
	logger *slog.Logger,
	appointmentRepo appointment.Repository,
	publisher EventPublisher,
	journal settlement.Journal,
) (*Dispatcher, error) {
	pool, err := ants.NewPool(config.PoolSize)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		pool:            pool,
		logger:          logger,
		appointmentRepo: appointmentRepo,
		publisher:       publisher,
		journal:         journal,
		timeout:         config.Timeout,
	}, nil
}

// AfterSettlement submits the event for asynchronous processing. It never
// blocks the caller beyond pool submission and never returns an error.
func (d *Dispatcher) AfterSettlement(event *settlement.Event) {
	logger := d.logger
	if event.CorrelationID != "" {
		logger = d.logger.With("correlation_id", event.CorrelationID)
	}

	eventCopy := *event
	err := d.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.process(ctx, logger, &eventCopy)
	})
	if err != nil {
		logger.Error("Failed to submit settlement hook, event dropped",
			"event_id", event.EventID.String(),
			"account_id", event.AccountID.String(),
			"error", err)
	}
}

func (d *Dispatcher) process(ctx context.Context, logger *slog.Logger, event *settlement.Event) {
	logger.Info("Processing settlement event",
		"event_id", event.EventID.String(),
		"account_id", event.AccountID.String(),
		"fully_settled", event.FullySettled)

	if event.FullySettled {
		d.markAppointmentsPaid(ctx, logger, event)
	}

	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, event.AccountID.String(), event); err != nil {
			logger.Error("Failed to publish settled event",
				"event_id", event.EventID.String(),
				"error", err)
		}
	}

	if d.journal != nil {
		if err := d.journal.Append(ctx, event); err != nil {
			logger.Error("Failed to append settlement journal entry",
				"event_id", event.EventID.String(),
				"error", err)
		}
	}
}

func (d *Dispatcher) markAppointmentsPaid(ctx context.Context, logger *slog.Logger, event *settlement.Event) {
	ids, err := d.appointmentRepo.IDsByAccount(ctx, event.AccountID)
	if err != nil {
		logger.Error("Failed to collect linked appointments",
			"account_id", event.AccountID.String(),
			"error", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	if err := d.appointmentRepo.MarkPaid(ctx, ids); err != nil {
		logger.Error("Failed to mark appointments paid",
			"account_id", event.AccountID.String(),
			"count", len(ids),
			"error", err)
		return
	}

	logger.Info("Appointments marked paid",
		"account_id", event.AccountID.String(),
		"count", len(ids))
}

// Release shuts the worker pool down; pending tasks are drained first
func (d *Dispatcher) Release() {
	d.pool.Release()
}
