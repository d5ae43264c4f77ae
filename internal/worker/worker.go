// Package worker runs the background sweep that marks sent invoices overdue
// once their due date passes.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tmcalister/crucible/internal/domain"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// PollInterval is how often to sweep for overdue invoices
	PollInterval time.Duration
}

// Worker drives the overdue sweep on a fixed interval. The sweep is
// idempotent: the compare-and-set inside the service skips invoices that
// were paid or cancelled between listing and updating.
type Worker struct {
	config   Config
	invoices domain.InvoiceService
	logger   *slog.Logger
}

// NewWorker creates a new overdue sweep worker
func NewWorker(invoices domain.InvoiceService, config Config, logger *slog.Logger) *Worker {
	// Set defaults
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.PollInterval == 0 {
		config.PollInterval = time.Hour
	}

	return &Worker{
		config:   config,
		invoices: invoices,
		logger:   logger,
	}
}

// Start runs the sweep loop until the context is cancelled. One sweep runs
// immediately on start so a restarted service does not wait a full interval.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("overdue worker starting",
		"worker_id", w.config.WorkerID,
		"poll_interval", w.config.PollInterval,
	)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("overdue worker shutting down", "worker_id", w.config.WorkerID)
			return ctx.Err()

		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep runs one pass of the overdue marking.
func (w *Worker) sweep(ctx context.Context) {
	count, err := w.invoices.MarkInvoicesOverdue(ctx)
	if err != nil {
		w.logger.Error("overdue sweep failed", "worker_id", w.config.WorkerID, "error", err)
		return
	}
	if count > 0 {
		w.logger.Info("overdue sweep complete", "worker_id", w.config.WorkerID, "marked", count)
	}
}
