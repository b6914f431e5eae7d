package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/sheets"
)

// ExpenseSource yields the current stored expense list. A read error must
// be returned, not replaced by an empty list.
type ExpenseSource interface {
	LoadExpenses(ctx context.Context) ([]core.Expense, error)
}

// SyncWorker keeps the sheet mirror in line with the store. Change messages
// carry no data: each one triggers a full reload and replace.
type SyncWorker struct {
	source ExpenseSource
	mirror sheets.Mirror
	logger *log.Logger
	now    func() time.Time

	mu         sync.Mutex
	lastSynced time.Time
}

func NewSyncWorker(source ExpenseSource, mirror sheets.Mirror, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		source: source,
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
		now:    time.Now,
	}
}

// HandleChangeMessage processes a single change notification from AMQP.
// Messages older than the last completed sync are already reflected in the
// mirror and are acknowledged without work.
func (w *SyncWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ExpenseChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing change message",
		"op", msg.Op,
		log.FieldExpenseID, msg.ExpenseID,
		"timestamp", msg.Timestamp)

	w.mu.Lock()
	stale := !msg.Timestamp.IsZero() && msg.Timestamp.Before(w.lastSynced)
	w.mu.Unlock()
	if stale {
		w.logger.DebugContext(ctx, "Change already mirrored, skipping", log.FieldExpenseID, msg.ExpenseID)
		return nil
	}

	if err := w.SyncNow(ctx); err != nil {
		return fmt.Errorf("sync after %s: %w", msg.Op, err)
	}
	return nil
}

// SyncNow replaces the mirror with the current store contents.
func (w *SyncWorker) SyncNow(ctx context.Context) error {
	started := w.now()
	list, err := w.source.LoadExpenses(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to read expenses, keeping current mirror", log.FieldError, err)
		return fmt.Errorf("read expenses: %w", err)
	}

	if err := w.mirror.Replace(ctx, list); err != nil {
		w.logger.ErrorContext(ctx, "Failed to replace sheet mirror",
			log.FieldCount, len(list),
			log.FieldError, err)
		return fmt.Errorf("replace mirror: %w", err)
	}

	w.mu.Lock()
	if started.After(w.lastSynced) {
		w.lastSynced = started
	}
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Successfully synced expenses", log.FieldCount, len(list))
	return nil
}

// StartupSyncCheck mirrors the store once at worker startup, recovering
// from messages missed while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Running startup sync")
	if err := w.SyncNow(ctx); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	return nil
}

// RunPeriodic resyncs every interval until ctx is done. This is a backup
// mechanism in case AMQP messages are lost.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.SyncNow(ctx); err != nil {
				w.logger.WarnContext(ctx, "Periodic sync failed", log.FieldError, err)
			}
		}
	}
}

// LastSynced returns the start time of the newest completed sync.
func (w *SyncWorker) LastSynced() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSynced
}
