package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/sheets/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	mu    sync.Mutex
	list  []core.Expense
	err   error
	loads int
}

func (s *staticSource) LoadExpenses(context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return append([]core.Expense(nil), s.list...), nil
}

func sample() []core.Expense {
	return []core.Expense{
		{ID: "x", Date: core.NewDate(2024, 2, 2), Category: core.CategoryHealth, Amount: core.Money{Cents: 4500}, Description: "Pharmacy", PaymentMethod: core.PaymentUPI},
	}
}

func TestSyncWorker_HandleChangeMessage(t *testing.T) {
	src := &staticSource{list: sample()}
	mirror := memory.New()
	w := NewSyncWorker(src, mirror, nil)

	msg := amqp.NewExpenseChangedMessage(amqp.OpCreated, "x")
	require.NoError(t, w.HandleChangeMessage(context.Background(), msg))

	assert.Equal(t, 1, mirror.Replaces())
	rows := mirror.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "x", rows[0][5])
	assert.False(t, w.LastSynced().IsZero())
}

func TestSyncWorker_SkipsStaleMessages(t *testing.T) {
	src := &staticSource{list: sample()}
	mirror := memory.New()
	w := NewSyncWorker(src, mirror, nil)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return base }
	require.NoError(t, w.SyncNow(context.Background()))

	old := &amqp.ExpenseChangedMessage{Op: amqp.OpUpdated, ExpenseID: "x", Timestamp: base.Add(-time.Minute)}
	require.NoError(t, w.HandleChangeMessage(context.Background(), old))
	assert.Equal(t, 1, mirror.Replaces(), "stale message must not trigger a replace")

	fresh := &amqp.ExpenseChangedMessage{Op: amqp.OpDeleted, ExpenseID: "x", Timestamp: base.Add(time.Minute)}
	require.NoError(t, w.HandleChangeMessage(context.Background(), fresh))
	assert.Equal(t, 2, mirror.Replaces())
}

func TestSyncWorker_MirrorFailure(t *testing.T) {
	src := &staticSource{list: sample()}
	mirror := memory.New()
	boom := errors.New("quota exceeded")
	mirror.FailWith(boom)
	w := NewSyncWorker(src, mirror, nil)

	err := w.HandleChangeMessage(context.Background(), amqp.NewExpenseChangedMessage(amqp.OpResync, ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, w.LastSynced().IsZero(), "failed sync must not advance the watermark")
}

func TestSyncWorker_ReadFailureKeepsMirror(t *testing.T) {
	src := &staticSource{list: sample()}
	mirror := memory.New()
	w := NewSyncWorker(src, mirror, nil)
	require.NoError(t, w.SyncNow(context.Background()))
	synced := w.LastSynced()

	boom := errors.New("database is locked")
	src.mu.Lock()
	src.err = boom
	src.mu.Unlock()

	err := w.HandleChangeMessage(context.Background(), amqp.NewExpenseChangedMessage(amqp.OpCreated, "y"))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, mirror.Replaces(), "a failed read must not replace the mirror")
	assert.Len(t, mirror.Rows(), 1)
	assert.Equal(t, synced, w.LastSynced())
}

func TestSyncWorker_StartupSyncCheck(t *testing.T) {
	src := &staticSource{}
	mirror := memory.New()
	w := NewSyncWorker(src, mirror, nil)

	require.NoError(t, w.StartupSyncCheck(context.Background()))
	assert.Equal(t, 1, mirror.Replaces())
	assert.Empty(t, mirror.Rows())
}

func TestSyncWorker_RunPeriodic(t *testing.T) {
	src := &staticSource{list: sample()}
	mirror := memory.New()
	w := NewSyncWorker(src, mirror, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.RunPeriodic(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return mirror.Replaces() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPeriodic did not stop after cancel")
	}
}

func TestSyncWorker_RunPeriodicDisabled(t *testing.T) {
	w := NewSyncWorker(&staticSource{}, memory.New(), nil)
	// returns immediately for a non-positive interval
	w.RunPeriodic(context.Background(), 0)
}
