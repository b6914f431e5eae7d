package memory

import (
	"context"
	"sync"

	"expenses/internal/core"
	ports "expenses/internal/sheets"
)

// Mirror is an in-process sheet mirror. It keeps the last replaced rows and
// counts calls, which makes it the default when no spreadsheet is configured.
type Mirror struct {
	mu       sync.Mutex
	rows     [][]string
	replaces int
	err      error
}

var _ ports.Mirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

// FailWith makes every following Replace return err. Pass nil to recover.
func (m *Mirror) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Replace stores the flattened rows of list.
func (m *Mirror) Replace(ctx context.Context, list []core.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaces++
	if m.err != nil {
		return m.err
	}
	m.rows = ports.Rows(list)
	return nil
}

// Rows returns a copy of the last successfully written rows.
func (m *Mirror) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Replaces reports how many times Replace was called.
func (m *Mirror) Replaces() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaces
}
