package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"expenses/internal/aggregate"
	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/store"
)

// RecentLimit is how many expenses the dashboard lists.
const RecentLimit = 5

// Publisher announces expense list changes to other processes.
type Publisher interface {
	PublishExpenseChanged(ctx context.Context, op, expenseID string) error
}

// Dashboard is the home screen view: totals over the full list, the
// trailing week and the most recent entries.
type Dashboard struct {
	Today      core.Date            `json:"today"`
	Count      int                  `json:"count"`
	Total      core.Money           `json:"total"`
	Categories []core.CategoryTotal `json:"categories"`
	Weekly     []core.WeeklyBucket  `json:"weekly"`
	Recent     []core.Expense       `json:"recent"`
}

// ExpenseService orchestrates expense operations across the store and AMQP
type ExpenseService struct {
	repo      *store.Repository
	publisher Publisher
	logger    *log.Logger

	// serializes read-modify-write of the stored list
	mu sync.Mutex
}

// NewExpenseService wires the service. publisher may be nil, in which case
// change events are skipped.
func NewExpenseService(repo *store.Repository, publisher Publisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentExpense),
	}
}

// List returns every stored expense in insertion order.
func (s *ExpenseService) List(ctx context.Context) []core.Expense {
	return s.repo.Expenses(ctx)
}

// Get returns the expense with id or core.ErrNotFound.
func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	list, err := s.repo.LoadExpenses(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	for _, e := range list {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, core.ErrNotFound
}

// Create validates in, assigns a fresh id and appends the expense.
func (s *ExpenseService) Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	e, err := in.Build(core.NewExpenseID())
	if err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	list, err := s.repo.LoadExpenses(ctx)
	if err == nil {
		list = append(list, e)
		err = s.repo.SaveExpenses(ctx, list)
	}
	s.mu.Unlock()
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.changed(ctx, amqp.OpCreated, e)
	return e, nil
}

// Update replaces the expense with id by the one built from in.
func (s *ExpenseService) Update(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error) {
	if id == "" {
		return core.Expense{}, core.ErrEmptyID
	}
	e, err := in.Build(id)
	if err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	list, err := s.repo.LoadExpenses(ctx)
	if err != nil {
		s.mu.Unlock()
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	idx := indexOf(list, id)
	if idx < 0 {
		s.mu.Unlock()
		return core.Expense{}, core.ErrNotFound
	}
	list[idx] = e
	err = s.repo.SaveExpenses(ctx, list)
	s.mu.Unlock()
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.changed(ctx, amqp.OpUpdated, e)
	return e, nil
}

// Delete removes the expense with id.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	list, err := s.repo.LoadExpenses(ctx)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("delete expense: %w", err)
	}
	idx := indexOf(list, id)
	if idx < 0 {
		s.mu.Unlock()
		return core.ErrNotFound
	}
	removed := list[idx]
	list = append(list[:idx], list[idx+1:]...)
	err = s.repo.SaveExpenses(ctx, list)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.changed(ctx, amqp.OpDeleted, removed)
	return nil
}

// History returns the filtered and sorted list.
func (s *ExpenseService) History(ctx context.Context, f aggregate.Filter, mode aggregate.SortMode) []core.Expense {
	return aggregate.FilterAndSort(s.repo.Expenses(ctx), f, mode)
}

// Dashboard computes the home view as of now.
func (s *ExpenseService) Dashboard(ctx context.Context, now time.Time) Dashboard {
	list := s.repo.Expenses(ctx)
	today := core.Today(now)

	recent := aggregate.FilterAndSort(list, aggregate.Filter{}, aggregate.SortLatest)
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}

	return Dashboard{
		Today:      today,
		Count:      len(list),
		Total:      aggregate.Total(list),
		Categories: aggregate.ByCategory(list),
		Weekly:     aggregate.WeeklyBuckets(today, list),
		Recent:     recent,
	}
}

// Report builds the period report as of now.
func (s *ExpenseService) Report(ctx context.Context, p aggregate.Period, now time.Time) core.PeriodReport {
	return aggregate.Report(p, core.Today(now), s.repo.Expenses(ctx))
}

func (s *ExpenseService) Profile(ctx context.Context) core.UserProfile {
	return s.repo.Profile(ctx)
}

func (s *ExpenseService) SaveProfile(ctx context.Context, p core.UserProfile) (core.UserProfile, error) {
	p = p.Normalize()
	if err := s.repo.SaveProfile(ctx, p); err != nil {
		return core.UserProfile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

func (s *ExpenseService) Theme(ctx context.Context) core.Theme {
	return s.repo.Theme(ctx)
}

func (s *ExpenseService) SaveTheme(ctx context.Context, t core.Theme) error {
	if err := s.repo.SaveTheme(ctx, t); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// Ping reports whether the store is reachable.
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// changed logs the mutation and publishes it. Publish failures never fail
// the request: the change is already persisted and the worker resyncs
// periodically.
func (s *ExpenseService) changed(ctx context.Context, op string, e core.Expense) {
	log.NewStructuredLogger(s.logger).LogExpenseChanged(ctx, op, e.ID, string(e.Category), e.Amount.Cents, e.Date.String())

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping change message")
		return
	}
	if err := s.publisher.PublishExpenseChanged(ctx, op, e.ID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change message",
			"op", op,
			log.FieldExpenseID, e.ID,
			log.FieldError, err)
	}
}

// Close closes the publisher when it holds a connection
func (s *ExpenseService) Close() error {
	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close expense service: amqp: %w", err)
		}
	}
	return nil
}

func indexOf(list []core.Expense, id string) int {
	for i, e := range list {
		if e.ID == id {
			return i
		}
	}
	return -1
}
