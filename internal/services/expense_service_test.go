package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"expenses/internal/aggregate"
	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/store"
	"expenses/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	op string
	id string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
	closed bool
}

func (p *fakePublisher) PublishExpenseChanged(_ context.Context, op, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{op, id})
	return p.err
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func newService(t *testing.T, pub Publisher) (*ExpenseService, *store.Repository) {
	t.Helper()
	repo := store.NewRepository(memory.New(), nil)
	return NewExpenseService(repo, pub, nil), repo
}

// flakyKV fails the next failGets reads, like a locked or unreachable database.
type flakyKV struct {
	*memory.Store
	mu       sync.Mutex
	failGets int
}

func (f *flakyKV) failNextGet() {
	f.mu.Lock()
	f.failGets++
	f.mu.Unlock()
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	fail := f.failGets > 0
	if fail {
		f.failGets--
	}
	f.mu.Unlock()
	if fail {
		return nil, false, errors.New("connection reset by peer")
	}
	return f.Store.Get(ctx, key)
}

func input(date, category, amount, desc string) core.ExpenseInput {
	return core.ExpenseInput{Date: date, Category: category, Amount: amount, Description: desc, PaymentMethod: "Card"}
}

func TestExpenseService_CreateAndGet(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newService(t, pub)
	ctx := context.Background()

	e, err := svc.Create(ctx, input("2024-03-10", "Food", "12.50", "Lunch"))
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, int64(1250), e.Amount.Cents)

	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lunch", got.Description)

	require.Len(t, pub.events, 1)
	assert.Equal(t, published{amqp.OpCreated, e.ID}, pub.events[0])
}

func TestExpenseService_CreateValidation(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newService(t, pub)

	_, err := svc.Create(context.Background(), input("10-03-2024", "Food", "-1", ""))
	require.Error(t, err)

	var verrs core.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "date")
	assert.Contains(t, verrs, "amount")
	assert.Contains(t, verrs, "description")
	assert.Empty(t, svc.List(context.Background()))
	assert.Empty(t, pub.events, "rejected input must not publish")
}

func TestExpenseService_CreateCoercesEnums(t *testing.T) {
	svc, _ := newService(t, nil)
	in := input("2024-03-10", "Groceries", "5", "Milk")
	in.PaymentMethod = "Cheque"

	e, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryOther, e.Category)
	assert.Equal(t, core.PaymentUPI, e.PaymentMethod)
}

func TestExpenseService_UniqueIDs(t *testing.T) {
	svc, _ := newService(t, nil)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		e, err := svc.Create(context.Background(), input("2024-03-10", "Food", "1", "x"))
		require.NoError(t, err)
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
	}
	assert.Len(t, svc.List(context.Background()), 50)
}

func TestExpenseService_Update(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newService(t, pub)
	ctx := context.Background()

	a, _ := svc.Create(ctx, input("2024-03-10", "Food", "10", "A"))
	b, _ := svc.Create(ctx, input("2024-03-11", "Bills", "20", "B"))

	updated, err := svc.Update(ctx, a.ID, input("2024-03-12", "Health", "30", "A2"))
	require.NoError(t, err)
	assert.Equal(t, a.ID, updated.ID)

	list := svc.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "A2", list[0].Description, "update keeps position")
	assert.Equal(t, b.ID, list[1].ID)
	assert.Equal(t, published{amqp.OpUpdated, a.ID}, pub.events[len(pub.events)-1])

	_, err = svc.Update(ctx, "missing", input("2024-03-12", "Health", "30", "x"))
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Update(ctx, "", input("2024-03-12", "Health", "30", "x"))
	assert.ErrorIs(t, err, core.ErrEmptyID)
}

func TestExpenseService_Delete(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newService(t, pub)
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	a, _ := svc.Create(ctx, input("2024-03-14", "Food", "10", "A"))
	_, _ = svc.Create(ctx, input("2024-03-15", "Food", "5", "B"))

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, a.ID), core.ErrNotFound)

	_, err := svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// deleted expense leaves every aggregation
	d := svc.Dashboard(ctx, now)
	assert.Equal(t, int64(500), d.Total.Cents)
	assert.Equal(t, []core.CategoryTotal{{Category: core.CategoryFood, Amount: core.Money{Cents: 500}}}, d.Categories)
	r := svc.Report(ctx, aggregate.ThisMonth, now)
	assert.Len(t, r.Expenses, 1)

	assert.Equal(t, published{amqp.OpDeleted, a.ID}, pub.events[len(pub.events)-1])
}

func TestExpenseService_ReadFailureDoesNotOverwrite(t *testing.T) {
	kv := &flakyKV{Store: memory.New()}
	pub := &fakePublisher{}
	svc := NewExpenseService(store.NewRepository(kv, nil), pub, nil)
	ctx := context.Background()

	var first core.Expense
	for i, desc := range []string{"A", "B", "C"} {
		e, err := svc.Create(ctx, input("2024-03-10", "Food", "10", desc))
		require.NoError(t, err)
		if i == 0 {
			first = e
		}
	}

	kv.failNextGet()
	_, err := svc.Create(ctx, input("2024-03-11", "Food", "5", "D"))
	require.Error(t, err)
	assert.Len(t, svc.List(ctx), 3, "failed read must leave the stored list intact")

	kv.failNextGet()
	_, err = svc.Update(ctx, first.ID, input("2024-03-11", "Food", "5", "A2"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrNotFound)

	kv.failNextGet()
	err = svc.Delete(ctx, first.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrNotFound)

	kv.failNextGet()
	_, err = svc.Get(ctx, first.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrNotFound)

	list := svc.List(ctx)
	require.Len(t, list, 3)
	assert.Equal(t, "A", list[0].Description)
	assert.Len(t, pub.events, 3, "failed mutations publish nothing")

	_, err = svc.Create(ctx, input("2024-03-11", "Food", "5", "D"))
	require.NoError(t, err)
	assert.Len(t, svc.List(ctx), 4)
}

func TestExpenseService_PublishFailureDoesNotFail(t *testing.T) {
	pub := &fakePublisher{err: errors.New("circuit breaker is open")}
	svc, _ := newService(t, pub)

	_, err := svc.Create(context.Background(), input("2024-03-10", "Food", "1", "x"))
	require.NoError(t, err)
	assert.Len(t, svc.List(context.Background()), 1)
}

func TestExpenseService_SaveAndFilterRoundTrip(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	e, err := svc.Create(ctx, input("2024-03-10", "Transport", "7.25", "Bus"))
	require.NoError(t, err)

	got := svc.History(ctx, aggregate.Filter{Category: "Transport", Date: "2024-03-10"}, aggregate.SortLatest)
	require.Len(t, got, 1)
	assert.Equal(t, e.ID, got[0].ID)

	none := svc.History(ctx, aggregate.Filter{Category: "Food"}, aggregate.SortLatest)
	assert.Empty(t, none)
}

func TestExpenseService_Dashboard(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

	for i, day := range []string{"2024-03-01", "2024-03-09", "2024-03-10", "2024-03-11", "2024-03-13", "2024-03-15", "2024-03-15"} {
		_, err := svc.Create(ctx, input(day, "Food", "1", "item"))
		require.NoError(t, err, i)
	}

	d := svc.Dashboard(ctx, now)
	assert.Equal(t, "2024-03-15", d.Today.String())
	assert.Equal(t, 7, d.Count)
	assert.Equal(t, int64(700), d.Total.Cents)
	require.Len(t, d.Weekly, 7)
	assert.Equal(t, "2024-03-09", d.Weekly[0].Date.String())
	assert.Equal(t, int64(200), d.Weekly[6].Amount.Cents)
	require.Len(t, d.Recent, RecentLimit)
	assert.Equal(t, "2024-03-15", d.Recent[0].Date.String())
	assert.Equal(t, "2024-03-10", d.Recent[4].Date.String())
}

func TestExpenseService_ProfileAndTheme(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	assert.Equal(t, core.DefaultProfile(), svc.Profile(ctx))
	assert.Equal(t, core.ThemeLight, svc.Theme(ctx))

	p, err := svc.SaveProfile(ctx, core.UserProfile{Name: "   "})
	require.NoError(t, err)
	assert.Equal(t, core.DefaultProfileName, p.Name)

	_, err = svc.SaveProfile(ctx, core.UserProfile{Name: "Asha"})
	require.NoError(t, err)
	assert.Equal(t, "Asha", svc.Profile(ctx).Name)

	require.NoError(t, svc.SaveTheme(ctx, core.ThemeDark))
	assert.Equal(t, core.ThemeDark, svc.Theme(ctx))
}

func TestExpenseService_Close(t *testing.T) {
	t.Run("nil publisher", func(t *testing.T) {
		svc, _ := newService(t, nil)
		assert.NoError(t, svc.Close())
	})
	t.Run("closes publisher", func(t *testing.T) {
		pub := &fakePublisher{}
		svc, _ := newService(t, pub)
		require.NoError(t, svc.Close())
		assert.True(t, pub.closed)
	})
}
