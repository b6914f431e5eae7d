package store

import (
	"context"
	"encoding/json"
	"fmt"

	"expenses/internal/core"
	"expenses/internal/log"
)

// Repository reads and writes typed records. Reads never fail: absent or
// unparsable values fall back to defaults and are logged for diagnostics.
type Repository struct {
	kv     Observable
	logger *log.Logger
}

func NewRepository(kv KV, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.Discard()
	}
	return &Repository{kv: Observe(kv), logger: logger.WithComponent(log.ComponentStore)}
}

// Ping checks the backend is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.kv.Ping(ctx)
}

// Expenses returns the stored list in insertion order. Entries that fail to
// decode are skipped individually.
func (r *Repository) Expenses(ctx context.Context) []core.Expense {
	raw, ok := r.load(ctx, KeyExpenses)
	if !ok {
		return []core.Expense{}
	}
	return r.decodeExpenses(raw)
}

// LoadExpenses is the read used before a write. Unlike Expenses it returns
// backend errors, so a failed read is never saved back as an empty list.
func (r *Repository) LoadExpenses(ctx context.Context) ([]core.Expense, error) {
	raw, found, err := r.kv.Get(ctx, KeyExpenses)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", KeyExpenses, err)
	}
	if !found || len(raw) == 0 {
		return []core.Expense{}, nil
	}
	return r.decodeExpenses(raw), nil
}

func (r *Repository) decodeExpenses(raw []byte) []core.Expense {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		r.fallback(KeyExpenses, err)
		return []core.Expense{}
	}

	out := make([]core.Expense, 0, len(items))
	for i, item := range items {
		var e core.Expense
		if err := json.Unmarshal(item, &e); err != nil {
			r.logger.Warn("Skipping unreadable stored expense",
				log.FieldStoreKey, KeyExpenses, "index", i, log.FieldError, err.Error())
			continue
		}
		out = append(out, e.Normalize())
	}
	return out
}

// SaveExpenses replaces the stored list.
func (r *Repository) SaveExpenses(ctx context.Context, list []core.Expense) error {
	if list == nil {
		list = []core.Expense{}
	}
	return r.save(ctx, KeyExpenses, list)
}

// Profile returns the stored profile or the Guest default.
func (r *Repository) Profile(ctx context.Context) core.UserProfile {
	raw, ok := r.load(ctx, KeyProfile)
	if !ok {
		return core.DefaultProfile()
	}
	var p core.UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		r.fallback(KeyProfile, err)
		return core.DefaultProfile()
	}
	return p.Normalize()
}

func (r *Repository) SaveProfile(ctx context.Context, p core.UserProfile) error {
	return r.save(ctx, KeyProfile, p.Normalize())
}

// Theme returns the stored theme or light.
func (r *Repository) Theme(ctx context.Context) core.Theme {
	raw, ok := r.load(ctx, KeyTheme)
	if !ok {
		return core.ThemeLight
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		r.fallback(KeyTheme, err)
		return core.ThemeLight
	}
	return core.ParseTheme(s)
}

func (r *Repository) SaveTheme(ctx context.Context, t core.Theme) error {
	return r.save(ctx, KeyTheme, string(core.ParseTheme(string(t))))
}

// OnExpensesChanged calls fn with the decoded list after every successful save.
func (r *Repository) OnExpensesChanged(fn func([]core.Expense)) (unsubscribe func()) {
	return r.kv.Subscribe(KeyExpenses, func(raw []byte) {
		fn(r.decodeExpenses(raw))
	})
}

func (r *Repository) load(ctx context.Context, key string) ([]byte, bool) {
	raw, found, err := r.kv.Get(ctx, key)
	if err != nil {
		r.fallback(key, err)
		return nil, false
	}
	if !found || len(raw) == 0 {
		return nil, false
	}
	return raw, true
}

func (r *Repository) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (r *Repository) fallback(key string, err error) {
	r.logger.Warn("Stored value unreadable, using default",
		log.NewFields().
			WithStoreKey(key).
			WithError(err, log.ErrorTypeParse).
			ToSlice()...)
}
