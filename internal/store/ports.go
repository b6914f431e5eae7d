// Package store persists the three user records (expense list, profile and
// theme) behind a small key-value port.
package store

import "context"

// Record keys.
const (
	KeyExpenses = "expenses"
	KeyProfile  = "profile"
	KeyTheme    = "theme"
)

// Ports implemented by the durable backends.
type (
	// KV is a flat byte store. Get reports found=false for absent keys.
	KV interface {
		Get(ctx context.Context, key string) (value []byte, found bool, err error)
		Set(ctx context.Context, key string, value []byte) error
		Ping(ctx context.Context) error
	}

	// Observable adds change notification on top of KV.
	Observable interface {
		KV
		Subscribe(key string, fn func(value []byte)) (unsubscribe func())
	}
)
