package share

import (
	"context"
	"errors"

	"expenses/internal/log"
)

// ErrNoTarget is returned by Target implementations that are not configured.
var ErrNoTarget = errors.New("no share target configured")

// Payload is what gets shared: the summary text and an optional file.
type Payload struct {
	Text     string
	FileName string
	File     []byte
}

// Target delivers a payload somewhere outside the app.
type Target interface {
	Name() string
	Share(ctx context.Context, p Payload) error
}

// Result reports the outcome of a share. When Shared is false, Fallback
// holds the text for the user to copy.
type Result struct {
	Shared   bool   `json:"shared"`
	Target   string `json:"target,omitempty"`
	Fallback string `json:"fallback,omitempty"`
}

// Sharer tries its target and otherwise hands back a copyable payload.
type Sharer struct {
	target Target
	logger *log.Logger
}

// NewSharer accepts a nil target, every share then falls back.
func NewSharer(target Target, logger *log.Logger) *Sharer {
	if logger == nil {
		logger = log.Discard()
	}
	return &Sharer{target: target, logger: logger.WithComponent(log.ComponentShare)}
}

// Available reports whether a share target is configured.
func (s *Sharer) Available() bool {
	return s.target != nil
}

// Share never fails: target errors are logged and turned into a fallback.
func (s *Sharer) Share(ctx context.Context, p Payload) Result {
	if s.target == nil {
		return Result{Fallback: p.Text}
	}
	if err := s.target.Share(ctx, p); err != nil {
		s.logger.WarnContext(ctx, "Share target failed, returning clipboard fallback",
			"target", s.target.Name(),
			log.FieldOperation, log.OpShare,
			log.FieldError, err)
		return Result{Target: s.target.Name(), Fallback: p.Text}
	}
	s.logger.InfoContext(ctx, "Summary shared", "target", s.target.Name(), "attachment", p.FileName)
	return Result{Shared: true, Target: s.target.Name()}
}
