package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/log"
)

// Canned tips responses. SavingTips never returns an error.
const (
	TipsUnavailableMessage = "AI saving tips are unavailable because no API key is configured."
	TipsNoExpensesMessage  = "Add a few expenses first and I will suggest ways to save."
	TipsFailedMessage      = "Sorry, I couldn't generate saving tips right now. Please try again later."
)

// Extraction is the validated result of a receipt scan. Defaulted lists the
// fields whose model output was missing or out of range and was replaced.
type Extraction struct {
	Input     core.ExpenseInput `json:"expense"`
	Defaulted []string          `json:"defaulted"`
}

// Clean reports whether every field came from the model unchanged.
func (e Extraction) Clean() bool { return len(e.Defaulted) == 0 }

// AdvisorConfig configures an Advisor. Zero values get defaults.
type AdvisorConfig struct {
	Timeout   time.Duration
	TipsCache cache.Cache[string]
	Logger    *log.Logger
	Now       func() time.Time
}

// Advisor is the application-facing AI gateway.
type Advisor struct {
	provider Provider
	timeout  time.Duration
	tips     cache.Cache[string]
	group    singleflight.Group
	logger   *log.Logger
	now      func() time.Time
}

// NewAdvisor returns an advisor backed by provider. A nil provider means no
// credential is configured and every call degrades gracefully.
func NewAdvisor(provider Provider, cfg AdvisorConfig) *Advisor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.TipsCache == nil {
		cfg.TipsCache = cache.NewLRUCache[string](32, 10*time.Minute)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Advisor{
		provider: provider,
		timeout:  cfg.Timeout,
		tips:     cfg.TipsCache,
		logger:   cfg.Logger.WithComponent(log.ComponentAI),
		now:      cfg.Now,
	}
}

// Available reports whether a provider is configured.
func (a *Advisor) Available() bool { return a.provider != nil }

// SavingTips returns advice text for list. Identical lists share one remote
// call and its cached answer.
func (a *Advisor) SavingTips(ctx context.Context, list []core.Expense) string {
	if a.provider == nil {
		return TipsUnavailableMessage
	}
	if len(list) == 0 {
		return TipsNoExpensesMessage
	}

	key := fingerprint(list)
	if tips, ok := a.tips.Get(key); ok {
		return tips
	}

	v, err, _ := a.group.Do(key, func() (any, error) {
		callCtx, cancel := a.callContext(ctx)
		defer cancel()

		text, err := a.provider.GenerateText(callCtx, tipsPrompt(list))
		if err != nil {
			return "", err
		}
		a.tips.Set(key, text)
		return text, nil
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "Saving tips request failed",
			log.NewFields().WithOperation(log.OpTips).WithError(err, log.ErrorTypeRemote).ToSlice()...)
		return TipsFailedMessage
	}
	return v.(string)
}

// rawExtraction mirrors the response schema. Pointers distinguish absent fields.
type rawExtraction struct {
	Date          string           `json:"date"`
	Category      string           `json:"category"`
	Amount        *decimal.Decimal `json:"amount"`
	Description   string           `json:"description"`
	PaymentMethod string           `json:"paymentMethod"`
}

// ExtractExpense scans a receipt image. allowed restricts the category set,
// defaulting to every category.
func (a *Advisor) ExtractExpense(ctx context.Context, img Image, allowed []core.Category) (Extraction, error) {
	if a.provider == nil {
		return Extraction{}, ErrUnavailable
	}
	if len(allowed) == 0 {
		allowed = core.Categories()
	}
	today := core.Today(a.now())

	callCtx, cancel := a.callContext(ctx)
	defer cancel()

	raw, err := a.provider.ExtractStructured(callCtx, img, extractionInstruction(allowed, today), expenseSchema(allowed))
	if err != nil {
		a.logger.ErrorContext(ctx, "Receipt extraction request failed",
			log.NewFields().WithOperation(log.OpExtract).WithError(err, log.ErrorTypeRemote).ToSlice()...)
		return Extraction{}, ErrCouldNotAnalyze
	}

	var parsed rawExtraction
	if err := json.Unmarshal(stripCodeFence(raw), &parsed); err != nil {
		a.logger.ErrorContext(ctx, "Receipt extraction returned invalid JSON",
			log.NewFields().WithOperation(log.OpParse).WithError(err, log.ErrorTypeParse).ToSlice()...)
		return Extraction{}, ErrCouldNotAnalyze
	}

	ext := coerce(parsed, allowed, today)
	if !ext.Clean() {
		a.logger.InfoContext(ctx, "Receipt extraction fields defaulted", log.FieldDefaulted, ext.Defaulted)
	}
	return ext, nil
}

// coerce maps out-of-domain values to documented defaults.
func coerce(raw rawExtraction, allowed []core.Category, today core.Date) Extraction {
	var ext Extraction

	if d, err := core.ParseDate(raw.Date); err == nil {
		ext.Input.Date = d.String()
	} else {
		ext.Input.Date = today.String()
		ext.Defaulted = append(ext.Defaulted, "date")
	}

	category, ok := core.ParseCategory(raw.Category, allowed...)
	ext.Input.Category = string(category)
	if !ok {
		ext.Defaulted = append(ext.Defaulted, "category")
	}

	if raw.Amount != nil && raw.Amount.IsPositive() {
		if m := core.MoneyFromDecimal(*raw.Amount); m.Cents > 0 {
			ext.Input.Amount = m.String()
		}
	}
	if ext.Input.Amount == "" {
		ext.Defaulted = append(ext.Defaulted, "amount")
	}

	ext.Input.Description = strings.TrimSpace(raw.Description)
	if ext.Input.Description == "" {
		ext.Defaulted = append(ext.Defaulted, "description")
	}

	method, ok := core.ParsePaymentMethod(raw.PaymentMethod)
	ext.Input.PaymentMethod = string(method)
	if !ok {
		ext.Defaulted = append(ext.Defaulted, "paymentMethod")
	}

	return ext
}

// callContext detaches from the caller's cancellation: a closed request only
// discards the result, it does not abort the remote call.
func (a *Advisor) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
}

func fingerprint(list []core.Expense) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, e := range list {
		_ = enc.Encode(e)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// stripCodeFence tolerates models that wrap JSON in a markdown fence.
func stripCodeFence(b []byte) []byte {
	s := strings.TrimSpace(string(b))
	if !strings.HasPrefix(s, "```") {
		return b
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return []byte(strings.TrimSpace(s))
}

// IsUnavailable reports whether err means AI is not configured.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
