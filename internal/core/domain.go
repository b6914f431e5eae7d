package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the canonical calendar-day format. Lexical order of dates in
// this layout equals chronological order.
const DateLayout = "2006-01-02"

const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryShopping      Category = "Shopping"
	CategoryBills         Category = "Bills"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health"
	CategoryOther         Category = "Other"
)

const (
	PaymentUPI  PaymentMethod = "UPI"
	PaymentCash PaymentMethod = "Cash"
	PaymentCard PaymentMethod = "Card"
)

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultProfileName is shown until the user sets a name.
const DefaultProfileName = "Guest"

type (
	Category      string
	PaymentMethod string
	Theme         string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID            string        `json:"id"`
		Date          Date          `json:"date"`
		Category      Category      `json:"category"`
		Amount        Money         `json:"amount"`
		Description   string        `json:"description"`
		PaymentMethod PaymentMethod `json:"paymentMethod"`
	}

	UserProfile struct {
		Name string `json:"name"`
		// Picture is an embedded data URL, empty when unset
		Picture string `json:"picture,omitempty"`
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyID          = errors.New("empty expense id")
	ErrNotFound         = errors.New("expense not found")
)

var (
	categories     = []Category{CategoryFood, CategoryTransport, CategoryShopping, CategoryBills, CategoryEntertainment, CategoryHealth, CategoryOther}
	paymentMethods = []PaymentMethod{PaymentUPI, PaymentCash, PaymentCard}
)

// Categories returns the closed category set in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// PaymentMethods returns the closed payment method set in display order.
func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods)
	return out
}

// ParseCategory matches s case-insensitively against allowed (the full set
// when allowed is empty). Anything else becomes Other; ok reports whether s
// matched.
func ParseCategory(s string, allowed ...Category) (c Category, ok bool) {
	if len(allowed) == 0 {
		allowed = categories
	}
	s = strings.TrimSpace(s)
	for _, a := range allowed {
		if strings.EqualFold(string(a), s) {
			return a, true
		}
	}
	return CategoryOther, false
}

// ParsePaymentMethod coerces s to a member of the payment set, UPI by default.
func ParsePaymentMethod(s string) (p PaymentMethod, ok bool) {
	s = strings.TrimSpace(s)
	for _, m := range paymentMethods {
		if strings.EqualFold(string(m), s) {
			return m, true
		}
	}
	return PaymentUPI, false
}

// ParseTheme coerces unknown values to the light theme.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(ThemeDark)) {
		return ThemeDark
	}
	return ThemeLight
}

// NewExpenseID returns a random identifier that is unique across rapid successive creations.
func NewExpenseID() string {
	return uuid.NewString()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate accepts only the canonical YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil || len(s) != len(DateLayout) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays moves the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// ShortWeekday is the three letter weekday label, e.g. "Mon".
func (d Date) ShortWeekday() string {
	return d.Weekday().String()[:3]
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

// Normalize coerces enum fields of a decoded record back into their closed sets.
func (e Expense) Normalize() Expense {
	e.Category, _ = ParseCategory(string(e.Category))
	e.PaymentMethod, _ = ParsePaymentMethod(string(e.PaymentMethod))
	return e
}

// DefaultProfile is the profile used before anything is stored.
func DefaultProfile() UserProfile {
	return UserProfile{Name: DefaultProfileName}
}

// Normalize fills a blank name with the default.
func (p UserProfile) Normalize() UserProfile {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = DefaultProfileName
	}
	return p
}
