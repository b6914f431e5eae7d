package digest

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/aggregate"
	"expenses/internal/core"
	"expenses/internal/share"
)

type listSource struct {
	list []core.Expense
}

func (s listSource) Report(_ context.Context, p aggregate.Period, now time.Time) core.PeriodReport {
	return aggregate.Report(p, core.Today(now), s.list)
}

func (listSource) Theme(context.Context) core.Theme { return core.ThemeLight }

type recordingSender struct {
	sent []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, m Message) error {
	r.sent = append(r.sent, m)
	return r.err
}

// Friday 2024-03-15: last week is Sun 03-03 .. Sat 03-09
var fixedNow = time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)

func lastWeekList() []core.Expense {
	return []core.Expense{
		{ID: "1", Date: core.NewDate(2024, 3, 4), Category: core.CategoryFood, Amount: core.Money{Cents: 20000}, Description: "Dinner", PaymentMethod: core.PaymentCard},
		{ID: "2", Date: core.NewDate(2024, 3, 9), Category: core.CategoryBills, Amount: core.Money{Cents: 150000}, Description: "Rent share", PaymentMethod: core.PaymentUPI},
		{ID: "3", Date: core.NewDate(2024, 3, 12), Category: core.CategoryFood, Amount: core.Money{Cents: 999}, Description: "This week", PaymentMethod: core.PaymentCash},
	}
}

func TestDigest_Run(t *testing.T) {
	sender := &recordingSender{}
	d := New(listSource{list: lastWeekList()}, sender, share.NewFormatter("en-IN", "INR"), nil)
	d.now = func() time.Time { return fixedNow }

	require.NoError(t, d.Run(context.Background()))
	require.Len(t, sender.sent, 1)

	m := sender.sent[0]
	assert.Equal(t, "Last Week Report", m.Subject)
	assert.Equal(t, "Last-Week-Report-2024-03-15.pdf", m.AttachmentName)
	assert.True(t, strings.HasPrefix(string(m.Attachment), "%PDF-"))
	assert.Contains(t, m.Text, "1,700.00")
	assert.Contains(t, m.Text, "2024-03-03 to 2024-03-09, 2 expenses")
	assert.Contains(t, m.Text, "Bills")
	assert.NotContains(t, m.Text, "This week")
}

func TestDigest_SkipsEmptyPeriod(t *testing.T) {
	sender := &recordingSender{}
	d := New(listSource{}, sender, share.NewFormatter("en-IN", "INR"), nil)
	d.now = func() time.Time { return fixedNow }

	require.NoError(t, d.Run(context.Background()))
	assert.Empty(t, sender.sent)
}

func TestDigest_SendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	d := New(listSource{list: lastWeekList()}, sender, share.NewFormatter("en-IN", "INR"), nil)
	d.now = func() time.Time { return fixedNow }

	err := d.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
}

func TestMailer_Send(t *testing.T) {
	m := NewMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "app@example.com", To: []string{"me@example.com"}}, nil)

	var (
		gotAddr string
		gotAuth smtp.Auth
		gotMail *email.Email
	)
	m.send = func(addr string, a smtp.Auth, e *email.Email) error {
		gotAddr, gotAuth, gotMail = addr, a, e
		return nil
	}

	err := m.Send(context.Background(), Message{Subject: "S", Text: "body", AttachmentName: "r.pdf", Attachment: []byte("%PDF-1.4")})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	require.NotNil(t, gotMail)
	assert.Equal(t, "app@example.com", gotMail.From)
	assert.Equal(t, []string{"me@example.com"}, gotMail.To)
	assert.Equal(t, "S", gotMail.Subject)
	assert.Equal(t, []byte("body"), gotMail.Text)
	require.Len(t, gotMail.Attachments, 1)
	assert.Equal(t, "r.pdf", gotMail.Attachments[0].Filename)
}

func TestMailer_NoAuthWithoutUsername(t *testing.T) {
	m := NewMailer(SMTPConfig{Host: "localhost", Port: 25, From: "a@b", To: []string{"c@d"}}, nil)
	var gotAuth smtp.Auth = smtp.PlainAuth("", "x", "y", "z")
	m.send = func(_ string, a smtp.Auth, _ *email.Email) error {
		gotAuth = a
		return errors.New("refused")
	}
	err := m.Send(context.Background(), Message{Subject: "S"})
	require.Error(t, err)
	assert.Nil(t, gotAuth)
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler("not a schedule", func(context.Context) error { return nil }, 0, nil)
	assert.Error(t, err)
}

func TestScheduler_Run(t *testing.T) {
	var runs atomic.Int32
	s, err := NewScheduler("@every 1s", func(context.Context) error {
		runs.Add(1)
		return nil
	}, time.Second, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
