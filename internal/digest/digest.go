// Package digest e-mails the last-week report on a cron schedule.
package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"expenses/internal/aggregate"
	"expenses/internal/core"
	"expenses/internal/export"
	"expenses/internal/log"
	"expenses/internal/share"
)

// ReportSource builds period reports.
type ReportSource interface {
	Report(ctx context.Context, p aggregate.Period, now time.Time) core.PeriodReport
	Theme(ctx context.Context) core.Theme
}

// Digest composes and sends one report e-mail.
type Digest struct {
	source    ReportSource
	sender    Sender
	formatter share.Formatter
	period    aggregate.Period
	logger    *log.Logger
	now       func() time.Time
}

func New(source ReportSource, sender Sender, formatter share.Formatter, logger *log.Logger) *Digest {
	if logger == nil {
		logger = log.Discard()
	}
	return &Digest{
		source:    source,
		sender:    sender,
		formatter: formatter,
		period:    aggregate.LastWeek,
		logger:    logger.WithComponent(log.ComponentDigest),
		now:       time.Now,
	}
}

// Compose builds the message for the report as of now. ok is false when
// the period has no expenses.
func (d *Digest) Compose(ctx context.Context, now time.Time) (msg Message, ok bool, err error) {
	r := d.source.Report(ctx, d.period, now)
	if len(r.Expenses) == 0 {
		return Message{}, false, nil
	}

	pdf, err := export.RenderPDF(export.ReportView(r, d.source.Theme(ctx)))
	if err != nil {
		return Message{}, false, fmt.Errorf("render digest pdf: %w", err)
	}

	var b strings.Builder
	b.WriteString(d.formatter.Summary(r.Title, r.Total))
	fmt.Fprintf(&b, "\n%s to %s, %d expenses\n\n", r.Start, r.End, len(r.Expenses))
	for _, ct := range r.Categories {
		fmt.Fprintf(&b, "%-14s %s\n", ct.Category, d.formatter.Amount(ct.Amount))
	}

	return Message{
		Subject:        r.Title,
		Text:           b.String(),
		AttachmentName: export.FileName(r.Title, now, "pdf"),
		Attachment:     pdf,
	}, true, nil
}

// Run composes and sends the digest. Empty periods are skipped.
func (d *Digest) Run(ctx context.Context) error {
	now := d.now()
	msg, ok, err := d.Compose(ctx, now)
	if err != nil {
		return err
	}
	if !ok {
		d.logger.InfoContext(ctx, "No expenses in digest period, skipping", log.FieldPeriod, string(d.period))
		return nil
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	return nil
}
