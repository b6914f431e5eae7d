package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"expenses/internal/core"
	"expenses/internal/log"
	ports "expenses/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors the expense list into one tab of a Google spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.Mirror = (*Client)(nil)

// Options configures a Client.
type Options struct {
	SpreadsheetID string
	// SheetName defaults to "Expenses"
	SheetName string
	// Inline service account JSON takes precedence over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
	Logger          *log.Logger
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, o Options) (*Client, error) {
	opts, err := credentialOptions(o)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, o, opts...)
}

// NewWithOptions creates a client with explicit API client options and no
// credential lookup.
func NewWithOptions(ctx context.Context, o Options, opts ...goption.ClientOption) (*Client, error) {
	id := strings.TrimSpace(o.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	name := strings.TrimSpace(o.SheetName)
	if name == "" {
		name = "Expenses"
	}
	logger := o.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", id, "sheet", name)

	return &Client{svc: svc, spreadsheetID: id, sheetName: name, logger: logger}, nil
}

func credentialOptions(o Options) ([]goption.ClientOption, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(o.CredentialsJSON) != "":
		credentialsJSON = []byte(o.CredentialsJSON)
	case strings.TrimSpace(o.CredentialsFile) != "":
		b, err := os.ReadFile(o.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials")
	}
	return []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

// Replace clears the data rows and writes the header plus every expense.
func (c *Client) Replace(ctx context.Context, list []core.Expense) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A2:F", c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rows := ports.Rows(list)
	values := make([][]any, 0, len(rows)+1)
	values = append(values, toAny(ports.Header))
	for _, r := range rows {
		values = append(values, toAny(r))
	}

	writeRange := fmt.Sprintf("%s!A1:F%d", c.sheetName, len(values))
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", writeRange, err)
	}

	c.logger.InfoContext(ctx, "Sheet mirror replaced", log.FieldCount, len(rows), "range", writeRange)
	return nil
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
