package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bizdash/internal/log"
	ports "bizdash/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors payments into one sheet of a spreadsheet, one row per
// payment keyed by the id in column A.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.PaymentMirror = (*Client)(nil)

// New creates a Sheets client authenticated with a service account key.
func New(ctx context.Context, spreadsheetID, sheet string, credentialsJSON []byte, logger *log.Logger) (*Client, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, sheet, logger)
}

// NewWithService wraps an existing service, e.g. one pointed at a test server.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheet string, logger *log.Logger) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheet = "Payments"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func (c *Client) UpsertRow(ctx context.Context, row ports.PaymentRow) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if strings.TrimSpace(row.PaymentID) == "" {
		return errors.New("row without payment id")
	}

	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}

	if n := findRow(ids, row.PaymentID); n > 0 {
		rng := fmt.Sprintf("%s!A%d:G%d", c.sheet, n, n)
		vr := &gsheet.ValueRange{Values: [][]any{row.Values()}}
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		c.logger.DebugContext(ctx, "Updated payment row", log.FieldPaymentID, row.PaymentID, "row", n)
		return nil
	}

	values := [][]any{row.Values()}
	if len(ids) == 0 {
		values = append([][]any{headerValues()}, values...)
	}
	rng := fmt.Sprintf("%s!A:G", c.sheet)
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.sheet, err)
	}
	c.logger.DebugContext(ctx, "Appended payment row", log.FieldPaymentID, row.PaymentID)
	return nil
}

func (c *Client) DeleteRow(ctx context.Context, paymentID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	n := findRow(ids, paymentID)
	if n == 0 {
		return nil
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(n - 1),
					EndIndex:   int64(n),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d of %s: %w", n, c.sheet, err)
	}
	c.logger.DebugContext(ctx, "Deleted payment row", log.FieldPaymentID, paymentID, "row", n)
	return nil
}

// readIDs returns column A, one entry per sheet row.
func (c *Client) readIDs(ctx context.Context) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	ids := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) > 0 {
			ids[i] = strings.TrimSpace(fmt.Sprint(row[0]))
		}
	}
	return ids, nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheet {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheet)
}

// findRow returns the 1-based row holding id, or 0. The header row never
// matches.
func findRow(ids []string, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0
	}
	for i, v := range ids {
		if i == 0 && v == ports.Header[0] {
			continue
		}
		if v == id {
			return i + 1
		}
	}
	return 0
}

func headerValues() []any {
	out := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		out[i] = h
	}
	return out
}
