package sheets

import (
	"context"

	"bizdash/internal/core"
)

// Header is the first row of a payment mirror sheet.
var Header = []string{"ID", "Client", "Due date", "Value", "Status", "Paid at", "Description"}

// Ports for outbound adapters.
type (
	// PaymentRow is one payment as shown in the mirror sheet. Column A holds
	// the payment id and identifies the row.
	PaymentRow struct {
		PaymentID   string
		Client      string
		DueDate     string
		Value       string
		Status      string
		PaidAt      string
		Description string
	}

	// PaymentMirror keeps a spreadsheet copy of the ledger.
	PaymentMirror interface {
		// UpsertRow rewrites the row of row.PaymentID or appends a new one.
		UpsertRow(ctx context.Context, row PaymentRow) error
		// DeleteRow removes the row of paymentID; a missing row is not an error.
		DeleteRow(ctx context.Context, paymentID string) error
	}
)

// RowFor renders a payment for the mirror. clientName may be empty when the
// client no longer exists; the client id is shown instead.
func RowFor(p core.Payment, clientName string) PaymentRow {
	if clientName == "" {
		clientName = p.ClientID
	}
	return PaymentRow{
		PaymentID:   p.ID,
		Client:      clientName,
		DueDate:     p.DueDate.String(),
		Value:       p.Value.String(),
		Status:      string(p.Status),
		PaidAt:      p.PaidAt.String(),
		Description: p.Description,
	}
}

// Values returns the row cells in column order.
func (r PaymentRow) Values() []any {
	return []any{r.PaymentID, r.Client, r.DueDate, r.Value, r.Status, r.PaidAt, r.Description}
}
