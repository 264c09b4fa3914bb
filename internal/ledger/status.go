package ledger

import "bizdash/internal/core"

// FinancialStatus summarizes whether a client is up to date.
type FinancialStatus string

const (
	StatusOK       FinancialStatus = "ok"
	StatusOverdue  FinancialStatus = "overdue"
	StatusInactive FinancialStatus = "inactive"
)

// ClientFinancialStatus classifies client on today. payments may contain
// other clients' records; they are ignored.
//
// Inactive clients are always StatusInactive. Otherwise a client is overdue
// when one of its pending payments was due before today, or when it is billed
// monthly, today is past its due day and nothing was paid for this month.
// Pending payments without a due date are never overdue.
func ClientFinancialStatus(client core.Client, payments []core.Payment, today core.Date) FinancialStatus {
	if client.Status == core.ClientInactive {
		return StatusInactive
	}

	current := today.Period()
	paidThisMonth := false
	for _, p := range payments {
		if p.ClientID != client.ID {
			continue
		}
		if p.Status == core.Pending && !p.DueDate.IsZero() && p.DueDate.EarlierThan(today) {
			return StatusOverdue
		}
		if p.Status == core.Paid && p.EffectivePeriod() == current {
			paidThisMonth = true
		}
	}

	if client.IsRecurring() && client.DueDay > 0 && today.Day() > client.DueDay && !paidThisMonth {
		return StatusOverdue
	}
	return StatusOK
}
