// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for billing: each contract kind
// has a schedule that decides whether a client should be billed for the
// month containing a given day.

package services

import (
	"fmt"

	"bizdash/internal/core"
	"bizdash/internal/ledger"
)

// BillingSchedule is the strategy interface for deciding if a client is due
// a payment in the month containing today.
type BillingSchedule interface {
	IsDue(client core.Client, today core.Date) bool
	// DueDate is the date the period's payment falls due.
	DueDate(client core.Client, period core.Period) core.Date
}

// MonthlySchedule bills active clients with a monthly fee once their due day
// is reached. A due day past the end of the month falls on its last day.
type MonthlySchedule struct{}

func (MonthlySchedule) IsDue(client core.Client, today core.Date) bool {
	if client.Status != core.ClientActive || client.MonthlyFee.Cents <= 0 {
		return false
	}
	due := MonthlySchedule{}.DueDate(client, today.Period())
	return !today.EarlierThan(due)
}

func (MonthlySchedule) DueDate(client core.Client, period core.Period) core.Date {
	day := client.DueDay
	if day == 0 {
		day = ledger.DefaultDueDay
	}
	return period.DateOnDay(day)
}

// NoSchedule never bills; one-off clients are invoiced by hand.
type NoSchedule struct{}

func (NoSchedule) IsDue(core.Client, core.Date) bool { return false }

func (NoSchedule) DueDate(core.Client, core.Period) core.Date { return core.Date{} }

// billingSchedules maps contract kinds to their schedule.
var billingSchedules = map[core.ContractKind]BillingSchedule{
	core.Recurring: MonthlySchedule{},
	core.OneOff:    NoSchedule{},
}

// GetBillingSchedule returns the schedule for a contract kind.
func GetBillingSchedule(kind core.ContractKind) (BillingSchedule, error) {
	s, ok := billingSchedules[kind]
	if !ok {
		return nil, fmt.Errorf("unknown contract kind: %s", kind)
	}
	return s, nil
}

// RegisterBillingSchedule installs or replaces the schedule for kind.
func RegisterBillingSchedule(kind core.ContractKind, s BillingSchedule) {
	billingSchedules[kind] = s
}
