package ledger

import (
	"sort"

	"bizdash/internal/core"
)

type AlertKind string

const (
	AlertPayment AlertKind = "payment"
	AlertProject AlertKind = "project"
)

// Alert is an overdue payment or an unpaid project.
type Alert struct {
	Kind       AlertKind  `json:"kind"`
	ID         string     `json:"id"`
	ClientID   string     `json:"clientId"`
	ClientName string     `json:"clientName"`
	Title      string     `json:"title"`
	Amount     core.Money `json:"amount"`
	// Date is the payment due date or project deadline; zero when absent.
	Date core.Date `json:"date"`
}

// BuildOverdueAlerts lists what needs chasing in period as of today:
// pending payments of the period due before today, and pending-payment
// projects whose deadline is in the period or which have no deadline.
// Alerts whose id is in dismissed are left out. The result is ordered by
// date with undated alerts last; ties keep input order, payments before
// projects.
func BuildOverdueAlerts(
	payments []core.Payment,
	projects []core.Project,
	clients []core.Client,
	period core.Period,
	today core.Date,
	dismissed map[string]bool,
) []Alert {
	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}

	var alerts []Alert
	for _, p := range payments {
		if dismissed[p.ID] || p.Status != core.Pending {
			continue
		}
		if p.DueDate.IsZero() || !p.DueDate.EarlierThan(today) || p.EffectivePeriod() != period {
			continue
		}
		alerts = append(alerts, Alert{
			Kind:       AlertPayment,
			ID:         p.ID,
			ClientID:   p.ClientID,
			ClientName: names[p.ClientID],
			Title:      p.Description,
			Amount:     p.Value,
			Date:       p.DueDate,
		})
	}

	for _, p := range projects {
		if dismissed[p.ID] || p.PaymentStatus != core.Pending {
			continue
		}
		if !p.Deadline.IsZero() && !period.Contains(p.Deadline) {
			continue
		}
		alerts = append(alerts, Alert{
			Kind:       AlertProject,
			ID:         p.ID,
			ClientID:   p.ClientID,
			ClientName: names[p.ClientID],
			Title:      p.Name,
			Amount:     p.Budget,
			Date:       p.Deadline,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i].Date, alerts[j].Date
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.EarlierThan(b)
	})
	return alerts
}

// ParseDismissed builds a dismissed-id set from a list of ids.
func ParseDismissed(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = true
		}
	}
	return set
}
