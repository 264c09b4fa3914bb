package ledger

import (
	"testing"
	"time"

	"bizdash/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var march2026 = core.Period{Year: 2026, Month: time.March}

func d(s string) core.Date { return core.MustParseDate(s) }

func TestAggregateRevenueIsAdditive(t *testing.T) {
	payments := []core.Payment{
		{ID: "p1", ClientID: "C1", Status: core.Paid, Value: core.Money{Cents: 60000}, DueDate: d("2026-03-05")},
		{ID: "p2", ClientID: "C2", Status: core.Paid, Value: core.Money{Cents: 40000}, DueDate: d("2026-03-20")},
		{ID: "p3", ClientID: "C2", Status: core.Pending, Value: core.Money{Cents: 99900}, DueDate: d("2026-03-21")},
		{ID: "p4", ClientID: "C2", Status: core.Paid, Value: core.Money{Cents: 11100}, DueDate: d("2026-04-01")},
	}
	projects := []core.Project{
		{ID: "q1", PaymentStatus: core.Paid, Budget: core.Money{Cents: 50000}, PaidAt: d("2026-03-15")},
		{ID: "q2", PaymentStatus: core.Paid, Budget: core.Money{Cents: 77700}},
		{ID: "q3", PaymentStatus: core.Pending, Budget: core.Money{Cents: 20000}, PaidAt: d("2026-03-15")},
	}

	assert.Equal(t, int64(150000), AggregateRevenue(payments, projects, 2026, time.March).Cents)
	assert.Equal(t, int64(161100), AggregateRevenue(payments, projects, 2026, 0).Cents)
	assert.Equal(t, int64(238800), TotalRevenue(payments, projects).Cents, "undated paid projects count in the total")
	assert.Equal(t, int64(20000), Pipeline(projects).Cents)

	payments[0].Status = core.Pending
	assert.Equal(t, int64(90000), AggregateRevenue(payments, projects, 2026, time.March).Cents)
	projects[0].PaymentStatus = core.Pending
	assert.Equal(t, int64(40000), AggregateRevenue(payments, projects, 2026, time.March).Cents)
}

func TestAggregateRevenueUsesEffectivePeriod(t *testing.T) {
	payments := []core.Payment{
		{ID: "explicit", Status: core.Paid, Value: core.Money{Cents: 100}, Year: 2026, Month: 3, DueDate: d("2026-05-01")},
		{ID: "paid-only", Status: core.Paid, Value: core.Money{Cents: 200}, PaidAt: d("2026-03-09")},
		{ID: "legacy", Status: core.Paid, Value: core.Money{Cents: 400}},
	}
	assert.Equal(t, int64(300), AggregateRevenue(payments, nil, 2026, time.March).Cents)
	assert.Equal(t, int64(400), AggregateRevenue(payments, nil, core.DefaultLegacyYear, time.January).Cents)
}

func TestMonthlyRevenue(t *testing.T) {
	payments := []core.Payment{
		{Status: core.Paid, Value: core.Money{Cents: 100}, DueDate: d("2026-01-10")},
		{Status: core.Paid, Value: core.Money{Cents: 300}, DueDate: d("2026-12-10")},
		{Status: core.Paid, Value: core.Money{Cents: 500}, DueDate: d("2025-12-10")},
	}
	months := MonthlyRevenue(payments, nil, 2026)
	assert.Equal(t, int64(100), months[0].Cents)
	assert.Equal(t, int64(300), months[11].Cents)
}

func TestClientFinancialStatus(t *testing.T) {
	today := d("2026-03-10")
	recurring := core.Client{ID: "C1", Kind: core.Recurring, Status: core.ClientActive, DueDay: 5}

	tests := []struct {
		name     string
		client   core.Client
		payments []core.Payment
		want     FinancialStatus
	}{
		{
			name:   "recurring past due day without payment",
			client: recurring,
			want:   StatusOverdue,
		},
		{
			name:     "recurring paid this month",
			client:   recurring,
			payments: []core.Payment{{ClientID: "C1", Status: core.Paid, DueDate: d("2026-03-05")}},
			want:     StatusOK,
		},
		{
			name:     "paid payment of another client does not count",
			client:   recurring,
			payments: []core.Payment{{ClientID: "C2", Status: core.Paid, DueDate: d("2026-03-05")}},
			want:     StatusOverdue,
		},
		{
			name:   "before due day",
			client: core.Client{ID: "C1", Kind: core.Recurring, Status: core.ClientActive, DueDay: 10},
			want:   StatusOK,
		},
		{
			name:     "pending payment due yesterday",
			client:   core.Client{ID: "C1", Kind: core.OneOff, Status: core.ClientActive},
			payments: []core.Payment{{ClientID: "C1", Status: core.Pending, DueDate: d("2026-03-09")}},
			want:     StatusOverdue,
		},
		{
			name:     "pending payment due today is not overdue",
			client:   core.Client{ID: "C1", Kind: core.OneOff, Status: core.ClientActive},
			payments: []core.Payment{{ClientID: "C1", Status: core.Pending, DueDate: d("2026-03-10")}},
			want:     StatusOK,
		},
		{
			name:     "pending payment without due date",
			client:   core.Client{ID: "C1", Kind: core.OneOff, Status: core.ClientActive},
			payments: []core.Payment{{ClientID: "C1", Status: core.Pending}},
			want:     StatusOK,
		},
		{
			name:     "inactive short-circuits",
			client:   core.Client{ID: "C1", Kind: core.Recurring, Status: core.ClientInactive, DueDay: 1},
			payments: []core.Payment{{ClientID: "C1", Status: core.Pending, DueDate: d("2020-01-01")}},
			want:     StatusInactive,
		},
		{
			name:   "one-off ignores due day",
			client: core.Client{ID: "C1", Kind: core.OneOff, Status: core.ClientActive, DueDay: 1},
			want:   StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClientFinancialStatus(tt.client, tt.payments, today))
		})
	}
}

func TestBuildOverdueAlerts(t *testing.T) {
	today := d("2026-03-20")
	clients := []core.Client{{ID: "C1", Name: "Acme"}, {ID: "C2", Name: "Globex"}}
	payments := []core.Payment{
		{ID: "late-2", ClientID: "C1", Status: core.Pending, DueDate: d("2026-03-15"), Value: core.Money{Cents: 100}},
		{ID: "paid", ClientID: "C1", Status: core.Paid, DueDate: d("2026-03-02")},
		{ID: "future", ClientID: "C2", Status: core.Pending, DueDate: d("2026-03-25")},
		{ID: "other-month", ClientID: "C2", Status: core.Pending, DueDate: d("2026-02-10")},
		{ID: "late-1", ClientID: "C2", Status: core.Pending, DueDate: d("2026-03-01")},
	}
	projects := []core.Project{
		{ID: "undated", ClientID: "C2", Name: "Site", PaymentStatus: core.Pending},
		{ID: "april", ClientID: "C1", Name: "App", PaymentStatus: core.Pending, Deadline: d("2026-04-01")},
		{ID: "march", ClientID: "C1", Name: "Logo", PaymentStatus: core.Pending, Deadline: d("2026-03-28")},
		{ID: "settled", ClientID: "C1", Name: "Old", PaymentStatus: core.Paid, Deadline: d("2026-03-03")},
	}

	alerts := BuildOverdueAlerts(payments, projects, clients, march2026, today, nil)
	ids := make([]string, len(alerts))
	for i, a := range alerts {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"late-1", "late-2", "march", "undated"}, ids)
	assert.Equal(t, "Globex", alerts[0].ClientName)
	assert.Equal(t, AlertProject, alerts[3].Kind)

	dismissed := ParseDismissed([]string{"late-2"})
	alerts = BuildOverdueAlerts(payments, projects, clients, march2026, today, dismissed)
	require.Len(t, alerts, 3)
	for _, a := range alerts {
		assert.NotEqual(t, "late-2", a.ID)
	}
}

func TestBuildOverdueAlertsOrdering(t *testing.T) {
	today := d("2026-04-01")
	payments := []core.Payment{
		{ID: "mid", ClientID: "C1", Status: core.Pending, DueDate: d("2026-03-15")},
		{ID: "early", ClientID: "C1", Status: core.Pending, DueDate: d("2026-03-01")},
	}
	projects := []core.Project{
		{ID: "nodate-a", PaymentStatus: core.Pending},
		{ID: "nodate-b", PaymentStatus: core.Pending},
	}

	alerts := BuildOverdueAlerts(payments, projects, nil, march2026, today, map[string]bool{})
	require.Len(t, alerts, 4)
	assert.Equal(t, "2026-03-01", alerts[0].Date.String())
	assert.Equal(t, "2026-03-15", alerts[1].Date.String())
	assert.Equal(t, "nodate-a", alerts[2].ID)
	assert.Equal(t, "nodate-b", alerts[3].ID)
}

func TestSummarize(t *testing.T) {
	snap := Snapshot{
		Clients: []core.Client{
			{ID: "C1", Name: "Acme", Kind: core.Recurring, Status: core.ClientActive, DueDay: 5},
			{ID: "C2", Name: "Globex", Kind: core.OneOff, Status: core.ClientInactive},
		},
		Payments: []core.Payment{
			{ID: "p1", ClientID: "C1", Status: core.Paid, Value: core.Money{Cents: 1000}, DueDate: d("2026-02-05")},
		},
		Projects: []core.Project{
			{ID: "q1", ClientID: "C2", Name: "Site", PaymentStatus: core.Pending, Budget: core.Money{Cents: 5000}},
		},
		Goals: []core.Goal{{ID: "g1", Title: "Revenue", Target: 4, Current: 1}},
	}

	sum := Summarize(snap, march2026, d("2026-03-10"), nil)
	assert.Equal(t, 3, sum.Month)
	assert.Zero(t, sum.PeriodRevenue.Cents)
	assert.Equal(t, int64(1000), sum.YearRevenue.Cents)
	assert.Equal(t, int64(1000), sum.MonthlyRevenue[1].Cents)
	assert.Equal(t, int64(5000), sum.Pipeline.Cents)
	assert.Equal(t, 1, sum.ActiveClients)
	assert.Equal(t, StatusOverdue, sum.ClientStatus["C1"])
	assert.Equal(t, StatusInactive, sum.ClientStatus["C2"])
	require.Len(t, sum.Alerts, 1)
	assert.Equal(t, "q1", sum.Alerts[0].ID)
	require.Len(t, sum.Goals, 1)
	assert.InDelta(t, 0.25, sum.Goals[0].Progress, 1e-9)
}
