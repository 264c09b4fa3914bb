package ledger

import (
	"context"
	"fmt"

	"bizdash/internal/core"
	"bizdash/internal/storage"

	"golang.org/x/sync/errgroup"
)

// Snapshot is the data a dashboard summary is computed from.
type Snapshot struct {
	Clients  []core.Client
	Payments []core.Payment
	Projects []core.Project
	Goals    []core.Goal
}

// LoadSnapshot reads every collection a summary needs concurrently.
func LoadSnapshot(ctx context.Context, store storage.Store) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Clients, err = store.Clients().List(gctx)
		return wrapList(storage.Clients, err)
	})
	g.Go(func() (err error) {
		snap.Payments, err = store.Payments().List(gctx)
		return wrapList(storage.Payments, err)
	})
	g.Go(func() (err error) {
		snap.Projects, err = store.Projects().List(gctx)
		return wrapList(storage.Projects, err)
	})
	g.Go(func() (err error) {
		snap.Goals, err = store.Goals().List(gctx)
		return wrapList(storage.Goals, err)
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func wrapList(collection string, err error) error {
	if err != nil {
		return fmt.Errorf("list %s: %w", collection, err)
	}
	return nil
}

type GoalProgress struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Progress float64 `json:"progress"`
}

type Summary struct {
	Year           int                        `json:"year"`
	Month          int                        `json:"month"`
	PeriodRevenue  core.Money                 `json:"periodRevenue"`
	YearRevenue    core.Money                 `json:"yearRevenue"`
	TotalRevenue   core.Money                 `json:"totalRevenue"`
	Pipeline       core.Money                 `json:"pipeline"`
	MonthlyRevenue [12]core.Money             `json:"monthlyRevenue"`
	ActiveClients  int                        `json:"activeClients"`
	ClientStatus   map[string]FinancialStatus `json:"clientStatus"`
	Alerts         []Alert                    `json:"alerts"`
	Goals          []GoalProgress             `json:"goals"`
}

// Summarize computes the dashboard figures for period as of today.
func Summarize(s Snapshot, period core.Period, today core.Date, dismissed map[string]bool) Summary {
	contribs := Contributions(s.Payments, s.Projects)

	sum := Summary{
		Year:          period.Year,
		Month:         int(period.Month),
		PeriodRevenue: SumContributions(contribs, period.Year, period.Month),
		YearRevenue:   SumContributions(contribs, period.Year, 0),
		TotalRevenue:  TotalRevenue(s.Payments, s.Projects),
		Pipeline:      Pipeline(s.Projects),
		ClientStatus:  make(map[string]FinancialStatus, len(s.Clients)),
		Alerts:        BuildOverdueAlerts(s.Payments, s.Projects, s.Clients, period, today, dismissed),
		Goals:         make([]GoalProgress, 0, len(s.Goals)),
	}
	sum.MonthlyRevenue = MonthlyRevenue(s.Payments, s.Projects, period.Year)

	for _, c := range s.Clients {
		if c.Status == core.ClientActive {
			sum.ActiveClients++
		}
		sum.ClientStatus[c.ID] = ClientFinancialStatus(c, s.Payments, today)
	}
	for _, g := range s.Goals {
		sum.Goals = append(sum.Goals, GoalProgress{ID: g.ID, Title: g.Title, Progress: g.Progress()})
	}
	if sum.Alerts == nil {
		sum.Alerts = []Alert{}
	}
	return sum
}
