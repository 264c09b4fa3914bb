package ledger

import (
	"time"

	"bizdash/internal/core"
)

// Contributions turns paid payments and paid projects into revenue
// contributions, payments first, each in input order.
func Contributions(payments []core.Payment, projects []core.Project) []core.RevenueContribution {
	out := make([]core.RevenueContribution, 0, len(payments)+len(projects))
	for _, p := range payments {
		if c, ok := core.FromPayment(p); ok {
			out = append(out, c)
		}
	}
	for _, p := range projects {
		if c, ok := core.FromProject(p); ok {
			out = append(out, c)
		}
	}
	return out
}

// SumContributions adds up contributions attributed to year and, when month
// is non-zero, to that month. Contributions without a period never match.
func SumContributions(contribs []core.RevenueContribution, year int, month time.Month) core.Money {
	var total core.Money
	for _, c := range contribs {
		if !c.HasPeriod || c.Period.Year != year {
			continue
		}
		if month != 0 && c.Period.Month != month {
			continue
		}
		total = total.Add(c.Amount)
	}
	return total
}

// AggregateRevenue is the paid revenue of year, or of one month of it when
// month is non-zero.
func AggregateRevenue(payments []core.Payment, projects []core.Project, year int, month time.Month) core.Money {
	return SumContributions(Contributions(payments, projects), year, month)
}

// TotalRevenue sums every paid payment and every paid project budget,
// regardless of period.
func TotalRevenue(payments []core.Payment, projects []core.Project) core.Money {
	var total core.Money
	for _, c := range Contributions(payments, projects) {
		total = total.Add(c.Amount)
	}
	return total
}

// Pipeline is the budget of projects whose payment is still pending.
func Pipeline(projects []core.Project) core.Money {
	var total core.Money
	for _, p := range projects {
		if p.PaymentStatus == core.Pending {
			total = total.Add(p.Budget)
		}
	}
	return total
}

// MonthlyRevenue returns the revenue of each month of year, January first.
func MonthlyRevenue(payments []core.Payment, projects []core.Project, year int) [12]core.Money {
	var months [12]core.Money
	for _, c := range Contributions(payments, projects) {
		if c.HasPeriod && c.Period.Year == year {
			months[c.Period.Month-1] = months[c.Period.Month-1].Add(c.Amount)
		}
	}
	return months
}
