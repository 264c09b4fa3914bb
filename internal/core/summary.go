package core

// RevenueSource tells which record kind produced a contribution.
type RevenueSource string

const (
	FromPaymentSource RevenueSource = "payment"
	FromProjectSource RevenueSource = "project"
)

// RevenueContribution is a single paid amount feeding revenue totals.
// Payments and projects both produce contributions; the aggregator does not
// care which one it came from.
type RevenueContribution struct {
	Source RevenueSource
	ID     string
	Amount Money
	Period Period
	// HasPeriod is false for paid projects without a paid date. They count
	// towards totals but towards no month.
	HasPeriod bool
}

// FromPayment returns the contribution of a paid payment. ok is false for
// anything not paid.
func FromPayment(p Payment) (c RevenueContribution, ok bool) {
	if p.Status != Paid {
		return RevenueContribution{}, false
	}
	return RevenueContribution{
		Source:    FromPaymentSource,
		ID:        p.ID,
		Amount:    p.Value,
		Period:    p.EffectivePeriod(),
		HasPeriod: true,
	}, true
}

// FromProject returns the contribution of a project whose budget was paid.
func FromProject(p Project) (c RevenueContribution, ok bool) {
	if p.PaymentStatus != Paid {
		return RevenueContribution{}, false
	}
	period, dated := p.EffectivePeriod()
	return RevenueContribution{
		Source:    FromProjectSource,
		ID:        p.ID,
		Amount:    p.Budget,
		Period:    period,
		HasPeriod: dated,
	}, true
}
