package services

import (
	"context"
	"fmt"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/ledger"
	"bizdash/internal/log"
	"bizdash/internal/metrics"
	"bizdash/internal/storage"
)

// BillingProcessor creates the pending payment of the current month for
// every client whose billing schedule says it is due.
type BillingProcessor struct {
	clients    storage.Collection[core.Client]
	payments   storage.PaymentStore
	reconciler *ledger.Reconciler
	logger     *log.Logger
	metrics    *metrics.Metrics
}

// NewBillingProcessor creates a new billing processor. m may be nil.
func NewBillingProcessor(store storage.Store, reconciler *ledger.Reconciler, logger *log.Logger, m *metrics.Metrics) *BillingProcessor {
	return &BillingProcessor{
		clients:    store.Clients(),
		payments:   store.Payments(),
		reconciler: reconciler,
		logger:     logger.WithComponent(log.ComponentBilling),
		metrics:    m,
	}
}

// ProcessDue bills every due client for the month containing now and returns
// how many payments were created. A month that already has a payment for the
// client is left alone, so running it repeatedly is harmless.
func (p *BillingProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	clients, err := p.clients.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list clients: %w", err)
	}

	today := core.DateOf(now)
	period := today.Period()
	created := 0

	for _, c := range clients {
		schedule, err := GetBillingSchedule(c.Kind)
		if err != nil {
			p.logger.WarnContext(ctx, "Skipping client with unknown contract kind",
				log.FieldClientID, c.ID, "kind", c.Kind)
			continue
		}
		if !schedule.IsDue(c, today) {
			continue
		}

		existing, err := p.payments.FindForPeriod(ctx, c.ID, period)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to look up payments",
				log.FieldClientID, c.ID, log.FieldPeriod, period.String(), log.FieldError, err)
			continue
		}
		if len(existing) > 0 {
			continue
		}

		value := c.MonthlyFee
		description := fmt.Sprintf("Monthly fee %s", period)
		payment, err := p.reconciler.Upsert(ctx, ledger.UpsertRequest{
			ClientID: c.ID,
			DueDate:  schedule.DueDate(c, period),
			Fields: ledger.PaymentFields{
				Value:       &value,
				Description: &description,
			},
		})
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to create monthly payment",
				log.FieldClientID, c.ID, log.FieldPeriod, period.String(), log.FieldError, err)
			continue
		}

		created++
		p.logger.InfoContext(ctx, "Created monthly payment",
			log.NewFields().WithPayment(payment).WithOperation(log.OpBilling).Args()...)
	}

	p.metrics.BillingCreated(created)
	p.logger.InfoContext(ctx, "Billing run complete",
		"created", created,
		"total_checked", len(clients),
		log.FieldPeriod, period.String())

	return created, nil
}
