// Package ledger records payments per client and billing month and derives
// the revenue, status and alert views shown on the dashboard.
//
// The write side is the Reconciler: every operation resolves the target
// record by (client, month, year), merges the caller's fields and writes a
// single record. The read side is a set of pure functions over slices of
// records so that callers can feed them from any store or cache.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/log"
	"bizdash/internal/storage"

	"github.com/google/uuid"
)

type (
	// PaymentFields is a partial update. Nil fields are left untouched on an
	// existing record and take defaults on a new one.
	PaymentFields struct {
		Value       *core.Money
		Description *string
		Status      *core.PaymentStatus
		PaidAt      *core.Date
		ReceiptURL  *string
	}

	UpsertRequest struct {
		ClientID string
		DueDate  core.Date
		// PaymentID, when it names a stored payment, wins over period matching.
		PaymentID string
		Fields    PaymentFields
	}

	Reconciler struct {
		payments storage.PaymentStore
		now      func() time.Time
		newID    func() string
		logger   *log.Logger
		notifier Notifier

		mu    sync.Mutex
		locks map[string]*sync.Mutex
	}

	Option func(*Reconciler)
)

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Reconciler) { r.newID = newID }
}

func WithLogger(l *log.Logger) Option {
	return func(r *Reconciler) { r.logger = l.WithComponent(log.ComponentLedger) }
}

// WithNotifier registers n to be told about every successful write.
func WithNotifier(n Notifier) Option {
	return func(r *Reconciler) { r.notifier = n }
}

func NewReconciler(payments storage.PaymentStore, opts ...Option) *Reconciler {
	r := &Reconciler{
		payments: payments,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   log.New(log.Config{Component: log.ComponentLedger}),
		notifier: NopNotifier{},
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Today is the reconciler's current calendar date.
func (r *Reconciler) Today() core.Date {
	return core.DateOf(r.now())
}

// Upsert records fields for the client's billing month containing DueDate.
// The stored record is either the one named by PaymentID, the first payment
// of the client due in that month, or a new pending payment with zero value.
func (r *Reconciler) Upsert(ctx context.Context, req UpsertRequest) (core.Payment, error) {
	return r.upsert(ctx, req, false)
}

// RecordManualPayment is Upsert for payments entered by hand: the result is
// always paid, keeping an existing paid date or using today.
func (r *Reconciler) RecordManualPayment(ctx context.Context, req UpsertRequest) (core.Payment, error) {
	return r.upsert(ctx, req, true)
}

func (r *Reconciler) upsert(ctx context.Context, req UpsertRequest, manual bool) (core.Payment, error) {
	if err := req.validate(); err != nil {
		return core.Payment{}, err
	}

	unlock := r.lockClient(req.ClientID)
	defer unlock()

	period := req.DueDate.Period()
	existing, found, err := r.match(ctx, req.ClientID, period, req.PaymentID)
	if err != nil {
		return core.Payment{}, err
	}

	payment := existing
	action := ActionUpdated
	if !found {
		action = ActionCreated
		payment = core.Payment{
			ID:       r.newID(),
			ClientID: req.ClientID,
			DueDate:  req.DueDate,
			Status:   core.Pending,
		}
	}
	req.Fields.apply(&payment)

	if manual {
		payment.Status = core.Paid
		if payment.PaidAt.IsZero() {
			payment.PaidAt = r.Today()
		}
	}

	op := log.OpUpsert
	if manual {
		op = log.OpManual
	}
	return r.save(ctx, payment, action, op)
}

// Toggle flips the client's payment for period between paid and pending.
// When the period has no payment yet, a paid one is created for the client's
// monthly fee, dated on the client's due day (day 10 when unset).
func (r *Reconciler) Toggle(ctx context.Context, client core.Client, period core.Period) (core.Payment, error) {
	if strings.TrimSpace(client.ID) == "" {
		return core.Payment{}, core.ErrEmptyClientID
	}
	if err := period.Validate(); err != nil {
		return core.Payment{}, err
	}

	unlock := r.lockClient(client.ID)
	defer unlock()

	payment, found, err := r.match(ctx, client.ID, period, "")
	if err != nil {
		return core.Payment{}, err
	}

	if !found {
		day := client.DueDay
		if day == 0 {
			day = DefaultDueDay
		}
		date := period.DateOnDay(day)
		payment = core.Payment{
			ID:       r.newID(),
			ClientID: client.ID,
			DueDate:  date,
			Value:    client.MonthlyFee,
			Status:   core.Paid,
			PaidAt:   date,
		}
		return r.save(ctx, payment, ActionCreated, log.OpToggle)
	}

	if payment.Status == core.Paid {
		payment.Status = core.Pending
		payment.PaidAt = core.Date{}
	} else {
		payment.Status = core.Paid
		payment.PaidAt = r.Today()
	}
	return r.save(ctx, payment, ActionUpdated, log.OpToggle)
}

// Delete removes a payment and reports the deletion to the notifier.
func (r *Reconciler) Delete(ctx context.Context, id string) (core.Payment, error) {
	p, err := r.payments.Get(ctx, id)
	if err != nil {
		return core.Payment{}, fmt.Errorf("load payment %s: %w", id, err)
	}

	unlock := r.lockClient(p.ClientID)
	defer unlock()

	if err := r.payments.Delete(ctx, id); err != nil {
		return core.Payment{}, fmt.Errorf("delete payment %s: %w", id, err)
	}
	r.logger.InfoContext(ctx, "Payment deleted",
		log.NewFields().WithPayment(p).WithOperation(log.OpDelete).Args()...)
	r.notifier.PaymentChanged(ctx, Change{Payment: p, Action: ActionDeleted})
	return p, nil
}

// DefaultDueDay is used when a client has no configured due day.
const DefaultDueDay = 10

// match resolves the payment a write should land on. Several payments due in
// the same month for one client is a data fault: the first in storage order
// is used and the rest are reported. An explicit id naming another client's
// payment is refused.
func (r *Reconciler) match(ctx context.Context, clientID string, period core.Period, paymentID string) (core.Payment, bool, error) {
	if paymentID != "" {
		p, err := r.payments.Get(ctx, paymentID)
		if err == nil {
			if p.ClientID != clientID {
				r.logger.WarnContext(ctx, "Payment id names another client's payment",
					log.FieldPaymentID, paymentID,
					log.FieldClientID, clientID,
					"owner_client_id", p.ClientID)
				return core.Payment{}, false, fmt.Errorf("payment %s: %w", paymentID, core.ErrClientMismatch)
			}
			return p, true, nil
		}
		if !isNotFound(err) {
			return core.Payment{}, false, fmt.Errorf("load payment %s: %w", paymentID, err)
		}
	}

	candidates, err := r.payments.FindForPeriod(ctx, clientID, period)
	if err != nil {
		return core.Payment{}, false, fmt.Errorf("find payments for %s in %s: %w", clientID, period, err)
	}
	if len(candidates) == 0 {
		return core.Payment{}, false, nil
	}
	if len(candidates) > 1 {
		ids := make([]string, len(candidates))
		for i, c := range candidates {
			ids[i] = c.ID
		}
		r.logger.WarnContext(ctx, "Ambiguous payment match, using first",
			log.FieldClientID, clientID,
			log.FieldPeriod, period.String(),
			log.FieldMatches, ids)
	}
	return candidates[0], true, nil
}

func (r *Reconciler) save(ctx context.Context, p core.Payment, action Action, op string) (core.Payment, error) {
	if err := r.payments.Put(ctx, p); err != nil {
		return core.Payment{}, fmt.Errorf("save payment %s: %w", p.ID, err)
	}
	r.logger.InfoContext(ctx, "Payment recorded",
		log.NewFields().WithPayment(p).WithOperation(op).Args()...)
	r.notifier.PaymentChanged(ctx, Change{Payment: p, Action: action})
	return p, nil
}

// lockClient serializes match-then-write for one client within this process.
func (r *Reconciler) lockClient(clientID string) func() {
	r.mu.Lock()
	l, ok := r.locks[clientID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[clientID] = l
	}
	r.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (req UpsertRequest) validate() error {
	if strings.TrimSpace(req.ClientID) == "" {
		return core.ErrEmptyClientID
	}
	if req.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", core.ErrInvalidDate)
	}
	f := req.Fields
	if f.Status != nil && !f.Status.Valid() {
		return core.ErrInvalidStatus
	}
	if f.Value != nil {
		if err := f.Value.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (f PaymentFields) apply(p *core.Payment) {
	if f.Value != nil {
		p.Value = *f.Value
	}
	if f.Description != nil {
		p.Description = *f.Description
	}
	if f.Status != nil {
		p.Status = *f.Status
	}
	if f.PaidAt != nil {
		p.PaidAt = *f.PaidAt
	}
	if f.ReceiptURL != nil {
		p.ReceiptURL = *f.ReceiptURL
	}
}
