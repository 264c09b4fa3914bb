package ledger

import (
	"context"
	"errors"

	"bizdash/internal/core"
)

// Action describes what a write did to a payment.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

type (
	Change struct {
		Payment core.Payment
		Action  Action
	}

	// Notifier observes ledger writes. Implementations must not block for
	// long and handle their own failures.
	Notifier interface {
		PaymentChanged(ctx context.Context, change Change)
	}

	// NotifierFunc adapts a function to Notifier.
	NotifierFunc func(ctx context.Context, change Change)

	// Notifiers fans a change out to each notifier in order.
	Notifiers []Notifier

	NopNotifier struct{}
)

func (f NotifierFunc) PaymentChanged(ctx context.Context, change Change) { f(ctx, change) }

func (ns Notifiers) PaymentChanged(ctx context.Context, change Change) {
	for _, n := range ns {
		if n != nil {
			n.PaymentChanged(ctx, change)
		}
	}
}

func (NopNotifier) PaymentChanged(context.Context, Change) {}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
