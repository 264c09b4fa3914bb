package worker

import (
	"context"
	"errors"
	"testing"

	"bizdash/internal/amqp"
	"bizdash/internal/core"
	"bizdash/internal/log"
	"bizdash/internal/sheets"
	sheetsmem "bizdash/internal/sheets/memory"
	"bizdash/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingMirror struct{}

func (failingMirror) UpsertRow(context.Context, sheets.PaymentRow) error {
	return errors.New("quota exceeded")
}
func (failingMirror) DeleteRow(context.Context, string) error { return errors.New("quota exceeded") }

func TestMirrorWorker(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Clients().Put(ctx, core.Client{ID: "C1", Name: "Acme", Kind: core.OneOff, Status: core.ClientActive}))
	payment := core.Payment{
		ID:       "p1",
		ClientID: "C1",
		DueDate:  core.MustParseDate("2026-03-10"),
		Value:    core.Money{Cents: 9900},
		Status:   core.Pending,
	}
	require.NoError(t, store.Payments().Put(ctx, payment))

	mirror := sheetsmem.New()
	w := NewMirrorWorker(store, mirror, log.Discard(), nil)

	t.Run("created event writes the stored payment", func(t *testing.T) {
		require.NoError(t, w.HandlePaymentEvent(ctx, amqp.PaymentEvent{PaymentID: "p1", Action: "created"}))
		rows := mirror.Rows()
		require.Len(t, rows, 1)
		assert.Equal(t, "Acme", rows[0].Client)
		assert.Equal(t, "99.00", rows[0].Value)
		assert.Equal(t, "pending", rows[0].Status)
	})

	t.Run("updated event rewrites the row", func(t *testing.T) {
		payment.Status = core.Paid
		payment.PaidAt = core.MustParseDate("2026-03-11")
		require.NoError(t, store.Payments().Put(ctx, payment))

		require.NoError(t, w.HandlePaymentEvent(ctx, amqp.PaymentEvent{PaymentID: "p1", Action: "updated"}))
		rows := mirror.Rows()
		require.Len(t, rows, 1)
		assert.Equal(t, "paid", rows[0].Status)
		assert.Equal(t, "2026-03-11", rows[0].PaidAt)
	})

	t.Run("payment gone from storage removes the row", func(t *testing.T) {
		require.NoError(t, store.Payments().Delete(ctx, "p1"))
		require.NoError(t, w.HandlePaymentEvent(ctx, amqp.PaymentEvent{PaymentID: "p1", Action: "updated"}))
		assert.Empty(t, mirror.Rows())
	})
}

func TestMirrorWorkerDeletedEvent(t *testing.T) {
	ctx := context.Background()
	mirror := sheetsmem.New()
	require.NoError(t, mirror.UpsertRow(ctx, sheets.PaymentRow{PaymentID: "p9"}))

	w := NewMirrorWorker(memory.NewStore(), mirror, log.Discard(), nil)
	require.NoError(t, w.HandlePaymentEvent(ctx, amqp.PaymentEvent{PaymentID: "p9", Action: "deleted"}))
	assert.Empty(t, mirror.Rows())
}

func TestMirrorWorkerUnknownClientUsesID(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Payments().Put(ctx, core.Payment{ID: "p1", ClientID: "ghost", Status: core.Pending}))
	mirror := sheetsmem.New()

	w := NewMirrorWorker(store, mirror, log.Discard(), nil)
	require.NoError(t, w.HandlePaymentEvent(ctx, amqp.PaymentEvent{PaymentID: "p1", Action: "created"}))
	require.Len(t, mirror.Rows(), 1)
	assert.Equal(t, "ghost", mirror.Rows()[0].Client)
}

func TestMirrorWorkerReturnsMirrorErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Payments().Put(ctx, core.Payment{ID: "p1", ClientID: "C1", Status: core.Pending}))

	w := NewMirrorWorker(store, failingMirror{}, log.Discard(), nil)
	assert.Error(t, w.HandlePaymentEvent(ctx, amqp.PaymentEvent{PaymentID: "p1", Action: "created"}))
	assert.Error(t, w.HandlePaymentEvent(ctx, amqp.PaymentEvent{PaymentID: "p1", Action: "deleted"}))
}
