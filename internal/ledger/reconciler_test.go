package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/log"
	"bizdash/internal/storage"
	"bizdash/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(s string) func() time.Time {
	d := core.MustParseDate(s)
	return func() time.Time { return d.Time.Add(15 * time.Hour) }
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("pay-%d", n)
	}
}

func newTestReconciler(t *testing.T, today string, opts ...Option) (*Reconciler, storage.Store) {
	t.Helper()
	store := memory.NewStore()
	opts = append([]Option{
		WithClock(fixedClock(today)),
		WithIDGenerator(sequentialIDs()),
		WithLogger(log.Discard()),
	}, opts...)
	return NewReconciler(store.Payments(), opts...), store
}

func money(cents int64) *core.Money {
	m := core.Money{Cents: cents}
	return &m
}

func status(s core.PaymentStatus) *core.PaymentStatus { return &s }

func TestUpsertIsIdempotentPerPeriod(t *testing.T) {
	ctx := context.Background()
	r, store := newTestReconciler(t, "2026-03-20")

	first, err := r.Upsert(ctx, UpsertRequest{
		ClientID: "C1",
		DueDate:  core.MustParseDate("2026-03-10"),
		Fields:   PaymentFields{Value: money(10000)},
	})
	require.NoError(t, err)

	second, err := r.Upsert(ctx, UpsertRequest{
		ClientID: "C1",
		DueDate:  core.MustParseDate("2026-03-25"),
		Fields:   PaymentFields{Value: money(20000)},
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	all, err := store.Payments().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(20000), all[0].Value.Cents)
	assert.Equal(t, "2026-03-10", all[0].DueDate.String(), "due date of the matched record is kept")
}

func TestUpsertNewPeriodDefaults(t *testing.T) {
	ctx := context.Background()
	r, store := newTestReconciler(t, "2026-03-20")

	p, err := r.Upsert(ctx, UpsertRequest{
		ClientID: "C1",
		DueDate:  core.MustParseDate("2026-03-10"),
		Fields:   PaymentFields{Value: money(10000)},
	})
	require.NoError(t, err)
	assert.Equal(t, core.Pending, p.Status)
	assert.Equal(t, "", p.Description)
	assert.True(t, p.PaidAt.IsZero())
	assert.Equal(t, "pay-1", p.ID)

	q, err := r.Upsert(ctx, UpsertRequest{
		ClientID: "C1",
		DueDate:  core.MustParseDate("2026-04-10"),
		Fields:   PaymentFields{Status: status(core.Paid)},
	})
	require.NoError(t, err)
	assert.Equal(t, core.Paid, q.Status)
	assert.Zero(t, q.Value.Cents)

	all, err := store.Payments().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpsertLeavesAbsentFieldsUntouched(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestReconciler(t, "2026-03-20")
	desc := "March retainer"
	receipt := "https://example.com/r/1"

	_, err := r.Upsert(ctx, UpsertRequest{
		ClientID: "C1",
		DueDate:  core.MustParseDate("2026-03-10"),
		Fields:   PaymentFields{Value: money(5000), Description: &desc, ReceiptURL: &receipt},
	})
	require.NoError(t, err)

	p, err := r.Upsert(ctx, UpsertRequest{
		ClientID: "C1",
		DueDate:  core.MustParseDate("2026-03-10"),
		Fields:   PaymentFields{Status: status(core.Paid)},
	})
	require.NoError(t, err)
	assert.Equal(t, desc, p.Description)
	assert.Equal(t, receipt, p.ReceiptURL)
	assert.Equal(t, int64(5000), p.Value.Cents)
	assert.Equal(t, core.Paid, p.Status)
}

func TestManualPaymentForcesPaid(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestReconciler(t, "2026-03-20")

	p, err := r.RecordManualPayment(ctx, UpsertRequest{
		ClientID: "C1",
		DueDate:  core.MustParseDate("2026-03-10"),
		Fields:   PaymentFields{Value: money(10000), Status: status(core.Pending)},
	})
	require.NoError(t, err)
	assert.Equal(t, core.Paid, p.Status)
	assert.Equal(t, "2026-03-20", p.PaidAt.String())

	paidAt := core.MustParseDate("2026-03-12")
	p, err = r.RecordManualPayment(ctx, UpsertRequest{
		ClientID: "C1",
		DueDate:  core.MustParseDate("2026-03-10"),
		Fields:   PaymentFields{PaidAt: &paidAt},
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-12", p.PaidAt.String())

	p, err = r.RecordManualPayment(ctx, UpsertRequest{ClientID: "C1", DueDate: core.MustParseDate("2026-03-01")})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-12", p.PaidAt.String(), "existing paid date is kept")
}

func TestUpsertExplicitIDWins(t *testing.T) {
	ctx := context.Background()
	r, store := newTestReconciler(t, "2026-03-20")

	require.NoError(t, store.Payments().Put(ctx, core.Payment{
		ID: "legacy", ClientID: "C1", DueDate: core.MustParseDate("2026-01-05"), Status: core.Pending,
	}))

	p, err := r.Upsert(ctx, UpsertRequest{
		ClientID:  "C1",
		DueDate:   core.MustParseDate("2026-03-10"),
		PaymentID: "legacy",
		Fields:    PaymentFields{Value: money(700)},
	})
	require.NoError(t, err)
	assert.Equal(t, "legacy", p.ID)

	p, err = r.Upsert(ctx, UpsertRequest{
		ClientID:  "C1",
		DueDate:   core.MustParseDate("2026-01-20"),
		PaymentID: "unknown",
		Fields:    PaymentFields{Value: money(900)},
	})
	require.NoError(t, err)
	assert.Equal(t, "legacy", p.ID, "unknown id falls back to period matching")
	assert.Equal(t, int64(900), p.Value.Cents)
}

func TestUpsertRejectsOtherClientsPaymentID(t *testing.T) {
	ctx := context.Background()
	r, store := newTestReconciler(t, "2026-03-20")

	require.NoError(t, store.Payments().Put(ctx, core.Payment{
		ID: "p-c2", ClientID: "C2", DueDate: core.MustParseDate("2026-03-05"),
		Value: core.Money{Cents: 50000}, Status: core.Pending,
	}))

	for _, write := range []func(context.Context, UpsertRequest) (core.Payment, error){r.Upsert, r.RecordManualPayment} {
		_, err := write(ctx, UpsertRequest{
			ClientID:  "C1",
			DueDate:   core.MustParseDate("2026-03-10"),
			PaymentID: "p-c2",
			Fields:    PaymentFields{Value: money(100)},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrClientMismatch), "got %v", err)
	}

	p, err := store.Payments().Get(ctx, "p-c2")
	require.NoError(t, err)
	assert.Equal(t, "C2", p.ClientID)
	assert.Equal(t, int64(50000), p.Value.Cents)
	assert.Equal(t, core.Pending, p.Status)

	c1, err := store.Payments().FindForPeriod(ctx, "C1", core.Period{Year: 2026, Month: time.March})
	require.NoError(t, err)
	assert.Empty(t, c1)
}

func TestUpsertAmbiguousMatchUsesFirstAndWarns(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)})
	r, store := newTestReconciler(t, "2026-03-20", WithLogger(logger))

	for _, id := range []string{"dup-a", "dup-b"} {
		require.NoError(t, store.Payments().Put(ctx, core.Payment{
			ID: id, ClientID: "C1", DueDate: core.MustParseDate("2026-03-10"), Status: core.Pending,
		}))
	}

	p, err := r.Upsert(ctx, UpsertRequest{
		ClientID: "C1",
		DueDate:  core.MustParseDate("2026-03-01"),
		Fields:   PaymentFields{Value: money(100)},
	})
	require.NoError(t, err)
	assert.Equal(t, "dup-a", p.ID)
	assert.Contains(t, buf.String(), "Ambiguous payment match")
	assert.Contains(t, buf.String(), "dup-b")
}

func TestUpsertValidation(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestReconciler(t, "2026-03-20")
	bad := core.PaymentStatus("late")

	_, err := r.Upsert(ctx, UpsertRequest{DueDate: core.MustParseDate("2026-03-10")})
	assert.ErrorIs(t, err, core.ErrEmptyClientID)

	_, err = r.Upsert(ctx, UpsertRequest{ClientID: "C1"})
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	_, err = r.Upsert(ctx, UpsertRequest{ClientID: "C1", DueDate: core.MustParseDate("2026-03-10"), Fields: PaymentFields{Status: &bad}})
	assert.ErrorIs(t, err, core.ErrInvalidStatus)

	_, err = r.Upsert(ctx, UpsertRequest{ClientID: "C1", DueDate: core.MustParseDate("2026-03-10"), Fields: PaymentFields{Value: money(-1)}})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestUpsertPreservesCollectionOrder(t *testing.T) {
	ctx := context.Background()
	r, store := newTestReconciler(t, "2026-03-20")
	for _, m := range []string{"01", "02", "03"} {
		_, err := r.Upsert(ctx, UpsertRequest{ClientID: "C1", DueDate: core.MustParseDate("2026-" + m + "-05")})
		require.NoError(t, err)
	}
	_, err := r.Upsert(ctx, UpsertRequest{ClientID: "C1", DueDate: core.MustParseDate("2026-02-10"), Fields: PaymentFields{Value: money(1)}})
	require.NoError(t, err)

	all, err := store.Payments().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"pay-1", "pay-2", "pay-3"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestToggleRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, store := newTestReconciler(t, "2026-03-20")
	client := core.Client{ID: "C1", Name: "Acme", Kind: core.Recurring, Status: core.ClientActive, MonthlyFee: core.Money{Cents: 30000}, DueDay: 31}
	feb := core.Period{Year: 2026, Month: time.February}

	p, err := r.Toggle(ctx, client, feb)
	require.NoError(t, err)
	assert.Equal(t, core.Paid, p.Status)
	assert.Equal(t, int64(30000), p.Value.Cents)
	assert.Equal(t, "2026-02-28", p.PaidAt.String(), "due day is clamped into the month")
	assert.Equal(t, feb, p.EffectivePeriod())

	p, err = r.Toggle(ctx, client, feb)
	require.NoError(t, err)
	assert.Equal(t, core.Pending, p.Status)
	assert.True(t, p.PaidAt.IsZero())

	p, err = r.Toggle(ctx, client, feb)
	require.NoError(t, err)
	assert.Equal(t, core.Paid, p.Status)
	assert.Equal(t, "2026-03-20", p.PaidAt.String())

	all, err := store.Payments().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestToggleDefaults(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestReconciler(t, "2026-03-20")

	p, err := r.Toggle(ctx, core.Client{ID: "C2", Kind: core.OneOff, Status: core.ClientActive}, core.Period{Year: 2026, Month: time.June})
	require.NoError(t, err)
	assert.Zero(t, p.Value.Cents)
	assert.Equal(t, "2026-06-10", p.PaidAt.String())

	_, err = r.Toggle(ctx, core.Client{ID: "C2"}, core.Period{Year: 2026, Month: 13})
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestNotifierSeesEveryWrite(t *testing.T) {
	ctx := context.Background()
	var changes []Change
	r, _ := newTestReconciler(t, "2026-03-20", WithNotifier(NotifierFunc(func(_ context.Context, c Change) {
		changes = append(changes, c)
	})))

	_, err := r.Upsert(ctx, UpsertRequest{ClientID: "C1", DueDate: core.MustParseDate("2026-03-10")})
	require.NoError(t, err)
	_, err = r.Toggle(ctx, core.Client{ID: "C1"}, core.Period{Year: 2026, Month: time.March})
	require.NoError(t, err)

	require.Len(t, changes, 2)
	assert.Equal(t, ActionCreated, changes[0].Action)
	assert.Equal(t, ActionUpdated, changes[1].Action)
	assert.Equal(t, core.Paid, changes[1].Payment.Status)
}

func TestConcurrentUpsertsCreateOneRecordPerPeriod(t *testing.T) {
	ctx := context.Background()
	r, store := newTestReconciler(t, "2026-03-20")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client := fmt.Sprintf("C%d", i%4)
			_, err := r.Upsert(ctx, UpsertRequest{ClientID: client, DueDate: core.MustParseDate("2026-03-10"), Fields: PaymentFields{Value: money(int64(i))}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := store.Payments().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

type failingPayments struct {
	storage.PaymentStore
	err error
}

func (f failingPayments) Put(context.Context, core.Payment) error { return f.err }

func TestStorageFailurePropagates(t *testing.T) {
	boom := errors.New("disk full")
	r := NewReconciler(failingPayments{PaymentStore: memory.NewStore().Payments(), err: boom}, WithLogger(log.Discard()))

	_, err := r.Upsert(context.Background(), UpsertRequest{ClientID: "C1", DueDate: core.MustParseDate("2026-03-10")})
	assert.ErrorIs(t, err, boom)
}

func TestDeleteNotifiesAndRemoves(t *testing.T) {
	ctx := context.Background()
	var seen []Change
	r, store := newTestReconciler(t, "2026-03-20", WithNotifier(NotifierFunc(func(_ context.Context, c Change) {
		seen = append(seen, c)
	})))

	p, err := r.Upsert(ctx, UpsertRequest{ClientID: "C1", DueDate: core.MustParseDate("2026-03-05")})
	require.NoError(t, err)

	deleted, err := r.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)

	_, err = store.Payments().Get(ctx, p.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.Len(t, seen, 2)
	assert.Equal(t, ActionDeleted, seen[1].Action)

	_, err = r.Delete(ctx, p.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLoadSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Clients().Put(ctx, core.Client{ID: "C1", Name: "Acme", Kind: core.Recurring, Status: core.ClientActive}))
	require.NoError(t, store.Payments().Put(ctx, core.Payment{ID: "p1", ClientID: "C1", DueDate: d("2026-03-05"), Status: core.Pending}))
	require.NoError(t, store.Goals().Put(ctx, core.Goal{ID: "g1", Title: "Revenue", Target: 10}))

	snap, err := LoadSnapshot(ctx, store)
	require.NoError(t, err)
	assert.Len(t, snap.Clients, 1)
	assert.Len(t, snap.Payments, 1)
	assert.Empty(t, snap.Projects)
	assert.Len(t, snap.Goals, 1)
}
