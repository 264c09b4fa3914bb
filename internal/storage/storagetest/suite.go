// Package storagetest holds behaviour checks every storage backend must pass.
package storagetest

import (
	"context"
	"testing"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh store returned by open for each subtest.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Run("get missing returns not found", func(t *testing.T) {
		s := open(t)
		_, err := s.Clients().Get(context.Background(), "nope")
		require.ErrorIs(t, err, core.ErrNotFound)
		require.ErrorIs(t, s.Clients().Delete(context.Background(), "nope"), core.ErrNotFound)
	})

	t.Run("put replaces in place and keeps order", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, s.Clients().Put(ctx, core.Client{ID: id, Name: id, Kind: core.Recurring, Status: core.ClientActive}))
		}
		require.NoError(t, s.Clients().Put(ctx, core.Client{ID: "b", Name: "bee", Kind: core.OneOff, Status: core.ClientInactive}))

		list, err := s.Clients().List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{list[0].ID, list[1].ID, list[2].ID})
		assert.Equal(t, "bee", list[1].Name)

		got, err := s.Clients().Get(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, core.ClientInactive, got.Status)
	})

	t.Run("delete removes only the record", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		require.NoError(t, s.Goals().Put(ctx, core.Goal{ID: "g1", Title: "one", Target: 10}))
		require.NoError(t, s.Goals().Put(ctx, core.Goal{ID: "g2", Title: "two", Target: 20}))
		require.NoError(t, s.Goals().Delete(ctx, "g1"))

		list, err := s.Goals().List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "g2", list[0].ID)
	})

	t.Run("payment round trip keeps dates and money", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		p := core.Payment{
			ID:          "p1",
			ClientID:    "c1",
			DueDate:     core.NewDate(2026, time.March, 10),
			PaidAt:      core.NewDate(2026, time.March, 12),
			Value:       core.Money{Cents: 150050},
			Status:      core.Paid,
			Description: "March fee",
		}
		require.NoError(t, s.Payments().Put(ctx, p))
		got, err := s.Payments().Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, p.DueDate.String(), got.DueDate.String())
		assert.Equal(t, p.PaidAt.String(), got.PaidAt.String())
		assert.Equal(t, p.Value, got.Value)
		assert.Equal(t, p.Status, got.Status)
	})

	t.Run("find for period matches client and month in insertion order", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		payments := []core.Payment{
			{ID: "p1", ClientID: "c1", DueDate: core.NewDate(2026, time.March, 10), Status: core.Pending},
			{ID: "p2", ClientID: "c2", DueDate: core.NewDate(2026, time.March, 10), Status: core.Pending},
			{ID: "p3", ClientID: "c1", DueDate: core.NewDate(2026, time.April, 10), Status: core.Pending},
			{ID: "p4", ClientID: "c1", DueDate: core.NewDate(2026, time.March, 31), Status: core.Paid},
			{ID: "p5", ClientID: "c1", DueDate: core.NewDate(2025, time.March, 10), Status: core.Pending},
			{ID: "p6", ClientID: "c1", Status: core.Pending},
		}
		for _, p := range payments {
			require.NoError(t, s.Payments().Put(ctx, p))
		}

		got, err := s.Payments().FindForPeriod(ctx, "c1", core.Period{Year: 2026, Month: time.March})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "p1", got[0].ID)
		assert.Equal(t, "p4", got[1].ID)

		none, err := s.Payments().FindForPeriod(ctx, "c9", core.Period{Year: 2026, Month: time.March})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("find for period goes by due date over explicit month", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		require.NoError(t, s.Payments().Put(ctx, core.Payment{
			ID: "legacy", ClientID: "c1", DueDate: core.NewDate(2026, time.March, 15),
			Year: 2026, Month: 4, Status: core.Pending,
		}))

		march, err := s.Payments().FindForPeriod(ctx, "c1", core.Period{Year: 2026, Month: time.March})
		require.NoError(t, err)
		require.Len(t, march, 1)
		assert.Equal(t, "legacy", march[0].ID)

		april, err := s.Payments().FindForPeriod(ctx, "c1", core.Period{Year: 2026, Month: time.April})
		require.NoError(t, err)
		assert.Empty(t, april)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		require.NoError(t, s.Tasks().Put(ctx, core.Task{ID: "x", Title: "task"}))
		require.NoError(t, s.Projects().Put(ctx, core.Project{ID: "x", ClientID: "c1", Name: "site", Status: core.ProjectPending, PaymentStatus: core.Pending}))

		tasks, err := s.Tasks().List(ctx)
		require.NoError(t, err)
		projects, err := s.Projects().List(ctx)
		require.NoError(t, err)
		assert.Len(t, tasks, 1)
		assert.Len(t, projects, 1)
		assert.Equal(t, "site", projects[0].Name)
	})
}
