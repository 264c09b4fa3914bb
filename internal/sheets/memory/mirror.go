// Package memory is an in-process payment mirror used when no spreadsheet
// is configured and in tests.
package memory

import (
	"context"
	"sync"

	"bizdash/internal/sheets"
)

var _ sheets.PaymentMirror = (*Mirror)(nil)

type Mirror struct {
	mu   sync.Mutex
	rows []sheets.PaymentRow
}

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) UpsertRow(_ context.Context, row sheets.PaymentRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(row.PaymentID); i >= 0 {
		m.rows[i] = row
		return nil
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *Mirror) DeleteRow(_ context.Context, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(paymentID); i >= 0 {
		m.rows = append(m.rows[:i], m.rows[i+1:]...)
	}
	return nil
}

// Rows returns a copy of the mirrored rows in sheet order.
func (m *Mirror) Rows() []sheets.PaymentRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sheets.PaymentRow(nil), m.rows...)
}

func (m *Mirror) indexOf(id string) int {
	for i, r := range m.rows {
		if r.PaymentID == id {
			return i
		}
	}
	return -1
}
