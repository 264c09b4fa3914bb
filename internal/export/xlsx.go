// Package export writes the ledger of a year as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/ledger"

	"github.com/xuri/excelize/v2"
)

const (
	PaymentsSheet = "Payments"
	RevenueSheet  = "Revenue"

	// ContentType is the MIME type of the workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var paymentHeaders = []string{"ID", "Client", "Period", "Due date", "Value", "Status", "Paid at", "Description"}

// FileName is the suggested download name for year's workbook.
func FileName(year int, now time.Time) string {
	return fmt.Sprintf("bizdash_%d_%s.xlsx", year, now.Format("20060102_150405"))
}

// WriteLedger writes two sheets: the payments attributed to year, and the
// monthly revenue of year with its total and the current pipeline.
func WriteLedger(w io.Writer, snap ledger.Snapshot, year int) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PaymentsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writePayments(f, snap, year); err != nil {
		return err
	}
	if _, err := f.NewSheet(RevenueSheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", RevenueSheet, err)
	}
	if err := writeRevenue(f, snap, year); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writePayments(f *excelize.File, snap ledger.Snapshot, year int) error {
	names := make(map[string]string, len(snap.Clients))
	for _, c := range snap.Clients {
		names[c.ID] = c.Name
	}

	if err := setRow(f, PaymentsSheet, 1, toAny(paymentHeaders)); err != nil {
		return err
	}
	row := 2
	for _, p := range snap.Payments {
		period := p.EffectivePeriod()
		if period.Year != year {
			continue
		}
		client := names[p.ClientID]
		if client == "" {
			client = p.ClientID
		}
		values := []any{
			p.ID,
			client,
			period.String(),
			p.DueDate.String(),
			p.Value.Float(),
			string(p.Status),
			p.PaidAt.String(),
			p.Description,
		}
		if err := setRow(f, PaymentsSheet, row, values); err != nil {
			return err
		}
		row++
	}
	return nil
}

func writeRevenue(f *excelize.File, snap ledger.Snapshot, year int) error {
	if err := setRow(f, RevenueSheet, 1, []any{"Month", "Revenue"}); err != nil {
		return err
	}
	months := ledger.MonthlyRevenue(snap.Payments, snap.Projects, year)
	var total core.Money
	for i, m := range months {
		label := core.Period{Year: year, Month: time.Month(i + 1)}.String()
		if err := setRow(f, RevenueSheet, i+2, []any{label, m.Float()}); err != nil {
			return err
		}
		total = total.Add(m)
	}
	if err := setRow(f, RevenueSheet, 14, []any{"Total", total.Float()}); err != nil {
		return err
	}
	return setRow(f, RevenueSheet, 15, []any{"Pipeline", ledger.Pipeline(snap.Projects).Float()})
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
