//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"bizdash/internal/log"
	ports "bizdash/internal/sheets"
)

// Integration tests require a real spreadsheet shared with the service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_PaymentMirror(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	creds := []byte(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	if file := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"); len(creds) == 0 && file != "" {
		var err error
		if creds, err = os.ReadFile(file); err != nil {
			t.Fatalf("read credentials: %v", err)
		}
	}
	if len(creds) == 0 {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sheet := os.Getenv("GOOGLE_SHEET_NAME")
	client, err := New(ctx, spreadsheetID, sheet, creds, log.Discard())
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	id := "it-" + time.Now().Format("20060102150405")
	row := ports.PaymentRow{PaymentID: id, Client: "Integration", DueDate: "2026-01-10", Value: "1.00", Status: "pending"}

	if err := client.UpsertRow(ctx, row); err != nil {
		t.Fatalf("append: %v", err)
	}
	row.Status = "paid"
	if err := client.UpsertRow(ctx, row); err != nil {
		t.Fatalf("update: %v", err)
	}

	ids, err := client.readIDs(ctx)
	if err != nil {
		t.Fatalf("readIDs: %v", err)
	}
	count := 0
	for _, v := range ids {
		if v == id {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one row for %s, found %d", id, count)
	}

	if err := client.DeleteRow(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
