package services

import (
	"testing"

	"bizdash/internal/core"
)

func TestMonthlySchedule_IsDue(t *testing.T) {
	schedule := MonthlySchedule{}
	fee := core.Money{Cents: 50000}

	tests := []struct {
		name   string
		client core.Client
		today  string
		want   bool
	}{
		{
			name:   "before due day - not due",
			client: core.Client{Status: core.ClientActive, MonthlyFee: fee, DueDay: 15},
			today:  "2026-03-14",
			want:   false,
		},
		{
			name:   "on due day - is due",
			client: core.Client{Status: core.ClientActive, MonthlyFee: fee, DueDay: 15},
			today:  "2026-03-15",
			want:   true,
		},
		{
			name:   "due day 31 in february - due on the 28th",
			client: core.Client{Status: core.ClientActive, MonthlyFee: fee, DueDay: 31},
			today:  "2026-02-28",
			want:   true,
		},
		{
			name:   "unset due day - defaults to the 10th",
			client: core.Client{Status: core.ClientActive, MonthlyFee: fee},
			today:  "2026-03-09",
			want:   false,
		},
		{
			name:   "inactive client - not due",
			client: core.Client{Status: core.ClientInactive, MonthlyFee: fee, DueDay: 1},
			today:  "2026-03-20",
			want:   false,
		},
		{
			name:   "no fee - not due",
			client: core.Client{Status: core.ClientActive, DueDay: 1},
			today:  "2026-03-20",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := schedule.IsDue(tt.client, core.MustParseDate(tt.today))
			if got != tt.want {
				t.Errorf("MonthlySchedule.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlySchedule_DueDate(t *testing.T) {
	tests := []struct {
		name   string
		dueDay int
		period core.Period
		want   string
	}{
		{"regular day", 5, core.Period{Year: 2026, Month: 3}, "2026-03-05"},
		{"clamped to month end", 31, core.Period{Year: 2026, Month: 4}, "2026-04-30"},
		{"leap february", 30, core.Period{Year: 2028, Month: 2}, "2028-02-29"},
		{"default day", 0, core.Period{Year: 2026, Month: 1}, "2026-01-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlySchedule{}.DueDate(core.Client{DueDay: tt.dueDay}, tt.period)
			if got.String() != tt.want {
				t.Errorf("DueDate() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNoSchedule(t *testing.T) {
	c := core.Client{Status: core.ClientActive, MonthlyFee: core.Money{Cents: 1}, DueDay: 1}
	if (NoSchedule{}).IsDue(c, core.MustParseDate("2026-03-31")) {
		t.Error("NoSchedule should never be due")
	}
}

func TestGetBillingSchedule(t *testing.T) {
	tests := []struct {
		name    string
		kind    core.ContractKind
		wantErr bool
	}{
		{"recurring", core.Recurring, false},
		{"one-off", core.OneOff, false},
		{"unknown", core.ContractKind("retainer"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := GetBillingSchedule(tt.kind)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetBillingSchedule() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && s == nil {
				t.Error("GetBillingSchedule() returned nil schedule")
			}
		})
	}
}

func TestRegisterBillingSchedule(t *testing.T) {
	kind := core.ContractKind("retainer")
	RegisterBillingSchedule(kind, MonthlySchedule{})
	defer delete(billingSchedules, kind)

	s, err := GetBillingSchedule(kind)
	if err != nil {
		t.Fatalf("GetBillingSchedule() after register error = %v", err)
	}
	if s == nil {
		t.Error("GetBillingSchedule() returned nil after registration")
	}
}
