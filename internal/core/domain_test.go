package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2026-03-10" || d.Period() != (Period{Year: 2026, Month: time.March}) {
		t.Fatalf("unexpected date %v period %v", d, d.Period())
	}
	if d, err := ParseDate(""); err != nil || !d.IsEmpty() {
		t.Fatalf("empty string should give zero date, got %v err=%v", d, err)
	}
	if _, err := ParseDate("10/03/2026"); err == nil {
		t.Fatalf("expected error for non ISO date")
	}
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		D Date `json:"d"`
	}
	b, err := json.Marshal(wrapper{D: NewDate(2026, time.February, 3)})
	if err != nil || string(b) != `{"d":"2026-02-03"}` {
		t.Fatalf("marshal: %s err=%v", b, err)
	}
	b, _ = json.Marshal(wrapper{})
	if string(b) != `{"d":""}` {
		t.Fatalf("zero date should encode as empty string, got %s", b)
	}
	var w wrapper
	if err := json.Unmarshal([]byte(`{"d":"2026-12-31"}`), &w); err != nil || w.D.String() != "2026-12-31" {
		t.Fatalf("unmarshal: %v err=%v", w.D, err)
	}
}

func TestPeriodDateOnDayClamps(t *testing.T) {
	cases := []struct {
		p    Period
		day  int
		want string
	}{
		{Period{2026, time.March}, 10, "2026-03-10"},
		{Period{2026, time.February}, 31, "2026-02-28"},
		{Period{2024, time.February}, 30, "2024-02-29"},
		{Period{2026, time.April}, 0, "2026-04-01"},
	}
	for _, tc := range cases {
		if got := tc.p.DateOnDay(tc.day).String(); got != tc.want {
			t.Errorf("%v.DateOnDay(%d) = %s, want %s", tc.p, tc.day, got, tc.want)
		}
	}
}

func TestPaymentEffectivePeriodFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		p    Payment
		want Period
	}{
		{
			name: "explicit fields win",
			p:    Payment{Year: 2024, Month: 7, DueDate: MustParseDate("2026-03-10")},
			want: Period{2024, time.July},
		},
		{
			name: "due date",
			p:    Payment{DueDate: MustParseDate("2026-03-10"), PaidAt: MustParseDate("2026-04-02")},
			want: Period{2026, time.March},
		},
		{
			name: "paid date when due date missing",
			p:    Payment{PaidAt: MustParseDate("2026-04-02")},
			want: Period{2026, time.April},
		},
		{
			name: "explicit year only",
			p:    Payment{Year: 2023, DueDate: MustParseDate("2026-05-01")},
			want: Period{2023, time.May},
		},
		{
			name: "legacy row without any date",
			p:    Payment{},
			want: Period{DefaultLegacyYear, time.January},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.EffectivePeriod(); got != tt.want {
				t.Errorf("EffectivePeriod() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClientValidate(t *testing.T) {
	good := Client{Name: "Acme", Kind: Recurring, Status: ClientActive, MonthlyFee: Money{Cents: 10000}, DueDay: 5}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Client{
		{Name: "", Kind: Recurring, Status: ClientActive},
		{Name: "a", Kind: "monthly", Status: ClientActive},
		{Name: "a", Kind: OneOff, Status: "archived"},
		{Name: "a", Kind: Recurring, Status: ClientActive, DueDay: 32},
		{Name: "a", Kind: Recurring, Status: ClientActive, MonthlyFee: Money{Cents: -1}},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestPaymentValidate(t *testing.T) {
	good := Payment{ClientID: "c1", DueDate: NewDate(2026, 3, 10), Status: Pending}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Payment{
		{DueDate: NewDate(2026, 3, 10), Status: Pending},
		{ClientID: "c1", Status: Pending},
		{ClientID: "c1", DueDate: NewDate(2026, 3, 10), Status: "late"},
		{ClientID: "c1", DueDate: NewDate(2026, 3, 10), Status: Paid, Value: Money{Cents: -5}},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestProjectTransitions(t *testing.T) {
	p := Project{Status: ProjectPending}
	if !p.CanTransition(ProjectInProgress) || p.CanTransition(ProjectCompleted) {
		t.Fatalf("pending may only move to in_progress or cancelled")
	}
	p.Status = ProjectInProgress
	if !p.CanTransition(ProjectCompleted) || !p.CanTransition(ProjectCancelled) {
		t.Fatalf("in_progress should complete or cancel")
	}
	p.Status = ProjectCompleted
	if p.CanTransition(ProjectCancelled) || p.CanTransition(ProjectPending) {
		t.Fatalf("completed is terminal")
	}
}

func TestGoalProgress(t *testing.T) {
	cases := []struct {
		g    Goal
		want float64
	}{
		{Goal{Target: 100, Current: 25}, 0.25},
		{Goal{Target: 100, Current: 150}, 1},
		{Goal{Target: 0, Current: 10}, 0},
	}
	for _, tc := range cases {
		if got := tc.g.Progress(); got != tc.want {
			t.Errorf("Progress(%+v) = %v, want %v", tc.g, got, tc.want)
		}
	}
}

func TestTaskClockTime(t *testing.T) {
	if d, ok := (Task{Time: "09:30"}).ClockTime(); !ok || d != 9*time.Hour+30*time.Minute {
		t.Fatalf("unexpected clock time %v ok=%v", d, ok)
	}
	if _, ok := (Task{}).ClockTime(); ok {
		t.Fatalf("untimed task should report ok=false")
	}
	if err := (Task{Title: "call", Time: "25:00"}).Validate(); err == nil {
		t.Fatalf("expected invalid time error")
	}
}

func TestRevenueContributions(t *testing.T) {
	if _, ok := FromPayment(Payment{Status: Pending}); ok {
		t.Fatalf("pending payment must not contribute")
	}
	c, ok := FromPayment(Payment{ID: "p1", Status: Paid, Value: Money{Cents: 500}, DueDate: NewDate(2026, 3, 1)})
	if !ok || c.Amount.Cents != 500 || c.Period != (Period{2026, time.March}) {
		t.Fatalf("unexpected payment contribution %+v", c)
	}
	c, ok = FromProject(Project{ID: "pr1", PaymentStatus: Paid, Budget: Money{Cents: 900}})
	if !ok || c.HasPeriod || c.Amount.Cents != 900 {
		t.Fatalf("undated paid project should contribute without period: %+v", c)
	}
}
