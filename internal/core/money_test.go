package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"92233720368547758.07", 9223372036854775807, true},
		{"92233720368547758.08", 0, false},
		{"1e30", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 150050})
	if err != nil || string(b) != "1500.50" {
		t.Fatalf("marshal: %s err=%v", b, err)
	}
	var m Money
	for _, in := range []string{`1500.5`, `"1500,50"`} {
		if err := json.Unmarshal([]byte(in), &m); err != nil || m.Cents != 150050 {
			t.Fatalf("unmarshal %s: %d err=%v", in, m.Cents, err)
		}
	}
}

func TestMoneyRejectsOverflow(t *testing.T) {
	for _, in := range []string{"1e30", `"1e30"`, `"99999999999999999999"`} {
		var m Money
		err := json.Unmarshal([]byte(in), &m)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("unmarshal %s: err=%v, want ErrInvalidAmount", in, err)
		}
		if m.Cents != 0 {
			t.Fatalf("unmarshal %s: cents=%d, want untouched", in, m.Cents)
		}
	}
}
