package core

import "testing"

func TestParseDecimalToMinor(t *testing.T) {
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
		{" 500 ", 50000, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToMinor(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Minor: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Minor: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if got := (Money{Minor: 50000}).Mul(4); got.Minor != 200000 {
		t.Fatalf("Mul = %d, want 200000", got.Minor)
	}
}

func TestMoneyString(t *testing.T) {
	tests := map[int64]string{50000: "500.00", 1: "0.01", 123456: "1234.56", 0: "0.00"}
	for minor, want := range tests {
		if got := (Money{Minor: minor}).String(); got != want {
			t.Errorf("Money{%d}.String() = %q, want %q", minor, got, want)
		}
	}
}
