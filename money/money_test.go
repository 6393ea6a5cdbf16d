package money

import "testing"

func TestParseCents(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1000.00", 100000, false},
		{"100", 10000, false},
		{"0.50", 50, false},
		{"1000.5", 100050, false},
		{"1000.", 100000, false},
		{"1000.999", 100099, false}, // extra precision truncates
		{"-1.50", -150, false},
		{"-0.25", -25, false},
		{"", 0, true},
		{"abc", 0, true},
		{"1.xy", 0, true},
		{"1.-5", 0, true}, // signed fraction must not subtract
		{"1.+5", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseCents(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseCents(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCents(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseCents(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{100000, "1000.00"},
		{50, "0.50"},
		{5, "0.05"},
		{-150, "-1.50"},
		{0, "0.00"},
	}
	for _, tc := range cases {
		if got := FormatCents(tc.in); got != tc.want {
			t.Errorf("FormatCents(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 12345, 100000} {
		got, err := ParseCents(FormatCents(cents))
		if err != nil {
			t.Fatalf("round trip %d: %v", cents, err)
		}
		if got != cents {
			t.Errorf("round trip %d → %d", cents, got)
		}
	}
}

func TestDebit(t *testing.T) {
	if bal, ok := Debit(10000, 2500); !ok || bal != 7500 {
		t.Errorf("Debit(10000, 2500) = %d, %v", bal, ok)
	}
	if bal, ok := Debit(10000, 10000); !ok || bal != 0 {
		t.Errorf("Debit(10000, 10000) = %d, %v", bal, ok)
	}
	if bal, ok := Debit(100, 200); ok || bal != 100 {
		t.Errorf("insufficient Debit = %d, %v — balance must stay untouched", bal, ok)
	}
}

func TestSettleDelta(t *testing.T) {
	cases := []struct {
		result    string
		wantDelta int64
		wantType  string
	}{
		{"win", 1000, "round_win"},
		{"loss", -1000, "round_loss"},
		{"push", 0, "round_push"},
	}
	for _, tc := range cases {
		delta, txType, err := SettleDelta(1000, tc.result)
		if err != nil {
			t.Fatalf("SettleDelta(%q): %v", tc.result, err)
		}
		if delta != tc.wantDelta || txType != tc.wantType {
			t.Errorf("SettleDelta(%q) = %d, %q", tc.result, delta, txType)
		}
	}
	if _, _, err := SettleDelta(1000, "draw"); err == nil {
		t.Error("expected error for unknown result")
	}
}

func TestApplyDeltaClampsAtZero(t *testing.T) {
	if got := ApplyDelta(500, -1000); got != 0 {
		t.Errorf("ApplyDelta(500, -1000) = %d, want 0", got)
	}
	if got := ApplyDelta(500, 250); got != 750 {
		t.Errorf("ApplyDelta(500, 250) = %d, want 750", got)
	}
}
