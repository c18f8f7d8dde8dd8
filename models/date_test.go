package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateOfUsesLocationCalendarDay(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	instant := time.Date(2026, time.March, 1, 20, 30, 0, 0, time.UTC)

	if got, want := DateOf(instant, nil), NewDate(2026, time.March, 1); !got.Equal(want) {
		t.Fatalf("DateOf(utc) = %s, want %s", got, want)
	}
	if got, want := DateOf(instant, tokyo), NewDate(2026, time.March, 2); !got.Equal(want) {
		t.Fatalf("DateOf(tokyo) = %s, want %s", got, want)
	}
}

func TestDateAddDaysCrossesMonthAndYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		start Date
		days  int
		want  string
	}{
		{NewDate(2026, time.January, 31), 1, "2026-02-01"},
		{NewDate(2026, time.December, 31), 1, "2027-01-01"},
		{NewDate(2028, time.February, 28), 1, "2028-02-29"},
		{NewDate(2026, time.March, 1), -1, "2026-02-28"},
	}
	for _, tc := range tests {
		if got := tc.start.AddDays(tc.days).String(); got != tc.want {
			t.Fatalf("%s + %d = %s, want %s", tc.start, tc.days, got, tc.want)
		}
	}
}

func TestDateOrdering(t *testing.T) {
	t.Parallel()

	a := NewDate(2026, time.May, 4)
	b := a.AddDays(1)
	if !a.Before(b) || !b.After(a) {
		t.Fatalf("expected %s before %s", a, b)
	}
	if a.Equal(b) {
		t.Fatalf("%s should not equal %s", a, b)
	}
	if !a.Equal(NewDate(2026, time.May, 4)) {
		t.Fatal("same calendar parts should be equal")
	}
}

func TestDateScanAcceptsDriverForms(t *testing.T) {
	t.Parallel()

	want := NewDate(2026, time.July, 9)
	inputs := []any{
		"2026-07-09",
		[]byte("2026-07-09"),
		"2026-07-09T00:00:00Z",
		time.Date(2026, time.July, 9, 0, 0, 0, 0, time.UTC),
	}
	for _, in := range inputs {
		var d Date
		if err := d.Scan(in); err != nil {
			t.Fatalf("scan %v: %v", in, err)
		}
		if !d.Equal(want) {
			t.Fatalf("scan %v = %s, want %s", in, d, want)
		}
	}

	var d Date
	if err := d.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if !d.IsZero() {
		t.Fatalf("scan nil = %s, want zero", d)
	}
	if err := d.Scan(42); err == nil {
		t.Fatal("expected error for int source")
	}
}

func TestDateValueAndJSON(t *testing.T) {
	t.Parallel()

	d := NewDate(2026, time.October, 19)
	v, err := d.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != "2026-10-19" {
		t.Fatalf("value = %v, want 2026-10-19", v)
	}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `"2026-10-19"` {
		t.Fatalf("json = %s", raw)
	}
	var back Date
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d) {
		t.Fatalf("round trip = %s, want %s", back, d)
	}

	zero, err := Date{}.Value()
	if err != nil || zero != nil {
		t.Fatalf("zero value = %v, %v; want nil, nil", zero, err)
	}
}
