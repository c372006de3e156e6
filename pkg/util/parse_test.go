package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseValue(t *testing.T) {
	cases := map[string]struct {
		v  float64
		ok bool
	}{
		"4.25":  {4.25, true},
		" -0.5": {-0.5, true},
		".":     {0, false},
		"":      {0, false},
		"NaN":   {0, false},
		"abc":   {0, false},
	}
	for in, want := range cases {
		v, ok := ParseValue(in)
		if ok != want.ok || v != want.v {
			t.Fatalf("ParseValue(%q) = %v, %v; want %v, %v", in, v, ok, want.v, want.ok)
		}
	}
}

func TestParseTimeDate(t *testing.T) {
	got, ok := ParseTime("2024-10-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if !got.Equal(time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestStartOfHistory(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	got := StartOfHistory(now, 5)
	if !got.Equal(time.Date(2019, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", got)
	}
}
