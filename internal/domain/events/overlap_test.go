package events

import (
	"testing"
	"time"
)

func TestIntervalsOverlap_HalfOpen(t *testing.T) {
	at := func(h int) time.Time {
		return time.Date(2026, 3, 1, h, 0, 0, 0, time.UTC)
	}

	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"disjoint", at(9), at(10), at(11), at(12), false},
		{"touching edges is not overlap", at(9), at(10), at(10), at(11), false},
		{"partial overlap", at(9), at(11), at(10), at(12), true},
		{"contained", at(9), at(12), at(10), at(11), true},
		{"identical", at(9), at(10), at(9), at(10), true},
	}

	for _, tc := range cases {
		if got := intervalsOverlap(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
		// Simetría: el orden de los intervalos no importa.
		if got := intervalsOverlap(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd); got != tc.want {
			t.Errorf("%s (swapped): got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestLocalWindowOverlap_Overnight(t *testing.T) {
	mins := func(h, m int) int { return h*60 + m }

	// Ventana 22:00-07:00 (cruza medianoche)
	winStart, winEnd := mins(22, 0), mins(7, 0)

	cases := []struct {
		name                 string
		candStart, candEnd   int
		want                 bool
	}{
		{"23:00-23:30 inside night leg", mins(23, 0), mins(23, 30), true},
		{"02:00-03:00 inside morning leg", mins(2, 0), mins(3, 0), true},
		{"10:00-11:00 mid day", mins(10, 0), mins(11, 0), false},
		{"21:00-22:00 touching start", mins(21, 0), mins(22, 0), false},
		{"21:30-22:30 crossing into window", mins(21, 30), mins(22, 30), true},
		{"07:00-08:00 touching end", mins(7, 0), mins(8, 0), false},
	}

	for _, tc := range cases {
		if got := localWindowOverlap(tc.candStart, tc.candEnd, winStart, winEnd); got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}

	// Ventana diurna normal 12:00-14:00
	if !localWindowOverlap(mins(13, 0), mins(13, 30), mins(12, 0), mins(14, 0)) {
		t.Errorf("13:00-13:30 should hit 12:00-14:00")
	}
	if localWindowOverlap(mins(14, 0), mins(15, 0), mins(12, 0), mins(14, 0)) {
		t.Errorf("14:00-15:00 should not hit 12:00-14:00")
	}
}

func TestParseClock(t *testing.T) {
	if got, err := parseClock("22:00"); err != nil || got != 22*60 {
		t.Fatalf("22:00: got %d err %v", got, err)
	}
	if got, err := parseClock("07:30"); err != nil || got != 7*60+30 {
		t.Fatalf("07:30: got %d err %v", got, err)
	}
	for _, bad := range []string{"25:00", "12:61", "noon", ""} {
		if _, err := parseClock(bad); err == nil {
			t.Errorf("parseClock(%q): expected error", bad)
		}
	}
}
