package tzresolve

import (
	"errors"
	"testing"
)

// TestResolveSampleLocations verifies that representative cities resolve
// to the expected zone identifiers.  Covering overlap regions keeps the
// priority ordering in buildBoxes honest.
func TestResolveSampleLocations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lat, lon float64
		want     string
	}{
		{34.0522, -118.2437, "America/Los_Angeles"}, // Los Angeles
		{40.7128, -74.0060, "America/New_York"},     // New York
		{51.5074, -0.1278, "Europe/London"},         // London
		{48.8566, 2.3522, "Europe/Paris"},           // Paris
		{35.6762, 139.6503, "Asia/Tokyo"},           // Tokyo
		{37.5665, 126.9780, "Asia/Seoul"},           // Seoul
		{19.0760, 72.8777, "Asia/Kolkata"},          // Mumbai
		{-33.8688, 151.2093, "Australia/Sydney"},    // Sydney
		{-36.8485, 174.7633, "Pacific/Auckland"},    // Auckland
		{-23.5505, -46.6333, "America/Sao_Paulo"},   // Sao Paulo
		{-1.2921, 36.8219, "Africa/Nairobi"},        // Nairobi
		{30.0444, 31.2357, "Africa/Cairo"},          // Cairo
	}
	for _, tc := range tests {
		got, err := Resolve(tc.lat, tc.lon)
		if err != nil {
			t.Errorf("Resolve(%f,%f) error: %v", tc.lat, tc.lon, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Resolve(%f,%f) = %q, want %q", tc.lat, tc.lon, got, tc.want)
		}
	}
}

// TestResolveOpenOcean ensures coordinates outside every rectangle fail
// with the sentinel so callers can pick their own fallback.
func TestResolveOpenOcean(t *testing.T) {
	t.Parallel()

	if _, err := Resolve(0, -140); !errors.Is(err, ErrNoTimeZoneFound) {
		t.Fatalf("Resolve(0,-140) err = %v, want ErrNoTimeZoneFound", err)
	}
}

// TestResolveInvalid treats out-of-range and NaN coordinates as unknown.
func TestResolveInvalid(t *testing.T) {
	t.Parallel()

	for _, tc := range [][2]float64{{91, 0}, {0, 181}, {-91, 0}, {0, -181}} {
		if _, err := Resolve(tc[0], tc[1]); !errors.Is(err, ErrNoTimeZoneFound) {
			t.Fatalf("Resolve(%v,%v) err = %v, want ErrNoTimeZoneFound", tc[0], tc[1], err)
		}
	}
}

// TestNormalizeToUTC covers the separator-agnostic split and the zone
// offset math, including a daylight-saving case.
func TestNormalizeToUTC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		zone string
		want Breakdown
	}{
		// PST is UTC-8 in winter.
		{"2023-03-04T10:00:00", "America/Los_Angeles", Breakdown{2023, 3, 4, 18, 0, 0}},
		// PDT is UTC-7 in summer.
		{"2023-07-04T10:30:15", "America/Los_Angeles", Breakdown{2023, 7, 4, 17, 30, 15}},
		// Alternate separators parse identically.
		{"2023/03/04 10:00:00", "America/Los_Angeles", Breakdown{2023, 3, 4, 18, 0, 0}},
		// Crossing midnight moves the calendar date.
		{"2023-03-04T20:00:00", "Asia/Tokyo", Breakdown{2023, 3, 4, 11, 0, 0}},
		{"2023-03-04T05:00:00", "Asia/Tokyo", Breakdown{2023, 3, 3, 20, 0, 0}},
		{"2023-01-01T00:00:00", "UTC", Breakdown{2023, 1, 1, 0, 0, 0}},
	}
	for _, tc := range tests {
		got, err := NormalizeToUTC(tc.raw, tc.zone)
		if err != nil {
			t.Errorf("NormalizeToUTC(%q,%q) error: %v", tc.raw, tc.zone, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeToUTC(%q,%q) = %+v, want %+v", tc.raw, tc.zone, got, tc.want)
		}
	}
}

// TestNormalizeToUTCIdempotent confirms repeated calls with identical
// input give identical output; nothing process-wide is mutated.
func TestNormalizeToUTCIdempotent(t *testing.T) {
	t.Parallel()

	first, err := NormalizeToUTC("2023-03-04T10:00:00", "Europe/Berlin")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := NormalizeToUTC("2023-03-04T10:00:00", "Europe/Berlin")
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if got != first {
			t.Fatalf("call %d = %+v, first = %+v", i, got, first)
		}
	}
}

// TestNormalizeToUTCMalformed rejects inputs with fewer than six numeric
// components.
func TestNormalizeToUTCMalformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"2023-03-04", "", "10:00:00", "yesterday", "2023-03-04T10:00"} {
		if _, err := NormalizeToUTC(raw, "UTC"); !errors.Is(err, ErrMalformedTimestamp) {
			t.Errorf("NormalizeToUTC(%q) err = %v, want ErrMalformedTimestamp", raw, err)
		}
	}
}

// TestNormalizeToUTCUnknownZone surfaces a zone loading failure instead of
// silently assuming UTC.
func TestNormalizeToUTCUnknownZone(t *testing.T) {
	t.Parallel()

	if _, err := NormalizeToUTC("2023-03-04T10:00:00", "Nowhere/Nonexistent"); err == nil {
		t.Fatal("expected error for unknown zone")
	}
}
