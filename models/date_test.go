package models

import (
	"errors"
	"testing"
	"time"
)

func TestEncodeDate(t *testing.T) {
	cases := map[string]int{
		"2025-12-15": 20251215,
		"2024-01-05": 20240105,
		"2024-02-29": 20240229,
		"0001-01-01": 10101,
	}
	for iso, want := range cases {
		got, err := EncodeDate(iso)
		if err != nil {
			t.Fatalf("EncodeDate(%q): %v", iso, err)
		}
		if got != want {
			t.Errorf("EncodeDate(%q) = %d, want %d", iso, got, want)
		}
	}
}

func TestDecodeDate(t *testing.T) {
	got, err := DecodeDate(20240105)
	if err != nil {
		t.Fatalf("DecodeDate: %v", err)
	}
	if got != "2024-01-05" {
		t.Errorf("Expected 2024-01-05, got %s", got)
	}
}

func TestDateRoundTrip(t *testing.T) {
	day := time.Date(1899, 12, 25, 0, 0, 0, 0, time.UTC)
	end := time.Date(2101, 1, 7, 0, 0, 0, 0, time.UTC)
	for ; day.Before(end); day = day.AddDate(0, 0, 1) {
		iso := day.Format(DateLayout)
		n, err := EncodeDate(iso)
		if err != nil {
			t.Fatalf("EncodeDate(%q): %v", iso, err)
		}
		back, err := DecodeDate(n)
		if err != nil {
			t.Fatalf("DecodeDate(%d): %v", n, err)
		}
		if back != iso {
			t.Fatalf("round trip %q -> %d -> %q", iso, n, back)
		}
	}
}

func TestEncodeInvalidDate(t *testing.T) {
	for _, iso := range []string{"invalid-date", "2024-1-5", "2024/01/05", "2023-02-29", "2024-13-01", "", "20240105"} {
		_, err := EncodeDate(iso)
		if err == nil {
			t.Errorf("Expected error for %q, got nil", iso)
			continue
		}
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Errorf("Expected FormatError for %q, got %T", iso, err)
		}
	}
}

func TestDecodeInvalidDate(t *testing.T) {
	for _, n := range []int{0, -20240101, 20240230, 20241301, 20240100, 123} {
		if _, err := DecodeDate(n); err == nil {
			t.Errorf("Expected error for %d, got nil", n)
		}
	}
}

func TestDateFromTime(t *testing.T) {
	ts := time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC)
	if got := DateFromTime(ts); got != 20250309 {
		t.Errorf("Expected 20250309, got %d", got)
	}
}

func TestFormatDateFallsBack(t *testing.T) {
	if got := FormatDate(20240230); got != "20240230" {
		t.Errorf("Expected raw fallback, got %s", got)
	}
	if got := FormatDate(20240228); got != "2024-02-28" {
		t.Errorf("Expected 2024-02-28, got %s", got)
	}
}
