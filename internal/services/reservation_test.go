package services

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	// Existing reservation occupies [day 10, day 20).
	existingStart, existingEnd := day(10), day(20)

	tests := []struct {
		name     string
		start    int
		end      int
		expected bool
	}{
		{"overlapping tail", 15, 25, true},
		{"starts at existing end", 20, 25, false},
		{"ends at existing start", 5, 10, false},
		{"fully inside", 12, 14, true},
		{"fully covering", 5, 25, true},
		{"identical range", 10, 20, true},
		{"entirely before", 1, 5, false},
		{"entirely after", 25, 30, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(day(tt.start), day(tt.end), existingStart, existingEnd)
			if got != tt.expected {
				t.Errorf("Overlaps([%d,%d), [10,20)) = %v; want %v", tt.start, tt.end, got, tt.expected)
			}
		})
	}
}

func TestStayLengthDays(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		end      int
		expected int
	}{
		{"one night", 10, 11, 1},
		{"a week", 10, 17, 7},
		{"zero-length", 10, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StayLengthDays(day(tt.start), day(tt.end)); got != tt.expected {
				t.Errorf("StayLengthDays() = %d; want %d", got, tt.expected)
			}
		})
	}
}

func TestCountHolidaysInRange(t *testing.T) {
	holidays := []time.Time{day(5), day(10), day(19), day(20)}

	tests := []struct {
		name     string
		start    int
		end      int
		expected int
	}{
		{"range start is inclusive", 10, 15, 1},
		{"range end is exclusive", 15, 20, 1},
		{"covers several", 5, 21, 4},
		{"none inside", 11, 19, 0},
		{"covers every holiday", 1, 30, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CountHolidaysInRange(holidays, day(tt.start), day(tt.end))
			if got != tt.expected {
				t.Errorf("CountHolidaysInRange([%d,%d)) = %d; want %d", tt.start, tt.end, got, tt.expected)
			}
		})
	}
}

func TestTruncateToUTCDay(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	input := time.Date(2026, time.March, 10, 23, 45, 12, 999, loc)
	got := TruncateToUTCDay(input)

	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Nanosecond() != 0 {
		t.Errorf("time-of-day not truncated: %v", got)
	}
	if got.Location() != time.UTC {
		t.Errorf("location = %v; want UTC", got.Location())
	}
	if got.Day() != 10 || got.Month() != time.March {
		t.Errorf("calendar date changed: %v", got)
	}
}
