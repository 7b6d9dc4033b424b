package services

import (
	"math"
	"testing"
)

func TestSeedDayBalance(t *testing.T) {
	daysPerFraction := YearDays / 52.0

	tests := []struct {
		name      string
		fractions int
		expected  float64
	}{
		{"full year for all fractions", 52, 365},
		{"ten fractions", 10, 70.1923},
		{"single fraction", 1, 7.0192},
		{"no fractions", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SeedDayBalance(tt.fractions, daysPerFraction)
			if math.Abs(got-tt.expected) > 0.001 {
				t.Errorf("SeedDayBalance(%d) = %.4f; want %.4f", tt.fractions, got, tt.expected)
			}
		})
	}
}

func TestSeedDayBalanceAfterInviteScenario(t *testing.T) {
	// Property with 52 fractions: the creator starts with the full year.
	daysPerFraction := YearDays / 52.0
	creator := SeedDayBalance(52, daysPerFraction)
	if math.Abs(creator-365) > 1e-9 {
		t.Fatalf("creator balance = %.4f; want 365", creator)
	}

	// After inviting someone with 10 fractions, the invitee's seed is
	// 10 × 365/52 ≈ 70.19. The creator's running balance is untouched by
	// the fraction change itself.
	invitee := SeedDayBalance(10, daysPerFraction)
	if math.Abs(invitee-70.1923) > 0.001 {
		t.Errorf("invitee balance = %.4f; want ≈70.19", invitee)
	}
}
