package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"qota_server/internal/models"
)

func member(id, userID uint, role models.MembershipRole, fractions int) models.Membership {
	return models.Membership{
		ID:            id,
		UserID:        userID,
		Role:          role,
		FractionCount: fractions,
		Status:        models.MembershipStatusActive,
	}
}

func TestProrateSharesExactness(t *testing.T) {
	tests := []struct {
		name           string
		amount         string
		totalFractions int
		memberships    []models.Membership
		expected       map[uint]string // membership ID -> owed
	}{
		{
			name:           "non-divisible split 17/17/18 of 52",
			amount:         "100.00",
			totalFractions: 52,
			memberships: []models.Membership{
				member(1, 1, models.RoleMaster, 17),
				member(2, 2, models.RoleCommon, 17),
				member(3, 3, models.RoleCommon, 18),
			},
			expected: map[uint]string{1: "32.69", 2: "32.69", 3: "34.62"},
		},
		{
			name:           "rounding remainder lands on the master",
			amount:         "100.00",
			totalFractions: 3,
			memberships: []models.Membership{
				member(1, 1, models.RoleCommon, 1),
				member(2, 2, models.RoleMaster, 1),
				member(3, 3, models.RoleCommon, 1),
			},
			expected: map[uint]string{1: "33.33", 2: "33.34", 3: "33.33"},
		},
		{
			name:           "no master falls back to the first share",
			amount:         "100.00",
			totalFractions: 3,
			memberships: []models.Membership{
				member(1, 1, models.RoleCommon, 1),
				member(2, 2, models.RoleCommon, 1),
				member(3, 3, models.RoleCommon, 1),
			},
			expected: map[uint]string{1: "33.34", 2: "33.33", 3: "33.33"},
		},
		{
			name:           "partial allocation leaves the gap with the master",
			amount:         "90.00",
			totalFractions: 52,
			memberships: []models.Membership{
				member(1, 1, models.RoleMaster, 40),
				member(2, 2, models.RoleCommon, 10),
			},
			expected: map[uint]string{1: "72.69", 2: "17.31"},
		},
		{
			name:           "zero-fraction member gets no share",
			amount:         "60.00",
			totalFractions: 10,
			memberships: []models.Membership{
				member(1, 1, models.RoleMaster, 6),
				member(2, 2, models.RoleCommon, 4),
				member(3, 3, models.RoleCommon, 0),
			},
			expected: map[uint]string{1: "36.00", 2: "24.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			shares := ProrateShares(amount, tt.memberships, tt.totalFractions)

			if len(shares) != len(tt.expected) {
				t.Fatalf("got %d shares; want %d", len(shares), len(tt.expected))
			}

			sum := decimal.Zero
			for _, share := range shares {
				want, ok := tt.expected[share.MembershipID]
				if !ok {
					t.Fatalf("unexpected share for membership %d", share.MembershipID)
				}
				if !share.Amount.Equal(decimal.RequireFromString(want)) {
					t.Errorf("membership %d owes %s; want %s", share.MembershipID, share.Amount, want)
				}
				sum = sum.Add(share.Amount)
			}
			if !sum.Equal(amount) {
				t.Errorf("shares sum to %s; want exactly %s", sum, amount)
			}
		})
	}
}

func TestProrateSharesDeterministic(t *testing.T) {
	amount := decimal.RequireFromString("123.45")
	memberships := []models.Membership{
		member(3, 3, models.RoleCommon, 7),
		member(1, 1, models.RoleMaster, 20),
		member(2, 2, models.RoleCommon, 13),
	}

	first := ProrateShares(amount, memberships, 52)
	second := ProrateShares(amount, memberships, 52)

	if len(first) != len(second) {
		t.Fatalf("runs disagree on share count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].MembershipID != second[i].MembershipID || !first[i].Amount.Equal(second[i].Amount) {
			t.Errorf("share %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestProrateSharesEmpty(t *testing.T) {
	amount := decimal.RequireFromString("50.00")
	if shares := ProrateShares(amount, nil, 52); shares != nil {
		t.Errorf("expected no shares for empty memberships, got %d", len(shares))
	}
	onlyZero := []models.Membership{member(1, 1, models.RoleMaster, 0)}
	if shares := ProrateShares(amount, onlyZero, 52); shares != nil {
		t.Errorf("expected no shares when nobody holds fractions, got %d", len(shares))
	}
}

func TestAggregateStatus(t *testing.T) {
	now := time.Now()
	paid := models.Payment{Paid: true, PaidAt: &now}
	unpaid := models.Payment{Paid: false}

	tests := []struct {
		name     string
		payments []models.Payment
		expected models.ExpenseStatus
	}{
		{"none paid", []models.Payment{unpaid, unpaid, unpaid}, models.ExpenseStatusPending},
		{"some paid", []models.Payment{paid, unpaid, unpaid}, models.ExpenseStatusPartiallyPaid},
		{"all paid", []models.Payment{paid, paid, paid}, models.ExpenseStatusPaid},
		{"single paid", []models.Payment{paid}, models.ExpenseStatusPaid},
		{"single unpaid", []models.Payment{unpaid}, models.ExpenseStatusPending},
		{"no payments", nil, models.ExpenseStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AggregateStatus(tt.payments); got != tt.expected {
				t.Errorf("AggregateStatus() = %q; want %q", got, tt.expected)
			}
		})
	}
}

func TestAggregateStatusIdempotent(t *testing.T) {
	payments := []models.Payment{{Paid: true}, {Paid: false}}
	first := AggregateStatus(payments)
	second := AggregateStatus(payments)
	if first != second {
		t.Errorf("status changed between identical evaluations: %q vs %q", first, second)
	}
}
