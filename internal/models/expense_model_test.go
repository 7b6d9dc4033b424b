package models

import (
	"testing"
	"time"
)

func TestExpenseNextDue(t *testing.T) {
	due := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	monthly := "FREQ=MONTHLY"
	exhausted := "FREQ=DAILY;COUNT=1"
	broken := "NOT-A-RULE"

	tests := []struct {
		name     string
		expense  Expense
		expected time.Time
	}{
		{
			name:     "one-time keeps its due date",
			expense:  Expense{DueDate: due, Recurring: false},
			expected: due,
		},
		{
			name:     "monthly advances one month",
			expense:  Expense{DueDate: due, Recurring: true, RecurringInterval: &monthly},
			expected: time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "exhausted rule falls back to due date",
			expense:  Expense{DueDate: due, Recurring: true, RecurringInterval: &exhausted},
			expected: due,
		},
		{
			name:     "unparseable rule falls back to due date",
			expense:  Expense{DueDate: due, Recurring: true, RecurringInterval: &broken},
			expected: due,
		},
		{
			name:     "recurring without a rule falls back to due date",
			expense:  Expense{DueDate: due, Recurring: true},
			expected: due,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expense.NextDue(); !got.Equal(tt.expected) {
				t.Errorf("NextDue() = %v; want %v", got, tt.expected)
			}
		})
	}
}
