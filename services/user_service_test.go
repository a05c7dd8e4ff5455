package services

import (
	"testing"
	"time"
)

func TestNeedsMonthlyReset(t *testing.T) {
	tests := []struct {
		name      string
		lastReset time.Time
		now       time.Time
		want      bool
	}{
		{
			"same month",
			time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.March, 31, 23, 59, 0, 0, time.UTC),
			false,
		},
		{
			"next month",
			time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
			true,
		},
		{
			"same month a year later",
			time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
			true,
		},
		{
			"december to january",
			time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC),
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsMonthlyReset(tt.lastReset, tt.now); got != tt.want {
				t.Errorf("needsMonthlyReset() = %v, want %v", got, tt.want)
			}
		})
	}
}
