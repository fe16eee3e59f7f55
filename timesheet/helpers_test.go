package timesheet_test

import (
	"testing"

	"github.com/shopspring/decimal"
)

func decimalFromFloat(t *testing.T, f float64) decimal.Decimal {
	t.Helper()
	return decimal.NewFromFloat(f)
}

// assertHours fails unless got equals want, reporting both as strings.
func assertHours(t *testing.T, want float64, got decimal.Decimal, label string) {
	t.Helper()
	if !got.Equal(decimal.NewFromFloat(want)) {
		t.Errorf("%s = %s, want %v", label, got.String(), want)
	}
}
