package shift_test

import (
	"testing"

	"github.com/possync/shiftdesk/internal/shift"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tolerance := dec("0.01")

	tests := []struct {
		diff string
		want shift.Variance
	}{
		{"0", shift.VarianceExact},
		{"0.01", shift.VarianceExact},
		{"-0.01", shift.VarianceExact},
		{"0.011", shift.VarianceSurplus},
		{"9.50", shift.VarianceSurplus},
		{"-0.011", shift.VarianceShortage},
		{"-10.50", shift.VarianceShortage},
	}

	for _, tt := range tests {
		t.Run(tt.diff, func(t *testing.T) {
			assert.Equal(t, tt.want, shift.Classify(dec(tt.diff), tolerance))
		})
	}
}

func TestDifferenceIsExact(t *testing.T) {
	// Values that do not round-trip through float64
	expected := shift.ExpectedTotal(dec("0.1"), dec("0.2"))
	assert.True(t, expected.Equal(dec("0.3")))

	diff := shift.Difference(dec("0.3"), expected)
	assert.True(t, diff.IsZero())

	diff = shift.Difference(dec("1000000.07"), shift.ExpectedTotal(dec("999999.99"), dec("0.05")))
	assert.True(t, diff.Equal(dec("0.03")))
}
