package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want string
	}{
		{"zero", 0, "0"},
		{"plain", 1.5, "1.5"},
		{"negative", -0.25, "-0.25"},
		{"small", 0.0005, "0.0005"},
		{"tiny uses exponent", 0.00005, "5e-05"},
		{"missing is empty", domain.Missing(), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatFloat(tc.in))
		})
	}
}

func TestFormatBool(t *testing.T) {
	assert.Equal(t, "true", formatBool(true))
	assert.Equal(t, "false", formatBool(false))
}

func TestCountCell(t *testing.T) {
	assert.Equal(t, "", countCell(0))
	assert.Equal(t, "3", countCell(3))
}

func TestCellValue(t *testing.T) {
	assert.Equal(t, "", cellValue(domain.Missing()))
	assert.Equal(t, 0.5, cellValue(0.5))
}
