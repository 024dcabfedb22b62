package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{1234.5, "$1,234.50"},
		{1234567.891, "$1,234,567.89"},
		{0.005, "$0.01"},
		{-12, "$-12.00"},
		{-1234.5, "$-1,234.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(tt.in))
	}
}

func TestRound(t *testing.T) {
	assert.InDelta(t, 123.46, round(123.456789), 1e-9)
	assert.InDelta(t, 1.99, round(1.994), 1e-9)
}
