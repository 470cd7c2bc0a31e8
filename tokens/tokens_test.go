package tokens

import (
	"strings"
	"testing"
)

func TestBudgetBytes(t *testing.T) {
	if got := BudgetBytes(6000); got != 24000 {
		t.Errorf("BudgetBytes(6000) = %d, want 24000", got)
	}
	if got := BudgetBytes(1); got != BytesPerToken {
		t.Errorf("BudgetBytes(1) = %d, want %d", got, BytesPerToken)
	}
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"empty", "", 0},
		{"one byte rounds up", "x", 1},
		{"exact multiple", strings.Repeat("x", 8), 2},
		{"remainder rounds up", strings.Repeat("x", 9), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.text); got != tt.expected {
				t.Errorf("Estimate = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestCounterUnknownEncoding(t *testing.T) {
	c := NewCounter()
	if _, err := c.Count("hello", "not-a-real-encoding"); err == nil {
		t.Error("expected an error for an unknown encoding")
	}
}
