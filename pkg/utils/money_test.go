package utils

import (
	"strings"
	"testing"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{10.999, 11.00},
		{10.994, 10.99},
		{0.1 + 0.2, 0.30},
		{100.40, 100.40},
		{0, 0},
	}

	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGenerateID(t *testing.T) {
	a := GenerateID("job")
	b := GenerateID("job")

	if !strings.HasPrefix(a, "job_") {
		t.Errorf("id %q missing prefix", a)
	}
	if a == b {
		t.Error("consecutive ids collided")
	}
}
