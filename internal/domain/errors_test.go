package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestRetryable(t *testing.T) {
	base := errors.New("smtp down")

	err := Retryable(base)
	if !IsRetryable(err) {
		t.Error("wrapped error not reported retryable")
	}
	if !errors.Is(err, base) {
		t.Error("wrapping lost the cause")
	}

	// Retryability survives further wrapping on the way up.
	wrapped := fmt.Errorf("notifying winner of item 7: %w", err)
	if !IsRetryable(wrapped) {
		t.Error("retryability lost through fmt.Errorf wrapping")
	}

	if IsRetryable(base) {
		t.Error("plain error reported retryable")
	}
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should stay nil")
	}
}

func TestDedupKey(t *testing.T) {
	if got := DedupKey(JobCloseAuction, 42); got != "close-auction:42" {
		t.Errorf("DedupKey = %q, want close-auction:42", got)
	}
	if got := DedupKey(JobCheckPayment, 42); got != "check-payment:42" {
		t.Errorf("DedupKey = %q, want check-payment:42", got)
	}
}
