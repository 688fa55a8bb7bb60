package domain

import "errors"

// Errors surfaced by bid placement. All of them are rejected synchronously
// with no writes.
var (
	ErrItemNotFound      = errors.New("item not found")
	ErrInvalidAmount     = errors.New("bid amount must be a positive number")
	ErrAuctionClosed     = errors.New("auction is not active")
	ErrAuctionNotStarted = errors.New("auction has not started yet")
	ErrSellerBid         = errors.New("sellers cannot bid on their own items")
	ErrBidTooLow         = errors.New("bid is below the minimum required amount")
	ErrMaxNotRaised      = errors.New("new max bid must exceed your previous max")
	ErrNoPendingPayment  = errors.New("item has no pending payment")
)

// ErrClockSkew marks a close-auction run where the conditional update hit
// zero rows while the item still looked active past its end time. The job
// is retried, never dropped.
var ErrClockSkew = errors.New("end time not yet reached by storage clock")

// RetryableError tells the scheduler to leave the job pending so it fires
// again, instead of coupling the retry decision to the error type alone.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Retryable wraps err so the enclosing job is retried by the scheduler.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether a job failure should be retried.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
