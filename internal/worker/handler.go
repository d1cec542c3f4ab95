package worker

import (
	"context"
	"errors"
)

// JobHandler runs one job type. Type must equal the job_type stored by
// EnqueueJob; Handle receives the stored JSON payload as is.
//
// A returned error is retried with backoff until max_attempts is spent,
// unless it wraps a PermanentError.
type JobHandler interface {
	Type() string
	Handle(ctx context.Context, payload []byte) error
}

// PermanentError fails a job on the first attempt.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// NewPermanentError marks err as not worth retrying. A nil err stays nil.
func NewPermanentError(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err or anything it wraps is a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
