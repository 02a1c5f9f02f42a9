package glimpse

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for common failure modes.
var (
	// ErrUnsupportedFormat indicates an image whose declared MIME type is
	// not PNG or JPEG. Nothing is sent to the model.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrMissingCredential indicates the model API key is absent. It is only
	// returned during startup and is fatal there.
	ErrMissingCredential = errors.New("missing credential")

	// ErrTransientRemote indicates a network or rate-limit failure from the
	// remote model. The same request may be resubmitted.
	ErrTransientRemote = errors.New("transient remote failure")

	// ErrPermanentRemote indicates the remote model rejected the request,
	// e.g. bad credentials or blocked content. Resubmitting will not help.
	ErrPermanentRemote = errors.New("permanent remote failure")

	// ErrValidation indicates a request or image failed validation.
	ErrValidation = errors.New("validation error")

	// ErrEmptyQuestion indicates a submission with neither text nor image.
	ErrEmptyQuestion = errors.New("empty question")

	// ErrSessionBusy indicates a session already has a request in flight.
	ErrSessionBusy = errors.New("session busy")

	// ErrStreamNotReady indicates Response() was called before Next().
	ErrStreamNotReady = errors.New("stream not ready: call Next() first")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)

// Transient marks err as a transient remote failure. The returned error
// matches both ErrTransientRemote and err.
func Transient(err error) error {
	return fmt.Errorf("%w: %w", ErrTransientRemote, err)
}

// Permanent marks err as a permanent remote failure. The returned error
// matches both ErrPermanentRemote and err.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanentRemote, err)
}

// Classify assigns a remote failure class to err. Already classified errors
// and local input errors are returned as is, as is context.Canceled.
// Deadlines and network failures are transient; everything else is permanent.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTransientRemote), errors.Is(err, ErrPermanentRemote):
		return err
	case isLocal(err), errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return Transient(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient(err)
	}
	return Permanent(err)
}

// IsRetryable reports whether err is a transient remote failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientRemote)
}

func isLocal(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrEmptyQuestion) ||
		errors.Is(err, ErrSessionBusy) ||
		errors.Is(err, ErrMissingCredential)
}
