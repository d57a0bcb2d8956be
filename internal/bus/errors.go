package bus

import "errors"

var (
	// ErrInvalidArgument is returned when a subscription is requested without a subscriber.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyStarted is returned when Start is called on a running subscriber.
	ErrAlreadyStarted = errors.New("subscriber already started")

	// ErrNotStarted is returned when waiting on a subscriber whose worker never started.
	ErrNotStarted = errors.New("subscriber not started")
)
