package domain

import "errors"

var (
	// ErrNotFound is returned when a trip, stop or leg does not exist or
	// does not belong to the given trip.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for malformed requests: incomplete reorder
	// lists, end before start, stay fields that do not match the stop kind.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamUnavailable is returned when the routing engine cannot be
	// reached or reports a non-success status.
	ErrUpstreamUnavailable = errors.New("routing upstream unavailable")

	// ErrPositionConflict is returned by stores when two stops of one trip
	// would share a position index.
	ErrPositionConflict = errors.New("stop position already taken")
)
