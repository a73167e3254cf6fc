package junban

import "errors"

var (
	// ErrInvalidFrequency is returned when the update frequency is outside [1, MaxGroups].
	ErrInvalidFrequency = errors.New("junban: update frequency out of range")
	// ErrInvalidChunkCapacity is returned for a non-positive chunk capacity.
	ErrInvalidChunkCapacity = errors.New("junban: chunk capacity must be positive")
	// ErrInvalidBatchSize is returned for a non-positive batch size.
	ErrInvalidBatchSize = errors.New("junban: batch size must be positive")
	// ErrInvalidEntityCount is returned for a negative entity count.
	ErrInvalidEntityCount = errors.New("junban: entity count must not be negative")
	// ErrInvalidWorkers is returned for a negative worker count.
	ErrInvalidWorkers = errors.New("junban: worker count must not be negative")
	// ErrUnknownStrategy is returned for a strategy identifier outside the catalog.
	ErrUnknownStrategy = errors.New("junban: unknown strategy")
)
