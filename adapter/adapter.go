package adapter

import "errors"

var (
	// ErrNotOpen is returned when writing to a sink that has no open handle
	ErrNotOpen = errors.New("device not open")

	// ErrAlreadyOpen is returned by Open when the handle is already held
	ErrAlreadyOpen = errors.New("device already open")
)

// Adapter defines the interface for printer output sinks.
// The output handle only exists between a successful Open and the next Close.
type Adapter interface {
	// Open acquires the output handle
	Open() error

	// Write sends data to the printer
	Write(data []byte) (int, error)

	// Close releases the output handle
	Close() error

	// IsOpen returns whether the handle is held
	IsOpen() bool
}
