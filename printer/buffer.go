package printer

import (
	"errors"
	"fmt"
	"io"
)

const (
	// BufferSize is the staging capacity; a full buffer is written out in one go
	BufferSize = 2048

	// TabWidth is the ST tab stop spacing
	TabWidth = 8
)

// ErrPartialWrite is reported when the sink accepts fewer bytes than staged.
// The remainder is dropped.
var ErrPartialWrite = errors.New("not all chars were written")

// LineBuffer stages filtered printer bytes before they hit the sink
type LineBuffer struct {
	data   []byte
	column int
}

// NewLineBuffer allocates a buffer of the given capacity. A capacity below
// TabWidth cannot hold a full tab and is raised to BufferSize.
func NewLineBuffer(capacity int) *LineBuffer {
	if capacity < TabWidth {
		capacity = BufferSize
	}
	return &LineBuffer{data: make([]byte, 0, capacity)}
}

// Len returns the number of staged bytes
func (b *LineBuffer) Len() int { return len(b.data) }

// Cap returns the staging capacity
func (b *LineBuffer) Cap() int { return cap(b.data) }

// Column returns the characters staged since the last carriage return
func (b *LineBuffer) Column() int { return b.column }

// Bytes returns the staged bytes. The slice is only valid until the next
// mutation.
func (b *LineBuffer) Bytes() []byte { return b.data }

// Append stages one byte, flushing to w first when the buffer is full.
// The byte is stored even if that flush fails; the error is returned as a
// diagnostic only.
func (b *LineBuffer) Append(c byte, w io.Writer) error {
	var err error
	if len(b.data) == cap(b.data) {
		_, err = b.Flush(w)
	}

	b.data = append(b.data, c)
	if c != cr && c != lf {
		b.column++
	}

	return err
}

// AppendTab stages spaces up to the next tab stop. An aligned column still
// advances a full TabWidth.
func (b *LineBuffer) AppendTab(w io.Writer) error {
	spaces := TabWidth - b.column%TabWidth

	var err error
	if len(b.data)+spaces > cap(b.data) {
		_, err = b.Flush(w)
	}

	for i := 0; i < spaces; i++ {
		b.data = append(b.data, ' ')
	}
	b.column += spaces

	return err
}

// Flush writes all staged bytes to w in a single Write and empties the
// buffer whatever the outcome. A nil w discards the contents. The boolean
// reports whether anything was staged.
func (b *LineBuffer) Flush(w io.Writer) (bool, error) {
	n := len(b.data)
	if n == 0 {
		return false, nil
	}
	defer func() { b.data = b.data[:0] }()

	if w == nil {
		return true, nil
	}

	written, err := w.Write(b.data)
	if err != nil {
		return true, fmt.Errorf("%w (%d of %d): %v", ErrPartialWrite, written, n, err)
	}
	if written < n {
		return true, fmt.Errorf("%w (%d of %d)", ErrPartialWrite, written, n)
	}

	return true, nil
}

// ResetColumn restarts tab stop counting. Only a carriage return does this;
// a bare line feed keeps the column, which is how the ST side behaves, though
// it may well have been unintended there.
func (b *LineBuffer) ResetColumn() {
	b.column = 0
}

// Reset drops staged bytes and the column without touching any sink
func (b *LineBuffer) Reset() {
	b.data = b.data[:0]
	b.column = 0
}
