package printer

// Class is the outcome of classifying one byte from the emulated port
type Class int

const (
	// Rejected bytes are dropped without side effects
	Rejected Class = iota
	// LineEnding is CR or LF, stored literally
	LineEnding
	// Printable is plain ASCII in the range 32..126
	Printable
	// Tab is expanded to spaces up to the next tab stop
	Tab
)

const (
	cr  = 0x0d
	lf  = 0x0a
	tab = 0x09
)

// Classify returns how a byte should be handled by the line buffer.
// Control codes other than CR, LF and Tab, and anything from 127 up, are
// rejected; escape sequences are therefore only passed through for the part
// that lands in the printable range.
func Classify(b byte) Class {
	switch {
	case b == cr || b == lf:
		return LineEnding
	case b == tab:
		return Tab
	case b >= 32 && b < 127:
		return Printable
	default:
		return Rejected
	}
}

// Accepted reports whether the byte reaches the buffer
func (c Class) Accepted() bool {
	return c != Rejected
}

func (c Class) String() string {
	switch c {
	case LineEnding:
		return "line-ending"
	case Printable:
		return "printable"
	case Tab:
		return "tab"
	default:
		return "rejected"
	}
}
