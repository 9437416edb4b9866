package printer

import (
	"io"
	"log"
	"os"

	"github.com/nixxel-company-limited/st-printer-port/adapter"
)

// DefaultIdleTicks closes the printer after 4 seconds at a 50 Hz tick
const DefaultIdleTicks = 4 * 50

// State of the printer connection
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Config holds the port settings supplied by the configuration layer
type Config struct {
	// Enabled gates all printing
	Enabled bool
	// IdleTicks is the number of consecutive empty ticks before the sink is
	// closed. Zero means DefaultIdleTicks.
	IdleTicks int
	// BufferSize is the staging capacity. Zero means BufferSize.
	BufferSize int
}

// Port is the host side of the emulated parallel printer port. It is not
// safe for concurrent use: TransferByte, Tick and Shutdown must all be
// called from the emulator loop.
type Port struct {
	sink      adapter.Adapter
	buffer    *LineBuffer
	state     State
	enabled   bool
	idle      int
	idleLimit int
	logger    *log.Logger
}

// New creates a printer port writing to sink
func New(sink adapter.Adapter, cfg Config) *Port {
	logger := log.New(os.Stdout, "[PRINTER] ", log.LstdFlags|log.Lmsgprefix)
	return NewWithLogger(sink, cfg, logger)
}

// NewWithLogger creates a printer port with a custom logger
func NewWithLogger(sink adapter.Adapter, cfg Config, logger *log.Logger) *Port {
	if cfg.IdleTicks <= 0 {
		cfg.IdleTicks = DefaultIdleTicks
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = BufferSize
	}
	return &Port{
		sink:      sink,
		buffer:    NewLineBuffer(cfg.BufferSize),
		enabled:   cfg.Enabled,
		idleLimit: cfg.IdleTicks,
		logger:    logger,
	}
}

// TransferByte passes one byte from the emulated machine to the printer.
// It returns false when printing is disabled or the sink cannot be opened.
// Bytes outside the printable set are accepted and dropped.
func (p *Port) TransferByte(b byte) bool {
	if !p.enabled {
		return false
	}

	if p.state == Disconnected && !p.connect() {
		return false
	}

	var err error
	switch Classify(b) {
	case Tab:
		err = p.buffer.AppendTab(p.writer())
	case LineEnding:
		err = p.buffer.Append(b, p.writer())
		if b == cr {
			p.buffer.ResetColumn()
		}
	case Printable:
		err = p.buffer.Append(b, p.writer())
	}
	if err != nil {
		p.logger.Printf("Error: %v", err)
	}

	return true
}

// Tick flushes staged output and closes the sink once it has been idle for
// the configured number of ticks. Call it at the emulator's fixed rate.
func (p *Port) Tick() {
	if p.state == Disconnected {
		p.idle = 0
		return
	}

	if p.flush() {
		p.idle = 0
		return
	}

	p.idle++
	if p.idle >= p.idleLimit {
		p.logger.Printf("Printer idle for %d ticks, closing", p.idle)
		p.disconnect()
		p.idle = 0
	}
}

// Shutdown flushes and closes the sink. It is safe to call repeatedly.
func (p *Port) Shutdown() error {
	if p.state == Disconnected {
		return nil
	}
	return p.disconnect()
}

// SetEnabled toggles printing. An open session is left to the idle timer.
func (p *Port) SetEnabled(enabled bool) {
	p.enabled = enabled
}

// Enabled reports whether printing is enabled
func (p *Port) Enabled() bool { return p.enabled }

// State returns the connection state
func (p *Port) State() State { return p.state }

// IdleTicks returns the consecutive ticks without output
func (p *Port) IdleTicks() int { return p.idle }

// Buffered returns the number of staged bytes
func (p *Port) Buffered() int { return p.buffer.Len() }

// Column returns the tab stop column
func (p *Port) Column() int { return p.buffer.Column() }

func (p *Port) connect() bool {
	if !p.sink.IsOpen() {
		if err := p.sink.Open(); err != nil {
			p.logger.Printf("Error: Failed to open printer: %v", err)
			return false
		}
	}

	p.logger.Println("Printer connected")
	p.state = Connected
	p.idle = 0
	p.buffer.Reset()
	return true
}

func (p *Port) disconnect() error {
	p.flush()

	err := p.sink.Close()
	if err != nil {
		p.logger.Printf("Error closing printer: %v", err)
	} else {
		p.logger.Println("Printer disconnected")
	}

	p.state = Disconnected
	return err
}

// flush empties the buffer into the sink and reports whether there was data
func (p *Port) flush() bool {
	flushed, err := p.buffer.Flush(p.writer())
	if err != nil {
		p.logger.Printf("Error: %v", err)
	}
	return flushed
}

// writer is the sink while connected, nil otherwise
func (p *Port) writer() io.Writer {
	if p.state != Connected {
		return nil
	}
	return p.sink
}
