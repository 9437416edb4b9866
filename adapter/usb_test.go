package adapter

import (
	"testing"
	"time"

	"github.com/google/gousb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUSBAdapter(t *testing.T) {
	adapter := NewUSBAdapter(0x04b8, 0x0202)

	assert.Equal(t, uint16(0x04b8), adapter.vid)
	assert.Equal(t, uint16(0x0202), adapter.pid)
	assert.NotNil(t, adapter.eventListeners)
	assert.False(t, adapter.IsOpen())
	assert.Nil(t, adapter.GetDevice())
}

func TestUSBAdapterClosedOperations(t *testing.T) {
	adapter := NewUSBAdapterAuto()

	_, err := adapter.Write([]byte("test"))
	assert.ErrorIs(t, err, ErrNotOpen)

	// closing a never opened adapter is a no-op
	assert.NoError(t, adapter.Close())
}

func TestIsPrinter(t *testing.T) {
	t.Run("NilDevice", func(t *testing.T) {
		assert.False(t, IsPrinter(nil))
	})

	t.Run("RealDevice", func(t *testing.T) {
		ctx := gousb.NewContext()
		defer ctx.Close()

		devices := FindPrinters(ctx)
		if len(devices) == 0 {
			t.Skip("No USB printers found")
		}

		for _, dev := range devices {
			defer dev.Close()
			assert.True(t, IsPrinter(dev))
		}
	})
}

func TestFindPrinters(t *testing.T) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	printers := FindPrinters(ctx)
	assert.NotNil(t, printers)

	if len(printers) == 0 {
		t.Skip("No USB printers found")
	}
	t.Logf("Found %d printer(s)", len(printers))
	for _, printer := range printers {
		printer.Close()
	}
}

func openTestPrinter(t *testing.T) *USBAdapter {
	t.Helper()

	adapter := NewUSBAdapterAuto()
	if err := adapter.Open(); err != nil {
		t.Skipf("No USB printer available, skipping test: %v", err)
	}
	return adapter
}

func TestUSBAdapterOpenClose(t *testing.T) {
	adapter := openTestPrinter(t)
	defer adapter.Close()

	assert.True(t, adapter.IsOpen())
	assert.NotNil(t, adapter.GetDevice())

	// Test double open
	err := adapter.Open()
	assert.ErrorIs(t, err, ErrAlreadyOpen)

	err = adapter.Close()
	require.NoError(t, err)
	assert.False(t, adapter.IsOpen())
	assert.Nil(t, adapter.GetDevice())

	// a closed adapter can start a new session
	require.NoError(t, adapter.Open())
	assert.True(t, adapter.IsOpen())
}

func TestUSBAdapterWrite(t *testing.T) {
	adapter := openTestPrinter(t)
	defer adapter.Close()

	testData := []byte("Hello from the ST\r\n")
	n, err := adapter.Write(testData)
	assert.NoError(t, err)
	assert.Equal(t, len(testData), n)
}

func TestUSBAdapterEventListeners(t *testing.T) {
	adapter := NewUSBAdapterAuto()

	events := make(chan EventType, 3)
	for _, et := range []EventType{EventConnect, EventData, EventClose} {
		adapter.On(et, func(e Event) { events <- e.Type })
	}

	if err := adapter.Open(); err != nil {
		t.Skipf("No USB printer available, skipping test: %v", err)
	}

	_, err := adapter.Write([]byte("\r\n"))
	assert.NoError(t, err)
	require.NoError(t, adapter.Close())

	seen := map[EventType]bool{}
	assert.Eventually(t, func() bool {
		for {
			select {
			case et := <-events:
				seen[et] = true
			default:
				return len(seen) == 3
			}
		}
	}, time.Second, 10*time.Millisecond, "All events should have been triggered")
}
