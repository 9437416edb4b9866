package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.EnablePrinting)
	assert.Equal(t, filepath.Join(home, PrinterFileName), cfg.PrintToFile)
	assert.Equal(t, DeviceFile, cfg.Device)
	assert.Equal(t, "localhost:9100", cfg.ServerAddress)
	assert.Equal(t, 50, cfg.TickRate)
	assert.Equal(t, 200, cfg.IdleTicks())
	assert.Equal(t, 20*time.Millisecond, cfg.TickInterval())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PRINTER_ENABLE", "false")
	t.Setenv("PRINTER_FILE", "/tmp/out.prn")
	t.Setenv("PRINTER_DEVICE", "USB")
	t.Setenv("PRINTER_USB_VID", "0x04b8")
	t.Setenv("PRINTER_USB_PID", "514")
	t.Setenv("PRINTER_TICK_RATE", "100")
	t.Setenv("PRINTER_IDLE_SECONDS", "2")
	t.Setenv("SERVER_ADDRESS", ":9200")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.EnablePrinting)
	assert.Equal(t, "/tmp/out.prn", cfg.PrintToFile)
	assert.Equal(t, DeviceUSB, cfg.Device)
	assert.Equal(t, uint16(0x04b8), cfg.USBVendorID)
	assert.Equal(t, uint16(0x0202), cfg.USBProductID)
	assert.Equal(t, ":9200", cfg.ServerAddress)
	assert.Equal(t, 200, cfg.IdleTicks())
	assert.Equal(t, 10*time.Millisecond, cfg.TickInterval())
}

func TestLoadStubPathFallsBack(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PRINTER_FILE", "/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, PrinterFileName), cfg.PrintToFile)
}

func TestDefaultPrintFileWithoutHome(t *testing.T) {
	t.Setenv("HOME", "")
	assert.Equal(t, "."+string(filepath.Separator)+PrinterFileName, DefaultPrintFile())
}

func TestLoadInvalid(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{"Device", "PRINTER_DEVICE", "serial"},
		{"TickRate", "PRINTER_TICK_RATE", "0"},
		{"IdleSeconds", "PRINTER_IDLE_SECONDS", "-1"},
		{"VID", "PRINTER_USB_VID", "0x10000"},
		{"PID", "PRINTER_USB_PID", "printer"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
