package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PrinterFileName is the default output file, placed in the home directory
const PrinterFileName = "hatari.prn"

// Device kinds
const (
	DeviceFile = "file"
	DeviceUSB  = "usb"
)

// Config holds the printer settings resolved from the environment
type Config struct {
	EnablePrinting bool
	PrintToFile    string
	Device         string
	USBVendorID    uint16
	USBProductID   uint16
	ServerAddress  string
	TickRate       int
	IdleSeconds    int
}

// DefaultPrintFile returns $HOME/hatari.prn, or ./hatari.prn without a home
func DefaultPrintFile() string {
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, PrinterFileName)
	}
	return "." + string(filepath.Separator) + PrinterFileName
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PRINTER_ENABLE", true)
	v.SetDefault("PRINTER_FILE", "")
	v.SetDefault("PRINTER_DEVICE", DeviceFile)
	v.SetDefault("PRINTER_USB_VID", "0")
	v.SetDefault("PRINTER_USB_PID", "0")
	v.SetDefault("PRINTER_TICK_RATE", 50)
	v.SetDefault("PRINTER_IDLE_SECONDS", 4)
	v.SetDefault("SERVER_ADDRESS", "localhost:9100")

	vid, err := parseID(v.GetString("PRINTER_USB_VID"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRINTER_USB_VID: %w", err)
	}
	pid, err := parseID(v.GetString("PRINTER_USB_PID"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRINTER_USB_PID: %w", err)
	}

	cfg := &Config{
		EnablePrinting: v.GetBool("PRINTER_ENABLE"),
		PrintToFile:    strings.TrimSpace(v.GetString("PRINTER_FILE")),
		Device:         strings.ToLower(v.GetString("PRINTER_DEVICE")),
		USBVendorID:    vid,
		USBProductID:   pid,
		ServerAddress:  v.GetString("SERVER_ADDRESS"),
		TickRate:       v.GetInt("PRINTER_TICK_RATE"),
		IdleSeconds:    v.GetInt("PRINTER_IDLE_SECONDS"),
	}

	// the user may have left a stub entry behind
	if len(cfg.PrintToFile) <= 1 {
		cfg.PrintToFile = DefaultPrintFile()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings for values the printer cannot run with
func (c *Config) Validate() error {
	switch c.Device {
	case DeviceFile, DeviceUSB:
	default:
		return fmt.Errorf("unknown printer device %q", c.Device)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %d", c.TickRate)
	}
	if c.IdleSeconds <= 0 {
		return fmt.Errorf("idle seconds must be positive, got %d", c.IdleSeconds)
	}
	return nil
}

// IdleTicks converts the idle timeout to ticks at the configured rate
func (c *Config) IdleTicks() int {
	return c.IdleSeconds * c.TickRate
}

// TickInterval is the period of the idle check
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// parseID accepts decimal or 0x prefixed USB IDs
func parseID(s string) (uint16, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(id), nil
}
