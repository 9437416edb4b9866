package adapter

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/google/gousb"
)

// Interface class codes
// Reference: http://www.usb.org/developers/defined_class
const (
	IfaceClassPrinter = 0x07
)

// EventType represents device events
type EventType int

const (
	EventConnect EventType = iota
	EventData
	EventClose
)

// Event represents a device event
type Event struct {
	Type   EventType
	Device *gousb.Device
	Data   []byte
}

// USBAdapter forwards printer output to a USB printer class device.
// The device is discovered and claimed on every Open and fully released on
// Close, so one adapter can serve many printing sessions.
type USBAdapter struct {
	vid, pid       uint16
	ctx            *gousb.Context
	device         *gousb.Device
	config         *gousb.Config
	iface          *gousb.Interface
	outEndpoint    *gousb.OutEndpoint
	eventListeners map[EventType][]func(Event)
	listenersMutex sync.RWMutex
	isOpen         bool
	mu             sync.Mutex
}

// NewUSBAdapter creates an adapter for the device with the given VID/PID.
// A zero VID/PID, or an ID that is not present, falls back to the first
// printer class device found at Open.
func NewUSBAdapter(vid, pid uint16) *USBAdapter {
	return &USBAdapter{
		vid:            vid,
		pid:            pid,
		eventListeners: make(map[EventType][]func(Event)),
	}
}

// NewUSBAdapterAuto creates an adapter for the first printer class device
func NewUSBAdapterAuto() *USBAdapter {
	return NewUSBAdapter(0, 0)
}

// IsPrinter checks if a device is a printer
func IsPrinter(dev *gousb.Device) bool {
	return printerInterface(dev) >= 0
}

// printerInterface returns the number of the first printer class interface
// of the active configuration, or -1
func printerInterface(dev *gousb.Device) int {
	if dev == nil {
		return -1
	}

	cfgNum, err := dev.ActiveConfigNum()
	if err != nil {
		return -1
	}

	// ConfigDesc lookups do not claim the configuration
	cfgDesc, ok := dev.Desc.Configs[cfgNum]
	if !ok {
		return -1
	}

	for _, iface := range cfgDesc.Interfaces {
		for _, alt := range iface.AltSettings {
			if alt.Class == IfaceClassPrinter {
				return iface.Number
			}
		}
	}

	return -1
}

// FindPrinters returns all USB printer devices. Non-printer devices are closed.
func FindPrinters(ctx *gousb.Context) []*gousb.Device {
	printers := []*gousb.Device{}

	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return true // Check all devices
	})
	if err != nil && len(devices) == 0 {
		return printers
	}

	for _, dev := range devices {
		if IsPrinter(dev) {
			printers = append(printers, dev)
		} else {
			dev.Close()
		}
	}

	return printers
}

// On adds an event listener
func (a *USBAdapter) On(eventType EventType, handler func(Event)) {
	a.listenersMutex.Lock()
	defer a.listenersMutex.Unlock()

	a.eventListeners[eventType] = append(a.eventListeners[eventType], handler)
}

// emit triggers an event
func (a *USBAdapter) emit(event Event) {
	a.listenersMutex.RLock()
	defer a.listenersMutex.RUnlock()

	for _, handler := range a.eventListeners[event.Type] {
		go handler(event)
	}
}

// locate opens the configured device, or the first printer found
func (a *USBAdapter) locate() (*gousb.Device, error) {
	if a.vid != 0 || a.pid != 0 {
		device, err := a.ctx.OpenDeviceWithVIDPID(gousb.ID(a.vid), gousb.ID(a.pid))
		if err == nil && device != nil {
			return device, nil
		}
		log.Printf("USB device %04x:%04x not found, looking for any printer", a.vid, a.pid)
	}

	printers := FindPrinters(a.ctx)
	if len(printers) == 0 {
		return nil, errors.New("cannot find printer")
	}
	for _, p := range printers[1:] {
		p.Close()
	}

	return printers[0], nil
}

// Open finds the printer, claims its printer interface and output endpoint
func (a *USBAdapter) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.isOpen {
		return ErrAlreadyOpen
	}

	a.ctx = gousb.NewContext()
	if err := a.claim(); err != nil {
		a.release()
		return err
	}

	a.isOpen = true
	a.emit(Event{Type: EventConnect, Device: a.device})

	return nil
}

func (a *USBAdapter) claim() error {
	device, err := a.locate()
	if err != nil {
		return err
	}
	a.device = device

	// Set auto-detach kernel driver on Linux
	if runtime.GOOS == "linux" {
		a.device.SetAutoDetach(true)
	}

	ifaceNum := printerInterface(a.device)
	if ifaceNum < 0 {
		return errors.New("no printer interface found")
	}

	cfgNum, err := a.device.ActiveConfigNum()
	if err != nil {
		return fmt.Errorf("failed to get active config: %w", err)
	}

	a.config, err = a.device.Config(cfgNum)
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}

	a.iface, err = a.config.Interface(ifaceNum, 0)
	if err != nil {
		return fmt.Errorf("failed to claim interface: %w", err)
	}

	for _, epDesc := range a.iface.Setting.Endpoints {
		if epDesc.Direction != gousb.EndpointDirectionOut {
			continue
		}
		ep, err := a.iface.OutEndpoint(epDesc.Number)
		if err == nil {
			a.outEndpoint = ep
			break
		}
	}

	if a.outEndpoint == nil {
		return errors.New("cannot find output endpoint from printer")
	}

	return nil
}

// release closes everything claim acquired, innermost first
func (a *USBAdapter) release() error {
	var errs []error

	a.outEndpoint = nil

	if a.iface != nil {
		a.iface.Close()
		a.iface = nil
	}

	if a.config != nil {
		if err := a.config.Close(); err != nil {
			errs = append(errs, err)
		}
		a.config = nil
	}

	if a.device != nil {
		if err := a.device.Close(); err != nil {
			errs = append(errs, err)
		}
		a.device = nil
	}

	if a.ctx != nil {
		if err := a.ctx.Close(); err != nil {
			errs = append(errs, err)
		}
		a.ctx = nil
	}

	return errors.Join(errs...)
}

// Write sends data to the printer
func (a *USBAdapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrNotOpen
	}

	a.emit(Event{Type: EventData, Data: data})

	n, err := a.outEndpoint.Write(data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}

	return n, nil
}

// Close releases the USB device
func (a *USBAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return nil
	}

	device := a.device
	err := a.release()
	a.isOpen = false
	a.emit(Event{Type: EventClose, Device: device})

	if err != nil {
		return fmt.Errorf("close errors: %w", err)
	}

	return nil
}

// IsOpen returns whether the device is open
func (a *USBAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isOpen
}

// GetDevice returns the underlying USB device while open
func (a *USBAdapter) GetDevice() *gousb.Device {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.device
}
