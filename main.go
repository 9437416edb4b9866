package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nixxel-company-limited/st-printer-port/adapter"
	"github.com/nixxel-company-limited/st-printer-port/config"
	"github.com/nixxel-company-limited/st-printer-port/printer"
	"github.com/nixxel-company-limited/st-printer-port/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var device adapter.Adapter
	switch cfg.Device {
	case config.DeviceUSB:
		log.Printf("Printing to USB printer %04x:%04x", cfg.USBVendorID, cfg.USBProductID)
		device = adapter.NewUSBAdapter(cfg.USBVendorID, cfg.USBProductID)
	default:
		log.Printf("Printing to file: %s", cfg.PrintToFile)
		device = adapter.NewFileAdapter(cfg.PrintToFile)
	}

	port := printer.New(device, printer.Config{
		Enabled:   cfg.EnablePrinting,
		IdleTicks: cfg.IdleTicks(),
	})

	log.Printf("Server will listen on: %s", cfg.ServerAddress)
	svr := server.New(port, cfg.ServerAddress, cfg.TickInterval())

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		if err := svr.Stop(); err != nil {
			log.Printf("Error stopping server: %v", err)
		}
	}()

	if err := svr.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
