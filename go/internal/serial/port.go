package serial

import (
	"context"
	"fmt"
	"io"
	"time"

	bugserial "go.bug.st/serial"
)

// PortConfig names a serial port and its line settings
type PortConfig struct {
	Name        string
	BaudRate    int
	ReadTimeout time.Duration
}

// PortOpener returns an Opener for a physical serial port (8N1). Reads time
// out after ReadTimeout so the reader can observe cancellation.
func PortOpener(cfg PortConfig) Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		if cfg.Name == "" {
			return nil, fmt.Errorf("serial port name is required")
		}
		port, err := bugserial.Open(cfg.Name, &bugserial.Mode{
			BaudRate: cfg.BaudRate,
			DataBits: 8,
			Parity:   bugserial.NoParity,
			StopBits: bugserial.OneStopBit,
		})
		if err != nil {
			return nil, fmt.Errorf("open %s at %d baud: %w", cfg.Name, cfg.BaudRate, err)
		}
		if cfg.ReadTimeout > 0 {
			if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
				port.Close()
				return nil, fmt.Errorf("set read timeout on %s: %w", cfg.Name, err)
			}
		}
		return port, nil
	}
}

// ListPorts returns the serial ports visible to the OS
func ListPorts() ([]string, error) {
	return bugserial.GetPortsList()
}
