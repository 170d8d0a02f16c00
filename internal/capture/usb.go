package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
)

// usbTransport reads the probe's bulk IN trace endpoint via libusb.
type usbTransport struct {
	ctx     *gousb.Context
	dev     *gousb.Device
	release func()
	ep      *gousb.InEndpoint
	timeout time.Duration
}

func openUSB(config *Config) (Transport, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(config.VendorID), gousb.ID(config.ProductID))
	if err != nil {
		ctx.Close()
		if errors.Is(err, gousb.ErrorAccess) {
			return nil, fmt.Errorf("%w: %04x:%04x: %v", ErrAccessDenied, config.VendorID, config.ProductID, err)
		}
		return nil, fmt.Errorf("%w: %04x:%04x: %v", ErrNoDevice, config.VendorID, config.ProductID, err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("%w: %04x:%04x", ErrNoDevice, config.VendorID, config.ProductID)
	}

	// The probe's vendor driver may hold the interface.
	dev.SetAutoDetach(true)

	intf, release, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("%w: %v", ErrNoInterface, err)
	}

	ep, err := intf.InEndpoint(config.Endpoint)
	if err != nil {
		release()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("%w: endpoint %d: %v", ErrEndpointNotFound, config.Endpoint, err)
	}

	return &usbTransport{
		ctx:     ctx,
		dev:     dev,
		release: release,
		ep:      ep,
		timeout: config.readTimeout(),
	}, nil
}

func (t *usbTransport) Read(p []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	n, err := t.ep.ReadContext(ctx, p)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, gousb.ErrorTimeout) || errors.Is(err, gousb.TransferTimedOut)) {
		return n, readTimeoutError{}
	}
	return n, err
}

// Close releases the claimed interface before the device and context. Only
// called after the capture loop has exited.
func (t *usbTransport) Close() error {
	t.release()
	err := t.dev.Close()
	t.ctx.Close()
	return err
}

// readTimeoutError adapts USB timeouts to the net.Error shape the capture
// loop classifies as transient.
type readTimeoutError struct{}

func (readTimeoutError) Error() string   { return "usb read timeout" }
func (readTimeoutError) Timeout() bool   { return true }
func (readTimeoutError) Temporary() bool { return true }
