package capture

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Default probe: ST-Link v2 trace endpoint.
const (
	DefaultVendorID  = 0x0483
	DefaultProductID = 0x3748
	DefaultEndpoint  = 3

	DefaultReadTimeout = 250 * time.Millisecond
)

// Config selects the trace transport: a USB bulk pipe or a TCP bridge,
// mutually exclusive.
type Config struct {
	// USB transport.
	USB       bool
	VendorID  uint16
	ProductID uint16
	Endpoint  int

	// TCP bridge transport.
	Host string
	Port int

	// ReadTimeout bounds each transport read so the capture loop can notice
	// a stop request.
	ReadTimeout time.Duration
}

func (c *Config) String() string {
	if c.USB {
		return fmt.Sprintf("usb %04x:%04x ep%d", c.VendorID, c.ProductID, c.Endpoint)
	}
	if c.Host != "" {
		return fmt.Sprintf("%s:%d", c.Host, c.Port)
	}
	return "no target specified"
}

func (c *Config) readTimeout() time.Duration {
	if c.ReadTimeout <= 0 {
		return DefaultReadTimeout
	}
	return c.ReadTimeout
}

// ParseTarget parses a capture target argument:
//
//	usb              default probe (ST-Link)
//	usb:vvvv:pppp    probe by hex vendor:product
//	host:port        TCP trace bridge
func ParseTarget(arg string) (*Config, error) {
	config := &Config{
		ReadTimeout: DefaultReadTimeout,
	}

	if arg == "usb" || strings.HasPrefix(arg, "usb:") {
		config.USB = true
		config.VendorID = DefaultVendorID
		config.ProductID = DefaultProductID
		config.Endpoint = DefaultEndpoint
		if arg == "usb" {
			return config, nil
		}
		parts := strings.Split(arg, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid USB target %q: want usb:vvvv:pppp", arg)
		}
		vid, err := strconv.ParseUint(parts[1], 16, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid vendor id %q", parts[1])
		}
		pid, err := strconv.ParseUint(parts[2], 16, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q", parts[2])
		}
		config.VendorID = uint16(vid)
		config.ProductID = uint16(pid)
		return config, nil
	}

	host, portStr, found := strings.Cut(arg, ":")
	if !found || host == "" {
		return nil, fmt.Errorf("invalid target %q: want usb[:vvvv:pppp] or host:port", arg)
	}
	port, err := strconv.Atoi(strings.TrimSpace(portStr))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %q", portStr)
	}
	config.Host = host
	config.Port = port
	return config, nil
}
