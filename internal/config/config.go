package config

import (
	"fmt"
	"net"
	"time"
)

// Mode selects the receive strategy.
type Mode string

const (
	// ModeSocket blocks in the kernel receive call, one packet at a time.
	ModeSocket Mode = "socket"
	// ModePoll spins on a non-blocking socket, draining bursts.
	ModePoll Mode = "poll"
)

// Stream identifies one multicast group/port pairing. Each stream gets its
// own receive goroutine and aggregator.
type Stream struct {
	Group string `yaml:"group"`
	Port  int    `yaml:"port"`
}

func (s Stream) String() string {
	return fmt.Sprintf("%s:%d", s.Group, s.Port)
}

type Config struct {
	Group          string        `mapstructure:"group"`
	Port           int           `mapstructure:"port"`
	Mode           Mode          `mapstructure:"mode"`
	ReportInterval time.Duration `mapstructure:"report_interval"`
	Duration       time.Duration `mapstructure:"duration"`
	Burst          int           `mapstructure:"burst"`
	PoolSize       int           `mapstructure:"pool_size"`
	JSONOutput     bool          `mapstructure:"json_output"`
	Dashboard      bool          `mapstructure:"dashboard"`
	Quiet          bool          `mapstructure:"quiet"`
	StreamsFile    string        `mapstructure:"streams_file"`
	Streams        []Stream      `mapstructure:"streams"`
	ConfigFile     string        `mapstructure:"-"`
}

// ResolvedStreams returns the streams to receive on: the explicit list
// when one was configured, otherwise the single positional group/port.
func (c *Config) ResolvedStreams() []Stream {
	if len(c.Streams) > 0 {
		return c.Streams
	}
	if c.Group == "" {
		return nil
	}
	return []Stream{{Group: c.Group, Port: c.Port}}
}

// Validate checks the fully loaded configuration.
func (c *Config) Validate() error {
	streams := c.ResolvedStreams()
	if len(streams) == 0 {
		return fmt.Errorf("no stream configured: pass <group> <port> or --streams")
	}
	for _, s := range streams {
		ip := net.ParseIP(s.Group)
		if ip == nil || ip.To4() == nil {
			return fmt.Errorf("stream %s: group is not an IPv4 address", s)
		}
		if !ip.IsMulticast() {
			return fmt.Errorf("stream %s: group is not a multicast address", s)
		}
		if s.Port < 1 || s.Port > 65535 {
			return fmt.Errorf("stream %s: port out of range", s)
		}
	}

	switch c.Mode {
	case ModeSocket, ModePoll:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeSocket, ModePoll, c.Mode)
	}

	if c.ReportInterval <= 0 {
		return fmt.Errorf("report interval must be positive")
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative")
	}
	if c.Burst < 1 || c.Burst > 1024 {
		return fmt.Errorf("burst must be between 1 and 1024")
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("pool size must be positive")
	}
	if c.Dashboard && c.JSONOutput {
		return fmt.Errorf("--dashboard and --json-output are mutually exclusive")
	}
	return nil
}
