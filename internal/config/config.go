package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

const (
	// DefaultPort is the RTSP listening port used when --port is absent.
	DefaultPort = "8554"
	// DefaultEndpoint is the mount endpoint used when --endpoint is absent.
	DefaultEndpoint = "video"
)

// Config is the immutable launch configuration. It is populated exactly once
// from argv and passed explicitly to whoever needs it; nothing reads flag
// state back as ambient globals.
type Config struct {
	// Port is the RTSP listening service port.
	Port string
	// Endpoint is the URI endpoint name; the mount path is "/" + Endpoint.
	Endpoint string
	// ProfileSpec is the raw --rtsp-profiles value, empty when unset.
	ProfileSpec string
	// RetransmissionSpec is the raw --retransmission-time value in
	// milliseconds, empty when unset.
	RetransmissionSpec string
	// DisableRTCP forces RTCP off where the protocol engine supports
	// per-stream RTCP control. A no-op otherwise.
	DisableRTCP bool
	// MetricsAddr, when non-empty, enables the Prometheus metrics
	// endpoint on the given listen address.
	MetricsAddr string
	// Debug enables debug logging and the per-stream media-constructed
	// diagnostic hook.
	Debug bool
	// Launch is the mandatory pipeline launch description.
	Launch string
}

// MountPath returns the URI path the stream is mounted at.
func (c *Config) MountPath() string { return "/" + c.Endpoint }

// UsageError reports unusable command-line input: unparseable flags or a
// missing launch description. Detected before any server object exists.
type UsageError struct {
	Reason string
	Err    error
}

func (e *UsageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *UsageError) Unwrap() error { return e.Err }

// DurationError reports a malformed --retransmission-time value.
type DurationError struct {
	Text string
}

func (e *DurationError) Error() string {
	return fmt.Sprintf("invalid retransmission time (%q) specified", e.Text)
}

// Parse builds a Config from command-line arguments (excluding the program
// name). Flag errors and a missing launch description surface as
// *UsageError; Parse never prints or exits on its own.
func Parse(args []string) (*Config, error) {
	cfg := &Config{}

	fs := pflag.NewFlagSet("rtsp-launch", pflag.ContinueOnError)
	fs.StringVarP(&cfg.Port, "port", "p", DefaultPort,
		"Port to listen on")
	fs.StringVarP(&cfg.Endpoint, "endpoint", "e", DefaultEndpoint,
		"URI end point")
	fs.StringVarP(&cfg.ProfileSpec, "rtsp-profiles", "r", "",
		"Allowed transfer profiles (e.g. AVP+AVPF+SAVP+SAVPF)")
	fs.StringVarP(&cfg.RetransmissionSpec, "retransmission-time", "t", "",
		"Milliseconds to retain packets for retransmission (also sets do-retransmission)")
	fs.BoolVar(&cfg.DisableRTCP, "disable-rtcp", false,
		"Disable RTCP")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address")
	fs.BoolVar(&cfg.Debug, "debug", false,
		"Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, &UsageError{Reason: "error parsing options", Err: err}
	}

	rest := fs.Args()
	if len(rest) < 1 || rest[0] == "" {
		return nil, &UsageError{Reason: "empty pipeline"}
	}
	cfg.Launch = rest[0]

	return cfg, nil
}

// ParseRetransmissionTime converts a millisecond count string into a
// duration. The whole string must be a base-10 unsigned integer: empty
// input, signs, unit suffixes or any other trailing character fail with
// *DurationError. Negative and out-of-range values are invalid rather than
// wrapping around.
func ParseRetransmissionTime(text string) (time.Duration, error) {
	ms, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, &DurationError{Text: text}
	}
	if ms > uint64(maxRetransmissionMS) {
		return 0, &DurationError{Text: text}
	}
	// Fixed multiplier from the CLI's millisecond unit to the engine's
	// native nanosecond unit.
	return time.Duration(ms) * time.Millisecond, nil
}

// maxRetransmissionMS keeps the converted duration inside time.Duration's
// positive range.
const maxRetransmissionMS = int64(1<<63-1) / int64(time.Millisecond)
