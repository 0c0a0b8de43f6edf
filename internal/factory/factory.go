package factory

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/e7canasta/rtsp-launch/internal/config"
	"github.com/e7canasta/rtsp-launch/internal/profile"
)

// Options are the CLI-derived inputs to the configurator. Empty strings mean
// "flag not given".
type Options struct {
	// Launch is the pipeline launch description (mandatory).
	Launch string
	// ProfileSpec is the raw transport-profile spec, parsed with
	// profile.Parse when non-empty.
	ProfileSpec string
	// RetransmissionSpec is the raw retransmission window in
	// milliseconds; setting it also enables packet retention.
	RetransmissionSpec string
	// DisableRTCP forces RTCP off where the protocol engine supports it.
	DisableRTCP bool
}

// StreamInfo describes one payload stream at media construction time.
// It is the argument to the diagnostic hook.
type StreamInfo struct {
	// Index is the payload stream index (pay0 -> 0).
	Index int
	// Sender is true for server-to-client streams.
	Sender bool
	// RetransmissionTime is the configured retention window, zero when
	// retention is disabled.
	RetransmissionTime time.Duration
}

// MediaFactory is the validated, immutable media-factory configuration.
// Built once at startup by New and owned by the server runtime thereafter.
type MediaFactory struct {
	launch         string
	profiles       profile.Mask
	hasProfiles    bool
	retransmission time.Duration
	retain         bool
	rtcpEnabled    bool
	shared         bool

	// onMediaConstructed, when set, is invoked once per payload stream
	// when the media pipeline is constructed. Never wired by default.
	onMediaConstructed func(StreamInfo)
}

// New applies the options to a fresh MediaFactory in a fixed, fail-fast
// order: profiles, retransmission time, RTCP, launch description, shared
// flag. The first failure aborts configuration; no partially configured
// factory is returned and no server object should be built after a failure.
func New(opts Options) (*MediaFactory, error) {
	f := &MediaFactory{
		rtcpEnabled: true,
		shared:      true, // one pipeline instance serves every client
	}

	if opts.ProfileSpec != "" {
		mask, err := profile.Parse(opts.ProfileSpec)
		if err != nil {
			return nil, err
		}
		f.profiles = mask
		f.hasProfiles = true
	}

	if opts.RetransmissionSpec != "" {
		window, err := config.ParseRetransmissionTime(opts.RetransmissionSpec)
		if err != nil {
			return nil, err
		}
		// Storing a window implies retention; there is no separate
		// toggle.
		f.retransmission = window
		f.retain = true
	}

	if opts.DisableRTCP {
		f.rtcpEnabled = false
	}

	if opts.Launch == "" {
		return nil, &config.UsageError{Reason: "empty pipeline"}
	}
	f.launch = opts.Launch

	slog.Debug("factory: configured",
		"launch", f.launch,
		"profiles", f.profiles.String(),
		"retransmission", f.retransmission,
		"retain", f.retain,
		"rtcp", f.rtcpEnabled,
		"shared", f.shared,
	)

	return f, nil
}

// Launch returns the pipeline launch description.
func (f *MediaFactory) Launch() string { return f.launch }

// Profiles returns the allowed transport-profile mask and whether one was
// explicitly configured. When unset the engine default applies.
func (f *MediaFactory) Profiles() (profile.Mask, bool) {
	return f.profiles, f.hasProfiles
}

// RetransmissionTime returns the retention window. Zero means retention is
// disabled; see Retain.
func (f *MediaFactory) RetransmissionTime() time.Duration { return f.retransmission }

// Retain reports whether sent packets are kept for retransmission.
func (f *MediaFactory) Retain() bool { return f.retain }

// RTCPEnabled reports whether RTCP should be enabled on streams, where the
// protocol engine supports the toggle.
func (f *MediaFactory) RTCPEnabled() bool { return f.rtcpEnabled }

// Shared reports whether one running pipeline serves all clients.
// Always true for this launcher.
func (f *MediaFactory) Shared() bool { return f.shared }

// SetMediaConstructedHook installs a diagnostic hook invoked once per
// payload stream at media construction. Must be called before the factory
// is handed to the runtime.
func (f *MediaFactory) SetMediaConstructedHook(fn func(StreamInfo)) {
	f.onMediaConstructed = fn
}

// MediaConstructed fires the diagnostic hook for each of n payload streams.
// Called by the engine binding when the pipeline is built; a no-op unless a
// hook was installed.
func (f *MediaFactory) MediaConstructed(n int) {
	if f.onMediaConstructed == nil {
		return
	}
	for i := 0; i < n; i++ {
		f.onMediaConstructed(StreamInfo{
			Index:              i,
			Sender:             true,
			RetransmissionTime: f.retransmission,
		})
	}
}

// LogMediaConstructed is a ready-made diagnostic hook that logs each stream
// the way the engine reports them.
func LogMediaConstructed(info StreamInfo) {
	role := "Receiver"
	if info.Sender {
		role = "Sender"
	}
	slog.Debug(fmt.Sprintf("%d:%s retransmission_time = %d",
		info.Index, role, info.RetransmissionTime.Nanoseconds()))
}
