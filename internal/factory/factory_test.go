package factory

import (
	"errors"
	"testing"
	"time"

	"github.com/e7canasta/rtsp-launch/internal/config"
	"github.com/e7canasta/rtsp-launch/internal/profile"
)

const testLaunch = "videotestsrc ! x264enc ! rtph264pay name=pay0 pt=96"

func TestNew_Defaults(t *testing.T) {
	f, err := New(Options{Launch: testLaunch})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if f.Launch() != testLaunch {
		t.Errorf("Launch() = %q", f.Launch())
	}
	if _, set := f.Profiles(); set {
		t.Errorf("Profiles() reported set, want engine default")
	}
	if f.Retain() || f.RetransmissionTime() != 0 {
		t.Errorf("retention should be disabled by default")
	}
	if !f.RTCPEnabled() {
		t.Errorf("RTCP should default to enabled")
	}
	if !f.Shared() {
		t.Errorf("factory must always be shared")
	}
}

func TestNew_ProfilesApplied(t *testing.T) {
	f, err := New(Options{Launch: testLaunch, ProfileSpec: "AVP+SAVP"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	mask, set := f.Profiles()
	if !set {
		t.Fatalf("Profiles() reported unset")
	}
	if mask != profile.AVP|profile.SAVP {
		t.Errorf("mask = %v, want AVP+SAVP", mask)
	}
}

func TestNew_BadProfilesFailFast(t *testing.T) {
	_, err := New(Options{Launch: testLaunch, ProfileSpec: "XYZ"})
	var serr *profile.SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *profile.SyntaxError", err)
	}
}

func TestNew_RetransmissionEnablesRetention(t *testing.T) {
	f, err := New(Options{Launch: testLaunch, RetransmissionSpec: "150"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if !f.Retain() {
		t.Errorf("setting a window must enable retention")
	}
	if f.RetransmissionTime() != 150*time.Millisecond {
		t.Errorf("RetransmissionTime() = %v, want 150ms", f.RetransmissionTime())
	}
}

func TestNew_BadRetransmissionFailFast(t *testing.T) {
	for _, spec := range []string{"200ms", "", "-1", "abc"} {
		_, err := New(Options{Launch: testLaunch, RetransmissionSpec: spec})
		if spec == "" {
			// Empty means "flag not given": no retention, no error.
			if err != nil {
				t.Errorf("New with empty spec returned error: %v", err)
			}
			continue
		}
		var derr *config.DurationError
		if !errors.As(err, &derr) {
			t.Errorf("spec %q: error = %v, want *config.DurationError", spec, err)
		}
	}
}

func TestNew_DisableRTCP(t *testing.T) {
	f, err := New(Options{Launch: testLaunch, DisableRTCP: true})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if f.RTCPEnabled() {
		t.Errorf("RTCPEnabled() = true, want false")
	}
}

func TestNew_MissingLaunchIsUsageError(t *testing.T) {
	_, err := New(Options{})
	var uerr *config.UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v, want *config.UsageError", err)
	}
}

// Profile validation runs before the launch check: a bad profile spec fails
// with its own error even when the launch description is also missing.
func TestNew_ApplicationOrder(t *testing.T) {
	_, err := New(Options{ProfileSpec: "XYZ"})
	var serr *profile.SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *profile.SyntaxError before launch validation", err)
	}

	_, err = New(Options{ProfileSpec: "AVP", RetransmissionSpec: "bad"})
	var derr *config.DurationError
	if !errors.As(err, &derr) {
		t.Fatalf("error = %v, want *config.DurationError after valid profiles", err)
	}
}

func TestMediaConstructedHook(t *testing.T) {
	f, err := New(Options{Launch: testLaunch, RetransmissionSpec: "150"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	// Hook absent: firing is a no-op.
	f.MediaConstructed(2)

	var got []StreamInfo
	f.SetMediaConstructedHook(func(info StreamInfo) {
		got = append(got, info)
	})
	f.MediaConstructed(3)

	if len(got) != 3 {
		t.Fatalf("hook fired %d times, want 3", len(got))
	}
	for i, info := range got {
		if info.Index != i {
			t.Errorf("info[%d].Index = %d", i, info.Index)
		}
		if !info.Sender {
			t.Errorf("info[%d].Sender = false, want true", i)
		}
		if info.RetransmissionTime != 150*time.Millisecond {
			t.Errorf("info[%d].RetransmissionTime = %v", i, info.RetransmissionTime)
		}
	}
}
