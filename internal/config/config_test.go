package config

import (
	"errors"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]string{"videotestsrc ! x264enc ! rtph264pay name=pay0 pt=96"})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %q, want %q", cfg.Port, DefaultPort)
	}
	if cfg.Endpoint != DefaultEndpoint {
		t.Errorf("Endpoint = %q, want %q", cfg.Endpoint, DefaultEndpoint)
	}
	if cfg.MountPath() != "/video" {
		t.Errorf("MountPath() = %q, want %q", cfg.MountPath(), "/video")
	}
	if cfg.ProfileSpec != "" || cfg.RetransmissionSpec != "" {
		t.Errorf("profile/retransmission specs should default to unset")
	}
	if cfg.DisableRTCP {
		t.Errorf("DisableRTCP should default to false")
	}
}

func TestParse_AllFlags(t *testing.T) {
	cfg, err := Parse([]string{
		"--port", "9000",
		"--endpoint", "cam1",
		"--rtsp-profiles", "AVP+SAVP",
		"--retransmission-time", "150",
		"--disable-rtcp",
		"videotestsrc ! fakesink",
	})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cfg.Port != "9000" || cfg.Endpoint != "cam1" {
		t.Errorf("port/endpoint = %q/%q, want 9000/cam1", cfg.Port, cfg.Endpoint)
	}
	if cfg.ProfileSpec != "AVP+SAVP" {
		t.Errorf("ProfileSpec = %q", cfg.ProfileSpec)
	}
	if cfg.RetransmissionSpec != "150" {
		t.Errorf("RetransmissionSpec = %q", cfg.RetransmissionSpec)
	}
	if !cfg.DisableRTCP {
		t.Errorf("DisableRTCP = false, want true")
	}
	if cfg.MountPath() != "/cam1" {
		t.Errorf("MountPath() = %q, want /cam1", cfg.MountPath())
	}
}

func TestParse_ShortFlags(t *testing.T) {
	cfg, err := Parse([]string{"-p", "8555", "-e", "door", "-r", "avpf", "-t", "200", "launchline"})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cfg.Port != "8555" || cfg.Endpoint != "door" || cfg.ProfileSpec != "avpf" || cfg.RetransmissionSpec != "200" {
		t.Errorf("short flags not honored: %+v", cfg)
	}
}

func TestParse_MissingPipeline(t *testing.T) {
	testCases := [][]string{
		{},
		{"--port", "9000"},
		{"-e", "cam1", "--disable-rtcp"},
	}
	for _, args := range testCases {
		_, err := Parse(args)
		var uerr *UsageError
		if !errors.As(err, &uerr) {
			t.Errorf("Parse(%v) error = %v, want *UsageError", args, err)
		}
	}
}

func TestParse_UnknownFlag(t *testing.T) {
	_, err := Parse([]string{"--no-such-flag", "launchline"})
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v, want *UsageError", err)
	}
}

func TestParseRetransmissionTime(t *testing.T) {
	testCases := []struct {
		name    string
		text    string
		want    time.Duration
		wantErr bool
	}{
		{"plain_digits", "200", 200 * time.Millisecond, false},
		{"zero", "0", 0, false},
		{"large", "600000", 10 * time.Minute, false},
		{"unit_suffix", "200ms", 0, true},
		{"empty", "", 0, true},
		{"negative", "-5", 0, true},
		{"plus_sign", "+5", 0, true},
		{"trailing_space", "200 ", 0, true},
		{"leading_space", " 200", 0, true},
		{"hex", "0x20", 0, true},
		{"float", "1.5", 0, true},
		{"overflow", "99999999999999999999", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseRetransmissionTime(tc.text)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseRetransmissionTime(%q) = %v, want error", tc.text, got)
				}
				var derr *DurationError
				if !errors.As(err, &derr) {
					t.Errorf("error type = %T, want *DurationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRetransmissionTime(%q) returned error: %v", tc.text, err)
			}
			if got != tc.want {
				t.Errorf("ParseRetransmissionTime(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}
