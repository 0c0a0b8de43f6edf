package profile

import (
	"errors"
	"testing"
)

func TestParse_ValidSpecs(t *testing.T) {
	testCases := []struct {
		name string
		spec string
		want Mask
	}{
		{"single_plain", "AVP", AVP},
		{"single_feedback", "AVPF", AVPF},
		{"single_secure", "SAVP", SAVP},
		{"single_secure_feedback", "SAVPF", SAVPF},
		{"lowercase", "savp", SAVP},
		{"mixed_case", "sAvPf", SAVPF},
		{"two_tokens_plus", "AVP+AVPF", AVP | AVPF},
		{"two_tokens_mixed_case", "avp+savpf", AVP | SAVPF},
		{"comma_delimiter", "AVP,SAVP", AVP | SAVP},
		{"semicolon_delimiter", "AVP;SAVP", AVP | SAVP},
		{"space_delimiter", "AVP SAVP", AVP | SAVP},
		{"all_four", "AVP+AVPF+SAVP+SAVPF", AVP | AVPF | SAVP | SAVPF},
		{"duplicate_token", "AVP+AVP", AVP},
		{"empty", "", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.spec)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tc.spec, err)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.spec, got, tc.want)
			}
		})
	}
}

func TestParse_InvalidSpecs(t *testing.T) {
	testCases := []struct {
		name string
		spec string
	}{
		{"unknown_token", "XYZ"},
		{"no_delimiter_between_tokens", "AVPAVPF"},
		{"secure_marker_alone", "S"},
		{"truncated_token", "AV"},
		{"double_delimiter", "AVP++AVPF"},
		{"trailing_junk_token", "AVP+AV"},
		{"leading_delimiter", "+AVP"},
		{"feedback_glued_to_next", "AVPFSAVP"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.spec)
			if err == nil {
				t.Fatalf("Parse(%q) = %v, want error", tc.spec, got)
			}
			var serr *SyntaxError
			if !errors.As(err, &serr) {
				t.Errorf("Parse(%q) error type = %T, want *SyntaxError", tc.spec, err)
			}
			if serr.Spec != tc.spec {
				t.Errorf("SyntaxError.Spec = %q, want %q", serr.Spec, tc.spec)
			}
		})
	}
}

// A non-empty spec must never produce an empty mask without an error.
func TestParse_NonEmptySpecNeverYieldsEmptyMask(t *testing.T) {
	specs := []string{"AVP", "avpf", "SAVP+AVP", "AVP,AVPF;SAVPF"}
	for _, spec := range specs {
		mask, err := Parse(spec)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", spec, err)
		}
		if mask == 0 {
			t.Errorf("Parse(%q) produced empty mask without error", spec)
		}
	}
}

func TestParse_TrailingDelimiterIsAccepted(t *testing.T) {
	// A delimiter at end of input leaves the cursor past the last byte;
	// the loop exits before demanding another token. "AVP+" therefore
	// parses like "AVP". This mirrors the engine's original cursor scan.
	mask, err := Parse("AVP+")
	if err != nil {
		t.Fatalf("Parse(\"AVP+\") returned error: %v", err)
	}
	if mask != AVP {
		t.Errorf("Parse(\"AVP+\") = %v, want %v", mask, AVP)
	}
}

func TestMask_Predicates(t *testing.T) {
	testCases := []struct {
		mask                    Mask
		secure, plain, feedback bool
	}{
		{AVP, false, true, false},
		{AVPF, false, true, true},
		{SAVP, true, false, false},
		{SAVPF, true, false, true},
		{AVP | SAVP, true, true, false},
		{0, false, false, false},
	}
	for _, tc := range testCases {
		if got := tc.mask.Secure(); got != tc.secure {
			t.Errorf("%v.Secure() = %v, want %v", tc.mask, got, tc.secure)
		}
		if got := tc.mask.Plain(); got != tc.plain {
			t.Errorf("%v.Plain() = %v, want %v", tc.mask, got, tc.plain)
		}
		if got := tc.mask.Feedback(); got != tc.feedback {
			t.Errorf("%v.Feedback() = %v, want %v", tc.mask, got, tc.feedback)
		}
	}
}

func TestMask_String(t *testing.T) {
	testCases := []struct {
		mask Mask
		want string
	}{
		{AVP, "AVP"},
		{AVP | SAVPF, "AVP+SAVPF"},
		{AVP | AVPF | SAVP | SAVPF, "AVP+SAVP+AVPF+SAVPF"},
		{0, ""},
	}
	for _, tc := range testCases {
		if got := tc.mask.String(); got != tc.want {
			t.Errorf("Mask(%d).String() = %q, want %q", tc.mask, got, tc.want)
		}
	}
}

// Round trip: String output parses back to the same mask.
func TestMask_StringRoundTrip(t *testing.T) {
	for m := Mask(1); m < 16; m++ {
		parsed, err := Parse(m.String())
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", m.String(), err)
		}
		if parsed != m {
			t.Errorf("round trip failed: %v -> %q -> %v", m, m.String(), parsed)
		}
	}
}
