package profile

import "fmt"

// Mask is a bitwise OR of transport-profile flags. The flag values mirror
// the RTSP engine's profile enumeration, so a Mask can be handed to the
// engine without translation.
type Mask int

const (
	// AVP is the plain RTP audio/video profile.
	AVP Mask = 1 << iota
	// SAVP is the secure (SRTP) variant of AVP.
	SAVP
	// AVPF is AVP with RTCP-based feedback.
	AVPF
	// SAVPF is the secure variant of AVPF.
	SAVPF
)

// Secure reports whether the mask allows any secure profile.
func (m Mask) Secure() bool { return m&(SAVP|SAVPF) != 0 }

// Plain reports whether the mask allows any non-secure profile.
func (m Mask) Plain() bool { return m&(AVP|AVPF) != 0 }

// Feedback reports whether the mask allows any feedback profile.
func (m Mask) Feedback() bool { return m&(AVPF|SAVPF) != 0 }

// String returns the mask in the same token syntax Parse accepts,
// e.g. "AVP+SAVPF". The empty mask renders as "".
func (m Mask) String() string {
	var out string
	for _, f := range []struct {
		flag Mask
		name string
	}{
		{AVP, "AVP"},
		{SAVP, "SAVP"},
		{AVPF, "AVPF"},
		{SAVPF, "SAVPF"},
	} {
		if m&f.flag == 0 {
			continue
		}
		if out != "" {
			out += "+"
		}
		out += f.name
	}
	return out
}

// SyntaxError reports a profile spec that could not be parsed.
type SyntaxError struct {
	Spec string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("unknown RTSP profiles (%q) specified", e.Spec)
}

// Parse converts a profile spec string into a Mask.
//
// The spec is a sequence of profile tokens (AVP, AVPF, SAVP, SAVPF,
// case-insensitive) separated by exactly one delimiter character each.
// Any non-alphanumeric character is a valid delimiter; its identity is
// not checked. Two tokens with no delimiter between them, more than one
// delimiter, or an unrecognized token fail the whole parse: no partial
// mask is ever returned.
//
// The empty spec parses to the empty mask; callers treat that as
// "engine default" rather than "no profiles allowed".
func Parse(spec string) (Mask, error) {
	var mask Mask
	i := 0
	for i < len(spec) {
		flag, next := parseOne(spec, i)
		if flag == 0 {
			return 0, &SyntaxError{Spec: spec}
		}
		mask |= flag
		i = next
		if i >= len(spec) {
			break
		}
		// The previous token must terminate at a delimiter. An
		// alphanumeric character here means the token ran into the
		// next one with nothing in between.
		if isAlnum(spec[i]) {
			return 0, &SyntaxError{Spec: spec}
		}
		i++ // exactly one delimiter consumed per token
	}
	return mask, nil
}

// parseOne matches a single profile token starting at base. It returns the
// token's flag and the index of the first byte past the token, or flag 0 if
// nothing at base spells a profile.
//
// An optional leading S selects the secure pair, a trailing F the feedback
// pair. Which of the four flags applies falls out of how far the cursor
// moved relative to base: the secure marker advances it before the AVP
// match, the feedback marker after.
func parseOne(spec string, base int) (Mask, int) {
	cursor := base
	if cursor < len(spec) && upper(spec[cursor]) == 'S' {
		cursor++
	}
	if len(spec)-cursor < 3 ||
		upper(spec[cursor]) != 'A' || upper(spec[cursor+1]) != 'V' || upper(spec[cursor+2]) != 'P' {
		return 0, cursor
	}
	if cursor+3 < len(spec) && upper(spec[cursor+3]) == 'F' {
		flag := SAVPF
		if cursor == base {
			flag = AVPF
		}
		return flag, cursor + 4
	}
	if cursor == base {
		return AVP, cursor + 3
	}
	return SAVP, cursor + 3
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
