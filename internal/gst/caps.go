package gst

import (
	"fmt"
	"strconv"
	"strings"
)

// RTPFormat is the RTP payload description extracted from a payloader's
// output caps. It carries everything needed to announce the stream in a
// session description.
type RTPFormat struct {
	// Media is the media type: "video", "audio" or "application".
	Media string
	// Payload is the RTP payload type.
	Payload uint8
	// ClockRate is the RTP clock rate in Hz.
	ClockRate int
	// EncodingName is the payload encoding, e.g. "H264".
	EncodingName string
	// EncodingParams is the optional encoding-params caps field
	// (e.g. channel count for audio).
	EncodingParams string
	// FMTP holds the format-specific parameters advertised alongside
	// the payload (sprop-parameter-sets, packetization-mode, ...).
	FMTP map[string]string
}

// RTPMap returns the rtpmap fragment "ENCODING/CLOCK[/PARAMS]".
func (f RTPFormat) RTPMap() string {
	if f.EncodingParams != "" {
		return fmt.Sprintf("%s/%d/%s", f.EncodingName, f.ClockRate, f.EncodingParams)
	}
	return fmt.Sprintf("%s/%d", f.EncodingName, f.ClockRate)
}

// capsMetaFields are caps fields that describe the RTP transport itself
// rather than format-specific parameters; they never end up in FMTP.
var capsMetaFields = map[string]bool{
	"media":            true,
	"payload":          true,
	"clock-rate":       true,
	"encoding-name":    true,
	"encoding-params":  true,
	"ssrc":             true,
	"clock-base":       true,
	"seqnum-offset":    true,
	"seqnum-base":      true,
	"timestamp-offset": true,
	"a-framerate":      true,
}

// ParseRTPCaps parses a serialized application/x-rtp caps structure into an
// RTPFormat. The input is the structure's string form, e.g.
//
//	application/x-rtp, media=(string)video, clock-rate=(int)90000,
//	encoding-name=(string)H264, payload=(int)96
//
// Fields not recognized as transport metadata are collected into FMTP.
func ParseRTPCaps(s string) (RTPFormat, error) {
	fields := splitCapsFields(s)
	if len(fields) == 0 {
		return RTPFormat{}, fmt.Errorf("empty caps")
	}

	name := strings.TrimSpace(fields[0])
	if name != "application/x-rtp" {
		return RTPFormat{}, fmt.Errorf("caps %q are not application/x-rtp", name)
	}

	format := RTPFormat{FMTP: map[string]string{}}
	seen := map[string]bool{}

	for _, field := range fields[1:] {
		key, value, err := parseCapsField(field)
		if err != nil {
			return RTPFormat{}, err
		}
		seen[key] = true

		switch key {
		case "media":
			format.Media = value
		case "encoding-name":
			format.EncodingName = value
		case "encoding-params":
			format.EncodingParams = value
		case "payload":
			pt, err := strconv.ParseUint(value, 10, 8)
			if err != nil {
				return RTPFormat{}, fmt.Errorf("invalid payload %q: %w", value, err)
			}
			format.Payload = uint8(pt)
		case "clock-rate":
			rate, err := strconv.Atoi(value)
			if err != nil {
				return RTPFormat{}, fmt.Errorf("invalid clock-rate %q: %w", value, err)
			}
			format.ClockRate = rate
		default:
			if !capsMetaFields[key] {
				format.FMTP[key] = value
			}
		}
	}

	for _, required := range []string{"media", "payload", "clock-rate", "encoding-name"} {
		if !seen[required] {
			return RTPFormat{}, fmt.Errorf("caps missing required field %q", required)
		}
	}

	return format, nil
}

// splitCapsFields splits a caps structure string at top-level commas.
// Commas inside quoted values, braces or brackets do not split; a backslash
// escapes the next character inside quotes.
func splitCapsFields(s string) []string {
	var fields []string
	var depth int
	var quoted, escaped bool
	start := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case quoted:
			if c == '"' {
				quoted = false
			}
		case c == '"':
			quoted = true
		case c == '{' || c == '[' || c == '(':
			depth++
		case c == '}' || c == ']' || c == ')':
			depth--
		case c == ',' && depth == 0:
			fields = append(fields, s[start:i])
			start = i + 1
		}
	}
	if trimmed := strings.TrimSpace(s[start:]); trimmed != "" {
		fields = append(fields, s[start:])
	}
	return fields
}

// parseCapsField parses one "key=(type)value" caps field. The type
// annotation is optional; quoted values are unquoted and unescaped.
func parseCapsField(field string) (key, value string, err error) {
	eq := strings.IndexByte(field, '=')
	if eq < 0 {
		return "", "", fmt.Errorf("malformed caps field %q", field)
	}
	key = strings.TrimSpace(field[:eq])
	value = strings.TrimSpace(field[eq+1:])

	if strings.HasPrefix(value, "(") {
		close := strings.IndexByte(value, ')')
		if close < 0 {
			return "", "", fmt.Errorf("malformed type annotation in %q", field)
		}
		value = strings.TrimSpace(value[close+1:])
	}

	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = unescapeCapsString(value[1 : len(value)-1])
	}

	if key == "" {
		return "", "", fmt.Errorf("malformed caps field %q", field)
	}
	return key, value, nil
}

func unescapeCapsString(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for i := 0; i < len(s); i++ {
		if escaped {
			b.WriteByte(s[i])
			escaped = false
			continue
		}
		if s[i] == '\\' {
			escaped = true
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
