// Package profile parses RTSP transport-profile specs into bitmasks.
//
// A spec is a compact command-line string such as "AVP+SAVPF" naming the
// transport profiles a stream may be served over. Secure variants carry an
// S prefix, feedback variants an F suffix; the two axes are orthogonal,
// giving the four profiles AVP, AVPF, SAVP and SAVPF.
package profile
