// Package config turns command-line input into the immutable launch
// configuration and defines the startup error taxonomy.
//
// All configuration errors are fatal and detected before the server starts
// accepting connections; each maps to a distinct process exit code at the
// CLI boundary (cmd/rtsp-launch).
package config
