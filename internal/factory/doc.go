// Package factory builds the media-factory configuration from CLI-derived
// options.
//
// Configuration is applied in a fixed order with fail-fast validation;
// the resulting MediaFactory is immutable and owned by the server runtime
// for the rest of the process lifetime.
package factory
