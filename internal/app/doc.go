// Package app assembles the launcher from its parts and drives the
// runtime's startup sequence.
package app
