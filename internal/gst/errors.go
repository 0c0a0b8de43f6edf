package gst

import (
	"fmt"
	"strings"

	"github.com/tinyzimmer/go-gst/gst"
)

// PipelineError is a fatal bus error with its classification attached.
type PipelineError struct {
	Category ErrorCategory
	Message  string
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error [%s]: %s", e.Category, e.Message)
}

// ErrorCategory classifies pipeline errors for logging and metrics.
type ErrorCategory int

const (
	// ErrCategoryElement indicates a missing or unusable element in the
	// launch description (typo, plugin not installed).
	ErrCategoryElement ErrorCategory = iota
	// ErrCategoryNegotiation indicates a caps/format negotiation failure
	// between pipeline elements.
	ErrCategoryNegotiation
	// ErrCategoryResource indicates an unusable source or device
	// (file not found, device busy, permission denied).
	ErrCategoryResource
	// ErrCategoryUnknown indicates an unclassified error.
	ErrCategoryUnknown
)

// String returns a short label for the category.
func (e ErrorCategory) String() string {
	switch e {
	case ErrCategoryElement:
		return "element"
	case ErrCategoryNegotiation:
		return "negotiation"
	case ErrCategoryResource:
		return "resource"
	default:
		return "unknown"
	}
}

// ClassifyPipelineError categorizes a GStreamer error.
//
// go-gst's GError does not expose the error domain, so classification
// relies on message heuristics.
func ClassifyPipelineError(gerr *gst.GError) ErrorCategory {
	if gerr == nil {
		return ErrCategoryUnknown
	}
	return classifyMessage(strings.ToLower(gerr.Error()) + " " + strings.ToLower(gerr.DebugString()))
}

// classifyMessage applies the keyword heuristics to a lowercased error
// plus debug string.
func classifyMessage(combined string) ErrorCategory {
	if containsAny(combined,
		"no element", "missing plugin", "missing element", "could not create",
		"no such element",
	) {
		return ErrCategoryElement
	}
	if containsAny(combined,
		"not negotiated", "caps", "format", "negotiation", "no decoder", "no encoder",
	) {
		return ErrCategoryNegotiation
	}
	if containsAny(combined,
		"resource", "no such file", "device", "busy", "permission", "could not open",
	) {
		return ErrCategoryResource
	}
	return ErrCategoryUnknown
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
