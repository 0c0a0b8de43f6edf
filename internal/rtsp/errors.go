package rtsp

import "fmt"

// AttachError reports that the server could not bind its listening
// address. Fatal at startup; nothing can be served without a listener.
type AttachError struct {
	// Addr is the address the server tried to bind.
	Addr string
	// Err is the underlying listen error.
	Err error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("failed to attach the server on %s: %v", e.Addr, e.Err)
}

func (e *AttachError) Unwrap() error { return e.Err }
