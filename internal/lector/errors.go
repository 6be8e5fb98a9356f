package lector

import "fmt"

// HTTPError reports a non-2xx response from the remote catalog.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// ParseError reports a remote response whose JSON shape did not match the
// gateway's expectations. Raw untyped payloads never cross the gateway
// boundary; they either become typed records or this error.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing remote response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parsing remote response: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NetworkError reports a transport-level failure, surfaced verbatim.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network failure: %v", e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }
