package client

import "fmt"

// APIError is a transport-level failure: the daemon answered with a
// non-success status. Detail carries the response body when present.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("API error %d", e.StatusCode)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Detail)
}

// DomainError is a daemon-reported failure: the request reached the
// daemon and it declined, either in a command response's error field or
// as an error-kind event.
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	if e.Message == "" {
		return "daemon rejected the request"
	}
	return e.Message
}
