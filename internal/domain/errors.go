package domain

import "fmt"

// ValidationError rejects malformed protocol input. Status carries the
// HTTP status the endpoint maps it to (400, 403 or 405).
type ValidationError struct {
	Status int
	Reason string
}

func (e ValidationError) Error() string {
	return e.Reason
}

// Is enables errors.Is matching on ValidationError regardless of fields.
func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

// ErrValidation is the sentinel for errors.Is checks.
var ErrValidation = ValidationError{}

// RateLimitedError rejects a request over the admission window.
type RateLimitedError struct{}

func (e RateLimitedError) Error() string { return "too many requests" }

var ErrRateLimited = RateLimitedError{}

// FetchError wraps a failed source retrieval: unreachable, TLS-invalid,
// over the size cap, non-2xx or timed out. The detail is for logs only
// and must never reach a client-facing body.
type FetchError struct {
	URL    string
	Reason string
}

func (e FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e FetchError) Is(target error) bool {
	_, ok := target.(FetchError)
	if ok {
		return true
	}
	_, ok = target.(*FetchError)
	return ok
}

var ErrFetch = FetchError{}

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}
