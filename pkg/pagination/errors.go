package pagination

import (
	"errors"
	"fmt"
	"strings"
)

// Controller errors. None of them change the cursor.
var (
	// ErrBusy is returned when a load is requested while another is in flight.
	ErrBusy = errors.New("page load already in flight")

	// ErrExhausted is returned when the next page is requested from a terminal cursor.
	ErrExhausted = errors.New("no more pages")

	// ErrClosed is returned after the session has been closed.
	ErrClosed = errors.New("paging session closed")
)

// ErrorKind classifies fetch failures.
type ErrorKind string

const (
	// KindTransport covers connectivity failures and timeouts.
	KindTransport ErrorKind = "transport"

	// KindHTTP covers responses with a failure status.
	KindHTTP ErrorKind = "http"

	// KindEmptyBody covers success responses without a usable payload.
	KindEmptyBody ErrorKind = "empty_body"
)

// emptyBodyMessage is shown to users when a success response had no payload.
const emptyBodyMessage = "body is null"

// FetchError is the error a Fetcher returns for a failed page.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
}

// TransportError wraps a connectivity failure.
func TransportError(err error) *FetchError {
	return &FetchError{Kind: KindTransport, Err: err}
}

// HTTPError builds a failure for a non-success response.
func HTTPError(statusCode int, body string) *FetchError {
	return &FetchError{Kind: KindHTTP, StatusCode: statusCode, Body: body}
}

// EmptyBodyError builds a failure for a success response without payload.
func EmptyBodyError(statusCode int) *FetchError {
	return &FetchError{Kind: KindEmptyBody, StatusCode: statusCode}
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("fetch page: http %d: %s", e.StatusCode, e.Body)
	case KindEmptyBody:
		return fmt.Sprintf("fetch page: empty body (status %d)", e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("fetch page: transport: %v", e.Err)
		}
		return "fetch page: transport failure"
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Message returns the text shown to users for this failure.
func (e *FetchError) Message() string {
	switch e.Kind {
	case KindHTTP:
		if body := strings.TrimSpace(e.Body); body != "" {
			return body
		}
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	case KindEmptyBody:
		return emptyBodyMessage
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "network error"
	}
}

// AsFetchError converts any fetcher error to a *FetchError.
// Errors that are not already a FetchError are treated as transport failures.
func AsFetchError(err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return TransportError(err)
}
