package client

import "fmt"

// Typed failures returned by the request client and its collaborators.
type (
	ErrUnauthorized struct{}
	ErrBadURL       struct{ URL string }
	ErrHTTPStatus   struct {
		Code int
		Body string
	}
	ErrTransport           struct{ Err error }
	ErrCannotDecodeRawData struct{ Err error }
	ErrSignInRequired      struct{}
	ErrAborted             struct{}
)

func (e ErrUnauthorized) Error() string {
	return "request requires authentication but no bearer token is available"
}

func (e ErrBadURL) Error() string {
	return fmt.Sprintf("malformed request URL: %s", e.URL)
}

func (e ErrHTTPStatus) Error() string {
	return fmt.Sprintf("backend returned HTTP %d: %s", e.Code, e.Body)
}

func (e ErrTransport) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e ErrTransport) Unwrap() error { return e.Err }

func (e ErrCannotDecodeRawData) Error() string {
	return fmt.Sprintf("response body does not match the expected schema: %v", e.Err)
}

func (e ErrCannotDecodeRawData) Unwrap() error { return e.Err }

func (e ErrSignInRequired) Error() string {
	return "the authentication capability requires the user to sign in again"
}

func (e ErrAborted) Error() string {
	return "operation aborted by the user"
}
