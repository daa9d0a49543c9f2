package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkFailure matches every error of a request that did not
	// complete.
	ErrNetworkFailure = errors.New("network failure")
	// ErrRejectedByServer matches every non-2xx answer.
	ErrRejectedByServer = errors.New("rejected by server")
	// ErrCheckpointsNotConfigured is returned when the backend keeps no
	// checkpoint history.
	ErrCheckpointsNotConfigured = errors.New("checkpoints not configured")
)

// NetworkError is a request that never produced a response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network failure: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetworkFailure }

// ServerError is a response the server answered with a non-2xx status, or a
// 2xx body that could not be read.
type ServerError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s %s: rejected with status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

func (e *ServerError) Is(target error) bool { return target == ErrRejectedByServer }

// StatusCode returns the HTTP status of a rejected request, or 0.
func StatusCode(err error) int {
	var serr *ServerError
	if errors.As(err, &serr) {
		return serr.StatusCode
	}
	return 0
}
