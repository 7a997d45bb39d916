package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/dmitrijs2005/discbaboons/internal/common"
)

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrTimeout     = errors.New("request timed out")
)

const (
	msgUnavailable  = "Unable to connect to server. Please check your internet connection and try again."
	msgTimeout      = "Request timed out. Please try again."
	msgSessionEnded = "Your session has expired. Please log in again."
	msgSomethingBad = "Something went wrong. Please try again later."
)

// ServerError is a non-2xx reply that the client has no sentinel for.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server replied %d: %s", e.Status, e.Message)
}

// transportError classifies a failed round trip.
func transportError(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// UserMessage turns any error from this package into a string fit for the
// user. Network trouble and a rejected session read differently.
func UserMessage(err error) string {
	var se *ServerError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return msgTimeout
	case errors.Is(err, ErrUnavailable):
		return msgUnavailable
	case errors.Is(err, common.ErrInvalidRefreshToken):
		return msgSessionEnded
	case errors.As(err, &se):
		if se.Status >= http.StatusInternalServerError || se.Message == "" {
			return msgSomethingBad
		}
		return se.Message
	default:
		return msgSomethingBad
	}
}
