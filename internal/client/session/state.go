package session

import (
	"errors"
	"fmt"
)

// State is the session lifecycle position.
type State int

const (
	Unauthenticated State = iota
	Restoring
	Authenticated
	LoggingOut
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Restoring:
		return "restoring"
	case Authenticated:
		return "authenticated"
	case LoggingOut:
		return "logging out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var ErrInvalidTransition = errors.New("invalid session transition")

var transitions = map[State][]State{
	Unauthenticated: {Restoring, Authenticated},
	Restoring:       {Authenticated, Unauthenticated, LoggingOut},
	Authenticated:   {Authenticated, LoggingOut},
	LoggingOut:      {Unauthenticated},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
