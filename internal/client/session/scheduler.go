package session

import "time"

// Timer is a pending callback.
type Timer interface {
	Stop() bool
}

// Scheduler arms deferred callbacks. The controller owns the one Timer it
// gets back.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
