package augment

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// RequestStatus is the lifecycle of one user-triggered request.
type RequestStatus int

const (
	RequestIdle RequestStatus = iota
	RequestPending
	RequestSucceeded
	RequestFailed
)

func (s RequestStatus) String() string {
	switch s {
	case RequestIdle:
		return "idle"
	case RequestPending:
		return "pending"
	case RequestSucceeded:
		return "succeeded"
	case RequestFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RequestState is the single source for a control's busy flag and its
// error text. Message is set only when Status is RequestFailed.
type RequestState struct {
	Status  RequestStatus
	Message string
}

// Pending reports whether the control should render disabled.
func (s RequestState) Pending() bool { return s.Status == RequestPending }

// Failed builds a failed state carrying msg.
func Failed(msg string) RequestState {
	return RequestState{Status: RequestFailed, Message: msg}
}

// Gate admits at most one in-flight request per control. The zero value
// is ready to use.
type Gate struct {
	once sync.Once
	sem  *semaphore.Weighted
}

func (g *Gate) init() {
	g.once.Do(func() { g.sem = semaphore.NewWeighted(1) })
}

// Enter claims the gate or returns ErrBusy. The returned release must be
// called exactly once.
func (g *Gate) Enter() (release func(), err error) {
	g.init()
	if !g.sem.TryAcquire(1) {
		return nil, ErrBusy
	}
	var once sync.Once
	return func() { once.Do(func() { g.sem.Release(1) }) }, nil
}
