package viewsync

import (
	"math"
	"time"
)

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Implementations must call f on another
// goroutine, never synchronously from AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Backoff doubles the delay from Base on every consecutive failure,
// capped at Max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns the wait before the retry that follows the given number
// of consecutive failures (1 for the first failure).
func (b Backoff) Delay(failures int) time.Duration {
	d := b.Base
	if d <= 0 {
		d = time.Second
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	for i := 1; i < failures; i++ {
		if d > math.MaxInt64/2 {
			return time.Duration(math.MaxInt64)
		}
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	return d
}
