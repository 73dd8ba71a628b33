package trace

import "time"

// Clock reports elapsed time since activation in microseconds.
type Clock interface {
	Elapsed() float64
}

type monoClock struct {
	start time.Time
}

// NewClock returns a Clock anchored at start. Readings use the monotonic
// component of start, so they never go backwards.
func NewClock(start time.Time) Clock {
	return monoClock{start: start}
}

func (c monoClock) Elapsed() float64 {
	return float64(time.Since(c.start)) / float64(time.Microsecond)
}
