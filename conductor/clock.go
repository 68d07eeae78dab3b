package conductor

import "time"

// Clock abstracts wall-clock access so tests can run delayed/queued beats
// without paying real wall-clock time.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time      { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock is the default Clock, backed by the real time package.
var SystemClock Clock = systemClock{}
