package scope

import "time"

// Recorder receives measurements from the digest engine.
// A Recorder must be safe for concurrent use when shared between trees.
type Recorder interface {
	// ObserveDigest is called once per completed digest with the number
	// of dirty-check rounds it ran. err is nil on convergence.
	ObserveDigest(rounds int, elapsed time.Duration, err error)
	// AddWatchEvaluations counts watch functions evaluated in one round.
	AddWatchEvaluations(n int)
	// IncCallbackErrors counts one contained callback failure of kind.
	IncCallbackErrors(kind string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveDigest(int, time.Duration, error) {}
func (nopRecorder) AddWatchEvaluations(int)                 {}
func (nopRecorder) IncCallbackErrors(string)                {}
