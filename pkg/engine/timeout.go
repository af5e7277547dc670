package engine

import (
	"fmt"
	"time"
)

// EvalTimeout is the hard limit for a single formula evaluation.
const EvalTimeout = 5 * time.Second

// evalResult is the internal type used to pass evaluation results through
// channels.
type evalResult struct {
	value float64
	err   error
}

// waitWithTimeout waits for a result from ch, but returns a timeout error
// if the evaluation exceeds EvalTimeout.
//
// On timeout, the goroutine may still be running; ch is buffered so its
// eventual send never blocks and the result is dropped.
func waitWithTimeout(ch <-chan evalResult) (float64, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.value, res.err
	case <-timer.C:
		return 0, fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	}
}
