package pilot

import "fmt"

// SensorError reports a failed read of the vehicle's sensors. The loop stops
// on the first one.
type SensorError struct {
	Tick int
	Op   string
	Err  error
}

func (e *SensorError) Error() string {
	return fmt.Sprintf("tick %d: %s: %v", e.Tick, e.Op, e.Err)
}

func (e *SensorError) Unwrap() error { return e.Err }
