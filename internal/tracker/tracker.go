// Package tracker provides the thin, optional experiment-tracker
// integration described in spec §6: at run start the description and
// parameter binding are logged, and on completion the run is marked
// finished or failed. It is considered external to the engine's core —
// this package only defines the seam and a no-op default.
package tracker

// Tracker is the engine's view of an experiment tracker client. A nil
// Tracker or the NoOp implementation disables the integration entirely.
type Tracker interface {
	// LogDescription records the experiment description and the
	// resolved parameter binding as run artifacts/parameters.
	LogDescription(description any, params map[string]any)
	// LogStepResult records one completed step's outcome.
	LogStepResult(step, plugin string, success bool, outputs map[string]any, errMsg string)
	// Finish marks the run finished (ok == true) or failed.
	Finish(ok bool, errMsg string)
}

// NoOp is a Tracker that does nothing. It is the default when a worker
// does not configure a tracker integration.
type NoOp struct{}

func (NoOp) LogDescription(any, map[string]any)                          {}
func (NoOp) LogStepResult(string, string, bool, map[string]any, string) {}
func (NoOp) Finish(bool, string)                                         {}

var _ Tracker = NoOp{}
