package events

import "time"

// Key identifies the pass and well an event belongs to. Pass-level events
// leave WellID empty; single-well updates carry their own run id.
type Key struct {
	RunID  string
	WellID string
}

// Event is implemented by every decline event.
type Event interface {
	EventKey() Key
}

// WellFitted is published after a well's rows are merged into the shared tables.
type WellFitted struct {
	RunID      string
	WellID     string
	Searched   bool
	OilDi      float64
	GasDi      float64
	ErrorOil   float64
	ErrorGas   float64
	Rows       int
	OccurredAt time.Time
}

// EventKey implements Event.
func (e WellFitted) EventKey() Key { return Key{RunID: e.RunID, WellID: e.WellID} }

// WellSkipped is published when a well cannot be fitted in a pass. Its rows
// have already been dropped from the shared tables.
type WellSkipped struct {
	RunID      string
	WellID     string
	Reason     string
	OccurredAt time.Time
}

// EventKey implements Event.
func (e WellSkipped) EventKey() Key { return Key{RunID: e.RunID, WellID: e.WellID} }

// WellRemoved is published when a pass sweeps a well that left the
// production table.
type WellRemoved struct {
	RunID      string
	WellID     string
	OccurredAt time.Time
}

// EventKey implements Event.
func (e WellRemoved) EventKey() Key { return Key{RunID: e.RunID, WellID: e.WellID} }

// PopulationFitCompleted is published once a full population pass has merged.
type PopulationFitCompleted struct {
	RunID      string
	Fitted     []string
	Skipped    []string
	Malformed  []string
	Removed    []string
	IterateDi  bool
	Duration   time.Duration
	OccurredAt time.Time
}

// EventKey implements Event.
func (e PopulationFitCompleted) EventKey() Key { return Key{RunID: e.RunID} }
