package simulation

import (
	"github.com/signalnine/dilemma/agent"
	"github.com/signalnine/dilemma/game"
)

// ConvergenceMonitor signals when a value table has stopped changing for
// Patience consecutive observations.
type ConvergenceMonitor struct {
	Patience int

	prev     map[game.StateKey]agent.Values
	revision uint64
	primed   bool
	streak   int
}

// NewConvergenceMonitor returns a monitor that fires after patience
// unchanged observations. A non-positive patience never fires.
func NewConvergenceMonitor(patience int) *ConvergenceMonitor {
	return &ConvergenceMonitor{Patience: patience}
}

// Observe compares t with the table seen at the previous call and reports
// whether it has now been identical Patience times in a row.
//
// An unchanged revision means nothing was written, so the full comparison
// only runs when the table did change.
func (m *ConvergenceMonitor) Observe(t *agent.ValueTable) bool {
	if m.Patience <= 0 {
		return false
	}

	if m.primed && t.Revision() == m.revision {
		m.streak++
		return m.streak >= m.Patience
	}

	snap := t.Snapshot()
	if m.primed && agent.EqualValues(m.prev, snap) {
		m.streak++
	} else {
		m.streak = 0
	}
	m.prev = snap
	m.primed = true
	m.revision = t.Revision()

	return m.streak >= m.Patience
}

// Streak returns the current run of identical observations.
func (m *ConvergenceMonitor) Streak() int {
	return m.streak
}
