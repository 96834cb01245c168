package processor

import (
	"time"

	"github.com/xadriann/stockwatch/internal/epcis"
)

// ItemState is the most recently recorded state of one tracked item.
type ItemState struct {
	Disposition string
	Location    string
	BizStep     string
	EventTime   time.Time
	EventID     string
}

// Tracker owns the per-item state map. Last write wins in processing order,
// regardless of the event-time field or business meaning.
type Tracker struct {
	states map[string]ItemState
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[string]ItemState)}
}

// Record reads the currently stored state of every EPC in the event and
// returns those prior states, then overwrites each EPC's state from the
// event. The read happens strictly before the write so callers get genuine
// pre-event context.
func (t *Tracker) Record(ev *epcis.Event) map[string]ItemState {
	prior := make(map[string]ItemState, len(ev.EPCList))
	for _, epc := range ev.EPCList {
		if state, seen := t.states[epc]; seen {
			prior[epc] = state
		}
	}
	next := ItemState{
		Disposition: ev.Disposition,
		Location:    ev.BizLocation,
		BizStep:     ev.BizStep,
		EventTime:   ev.EventTime,
		EventID:     ev.ID,
	}
	for _, epc := range ev.EPCList {
		t.states[epc] = next
	}
	return prior
}

// PriorState is a pure read of an item's stored state.
func (t *Tracker) PriorState(epc string) (ItemState, bool) {
	state, ok := t.states[epc]
	return state, ok
}

// Len returns the number of tracked items.
func (t *Tracker) Len() int {
	return len(t.states)
}
