package discover

import (
	"tubemail/internal/core/channel"
	"tubemail/internal/services/harvest/domain"
)

// tracker is the discovery state machine
// it owns the accumulator and decides after each snapshot whether to stop
type tracker struct {
	target      int // <= 0 means unlimited
	maxIter     int
	staleRounds int

	seen  map[string]struct{}
	items []domain.ItemRef

	iterations int
	lastCount  int
	sameRun    int // consecutive snapshots ending at lastCount
	state      domain.DiscoverState
}

func newTracker(target, maxIter, staleRounds int) *tracker {
	return &tracker{
		target:      target,
		maxIter:     maxIter,
		staleRounds: staleRounds,
		seen:        map[string]struct{}{},
		lastCount:   -1,
		state:       domain.StateLoading,
	}
}

// step folds one snapshot into the accumulator and returns the next state
// checks run in order: target, convergence, iteration ceiling
func (t *tracker) step(snapshot []domain.ItemRef) domain.DiscoverState {
	if t.state.Terminal() {
		return t.state
	}
	t.iterations++
	t.merge(snapshot)

	n := len(t.items)
	if n == t.lastCount {
		t.sameRun++
	} else {
		t.lastCount = n
		t.sameRun = 1
	}

	switch {
	case t.target > 0 && n >= t.target:
		t.items = t.items[:t.target]
		t.state = domain.StateTargetReached
	case t.staleRounds > 0 && t.sameRun >= t.staleRounds:
		t.state = domain.StateConverged
	case t.maxIter > 0 && t.iterations >= t.maxIter:
		t.state = domain.StateIterationLimitReached
	}
	return t.state
}

// merge appends unseen items in snapshot order
func (t *tracker) merge(snapshot []domain.ItemRef) {
	for _, it := range snapshot {
		if it.ID == "" || channel.IsShort(it.URL) {
			continue
		}
		if _, ok := t.seen[it.ID]; ok {
			continue
		}
		t.seen[it.ID] = struct{}{}
		t.items = append(t.items, it)
	}
}

func (t *tracker) result() Result {
	return Result{
		Items:      append([]domain.ItemRef(nil), t.items...),
		State:      t.state,
		Iterations: t.iterations,
	}
}
