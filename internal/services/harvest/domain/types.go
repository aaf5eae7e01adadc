// Package domain holds the data model and ports of a harvest run
package domain

import "time"

// ItemRef identifies one video found on the channel page
// ID is unique within a discovery run, the first occurrence wins
type ItemRef struct {
	ID    string
	URL   string
	Title string // best effort, superseded by fetched metadata
}

// Metadata is what a metadata fetch returns for one video
type Metadata struct {
	Title       string
	Description string
}

// ExtractionResult is the outcome of processing one ItemRef
// Err is set iff metadata retrieval failed, in which case Emails is empty and HasDescription is false
type ExtractionResult struct {
	Index          int // submission index
	Title          string
	URL            string
	Emails         []string // distinct, first-seen order
	HasDescription bool
	Err            string
}

// Failed reports whether metadata retrieval failed
func (r ExtractionResult) Failed() bool { return r.Err != "" }

// HasEmails reports whether at least one address was found
func (r ExtractionResult) HasEmails() bool { return len(r.Emails) > 0 }

// DiscoverState is the state of the discovery state machine
type DiscoverState uint8

const (
	// StateLoading is the initial state, more snapshots are needed
	StateLoading DiscoverState = iota
	// StateConverged means the unique count stopped growing
	StateConverged
	// StateTargetReached means enough items were collected
	StateTargetReached
	// StateIterationLimitReached means the snapshot ceiling was hit
	StateIterationLimitReached
)

var stateNames = [...]string{"loading", "converged", "target_reached", "iteration_limit_reached"}

// String returns a stable snake case name
func (s DiscoverState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether discovery stops in this state
func (s DiscoverState) Terminal() bool { return s != StateLoading }

// DiscoverySummary records how discovery ended
type DiscoverySummary struct {
	State      DiscoverState
	Iterations int
	Items      int
}

// Counters are the aggregate numbers of a run
type Counters struct {
	Analyzed         int
	WithDescription  int
	WithEmails       int
	Failed           int
	EmailOccurrences int
	UniqueEmails     int
}

// RunReport is the immutable outcome of one run
type RunReport struct {
	RunID      string
	Channel    string
	StartedAt  time.Time
	FinishedAt time.Time
	Discovery  DiscoverySummary

	// Results holds only email-bearing results, ordered by Index
	Results  []ExtractionResult
	Counters Counters

	// Emails is the sorted unique address list
	Emails []string
}

// Elapsed is the wall time of the run
func (r RunReport) Elapsed() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Empty reports whether nothing was analyzed
func (r RunReport) Empty() bool { return r.Counters.Analyzed == 0 }

// Request is the input of one run
type Request struct {
	Channel  string
	MaxItems int // <= 0 means unlimited
}

// Artifacts are the files a publish wrote
type Artifacts struct {
	JSON string
	CSV  string
}
