package dispatch

import (
	"errors"
	"time"

	"github.com/harun/oracle/pkg/provider"
	"github.com/harun/oracle/pkg/session"
)

// ErrNoModels is returned when a dispatch is asked to run zero models.
var ErrNoModels = errors.New("no models to dispatch")

// Status is the settled state of one model call.
type Status string

const (
	StatusFulfilled Status = "fulfilled"
	StatusRejected  Status = "rejected"
)

// Resolver maps a model name to the provider serving it.
type Resolver interface {
	For(model string) (provider.Provider, provider.ModelInfo, error)
}

// Input is the model independent part of every call in a dispatch.
type Input struct {
	Prompt          string
	System          string
	Attachments     []provider.Attachment
	MaxOutputTokens int
	Search          bool
}

// Outcome is the normalized result of one model call.
type Outcome struct {
	Model       string
	Status      Status
	AnswerText  string
	Usage       *session.Usage
	ErrorReason string
	Err         error
	Elapsed     time.Duration
}

// Fulfilled reports whether the call succeeded.
func (o Outcome) Fulfilled() bool {
	return o.Status == StatusFulfilled
}

// ModelRun converts o to its persisted summary.
func (o Outcome) ModelRun() session.ModelRun {
	run := session.ModelRun{
		Model:       o.Model,
		Status:      string(o.Status),
		ErrorReason: o.ErrorReason,
	}
	if o.Usage != nil {
		u := *o.Usage
		run.Usage = &u
	}
	return run
}

// Summary is the settled aggregate of a multi-model dispatch.
type Summary struct {
	Outcomes  []Outcome
	Fulfilled []Outcome
	Rejected  []Outcome
}

// AllFailed reports whether no call succeeded.
func (s Summary) AllFailed() bool {
	return len(s.Fulfilled) == 0
}

// Usage sums usage over fulfilled outcomes.
func (s Summary) Usage() session.Usage {
	var total session.Usage
	for _, o := range s.Fulfilled {
		if o.Usage != nil {
			total.Add(*o.Usage)
		}
	}
	return total
}

// ModelRuns returns persisted summaries in input order.
func (s Summary) ModelRuns() []session.ModelRun {
	runs := make([]session.ModelRun, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		runs = append(runs, o.ModelRun())
	}
	return runs
}
