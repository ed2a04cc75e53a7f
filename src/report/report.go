// Package report accumulates per-image outcomes of a command so that one
// failing image never stops the rest of the batch. Failures are reported in
// aggregate at the end of the command.
package report

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Status is the outcome of one operation on one image.
type Status string

const (
	Success Status = "success"
	Failed  Status = "failed"  // primary operation failed; affects exit status
	Warning Status = "warning" // secondary step failed; primary result stands
	Skipped Status = "skipped" // nothing to do for this image
)

// Outcome records one operation on one image reference.
type Outcome struct {
	Project string
	Image   string
	Op      string // "build", "tag", "push", "remove", "keep", ...
	Ref     string // full name:tag the operation touched, if any
	Status  Status
	Detail  string
	Err     error
}

// Report is the ordered collection of outcomes of one command. It is safe
// for concurrent use.
type Report struct {
	Command string

	mu       sync.Mutex
	outcomes []Outcome
}

// New starts an empty report for command.
func New(command string) *Report {
	return &Report{Command: command}
}

// Add records an outcome.
func (r *Report) Add(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

// Outcomes returns a copy of the recorded outcomes in insertion order.
func (r *Report) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outcome(nil), r.outcomes...)
}

// Count returns how many outcomes have status s.
func (r *Report) Count(s Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Failed returns the number of failed primary operations.
func (r *Report) Failed() int { return r.Count(Failed) }

// Err folds every failed outcome into a single error, or returns nil when
// no primary operation failed. Warnings never contribute.
func (r *Report) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs *multierror.Error
	for _, o := range r.outcomes {
		if o.Status != Failed {
			continue
		}
		err := o.Err
		if err == nil {
			err = fmt.Errorf("%s failed", o.Op)
		}
		errs = multierror.Append(errs, fmt.Errorf("%s (%s): %w", o.Project, o.Image, err))
	}
	return errs.ErrorOrNil()
}
