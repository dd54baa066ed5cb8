package workspaces

import (
	repoerrors "github.com/temirov/workspace/internal/repos/errors"
)

// OutcomeKind classifies what a batch operation did to one repository.
type OutcomeKind int

const (
	// OutcomeUnchanged means the checkout was left as it was.
	OutcomeUnchanged OutcomeKind = iota
	// OutcomeLinked means a checkout was created.
	OutcomeLinked
	// OutcomeUpdated means a checkout was fast-forwarded.
	OutcomeUpdated
	// OutcomeSkipped means the repository was intentionally not touched.
	OutcomeSkipped
	// OutcomeFailed means the operation failed for the repository.
	OutcomeFailed
)

// String returns the outcome label.
func (kind OutcomeKind) String() string {
	switch kind {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeLinked:
		return "linked"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RepositoryOutcome records the result of a batch operation for one repository.
type RepositoryOutcome struct {
	Repository string
	Path       string
	Kind       OutcomeKind
	Message    string
	Err        error
}

// BatchReport lists per-repository outcomes of one batch operation in configuration order.
type BatchReport struct {
	Operation     repoerrors.Operation
	WorkspaceName string
	WorkspacePath string
	Outcomes      []RepositoryOutcome
}

func (report *BatchReport) record(outcome RepositoryOutcome) {
	report.Outcomes = append(report.Outcomes, outcome)
}

// Failures returns the errors of failed repositories.
func (report BatchReport) Failures() []error {
	var failures []error
	for _, outcome := range report.Outcomes {
		if outcome.Kind == OutcomeFailed && outcome.Err != nil {
			failures = append(failures, outcome.Err)
		}
	}
	return failures
}

// Count returns how many repositories ended with kind.
func (report BatchReport) Count(kind OutcomeKind) int {
	count := 0
	for _, outcome := range report.Outcomes {
		if outcome.Kind == kind {
			count++
		}
	}
	return count
}

// Err converts failures into a BatchError, or returns nil when every repository succeeded.
func (report BatchReport) Err() error {
	failures := report.Failures()
	if len(failures) == 0 {
		return nil
	}
	return repoerrors.BatchError{Operation: report.Operation, Total: len(report.Outcomes), Failures: failures}
}

// SwitchReport describes a switch.
type SwitchReport struct {
	BatchReport
	Created bool
	Removed bool
}

// SyncReport describes a sync.
type SyncReport struct {
	BatchReport
}

// CleanReport describes a removed workspace.
type CleanReport struct {
	WorkspaceName    string
	WorkspacePath    string
	RemovedCheckouts []string
}

// RepairReport describes a repair of one checkout.
type RepairReport struct {
	WorkspaceName string
	Repository    string
	Path          string
	Reason        string
	Steps         []string
	Repaired      bool
}
