package promotion

import (
	"fmt"

	"goprove/domain/core"
	"goprove/domain/eligibility"
)

// legalTransitions is the complete transition table. Rejected is
// reachable from any non-terminal state; nothing leaves a terminal
// state.
var legalTransitions = map[Status][]Status{
	StatusExploratory: {StatusCandidate, StatusRejected},
	StatusCandidate:   {StatusAccepted, StatusRejected},
	StatusAccepted:    {},
	StatusRejected:    {},
}

// CanTransition reports whether from -> to appears in the legal set.
func CanTransition(from, to Status) bool {
	for _, t := range legalTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// statusLevel maps a gated status to the report level that must back it.
func statusLevel(s Status) eligibility.Level {
	switch s {
	case StatusCandidate:
		return eligibility.LevelCandidate
	case StatusAccepted:
		return eligibility.LevelAccepted
	}
	return ""
}

// ValidateTransition is the single rule set every store write runs
// atomically with the write itself. It checks the transition table and,
// for gated targets, that the report passed at exactly the target
// level and belongs to the candidate's run.
func ValidateTransition(candidate *Candidate, target Status, report *eligibility.Report) error {
	if candidate == nil {
		return core.NewValidationError("candidate", "candidate cannot be nil")
	}
	if !target.IsValid() {
		return core.NewInvalidTransitionError(string(candidate.Status), string(target))
	}
	if !CanTransition(candidate.Status, target) {
		return core.NewInvalidTransitionError(string(candidate.Status), string(target))
	}
	if !target.IsGated() {
		return nil
	}

	if report == nil {
		return core.NewMissingEvidenceError(fmt.Sprintf("transition to %s requires an eligibility report", target))
	}
	if !report.Passed {
		return core.NewMissingEvidenceError(fmt.Sprintf("report %s did not pass", report.ReportID))
	}
	if report.Level != statusLevel(target) {
		return core.NewMissingEvidenceError(fmt.Sprintf("report %s is level %s, transition targets %s", report.ReportID, report.Level, target))
	}
	if !candidate.RunKey.IsEmpty() && !report.RunKey.IsEmpty() && candidate.RunKey != report.RunKey {
		return core.NewMissingEvidenceError(fmt.Sprintf("report %s belongs to a different run", report.ReportID))
	}
	return nil
}

// Apply returns a copy of the candidate with the transition applied.
// Callers must have run ValidateTransition under the store's write
// lock; Apply itself never mutates its input.
func Apply(candidate *Candidate, target Status, report *eligibility.Report) *Candidate {
	next := *candidate
	next.Status = target
	if target.IsGated() && report != nil {
		id := report.ReportID
		next.ReportID = &id
	}
	next.UpdatedAt = core.Now()
	return &next
}
