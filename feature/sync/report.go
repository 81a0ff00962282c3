package sync

import (
	"time"

	"netbox-sync/core/reconcile"
)

// Run modes. A plan stops after the diff; an apply dispatches mutations.
const (
	ModePlan  = "plan"
	ModeApply = "apply"
)

// PartitionReport summarizes one mutation partition of a run.
type PartitionReport struct {
	// Operation is create, update or delete.
	Operation string `json:"operation"`
	// Planned is how many items the diff put into this partition.
	Planned int `json:"planned"`
	// Succeeded, Failed and Skipped tally the dispatched outcomes.
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	// Error is set when the whole partition failed before dispatch,
	// e.g. the collection does not support the operation.
	Error string `json:"error,omitempty"`
	// Failures maps item keys to their task errors.
	Failures map[string]string `json:"failures,omitempty"`
}

// RunReport is the user-facing summary of one sync cycle. It is what
// the status endpoint returns and what the archive stores.
type RunReport struct {
	// RunID uniquely identifies the cycle.
	RunID string `json:"run_id"`
	// Collection names what was reconciled.
	Collection string `json:"collection"`
	// Mode is ModePlan or ModeApply.
	Mode string `json:"mode"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	// DurationSeconds is the cycle's wall time.
	DurationSeconds float64 `json:"duration_seconds"`

	// Origin and Target are the item counts of the two diffed sides.
	Origin int `json:"origin"`
	Target int `json:"target"`
	// Missing, Changed and Extra are the diff partition sizes.
	Missing int `json:"missing"`
	Changed int `json:"changed"`
	Extra   int `json:"extra"`

	// Clean is true when no partition errored and no task failed.
	// A plan is clean by definition; InSync tells whether it found drift.
	Clean bool `json:"clean"`

	// Partitions is empty for plans.
	Partitions []PartitionReport `json:"partitions,omitempty"`
}

// InSync reports whether the diff found no drift at all.
func (r *RunReport) InSync() bool {
	return r.Missing == 0 && r.Changed == 0 && r.Extra == 0
}

// newRunReport converts a driver result into a report.
func newRunReport(runID, mode string, origin, target int, result *reconcile.Result) *RunReport {
	report := &RunReport{
		RunID:           runID,
		Collection:      result.Collection,
		Mode:            mode,
		StartedAt:       result.Started,
		FinishedAt:      result.Finished,
		DurationSeconds: result.Finished.Sub(result.Started).Seconds(),
		Origin:          origin,
		Target:          target,
		Missing:         result.Missing,
		Changed:         result.Changed,
		Extra:           result.Extra,
		Clean:           result.Clean(),
	}

	for _, p := range result.Partitions {
		succeeded, failed, skipped := p.Counts()
		pr := PartitionReport{
			Operation: string(p.Operation),
			Planned:   p.Planned,
			Succeeded: succeeded,
			Failed:    failed,
			Skipped:   skipped,
		}
		if p.Err != nil {
			pr.Error = p.Err.Error()
		}
		for key, outcome := range p.Outcomes {
			if outcome.Status == reconcile.StatusFailed && outcome.Err != nil {
				if pr.Failures == nil {
					pr.Failures = make(map[string]string)
				}
				pr.Failures[key.String()] = outcome.Err.Error()
			}
		}
		report.Partitions = append(report.Partitions, pr)
	}

	return report
}
