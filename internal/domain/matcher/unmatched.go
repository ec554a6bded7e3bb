package matcher

import "time"

// SystemStatus classifies an unmatched system line relative to the
// run's cut date.
type SystemStatus string

const (
	// StatusOverdue marks lines whose due (or issue) date is on or
	// before the cut date.
	StatusOverdue SystemStatus = "OVERDUE"
	// StatusDeferred marks everything else, including lines with no
	// usable date or runs without a cut date.
	StatusDeferred SystemStatus = "DEFERRED"
)

// StatusFor buckets one unmatched system line. The due date is
// preferred; the issue date is the fallback when no due date exists.
func StatusFor(issueDate, dueDate, cutDate *time.Time) SystemStatus {
	if cutDate == nil {
		return StatusDeferred
	}
	compare := dueDate
	if compare == nil {
		compare = issueDate
	}
	if compare == nil {
		return StatusDeferred
	}
	if !compare.After(*cutDate) {
		return StatusOverdue
	}
	return StatusDeferred
}
