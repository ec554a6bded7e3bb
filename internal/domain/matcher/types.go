package matcher

import (
	"time"

	"github.com/shopspring/decimal"
)

// infiniteDelta is the day distance assigned when either side of a
// comparison has no date. It never fits inside any tolerance window.
const infiniteDelta = 999999

// ExtractLine is the matcher's view of one bank-statement row.
type ExtractLine struct {
	ID        string
	Date      *time.Time
	AmountKey int64
}

// SystemLine is the matcher's view of one internal ledger row.
type SystemLine struct {
	ID          string
	IssueDate   *time.Time
	DueDate     *time.Time
	Amount      decimal.Decimal
	AmountKey   int64
	Description string
}

// Match pairs one system line with one extract line.
type Match struct {
	ExtractID string
	SystemID  string
	DeltaDays int
}

// Result is the outcome of a matching pass: the matches found plus the
// sets of line ids consumed by them.
type Result struct {
	Matches     []Match
	UsedExtract map[string]bool
	UsedSystem  map[string]bool
}

func newResult() *Result {
	return &Result{
		UsedExtract: make(map[string]bool),
		UsedSystem:  make(map[string]bool),
	}
}

// daysBetween returns the whole-day distance between two dates, or
// infiniteDelta when either is missing. Times of day are ignored.
func daysBetween(a, b *time.Time) int {
	if a == nil || b == nil {
		return infiniteDelta
	}
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(da.Sub(db).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// DeltaDays returns the minimal whole-day distance between an extract
// date and the closer of a system line's issue and due dates.
func DeltaDays(extractDate, issueDate, dueDate *time.Time) int {
	issue := daysBetween(extractDate, issueDate)
	due := daysBetween(extractDate, dueDate)
	if due < issue {
		return due
	}
	return issue
}
