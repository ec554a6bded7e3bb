package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Run status values.
const (
	RunOpen   = "OPEN"
	RunClosed = "CLOSED"
)

// Run is one reconciliation session pairing an extract dataset against a
// system dataset.
type Run struct {
	ID              string     `json:"id"`
	Title           string     `json:"title,omitempty"`
	BankName        string     `json:"bank_name,omitempty"`
	AccountRef      string     `json:"account_ref,omitempty"`
	WindowDays      int        `json:"window_days"`
	CutDate         *time.Time `json:"cut_date,omitempty"`
	Status          string     `json:"status"`
	ExcludeConcepts []string   `json:"exclude_concepts"`
	CreatedBy       string     `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ExtractLine is a persisted bank-statement transaction row.
type ExtractLine struct {
	ID         string          `json:"id"`
	RunID      string          `json:"run_id"`
	Date       *time.Time      `json:"date,omitempty"`
	Concept    string          `json:"concept,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	AmountKey  int64           `json:"amount_key"`
	Raw        map[string]any  `json:"raw,omitempty"`
	CategoryID string          `json:"category_id,omitempty"`
	Excluded   bool            `json:"excluded"`
}

// SystemLine is a persisted internal ledger row.
type SystemLine struct {
	ID          string          `json:"id"`
	RunID       string          `json:"run_id"`
	RowIndex    int             `json:"row_index"`
	IssueDate   *time.Time      `json:"issue_date,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	AmountKey   int64           `json:"amount_key"`
	Description string          `json:"description,omitempty"`
	Raw         map[string]any  `json:"raw,omitempty"`
}

// Match pairs one extract line with one system line inside a run.
type Match struct {
	ID            string `json:"id"`
	RunID         string `json:"run_id"`
	ExtractLineID string `json:"extract_line_id"`
	SystemLineID  string `json:"system_line_id"`
	DeltaDays     int    `json:"delta_days"`
}

// UnmatchedExtract marks an active extract line with no match.
type UnmatchedExtract struct {
	ID            string `json:"id"`
	RunID         string `json:"run_id"`
	ExtractLineID string `json:"extract_line_id"`
}

// UnmatchedSystem marks a system line with no match, bucketed relative
// to the run's cut date.
type UnmatchedSystem struct {
	ID           string `json:"id"`
	RunID        string `json:"run_id"`
	SystemLineID string `json:"system_line_id"`
	Status       string `json:"status"` // OVERDUE or DEFERRED
}

// Category is an expense category; rules persist independently of runs.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Rule is one classification pattern owned by a category. Position
// fixes rule order within the category.
type Rule struct {
	ID            string `json:"id"`
	CategoryID    string `json:"category_id"`
	Pattern       string `json:"pattern"`
	IsRegex       bool   `json:"is_regex"`
	CaseSensitive bool   `json:"case_sensitive"`
	Position      int    `json:"position"`
}

// RunDetail is the full persisted view of one run.
type RunDetail struct {
	Run              Run                `json:"run"`
	ExtractLines     []ExtractLine      `json:"extract_lines"`
	SystemLines      []SystemLine       `json:"system_lines"`
	Matches          []Match            `json:"matches"`
	UnmatchedExtract []UnmatchedExtract `json:"unmatched_extract"`
	UnmatchedSystem  []UnmatchedSystem  `json:"unmatched_system"`
}
