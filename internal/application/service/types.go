package service

import (
	"github.com/urizarreta/conciliar-backend/internal/domain/normalize"
)

// ExtractMapping names the columns carrying each extract field. Column
// names are caller-supplied, not fixed.
type ExtractMapping struct {
	DateCol    string
	ConceptCol string
	AmountMode normalize.AmountMode
	AmountCol  string
	DebeCol    string
	HaberCol   string
}

// SystemMapping names the columns carrying each system field.
type SystemMapping struct {
	IssueDateCol   string
	DueDateCol     string
	AmountMode     normalize.AmountMode
	AmountCol      string
	DebeCol        string
	HaberCol       string
	DescriptionCol string
}

// ExtractDataset is the tabular extract input: ordered rows of
// column-name to value mappings plus the mapping configuration.
type ExtractDataset struct {
	Rows            []map[string]any
	Mapping         ExtractMapping
	ExcludeConcepts []string
}

// SystemDataset is the tabular system input.
type SystemDataset struct {
	Rows    []map[string]any
	Mapping SystemMapping
}

// CreateRunInput carries everything needed to create a run.
type CreateRunInput struct {
	Title      string
	BankName   string
	AccountRef string
	WindowDays int
	CutDate    string
	Extract    ExtractDataset
	System     SystemDataset
	CreatedBy  string
}

// UpdateRunInput carries a partial run update; nil fields are left
// untouched.
type UpdateRunInput struct {
	Title      *string
	WindowDays *int
	CutDate    *string
	Status     *string
}

// Summary is the run-creation result.
type Summary struct {
	RunID          string `json:"run_id"`
	Matched        int    `json:"matched"`
	OnlyExtract    int    `json:"only_extract"`
	SystemOverdue  int    `json:"system_overdue"`
	SystemDeferred int    `json:"system_deferred"`
}
