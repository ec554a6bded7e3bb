package dto

// ExtractMappingRequest names the columns carrying each extract field.
type ExtractMappingRequest struct {
	DateCol    string `json:"date_col" binding:"required"`
	ConceptCol string `json:"concept_col"`
	AmountMode string `json:"amount_mode" binding:"required,oneof=single debe-haber"`
	AmountCol  string `json:"amount_col"`
	DebeCol    string `json:"debe_col"`
	HaberCol   string `json:"haber_col"`
}

// SystemMappingRequest names the columns carrying each system field.
type SystemMappingRequest struct {
	IssueDateCol   string `json:"issue_date_col"`
	DueDateCol     string `json:"due_date_col"`
	AmountMode     string `json:"amount_mode" binding:"required,oneof=single debe-haber"`
	AmountCol      string `json:"amount_col"`
	DebeCol        string `json:"debe_col"`
	HaberCol       string `json:"haber_col"`
	DescriptionCol string `json:"description_col"`
}

// ExtractDatasetRequest is the extract side of a run creation.
type ExtractDatasetRequest struct {
	Rows            []map[string]any      `json:"rows" binding:"required"`
	Mapping         ExtractMappingRequest `json:"mapping" binding:"required"`
	ExcludeConcepts []string              `json:"exclude_concepts"`
}

// SystemDatasetRequest is the system side of a run creation or a
// system-data re-upload.
type SystemDatasetRequest struct {
	Rows    []map[string]any     `json:"rows" binding:"required"`
	Mapping SystemMappingRequest `json:"mapping" binding:"required"`
}

// CreateRunRequest creates a reconciliation run. An omitted
// window_days falls back to the server's configured default; an
// explicit 0 means exact-day matching.
type CreateRunRequest struct {
	Title      string                `json:"title"`
	BankName   string                `json:"bank_name"`
	AccountRef string                `json:"account_ref"`
	WindowDays *int                  `json:"window_days" binding:"omitempty,gte=0"`
	CutDate    string                `json:"cut_date"`
	Extract    ExtractDatasetRequest `json:"extract" binding:"required"`
	System     SystemDatasetRequest  `json:"system" binding:"required"`
}

// UpdateRunRequest is a partial run update; nil fields are untouched.
type UpdateRunRequest struct {
	Title      *string `json:"title"`
	WindowDays *int    `json:"window_days" binding:"omitempty,gte=0"`
	CutDate    *string `json:"cut_date"`
	Status     *string `json:"status" binding:"omitempty,oneof=OPEN CLOSED"`
}

// ExcludeConceptsRequest excludes one or more concepts from matching.
type ExcludeConceptsRequest struct {
	Concepts []string `json:"concepts" binding:"required,min=1"`
}

// ExcludeByCategoryRequest excludes every line matching the category's
// rules.
type ExcludeByCategoryRequest struct {
	CategoryID string `json:"category_id" binding:"required"`
}

// RemoveExclusionRequest removes an exclusion-list entry.
type RemoveExclusionRequest struct {
	Concept string `json:"concept" binding:"required"`
}

// SetMatchRequest manually pairs a system line with extract lines.
type SetMatchRequest struct {
	SystemLineID   string   `json:"system_line_id" binding:"required"`
	ExtractLineIDs []string `json:"extract_line_ids" binding:"required,min=1"`
}

// CreateCategoryRequest creates an expense category.
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateRuleRequest appends a classification rule to a category.
type CreateRuleRequest struct {
	Pattern       string `json:"pattern" binding:"required"`
	IsRegex       bool   `json:"is_regex"`
	CaseSensitive bool   `json:"case_sensitive"`
}
