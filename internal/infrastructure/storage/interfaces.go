package storage

// Repository defines the complete storage interface.
// This interface allows swapping implementations and makes testing with
// fakes straightforward.
type Repository interface {
	RunRepository
	LineRepository
	ResultRepository
	CategoryRepository
	Close() error
}

// RunRepository handles reconciliation run records.
type RunRepository interface {
	// CreateRun inserts a new run.
	CreateRun(run *Run) error

	// GetRun retrieves a run by id. Returns nil when absent.
	GetRun(id string) (*Run, error)

	// ListRuns returns runs created by the given user, newest first.
	ListRuns(createdBy string) ([]Run, error)

	// UpdateRun persists mutable run fields (title, window, cut date,
	// status, exclusion list).
	UpdateRun(run *Run) error

	// DeleteRun removes a run and cascades to its lines, matches and
	// unmatched records.
	DeleteRun(id string) error
}

// LineRepository handles extract and system lines.
type LineRepository interface {
	// InsertExtractLines bulk-inserts extract lines in one transaction.
	InsertExtractLines(lines []ExtractLine) error

	// InsertSystemLines bulk-inserts system lines in one transaction.
	InsertSystemLines(lines []SystemLine) error

	// ListExtractLines returns a run's extract lines in insertion
	// order. With activeOnly, excluded lines are filtered out.
	ListExtractLines(runID string, activeOnly bool) ([]ExtractLine, error)

	// ListSystemLines returns a run's system lines ordered by row index.
	ListSystemLines(runID string) ([]SystemLine, error)

	// SetExtractExcluded flips the excluded flag on the given lines.
	SetExtractExcluded(runID string, lineIDs []string, excluded bool) error

	// UpdateSystemLine overwrites the fields of an existing system line.
	UpdateSystemLine(line *SystemLine) error
}

// ResultRepository handles match/unmatched result sets.
type ResultRepository interface {
	// ReplaceResults atomically swaps a run's matches and unmatched
	// sets: the previous rows are deleted and the new ones inserted in
	// a single transaction, so no partial state is ever observable.
	ReplaceResults(runID string, matches []Match, unmatchedExtract []UnmatchedExtract, unmatchedSystem []UnmatchedSystem) error

	// GetRunDetail loads a run with all of its lines and results.
	// Returns nil when the run does not exist.
	GetRunDetail(runID string) (*RunDetail, error)
}

// CategoryRepository handles the category/rule store the classifier
// consumes. Categories persist independently of any run.
type CategoryRepository interface {
	// CreateCategory inserts a category. Names are unique.
	CreateCategory(category *Category) error

	// GetCategory retrieves a category by id. Returns nil when absent.
	GetCategory(id string) (*Category, error)

	// ListCategories returns all categories ordered by name.
	ListCategories() ([]Category, error)

	// DeleteCategory removes a category and its rules.
	DeleteCategory(id string) error

	// CreateRule appends a rule to a category.
	CreateRule(rule *Rule) error

	// ListRules returns rules for one category (or all categories when
	// categoryID is empty), ordered by category name then position.
	ListRules(categoryID string) ([]Rule, error)

	// DeleteRule removes a single rule.
	DeleteRule(id string) error
}
