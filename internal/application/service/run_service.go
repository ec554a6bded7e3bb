// Package service orchestrates reconciliation runs: creation, the
// exclusion and recompute flows, manual match overrides, system-data
// re-uploads and the run lifecycle gate.
package service

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/urizarreta/conciliar-backend/internal/domain/classify"
	"github.com/urizarreta/conciliar-backend/internal/domain/matcher"
	"github.com/urizarreta/conciliar-backend/internal/domain/normalize"
	"github.com/urizarreta/conciliar-backend/internal/infrastructure/storage"
)

// ReconcileService coordinates the matching engine with storage.
type ReconcileService struct {
	repo   storage.Repository
	logger *slog.Logger
	locks  *runLocks
}

// NewReconcileService creates a new service.
func NewReconcileService(repo storage.Repository, logger *slog.Logger) *ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileService{
		repo:   repo,
		logger: logger,
		locks:  newRunLocks(),
	}
}

// CreateRun normalizes both datasets, classifies extract concepts,
// persists the lines, runs the matching engine and stores the result
// set. Rows whose amount cannot be parsed are dropped, not errors.
func (s *ReconcileService) CreateRun(input CreateRunInput) (*Summary, error) {
	if input.WindowDays < 0 {
		return nil, Validationf("windowDays must be non-negative")
	}
	if input.CreatedBy == "" {
		return nil, Validationf("createdBy is required")
	}

	var cutDate *time.Time
	if input.CutDate != "" {
		parsed, ok := normalize.ParseDate(input.CutDate)
		if !ok {
			return nil, Validationf("cutDate %q is not a valid date", input.CutDate)
		}
		cutDate = &parsed
	}

	exclusions := make([]string, 0, len(input.Extract.ExcludeConcepts))
	for _, concept := range input.Extract.ExcludeConcepts {
		if normalized := normalize.Concept(concept); normalized != "" && !contains(exclusions, normalized) {
			exclusions = append(exclusions, normalized)
		}
	}

	categories, err := s.categorySnapshot()
	if err != nil {
		return nil, err
	}

	run := &storage.Run{
		ID:              uuid.NewString(),
		Title:           input.Title,
		BankName:        input.BankName,
		AccountRef:      input.AccountRef,
		WindowDays:      input.WindowDays,
		CutDate:         cutDate,
		Status:          storage.RunOpen,
		ExcludeConcepts: exclusions,
		CreatedBy:       input.CreatedBy,
		CreatedAt:       time.Now().UTC(),
	}

	extractLines := buildExtractLines(run.ID, input.Extract, exclusions, categories)
	systemLines := buildSystemLines(run.ID, input.System)

	if err := s.repo.CreateRun(run); err != nil {
		return nil, err
	}
	if err := s.repo.InsertExtractLines(extractLines); err != nil {
		return nil, err
	}
	if err := s.repo.InsertSystemLines(systemLines); err != nil {
		return nil, err
	}

	matches, unmatchedExtract, unmatchedSystem := computeResults(run, extractLines, systemLines)
	if err := s.repo.ReplaceResults(run.ID, matches, unmatchedExtract, unmatchedSystem); err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:       run.ID,
		Matched:     len(matches),
		OnlyExtract: len(unmatchedExtract),
	}
	for _, u := range unmatchedSystem {
		if u.Status == string(matcher.StatusOverdue) {
			summary.SystemOverdue++
		} else {
			summary.SystemDeferred++
		}
	}

	s.logger.Info("run created",
		"run_id", run.ID,
		"extract_lines", len(extractLines),
		"system_lines", len(systemLines),
		"matched", summary.Matched,
	)

	return summary, nil
}

// GetRun returns the full persisted view of one run.
func (s *ReconcileService) GetRun(runID string) (*storage.RunDetail, error) {
	detail, err := s.repo.GetRunDetail(runID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, &NotFoundError{Resource: "run"}
	}
	return detail, nil
}

// ListRuns returns runs created by the given user, newest first.
func (s *ReconcileService) ListRuns(createdBy string) ([]storage.Run, error) {
	return s.repo.ListRuns(createdBy)
}

// UpdateRun applies a partial update. Closing is allowed to any editor;
// reopening only to the run's creator. Field edits require the run to
// be (or end up) open.
func (s *ReconcileService) UpdateRun(runID string, input UpdateRunInput, userID string) (*storage.Run, error) {
	lock := s.locks.forRun(runID)
	lock.Lock()
	defer lock.Unlock()

	run, err := s.loadRun(runID)
	if err != nil {
		return nil, err
	}

	if input.Status != nil {
		switch *input.Status {
		case storage.RunClosed:
			run.Status = storage.RunClosed
		case storage.RunOpen:
			if run.Status == storage.RunClosed && run.CreatedBy != userID {
				return nil, ErrForbidden
			}
			run.Status = storage.RunOpen
		default:
			return nil, Validationf("status must be OPEN or CLOSED")
		}
	}

	hasFieldEdit := input.Title != nil || input.WindowDays != nil || input.CutDate != nil
	if hasFieldEdit && run.Status == storage.RunClosed {
		return nil, ErrRunClosed
	}

	if input.Title != nil {
		run.Title = *input.Title
	}
	if input.WindowDays != nil {
		if *input.WindowDays < 0 {
			return nil, Validationf("windowDays must be non-negative")
		}
		run.WindowDays = *input.WindowDays
	}
	if input.CutDate != nil {
		if *input.CutDate == "" {
			run.CutDate = nil
		} else {
			parsed, ok := normalize.ParseDate(*input.CutDate)
			if !ok {
				return nil, Validationf("cutDate %q is not a valid date", *input.CutDate)
			}
			run.CutDate = &parsed
		}
	}

	if err := s.repo.UpdateRun(run); err != nil {
		return nil, err
	}
	return run, nil
}

// DeleteRun removes a run and everything it owns. Only the creator may
// delete, and only while the run is open.
func (s *ReconcileService) DeleteRun(runID, userID string) error {
	lock := s.locks.forRun(runID)
	lock.Lock()
	defer lock.Unlock()

	run, err := s.loadRun(runID)
	if err != nil {
		return err
	}
	if run.CreatedBy != userID {
		return ErrForbidden
	}
	if run.Status == storage.RunClosed {
		return ErrRunClosed
	}
	return s.repo.DeleteRun(runID)
}

// loadRun fetches a run or reports it missing.
func (s *ReconcileService) loadRun(runID string) (*storage.Run, error) {
	run, err := s.repo.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, &NotFoundError{Resource: "run"}
	}
	return run, nil
}

// loadOpenRun fetches a run and rejects mutations while it is closed.
func (s *ReconcileService) loadOpenRun(runID string) (*storage.Run, error) {
	run, err := s.loadRun(runID)
	if err != nil {
		return nil, err
	}
	if run.Status == storage.RunClosed {
		return nil, ErrRunClosed
	}
	return run, nil
}

// categorySnapshot loads the category/rule store as an ordered
// read-only snapshot for classification.
func (s *ReconcileService) categorySnapshot() ([]classify.Category, error) {
	categories, err := s.repo.ListCategories()
	if err != nil {
		return nil, err
	}
	rules, err := s.repo.ListRules("")
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]classify.Rule)
	for _, rule := range rules {
		byCategory[rule.CategoryID] = append(byCategory[rule.CategoryID], classify.Rule{
			ID:            rule.ID,
			CategoryID:    rule.CategoryID,
			Pattern:       rule.Pattern,
			IsRegex:       rule.IsRegex,
			CaseSensitive: rule.CaseSensitive,
		})
	}

	snapshot := make([]classify.Category, 0, len(categories))
	for _, category := range categories {
		snapshot = append(snapshot, classify.Category{
			ID:    category.ID,
			Name:  category.Name,
			Rules: byCategory[category.ID],
		})
	}
	return snapshot, nil
}

// buildExtractLines normalizes raw extract rows into persistable lines.
// Rows matching an initial exclusion or with unparseable amounts are
// dropped.
func buildExtractLines(runID string, ds ExtractDataset, exclusions []string, categories []classify.Category) []storage.ExtractLine {
	mapping := ds.Mapping
	lines := make([]storage.ExtractLine, 0, len(ds.Rows))

	for _, row := range ds.Rows {
		concept := ""
		if mapping.ConceptCol != "" {
			concept = normalize.Text(row[mapping.ConceptCol])
		}
		if concept != "" && contains(exclusions, normalize.Concept(concept)) {
			continue
		}

		amount, ok := normalize.ExtractAmount(row, mapping.AmountMode, mapping.AmountCol, mapping.DebeCol, mapping.HaberCol)
		if !ok {
			continue
		}

		var date *time.Time
		if parsed, ok := normalize.ParseDate(row[mapping.DateCol]); ok {
			date = &parsed
		}

		lines = append(lines, storage.ExtractLine{
			ID:         uuid.NewString(),
			RunID:      runID,
			Date:       date,
			Concept:    concept,
			Amount:     amount,
			AmountKey:  normalize.AmountKey(amount, 2),
			Raw:        row,
			CategoryID: classify.Resolve(concept, categories),
		})
	}
	return lines
}

// buildSystemLines normalizes raw system rows into persistable lines.
// RowIndex records each row's position in the uploaded dataset so a
// re-upload can be diffed against it.
func buildSystemLines(runID string, ds SystemDataset) []storage.SystemLine {
	mapping := ds.Mapping
	lines := make([]storage.SystemLine, 0, len(ds.Rows))

	for i, row := range ds.Rows {
		amount, ok := normalize.ExtractAmount(row, mapping.AmountMode, mapping.AmountCol, mapping.DebeCol, mapping.HaberCol)
		if !ok {
			continue
		}

		var issueDate, dueDate *time.Time
		if mapping.IssueDateCol != "" {
			if parsed, ok := normalize.ParseDate(row[mapping.IssueDateCol]); ok {
				issueDate = &parsed
			}
		}
		if mapping.DueDateCol != "" {
			if parsed, ok := normalize.ParseDate(row[mapping.DueDateCol]); ok {
				dueDate = &parsed
			}
		}

		description := ""
		if mapping.DescriptionCol != "" {
			description = normalize.Text(row[mapping.DescriptionCol])
		}

		lines = append(lines, storage.SystemLine{
			ID:          uuid.NewString(),
			RunID:       runID,
			RowIndex:    i,
			IssueDate:   issueDate,
			DueDate:     dueDate,
			Amount:      amount,
			AmountKey:   normalize.AmountKey(amount, 2),
			Description: description,
			Raw:         row,
		})
	}
	return lines
}

// computeResults runs the two-pass engine over the given lines and
// converts the outcome into persistable result rows. Excluded extract
// lines must already be filtered out by the caller.
func computeResults(run *storage.Run, extractLines []storage.ExtractLine, systemLines []storage.SystemLine) ([]storage.Match, []storage.UnmatchedExtract, []storage.UnmatchedSystem) {
	mExtract := make([]matcher.ExtractLine, 0, len(extractLines))
	for _, line := range extractLines {
		if line.Excluded {
			continue
		}
		mExtract = append(mExtract, matcher.ExtractLine{
			ID:        line.ID,
			Date:      line.Date,
			AmountKey: line.AmountKey,
		})
	}

	mSystem := make([]matcher.SystemLine, 0, len(systemLines))
	for _, line := range systemLines {
		mSystem = append(mSystem, matcher.SystemLine{
			ID:          line.ID,
			IssueDate:   line.IssueDate,
			DueDate:     line.DueDate,
			Amount:      line.Amount,
			AmountKey:   line.AmountKey,
			Description: line.Description,
		})
	}

	result := matcher.Run(mSystem, mExtract, run.WindowDays)

	matches := make([]storage.Match, 0, len(result.Matches))
	for _, m := range result.Matches {
		matches = append(matches, storage.Match{
			ID:            uuid.NewString(),
			RunID:         run.ID,
			ExtractLineID: m.ExtractID,
			SystemLineID:  m.SystemID,
			DeltaDays:     m.DeltaDays,
		})
	}

	var unmatchedExtract []storage.UnmatchedExtract
	for _, line := range mExtract {
		if result.UsedExtract[line.ID] {
			continue
		}
		unmatchedExtract = append(unmatchedExtract, storage.UnmatchedExtract{
			ID:            uuid.NewString(),
			RunID:         run.ID,
			ExtractLineID: line.ID,
		})
	}

	var unmatchedSystem []storage.UnmatchedSystem
	for _, line := range systemLines {
		if result.UsedSystem[line.ID] {
			continue
		}
		unmatchedSystem = append(unmatchedSystem, storage.UnmatchedSystem{
			ID:           uuid.NewString(),
			RunID:        run.ID,
			SystemLineID: line.ID,
			Status:       string(matcher.StatusFor(line.IssueDate, line.DueDate, run.CutDate)),
		})
	}

	return matches, unmatchedExtract, unmatchedSystem
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
