package service

import (
	"github.com/google/uuid"

	"github.com/urizarreta/conciliar-backend/internal/domain/classify"
	"github.com/urizarreta/conciliar-backend/internal/domain/matcher"
	"github.com/urizarreta/conciliar-backend/internal/domain/normalize"
	"github.com/urizarreta/conciliar-backend/internal/infrastructure/storage"
)

// ExcludeConcept marks every active extract line with the given
// normalized concept as excluded, drops their matches, reinstates the
// affected system lines into the unmatched set with a fresh status, and
// records the concept in the run's exclusion list.
func (s *ReconcileService) ExcludeConcept(runID, concept, userID string) (*storage.RunDetail, error) {
	return s.ExcludeConcepts(runID, []string{concept}, userID)
}

// ExcludeConcepts applies ExcludeConcept for several concepts at once.
func (s *ReconcileService) ExcludeConcepts(runID string, concepts []string, userID string) (*storage.RunDetail, error) {
	lock := s.locks.forRun(runID)
	lock.Lock()
	defer lock.Unlock()

	run, err := s.loadOpenRun(runID)
	if err != nil {
		return nil, err
	}

	for _, concept := range concepts {
		normalized := normalize.Concept(concept)
		if normalized == "" {
			return nil, Validationf("concept must not be empty")
		}
		if err := s.excludeLocked(run, normalized, func(line storage.ExtractLine) bool {
			return normalize.Concept(line.Concept) == normalized
		}); err != nil {
			return nil, err
		}
	}

	return s.repo.GetRunDetail(runID)
}

// ExcludeByCategory excludes every active extract line whose concept
// satisfies any rule of the category; the category's name is recorded
// in the exclusion list as the marker. A category with no rules has
// nothing to exclude by and is a validation error.
func (s *ReconcileService) ExcludeByCategory(runID, categoryID, userID string) (*storage.RunDetail, error) {
	lock := s.locks.forRun(runID)
	lock.Lock()
	defer lock.Unlock()

	run, err := s.loadOpenRun(runID)
	if err != nil {
		return nil, err
	}

	category, err := s.repo.GetCategory(categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, &NotFoundError{Resource: "category"}
	}

	rules, err := s.repo.ListRules(categoryID)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, Validationf("category has no rules to match against")
	}

	marker := normalize.Concept(category.Name)
	err = s.excludeLocked(run, marker, func(line storage.ExtractLine) bool {
		for _, rule := range rules {
			if classify.RuleMatches(line.Concept, toClassifyRule(rule)) {
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetRunDetail(runID)
}

// RemoveExclusion removes an entry from the run's exclusion list,
// restores every line it had excluded and triggers a full recompute.
// An entry matching a known category name restores by that category's
// rules; otherwise restoration is by literal normalized concept.
func (s *ReconcileService) RemoveExclusion(runID, entry, userID string) (*storage.RunDetail, error) {
	lock := s.locks.forRun(runID)
	lock.Lock()
	defer lock.Unlock()

	run, err := s.loadOpenRun(runID)
	if err != nil {
		return nil, err
	}

	normalized := normalize.Concept(entry)
	idx := -1
	for i, existing := range run.ExcludeConcepts {
		if existing == normalized {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &NotFoundError{Resource: "exclusion"}
	}
	run.ExcludeConcepts = append(run.ExcludeConcepts[:idx], run.ExcludeConcepts[idx+1:]...)

	matches := s.restoreMatcher(normalized)

	lines, err := s.repo.ListExtractLines(runID, false)
	if err != nil {
		return nil, err
	}
	var restore []string
	for _, line := range lines {
		if line.Excluded && matches(line) {
			restore = append(restore, line.ID)
		}
	}

	if err := s.repo.SetExtractExcluded(runID, restore, false); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRun(run); err != nil {
		return nil, err
	}
	if err := s.recomputeLocked(run); err != nil {
		return nil, err
	}

	s.logger.Info("exclusion removed", "run_id", runID, "entry", normalized, "restored", len(restore))

	return s.repo.GetRunDetail(runID)
}

// Recompute re-runs the full two-pass engine over the run's current
// active lines and atomically replaces all result rows.
func (s *ReconcileService) Recompute(runID, userID string) (*storage.RunDetail, error) {
	lock := s.locks.forRun(runID)
	lock.Lock()
	defer lock.Unlock()

	run, err := s.loadOpenRun(runID)
	if err != nil {
		return nil, err
	}
	if err := s.recomputeLocked(run); err != nil {
		return nil, err
	}
	return s.repo.GetRunDetail(runID)
}

// restoreMatcher picks the restoration predicate for an exclusion
// entry: category rules when the entry names a category, literal
// concept equality otherwise.
func (s *ReconcileService) restoreMatcher(normalized string) func(storage.ExtractLine) bool {
	categories, err := s.repo.ListCategories()
	if err == nil {
		for _, category := range categories {
			if normalize.Concept(category.Name) != normalized {
				continue
			}
			rules, err := s.repo.ListRules(category.ID)
			if err != nil || len(rules) == 0 {
				break
			}
			return func(line storage.ExtractLine) bool {
				for _, rule := range rules {
					if classify.RuleMatches(line.Concept, toClassifyRule(rule)) {
						return true
					}
				}
				return false
			}
		}
	}
	return func(line storage.ExtractLine) bool {
		return normalize.Concept(line.Concept) == normalized
	}
}

// excludeLocked performs one exclusion under the caller-held run lock:
// records the marker, flips the affected lines to excluded and rewrites
// the result rows without re-running the engine. Matches referencing an
// excluded line are dropped; a system line left with no match re-enters
// UnmatchedSystem with a status computed against the run's cut date.
func (s *ReconcileService) excludeLocked(run *storage.Run, marker string, affected func(storage.ExtractLine) bool) error {
	if !contains(run.ExcludeConcepts, marker) {
		run.ExcludeConcepts = append(run.ExcludeConcepts, marker)
		if err := s.repo.UpdateRun(run); err != nil {
			return err
		}
	}

	detail, err := s.repo.GetRunDetail(run.ID)
	if err != nil {
		return err
	}

	excluded := make(map[string]bool)
	var excludedIDs []string
	for _, line := range detail.ExtractLines {
		if !line.Excluded && affected(line) {
			excluded[line.ID] = true
			excludedIDs = append(excludedIDs, line.ID)
		}
	}

	if err := s.repo.SetExtractExcluded(run.ID, excludedIDs, true); err != nil {
		return err
	}

	systemByID := make(map[string]storage.SystemLine, len(detail.SystemLines))
	for _, line := range detail.SystemLines {
		systemByID[line.ID] = line
	}

	var kept []storage.Match
	var freedSystem []string
	stillMatched := make(map[string]bool)
	for _, m := range detail.Matches {
		if excluded[m.ExtractLineID] {
			freedSystem = append(freedSystem, m.SystemLineID)
			continue
		}
		kept = append(kept, m)
		stillMatched[m.SystemLineID] = true
	}

	var unmatchedExtract []storage.UnmatchedExtract
	for _, u := range detail.UnmatchedExtract {
		if !excluded[u.ExtractLineID] {
			unmatchedExtract = append(unmatchedExtract, u)
		}
	}

	unmatchedSystem := detail.UnmatchedSystem
	present := make(map[string]bool, len(unmatchedSystem))
	for _, u := range unmatchedSystem {
		present[u.SystemLineID] = true
	}
	for _, systemID := range freedSystem {
		if stillMatched[systemID] || present[systemID] {
			continue
		}
		line := systemByID[systemID]
		unmatchedSystem = append(unmatchedSystem, storage.UnmatchedSystem{
			ID:           uuid.NewString(),
			RunID:        run.ID,
			SystemLineID: systemID,
			Status:       string(matcher.StatusFor(line.IssueDate, line.DueDate, run.CutDate)),
		})
		present[systemID] = true
	}

	if err := s.repo.ReplaceResults(run.ID, kept, unmatchedExtract, unmatchedSystem); err != nil {
		return err
	}

	s.logger.Info("concept excluded", "run_id", run.ID, "marker", marker, "lines", len(excludedIDs))
	return nil
}

// recomputeLocked re-runs the engine under the caller-held run lock.
func (s *ReconcileService) recomputeLocked(run *storage.Run) error {
	active, err := s.repo.ListExtractLines(run.ID, true)
	if err != nil {
		return err
	}
	systemLines, err := s.repo.ListSystemLines(run.ID)
	if err != nil {
		return err
	}

	matches, unmatchedExtract, unmatchedSystem := computeResults(run, active, systemLines)
	return s.repo.ReplaceResults(run.ID, matches, unmatchedExtract, unmatchedSystem)
}

func toClassifyRule(rule storage.Rule) classify.Rule {
	return classify.Rule{
		ID:            rule.ID,
		CategoryID:    rule.CategoryID,
		Pattern:       rule.Pattern,
		IsRegex:       rule.IsRegex,
		CaseSensitive: rule.CaseSensitive,
	}
}
