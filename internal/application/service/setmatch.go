package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/urizarreta/conciliar-backend/internal/domain/matcher"
	"github.com/urizarreta/conciliar-backend/internal/infrastructure/storage"
)

// setMatchTolerance is the maximum allowed absolute difference between
// the system line's amount and the sum of the chosen extract amounts.
var setMatchTolerance = decimal.NewFromFloat(0.01)

// SetMatch manually forces one system line to match an explicit set of
// extract lines, bypassing the automatic algorithm. The chosen extract
// amounts must sum to the system line's amount within 0.01, and every
// referenced line must belong to the run.
func (s *ReconcileService) SetMatch(runID, systemLineID string, extractLineIDs []string, userID string) (*storage.RunDetail, error) {
	if len(extractLineIDs) == 0 {
		return nil, Validationf("at least one extract line is required")
	}

	lock := s.locks.forRun(runID)
	lock.Lock()
	defer lock.Unlock()

	run, err := s.loadOpenRun(runID)
	if err != nil {
		return nil, err
	}

	detail, err := s.repo.GetRunDetail(runID)
	if err != nil {
		return nil, err
	}

	var systemLine *storage.SystemLine
	systemByID := make(map[string]storage.SystemLine, len(detail.SystemLines))
	for _, line := range detail.SystemLines {
		systemByID[line.ID] = line
		if line.ID == systemLineID {
			line := line
			systemLine = &line
		}
	}
	if systemLine == nil {
		return nil, Validationf("system line %s does not belong to the run", systemLineID)
	}

	extractByID := make(map[string]storage.ExtractLine, len(detail.ExtractLines))
	for _, line := range detail.ExtractLines {
		extractByID[line.ID] = line
	}

	chosen := make(map[string]bool, len(extractLineIDs))
	sum := decimal.Zero
	for _, id := range extractLineIDs {
		line, ok := extractByID[id]
		if !ok {
			return nil, Validationf("extract line %s does not belong to the run", id)
		}
		if line.Excluded {
			return nil, Validationf("extract line %s is excluded", id)
		}
		if chosen[id] {
			return nil, Validationf("extract line %s is referenced twice", id)
		}
		chosen[id] = true
		sum = sum.Add(line.Amount)
	}

	if sum.Sub(systemLine.Amount).Abs().GreaterThan(setMatchTolerance) {
		return nil, Validationf(
			"extract amounts sum to %s but system line amount is %s",
			sum.StringFixed(2), systemLine.Amount.StringFixed(2),
		)
	}

	// Drop every match touching the target system line or a chosen
	// extract line; their former partners may become unmatched again.
	var kept []storage.Match
	var freedExtract, freedSystem []string
	for _, m := range detail.Matches {
		if m.SystemLineID == systemLineID {
			freedExtract = append(freedExtract, m.ExtractLineID)
			continue
		}
		if chosen[m.ExtractLineID] {
			freedSystem = append(freedSystem, m.SystemLineID)
			continue
		}
		kept = append(kept, m)
	}

	matchedExtract := make(map[string]bool)
	matchedSystem := make(map[string]bool)
	for _, m := range kept {
		matchedExtract[m.ExtractLineID] = true
		matchedSystem[m.SystemLineID] = true
	}

	for _, id := range extractLineIDs {
		line := extractByID[id]
		kept = append(kept, storage.Match{
			ID:            uuid.NewString(),
			RunID:         runID,
			ExtractLineID: id,
			SystemLineID:  systemLineID,
			DeltaDays:     matcher.DeltaDays(line.Date, systemLine.IssueDate, systemLine.DueDate),
		})
		matchedExtract[id] = true
	}
	matchedSystem[systemLineID] = true

	var unmatchedExtract []storage.UnmatchedExtract
	presentExtract := make(map[string]bool)
	for _, u := range detail.UnmatchedExtract {
		if matchedExtract[u.ExtractLineID] {
			continue
		}
		unmatchedExtract = append(unmatchedExtract, u)
		presentExtract[u.ExtractLineID] = true
	}
	for _, id := range freedExtract {
		line := extractByID[id]
		if matchedExtract[id] || presentExtract[id] || line.Excluded {
			continue
		}
		unmatchedExtract = append(unmatchedExtract, storage.UnmatchedExtract{
			ID:            uuid.NewString(),
			RunID:         runID,
			ExtractLineID: id,
		})
		presentExtract[id] = true
	}

	var unmatchedSystem []storage.UnmatchedSystem
	presentSystem := make(map[string]bool)
	for _, u := range detail.UnmatchedSystem {
		if matchedSystem[u.SystemLineID] {
			continue
		}
		unmatchedSystem = append(unmatchedSystem, u)
		presentSystem[u.SystemLineID] = true
	}
	for _, id := range freedSystem {
		if matchedSystem[id] || presentSystem[id] {
			continue
		}
		line := systemByID[id]
		unmatchedSystem = append(unmatchedSystem, storage.UnmatchedSystem{
			ID:           uuid.NewString(),
			RunID:        runID,
			SystemLineID: id,
			Status:       string(matcher.StatusFor(line.IssueDate, line.DueDate, run.CutDate)),
		})
		presentSystem[id] = true
	}

	if err := s.repo.ReplaceResults(runID, kept, unmatchedExtract, unmatchedSystem); err != nil {
		return nil, err
	}

	s.logger.Info("manual match set",
		"run_id", runID,
		"system_line", systemLineID,
		"extract_lines", len(extractLineIDs),
	)

	return s.repo.GetRunDetail(runID)
}
