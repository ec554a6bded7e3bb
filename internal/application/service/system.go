package service

import (
	"github.com/urizarreta/conciliar-backend/internal/infrastructure/storage"
)

// UpdateSystem replaces the run's system data with a fresh upload and
// recomputes. Rows are diffed against the stored lines by their
// position in the dataset: an existing row index updates that line in
// place, a new index inserts a new line.
func (s *ReconcileService) UpdateSystem(runID string, ds SystemDataset, userID string) (*storage.RunDetail, error) {
	lock := s.locks.forRun(runID)
	lock.Lock()
	defer lock.Unlock()

	run, err := s.loadOpenRun(runID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListSystemLines(runID)
	if err != nil {
		return nil, err
	}
	byIndex := make(map[int]storage.SystemLine, len(existing))
	for _, line := range existing {
		byIndex[line.RowIndex] = line
	}

	incoming := buildSystemLines(runID, ds)

	var inserts []storage.SystemLine
	updated := 0
	for _, line := range incoming {
		if current, ok := byIndex[line.RowIndex]; ok {
			line.ID = current.ID
			if err := s.repo.UpdateSystemLine(&line); err != nil {
				return nil, err
			}
			updated++
			continue
		}
		inserts = append(inserts, line)
	}
	if err := s.repo.InsertSystemLines(inserts); err != nil {
		return nil, err
	}

	if err := s.recomputeLocked(run); err != nil {
		return nil, err
	}

	s.logger.Info("system data updated",
		"run_id", runID,
		"rows", len(ds.Rows),
		"updated", updated,
		"inserted", len(inserts),
	)

	return s.repo.GetRunDetail(runID)
}
