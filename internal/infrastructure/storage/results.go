package storage

// ReplaceResults atomically swaps a run's matches and unmatched sets.
// The previous rows are deleted and the new ones inserted inside one
// transaction; a failure rolls everything back, leaving the prior
// result state untouched.
func (s *Storage) ReplaceResults(runID string, matches []Match, unmatchedExtract []UnmatchedExtract, unmatchedSystem []UnmatchedSystem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"matches", "unmatched_extract", "unmatched_system"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE run_id = ?`, runID); err != nil {
			return err
		}
	}

	for _, m := range matches {
		_, err := tx.Exec(`
			INSERT INTO matches (id, run_id, extract_line_id, system_line_id, delta_days)
			VALUES (?, ?, ?, ?, ?)
		`, m.ID, m.RunID, m.ExtractLineID, m.SystemLineID, m.DeltaDays)
		if err != nil {
			return err
		}
	}

	for _, u := range unmatchedExtract {
		_, err := tx.Exec(`
			INSERT INTO unmatched_extract (id, run_id, extract_line_id)
			VALUES (?, ?, ?)
		`, u.ID, u.RunID, u.ExtractLineID)
		if err != nil {
			return err
		}
	}

	for _, u := range unmatchedSystem {
		_, err := tx.Exec(`
			INSERT INTO unmatched_system (id, run_id, system_line_id, status)
			VALUES (?, ?, ?, ?)
		`, u.ID, u.RunID, u.SystemLineID, u.Status)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRunDetail loads a run with all of its lines and results
func (s *Storage) GetRunDetail(runID string) (*RunDetail, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, nil
	}

	detail := &RunDetail{Run: *run}

	if detail.ExtractLines, err = s.ListExtractLines(runID, false); err != nil {
		return nil, err
	}
	if detail.SystemLines, err = s.ListSystemLines(runID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT id, run_id, extract_line_id, system_line_id, delta_days
		FROM matches WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.RunID, &m.ExtractLineID, &m.SystemLineID, &m.DeltaDays); err != nil {
			return nil, err
		}
		detail.Matches = append(detail.Matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ueRows, err := s.db.Query(`
		SELECT id, run_id, extract_line_id FROM unmatched_extract WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, err
	}
	defer ueRows.Close()
	for ueRows.Next() {
		var u UnmatchedExtract
		if err := ueRows.Scan(&u.ID, &u.RunID, &u.ExtractLineID); err != nil {
			return nil, err
		}
		detail.UnmatchedExtract = append(detail.UnmatchedExtract, u)
	}
	if err := ueRows.Err(); err != nil {
		return nil, err
	}

	usRows, err := s.db.Query(`
		SELECT id, run_id, system_line_id, status FROM unmatched_system WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, err
	}
	defer usRows.Close()
	for usRows.Next() {
		var u UnmatchedSystem
		if err := usRows.Scan(&u.ID, &u.RunID, &u.SystemLineID, &u.Status); err != nil {
			return nil, err
		}
		detail.UnmatchedSystem = append(detail.UnmatchedSystem, u)
	}
	if err := usRows.Err(); err != nil {
		return nil, err
	}

	return detail, nil
}
