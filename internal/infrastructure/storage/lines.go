package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

// InsertExtractLines bulk-inserts extract lines in one transaction
func (s *Storage) InsertExtractLines(lines []ExtractLine) error {
	if len(lines) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO extract_lines (id, run_id, date, concept, amount, amount_key,
		                           raw, category_id, excluded, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, line := range lines {
		_, err := stmt.Exec(
			line.ID,
			line.RunID,
			encodeDate(line.Date),
			line.Concept,
			line.Amount.String(),
			line.AmountKey,
			encodeRaw(line.Raw),
			line.CategoryID,
			line.Excluded,
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert extract line %s: %w", line.ID, err)
		}
	}

	return tx.Commit()
}

// InsertSystemLines bulk-inserts system lines in one transaction
func (s *Storage) InsertSystemLines(lines []SystemLine) error {
	if len(lines) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO system_lines (id, run_id, row_index, issue_date, due_date,
		                          amount, amount_key, description, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, line := range lines {
		_, err := stmt.Exec(
			line.ID,
			line.RunID,
			line.RowIndex,
			encodeDate(line.IssueDate),
			encodeDate(line.DueDate),
			line.Amount.String(),
			line.AmountKey,
			line.Description,
			encodeRaw(line.Raw),
		)
		if err != nil {
			return fmt.Errorf("failed to insert system line %s: %w", line.ID, err)
		}
	}

	return tx.Commit()
}

// ListExtractLines returns a run's extract lines in insertion order
func (s *Storage) ListExtractLines(runID string, activeOnly bool) ([]ExtractLine, error) {
	query := `
	SELECT id, run_id, date, concept, amount, amount_key, raw, category_id, excluded
	FROM extract_lines WHERE run_id = ?
	`
	if activeOnly {
		query += ` AND excluded = 0`
	}
	query += ` ORDER BY position`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []ExtractLine
	for rows.Next() {
		var (
			line   ExtractLine
			date   sql.NullString
			amount string
			raw    string
		)
		err := rows.Scan(&line.ID, &line.RunID, &date, &line.Concept,
			&amount, &line.AmountKey, &raw, &line.CategoryID, &line.Excluded)
		if err != nil {
			return nil, err
		}
		line.Date = decodeDate(date)
		line.Amount = decodeAmount(amount)
		line.Raw = decodeRaw(raw)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ListSystemLines returns a run's system lines ordered by row index
func (s *Storage) ListSystemLines(runID string) ([]SystemLine, error) {
	query := `
	SELECT id, run_id, row_index, issue_date, due_date, amount, amount_key, description, raw
	FROM system_lines WHERE run_id = ? ORDER BY row_index
	`
	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []SystemLine
	for rows.Next() {
		var (
			line   SystemLine
			issue  sql.NullString
			due    sql.NullString
			amount string
			raw    string
		)
		err := rows.Scan(&line.ID, &line.RunID, &line.RowIndex, &issue, &due,
			&amount, &line.AmountKey, &line.Description, &raw)
		if err != nil {
			return nil, err
		}
		line.IssueDate = decodeDate(issue)
		line.DueDate = decodeDate(due)
		line.Amount = decodeAmount(amount)
		line.Raw = decodeRaw(raw)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// SetExtractExcluded flips the excluded flag on the given lines
func (s *Storage) SetExtractExcluded(runID string, lineIDs []string, excluded bool) error {
	if len(lineIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(lineIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(lineIDs)+2)
	args = append(args, excluded, runID)
	for _, id := range lineIDs {
		args = append(args, id)
	}

	query := fmt.Sprintf(
		`UPDATE extract_lines SET excluded = ? WHERE run_id = ? AND id IN (%s)`,
		placeholders,
	)
	_, err := s.db.Exec(query, args...)
	return err
}

// UpdateSystemLine overwrites the fields of an existing system line
func (s *Storage) UpdateSystemLine(line *SystemLine) error {
	query := `
	UPDATE system_lines
	SET issue_date = ?, due_date = ?, amount = ?, amount_key = ?, description = ?, raw = ?
	WHERE id = ? AND run_id = ?
	`
	_, err := s.db.Exec(query,
		encodeDate(line.IssueDate),
		encodeDate(line.DueDate),
		line.Amount.String(),
		line.AmountKey,
		line.Description,
		encodeRaw(line.Raw),
		line.ID,
		line.RunID,
	)
	return err
}
