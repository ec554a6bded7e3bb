package storage

import (
	"database/sql"
	"errors"
)

// CreateRun inserts a new run
func (s *Storage) CreateRun(run *Run) error {
	query := `
	INSERT INTO runs (id, title, bank_name, account_ref, window_days, cut_date,
	                  status, exclude_concepts, created_by, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		run.ID,
		run.Title,
		run.BankName,
		run.AccountRef,
		run.WindowDays,
		encodeDate(run.CutDate),
		run.Status,
		encodeConcepts(run.ExcludeConcepts),
		run.CreatedBy,
		run.CreatedAt.UTC().Format(dateLayout),
	)
	return err
}

// GetRun retrieves a run by id
func (s *Storage) GetRun(id string) (*Run, error) {
	query := `
	SELECT id, title, bank_name, account_ref, window_days, cut_date,
	       status, exclude_concepts, created_by, created_at
	FROM runs WHERE id = ?
	`
	run, err := scanRun(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs created by the given user, newest first
func (s *Storage) ListRuns(createdBy string) ([]Run, error) {
	query := `
	SELECT id, title, bank_name, account_ref, window_days, cut_date,
	       status, exclude_concepts, created_by, created_at
	FROM runs WHERE created_by = ? ORDER BY created_at DESC
	`
	rows, err := s.db.Query(query, createdBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// UpdateRun persists mutable run fields
func (s *Storage) UpdateRun(run *Run) error {
	query := `
	UPDATE runs
	SET title = ?, bank_name = ?, account_ref = ?, window_days = ?,
	    cut_date = ?, status = ?, exclude_concepts = ?
	WHERE id = ?
	`
	_, err := s.db.Exec(query,
		run.Title,
		run.BankName,
		run.AccountRef,
		run.WindowDays,
		encodeDate(run.CutDate),
		run.Status,
		encodeConcepts(run.ExcludeConcepts),
		run.ID,
	)
	return err
}

// DeleteRun removes a run; line and result rows cascade
func (s *Storage) DeleteRun(id string) error {
	_, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run       Run
		cutDate   sql.NullString
		concepts  string
		createdAt sql.NullString
	)
	err := row.Scan(
		&run.ID,
		&run.Title,
		&run.BankName,
		&run.AccountRef,
		&run.WindowDays,
		&cutDate,
		&run.Status,
		&concepts,
		&run.CreatedBy,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	run.CutDate = decodeDate(cutDate)
	run.ExcludeConcepts = decodeConcepts(concepts)
	if t := decodeDate(createdAt); t != nil {
		run.CreatedAt = *t
	}
	return &run, nil
}
