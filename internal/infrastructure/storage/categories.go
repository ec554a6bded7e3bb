package storage

import (
	"database/sql"
	"errors"
)

// CreateCategory inserts a category
func (s *Storage) CreateCategory(category *Category) error {
	_, err := s.db.Exec(`INSERT INTO categories (id, name) VALUES (?, ?)`,
		category.ID, category.Name)
	return err
}

// GetCategory retrieves a category by id
func (s *Storage) GetCategory(id string) (*Category, error) {
	var category Category
	err := s.db.QueryRow(`SELECT id, name FROM categories WHERE id = ?`, id).
		Scan(&category.ID, &category.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories returns all categories ordered by name
func (s *Storage) ListCategories() ([]Category, error) {
	rows, err := s.db.Query(`SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var category Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// DeleteCategory removes a category; its rules cascade
func (s *Storage) DeleteCategory(id string) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE id = ?`, id)
	return err
}

// CreateRule appends a rule to a category, placing it after the
// category's existing rules
func (s *Storage) CreateRule(rule *Rule) error {
	if rule.Position == 0 {
		var maxPos sql.NullInt64
		err := s.db.QueryRow(
			`SELECT MAX(position) FROM rules WHERE category_id = ?`, rule.CategoryID,
		).Scan(&maxPos)
		if err != nil {
			return err
		}
		if maxPos.Valid {
			rule.Position = int(maxPos.Int64) + 1
		}
	}

	_, err := s.db.Exec(`
		INSERT INTO rules (id, category_id, pattern, is_regex, case_sensitive, position)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rule.ID, rule.CategoryID, rule.Pattern, rule.IsRegex, rule.CaseSensitive, rule.Position)
	return err
}

// ListRules returns rules for one category, or all rules when
// categoryID is empty, ordered by category name then position
func (s *Storage) ListRules(categoryID string) ([]Rule, error) {
	query := `
	SELECT r.id, r.category_id, r.pattern, r.is_regex, r.case_sensitive, r.position
	FROM rules r
	JOIN categories c ON c.id = r.category_id
	`
	args := []any{}
	if categoryID != "" {
		query += ` WHERE r.category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY c.name, r.position`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var rule Rule
		err := rows.Scan(&rule.ID, &rule.CategoryID, &rule.Pattern,
			&rule.IsRegex, &rule.CaseSensitive, &rule.Position)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// DeleteRule removes a single rule
func (s *Storage) DeleteRule(id string) error {
	_, err := s.db.Exec(`DELETE FROM rules WHERE id = ?`, id)
	return err
}
