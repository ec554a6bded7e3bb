package service

import (
	"strings"

	"github.com/google/uuid"

	"github.com/urizarreta/conciliar-backend/internal/infrastructure/storage"
)

// CategoryWithRules is a category together with its ordered rules.
type CategoryWithRules struct {
	storage.Category
	Rules []storage.Rule `json:"rules"`
}

// ListCategories returns all categories with their rules, ordered by
// name.
func (s *ReconcileService) ListCategories() ([]CategoryWithRules, error) {
	categories, err := s.repo.ListCategories()
	if err != nil {
		return nil, err
	}
	rules, err := s.repo.ListRules("")
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]storage.Rule)
	for _, rule := range rules {
		byCategory[rule.CategoryID] = append(byCategory[rule.CategoryID], rule)
	}

	result := make([]CategoryWithRules, 0, len(categories))
	for _, category := range categories {
		result = append(result, CategoryWithRules{
			Category: category,
			Rules:    byCategory[category.ID],
		})
	}
	return result, nil
}

// CreateCategory creates an empty category.
func (s *ReconcileService) CreateCategory(name string) (*storage.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validationf("category name must not be empty")
	}
	category := &storage.Category{ID: uuid.NewString(), Name: name}
	if err := s.repo.CreateCategory(category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category and its rules.
func (s *ReconcileService) DeleteCategory(id string) error {
	category, err := s.repo.GetCategory(id)
	if err != nil {
		return err
	}
	if category == nil {
		return &NotFoundError{Resource: "category"}
	}
	return s.repo.DeleteCategory(id)
}

// AddRule appends a classification rule to a category.
func (s *ReconcileService) AddRule(categoryID, pattern string, isRegex, caseSensitive bool) (*storage.Rule, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, Validationf("rule pattern must not be empty")
	}
	category, err := s.repo.GetCategory(categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, &NotFoundError{Resource: "category"}
	}

	rule := &storage.Rule{
		ID:            uuid.NewString(),
		CategoryID:    categoryID,
		Pattern:       pattern,
		IsRegex:       isRegex,
		CaseSensitive: caseSensitive,
	}
	if err := s.repo.CreateRule(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteRule removes a single rule.
func (s *ReconcileService) DeleteRule(id string) error {
	return s.repo.DeleteRule(id)
}

// defaultCategories are the bank-expense categories seeded on first
// start, with their substring patterns.
var defaultCategories = []struct {
	Name     string
	Patterns []string
}{
	{"Comisiones bancarias gravadas en IVA", []string{"comision", "comisión"}},
	{"IVA", []string{"iva"}},
	{"Gastos y comisiones NO gravadas", []string{"gasto", "comision no gravada", "comisión no gravada"}},
	{"Impuesto a los débitos", []string{"debito", "débito"}},
	{"Impuesto a los créditos", []string{"credito", "crédito"}},
	{"Impuesto IIBB Tucuman", []string{"iibb", "iibb tucuman"}},
	{"SIRCREB", []string{"sircreb"}},
	{"Percepciones de IVA", []string{"percepcion", "percepción"}},
}

// SeedDefaultCategories inserts the default category set, skipping any
// category that already exists by name.
func (s *ReconcileService) SeedDefaultCategories() error {
	existing, err := s.repo.ListCategories()
	if err != nil {
		return err
	}
	byName := make(map[string]bool, len(existing))
	for _, category := range existing {
		byName[category.Name] = true
	}

	for _, seed := range defaultCategories {
		if byName[seed.Name] {
			continue
		}
		category := &storage.Category{ID: uuid.NewString(), Name: seed.Name}
		if err := s.repo.CreateCategory(category); err != nil {
			return err
		}
		for i, pattern := range seed.Patterns {
			rule := &storage.Rule{
				ID:         uuid.NewString(),
				CategoryID: category.ID,
				Pattern:    pattern,
				Position:   i + 1,
			}
			if err := s.repo.CreateRule(rule); err != nil {
				return err
			}
		}
	}
	return nil
}
