package dto

import (
	"github.com/urizarreta/conciliar-backend/internal/application/service"
	"github.com/urizarreta/conciliar-backend/internal/infrastructure/storage"
)

// RunListResponse wraps a list of runs.
type RunListResponse struct {
	Runs  []storage.Run `json:"runs"`
	Count int           `json:"count"`
}

// CategoryListResponse wraps the category store.
type CategoryListResponse struct {
	Categories []service.CategoryWithRules `json:"categories"`
	Count      int                         `json:"count"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status string `json:"status"`
}
