package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urizarreta/conciliar-backend/internal/api/dto"
	"github.com/urizarreta/conciliar-backend/internal/application/service"
)

// CategoriesHandler handles category and rule HTTP requests.
type CategoriesHandler struct {
	svc *service.ReconcileService
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(svc *service.ReconcileService) *CategoriesHandler {
	return &CategoriesHandler{svc: svc}
}

// List handles GET /api/categories - all categories with their rules.
func (h *CategoriesHandler) List(c *gin.Context) {
	categories, err := h.svc.ListCategories()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CategoryListResponse{
		Categories: categories,
		Count:      len(categories),
	})
}

// Create handles POST /api/categories.
func (h *CategoriesHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	category, err := h.svc.CreateCategory(req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// Delete handles DELETE /api/categories/:id.
func (h *CategoriesHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteCategory(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateRule handles POST /api/categories/:id/rules.
func (h *CategoriesHandler) CreateRule(c *gin.Context) {
	var req dto.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	rule, err := h.svc.AddRule(c.Param("id"), req.Pattern, req.IsRegex, req.CaseSensitive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// DeleteRule handles DELETE /api/rules/:id.
func (h *CategoriesHandler) DeleteRule(c *gin.Context) {
	if err := h.svc.DeleteRule(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
