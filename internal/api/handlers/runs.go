package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urizarreta/conciliar-backend/internal/api/dto"
	"github.com/urizarreta/conciliar-backend/internal/application/service"
	"github.com/urizarreta/conciliar-backend/internal/domain/normalize"
	"github.com/urizarreta/conciliar-backend/internal/infrastructure/storage"
)

// RunsHandler handles reconciliation run HTTP requests.
type RunsHandler struct {
	svc *service.ReconcileService

	// defaultWindowDays applies when a create request omits window_days.
	defaultWindowDays int
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(svc *service.ReconcileService, defaultWindowDays int) *RunsHandler {
	return &RunsHandler{svc: svc, defaultWindowDays: defaultWindowDays}
}

// Create handles POST /api/runs - creates a run from both datasets and
// returns the match summary.
func (h *RunsHandler) Create(c *gin.Context) {
	var req dto.CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	windowDays := h.defaultWindowDays
	if req.WindowDays != nil {
		windowDays = *req.WindowDays
	}

	summary, err := h.svc.CreateRun(service.CreateRunInput{
		Title:      req.Title,
		BankName:   req.BankName,
		AccountRef: req.AccountRef,
		WindowDays: windowDays,
		CutDate:    req.CutDate,
		Extract: service.ExtractDataset{
			Rows:            req.Extract.Rows,
			Mapping:         toExtractMapping(req.Extract.Mapping),
			ExcludeConcepts: req.Extract.ExcludeConcepts,
		},
		System: service.SystemDataset{
			Rows:    req.System.Rows,
			Mapping: toSystemMapping(req.System.Mapping),
		},
		CreatedBy: userID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, summary)
}

// List handles GET /api/runs - lists the caller's runs.
func (h *RunsHandler) List(c *gin.Context) {
	runs, err := h.svc.ListRuns(userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if runs == nil {
		runs = []storage.Run{}
	}
	c.JSON(http.StatusOK, dto.RunListResponse{Runs: runs, Count: len(runs)})
}

// Get handles GET /api/runs/:id - returns the full run view.
func (h *RunsHandler) Get(c *gin.Context) {
	detail, err := h.svc.GetRun(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Update handles PATCH /api/runs/:id - partial run update, including
// OPEN/CLOSED transitions.
func (h *RunsHandler) Update(c *gin.Context) {
	var req dto.UpdateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	run, err := h.svc.UpdateRun(c.Param("id"), service.UpdateRunInput{
		Title:      req.Title,
		WindowDays: req.WindowDays,
		CutDate:    req.CutDate,
		Status:     req.Status,
	}, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// Delete handles DELETE /api/runs/:id.
func (h *RunsHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteRun(c.Param("id"), userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateSystem handles PATCH /api/runs/:id/system - re-uploads system
// data, diffing by row index, then recomputes.
func (h *RunsHandler) UpdateSystem(c *gin.Context) {
	var req dto.SystemDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	detail, err := h.svc.UpdateSystem(c.Param("id"), service.SystemDataset{
		Rows:    req.Rows,
		Mapping: toSystemMapping(req.Mapping),
	}, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Exclude handles POST /api/runs/:id/exclusions - excludes concepts.
func (h *RunsHandler) Exclude(c *gin.Context) {
	var req dto.ExcludeConceptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	detail, err := h.svc.ExcludeConcepts(c.Param("id"), req.Concepts, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ExcludeByCategory handles POST /api/runs/:id/exclusions/category.
func (h *RunsHandler) ExcludeByCategory(c *gin.Context) {
	var req dto.ExcludeByCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	detail, err := h.svc.ExcludeByCategory(c.Param("id"), req.CategoryID, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// RemoveExclusion handles DELETE /api/runs/:id/exclusions - restores
// the lines an exclusion had removed and recomputes.
func (h *RunsHandler) RemoveExclusion(c *gin.Context) {
	var req dto.RemoveExclusionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	detail, err := h.svc.RemoveExclusion(c.Param("id"), req.Concept, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Recompute handles POST /api/runs/:id/recompute.
func (h *RunsHandler) Recompute(c *gin.Context) {
	detail, err := h.svc.Recompute(c.Param("id"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// SetMatch handles POST /api/runs/:id/match - manual match override.
func (h *RunsHandler) SetMatch(c *gin.Context) {
	var req dto.SetMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	detail, err := h.svc.SetMatch(c.Param("id"), req.SystemLineID, req.ExtractLineIDs, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func toExtractMapping(m dto.ExtractMappingRequest) service.ExtractMapping {
	return service.ExtractMapping{
		DateCol:    m.DateCol,
		ConceptCol: m.ConceptCol,
		AmountMode: normalize.AmountMode(m.AmountMode),
		AmountCol:  m.AmountCol,
		DebeCol:    m.DebeCol,
		HaberCol:   m.HaberCol,
	}
}

func toSystemMapping(m dto.SystemMappingRequest) service.SystemMapping {
	return service.SystemMapping{
		IssueDateCol:   m.IssueDateCol,
		DueDateCol:     m.DueDateCol,
		AmountMode:     normalize.AmountMode(m.AmountMode),
		AmountCol:      m.AmountCol,
		DebeCol:        m.DebeCol,
		HaberCol:       m.HaberCol,
		DescriptionCol: m.DescriptionCol,
	}
}
