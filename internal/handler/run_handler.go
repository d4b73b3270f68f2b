package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"evicite/internal/service"
)

// RunHandler handles verification run endpoints.
type RunHandler struct {
	runService service.RunService
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(runService service.RunService) *RunHandler {
	return &RunHandler{runService: runService}
}

// Create handles POST /api/v1/runs
func (h *RunHandler) Create(c *gin.Context) {
	var req service.CreateRunInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body is not a valid run submission")
		return
	}

	run, err := h.runService.CreateRun(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, run)
}

// List handles GET /api/v1/runs
func (h *RunHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	runs, total, err := h.runService.ListRuns(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/runs/:id
func (h *RunHandler) GetByID(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return
	}

	run, err := h.runService.GetRun(c.Request.Context(), runID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, run)
}

// ListOutcomes handles GET /api/v1/runs/:id/outcomes
func (h *RunHandler) ListOutcomes(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return
	}

	outcomes, err := h.runService.ListOutcomes(c.Request.Context(), runID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, outcomes)
}

// GetReport handles GET /api/v1/runs/:id/report
func (h *RunHandler) GetReport(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return
	}

	report, err := h.runService.GetReport(c.Request.Context(), runID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, report)
}

// Cancel handles POST /api/v1/runs/:id/cancel
func (h *RunHandler) Cancel(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return
	}

	if err := h.runService.CancelRun(c.Request.Context(), runID); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"canceled": true})
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
