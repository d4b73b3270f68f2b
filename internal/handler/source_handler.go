package handler

import (
	"github.com/gin-gonic/gin"

	"evicite/internal/service"
)

// SourceHandler handles source artifact endpoints.
type SourceHandler struct {
	runService service.RunService
}

// NewSourceHandler creates a new SourceHandler.
func NewSourceHandler(runService service.RunService) *SourceHandler {
	return &SourceHandler{runService: runService}
}

// Artifact handles GET /api/v1/sources/:identity/artifact
func (h *SourceHandler) Artifact(c *gin.Context) {
	identity := c.Param("identity")

	url, err := h.runService.ArtifactURL(c.Request.Context(), identity)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"identity": identity, "url": url})
}
