package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/notabene-app/notabene-backend/internal/platform/logger"
	"github.com/notabene-app/notabene-backend/internal/repos"
	"github.com/notabene-app/notabene-backend/internal/services"
)

type AnalysisHandler struct {
	log      *logger.Logger
	analyzer services.AnalyzerService
	usage    repos.UsageRepo
}

func NewAnalysisHandler(log *logger.Logger, analyzer services.AnalyzerService, usage repos.UsageRepo) *AnalysisHandler {
	return &AnalysisHandler{
		log:      log.With("handler", "AnalysisHandler"),
		analyzer: analyzer,
		usage:    usage,
	}
}

// POST /api/notes/:id/analyze
// Queues an analysis run; the background worker picks it up.
func (h *AnalysisHandler) EnqueueAnalysis(c *gin.Context) {
	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_note_id", err)
		return
	}
	run, err := h.analyzer.Enqueue(c.Request.Context(), noteID, requestUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "note_not_found", err)
			return
		}
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run": run})
}

// GET /api/notes/:id/analysis
// Latest run for the note, including stage and failure reason.
func (h *AnalysisHandler) GetLatestRun(c *gin.Context) {
	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_note_id", err)
		return
	}
	run, err := h.analyzer.LatestRun(c.Request.Context(), noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "run_not_found", err)
			return
		}
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"run": run})
}

// GET /api/workspaces/:id/usage
// Audio seconds consumed in the current billing period.
func (h *AnalysisHandler) GetUsage(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_workspace_id", err)
		return
	}
	seconds, err := h.usage.AudioSecondsThisPeriod(c.Request.Context(), nil, workspaceID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"audio_seconds": seconds})
}
