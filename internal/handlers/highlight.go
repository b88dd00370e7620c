package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/notabene-app/notabene-backend/internal/platform/logger"
	"github.com/notabene-app/notabene-backend/internal/services"
)

type HighlightHandler struct {
	log        *logger.Logger
	highlights services.HighlightService
}

func NewHighlightHandler(log *logger.Logger, highlights services.HighlightService) *HighlightHandler {
	return &HighlightHandler{
		log:        log.With("handler", "HighlightHandler"),
		highlights: highlights,
	}
}

type createHighlightRequest struct {
	StartMs int64 `json:"start_ms"`
	EndMs   int64 `json:"end_ms" binding:"required"`
}

// POST /api/notes/:id/highlights
func (h *HighlightHandler) CreateHighlight(c *gin.Context) {
	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_note_id", err)
		return
	}
	var req createHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	hl, err := h.highlights.Create(c.Request.Context(), services.CreateHighlightInput{
		NoteID:      noteID,
		CreatedByID: requestUserID(c),
		StartMs:     req.StartMs,
		EndMs:       req.EndMs,
	})
	if err != nil {
		// validation failures arrive as apierr with their own status
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "note_not_found", err)
			return
		}
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"highlight": hl})
}

// GET /api/notes/:id/highlights
func (h *HighlightHandler) ListHighlights(c *gin.Context) {
	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_note_id", err)
		return
	}
	list, err := h.highlights.ListByNote(c.Request.Context(), noteID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"highlights": list})
}

// DELETE /api/highlights/:id
func (h *HighlightHandler) DeleteHighlight(c *gin.Context) {
	highlightID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_highlight_id", err)
		return
	}
	if err := h.highlights.Delete(c.Request.Context(), highlightID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "highlight_not_found", err)
			return
		}
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
