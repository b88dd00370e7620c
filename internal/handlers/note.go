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

type NoteHandler struct {
	log   *logger.Logger
	notes services.NoteService
}

func NewNoteHandler(log *logger.Logger, notes services.NoteService) *NoteHandler {
	return &NoteHandler{
		log:   log.With("handler", "NoteHandler"),
		notes: notes,
	}
}

type createNoteRequest struct {
	WorkspaceID string `json:"workspace_id" binding:"required"`
	ProjectID   string `json:"project_id"`
	Title       string `json:"title"`
	SourceName  string `json:"source_name"`
	SourceURL   string `json:"source_url"`
	StorageKey  string `json:"storage_key"`
	Language    string `json:"language"`
}

// POST /api/notes
func (h *NoteHandler) CreateNote(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	workspaceID, err := uuid.Parse(req.WorkspaceID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_workspace_id", err)
		return
	}
	var projectID uuid.UUID
	if req.ProjectID != "" {
		projectID, err = uuid.Parse(req.ProjectID)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
			return
		}
	}

	note, err := h.notes.Create(c.Request.Context(), services.CreateNoteInput{
		WorkspaceID: workspaceID,
		ProjectID:   projectID,
		CreatedByID: requestUserID(c),
		Title:       req.Title,
		SourceName:  req.SourceName,
		SourceURL:   req.SourceURL,
		StorageKey:  req.StorageKey,
		Language:    req.Language,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"note": note})
}

// GET /api/notes/:id
func (h *NoteHandler) GetNote(c *gin.Context) {
	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_note_id", err)
		return
	}
	note, err := h.notes.GetByID(c.Request.Context(), noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "note_not_found", err)
			return
		}
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"note": note})
}

// GET /api/notes?workspace_id=...
func (h *NoteHandler) ListNotes(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Query("workspace_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_workspace_id", err)
		return
	}
	list, err := h.notes.ListByWorkspace(c.Request.Context(), workspaceID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"notes": list})
}

// DELETE /api/notes/:id
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_note_id", err)
		return
	}
	if err := h.notes.Delete(c.Request.Context(), noteID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// requestUserID reads the authenticated user id set by upstream
// middleware; uuid.Nil when the request is unauthenticated.
func requestUserID(c *gin.Context) uuid.UUID {
	raw, ok := c.Get("user_id")
	if !ok {
		return uuid.Nil
	}
	id, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
