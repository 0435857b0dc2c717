package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/daily-tracker/internal/errors"
	"github.com/yukikurage/daily-tracker/internal/middleware"
	"github.com/yukikurage/daily-tracker/internal/models"
	"github.com/yukikurage/daily-tracker/internal/repository"
	"github.com/yukikurage/daily-tracker/internal/services"
)

const (
	entityNote = "note"
	noteKey    = "note"
)

type NoteHandler struct {
	noteService *services.NoteService
	events      Broadcaster
}

func NewNoteHandler(noteService *services.NoteService, events Broadcaster) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
		events:      events,
	}
}

func (h *NoteHandler) LoadNote() gin.HandlerFunc {
	return middleware.RequireOwnership(noteKey, h.noteService.Get)
}

func (h *NoteHandler) ListNotes(c *gin.Context) {
	notes, err := h.noteService.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notes": notes,
	})
}

func (h *NoteHandler) GetNote(c *gin.Context) {
	note, ok := middleware.Loaded[models.Note](c, noteKey)
	if !ok {
		apierrors.NotFound(c, "")
		return
	}
	c.JSON(http.StatusOK, note)
}

func (h *NoteHandler) CreateNote(c *gin.Context) {
	type CreateNoteRequest struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Color   string `json:"color"`
	}

	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	note, err := h.noteService.Create(c.Request.Context(), currentUserID(c), services.CreateNoteInput{
		Title:   req.Title,
		Content: req.Content,
		Color:   req.Color,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityNote, actionCreated), note)
	c.JSON(http.StatusCreated, note)
}

func (h *NoteHandler) UpdateNote(c *gin.Context) {
	var patch repository.NotePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	note, err := h.noteService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityNote, actionUpdated), note)
	c.JSON(http.StatusOK, note)
}

func (h *NoteHandler) DeleteNote(c *gin.Context) {
	id := c.Param("id")
	if err := h.noteService.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityNote, actionDeleted), deletedPayload{ID: id})
	c.JSON(http.StatusOK, gin.H{
		"message": "Note deleted successfully",
	})
}
