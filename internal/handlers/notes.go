package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akash12888/note-taking-app/internal/middleware"
	"github.com/akash12888/note-taking-app/internal/services"
	appErrors "github.com/akash12888/note-taking-app/pkg/errors"
	"github.com/akash12888/note-taking-app/pkg/response"
)

// NotesHandler exposes CRUD endpoints for the authenticated user's notes.
type NotesHandler struct {
	notes *services.NoteService
}

func NewNotesHandler(notes *services.NoteService) *NotesHandler {
	return &NotesHandler{notes: notes}
}

type noteRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=100"`
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// POST /api/notes
func (h *NotesHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req noteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	note, err := h.notes.Create(requestContext(c), user.ID, services.NoteInput{Title: req.Title, Content: req.Content})
	if err != nil {
		response.Error(c, mapNoteError(err))
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"note": note})
}

// GET /api/notes
func (h *NotesHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	notes, err := h.notes.List(requestContext(c), user.ID)
	if err != nil {
		response.Error(c, mapNoteError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"notes": notes})
}

// GET /api/notes/:id
func (h *NotesHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	note, err := h.notes.Get(requestContext(c), user.ID, c.Param("id"))
	if err != nil {
		response.Error(c, mapNoteError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"note": note})
}

// PUT /api/notes/:id
func (h *NotesHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req noteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	note, err := h.notes.Update(requestContext(c), user.ID, c.Param("id"), services.NoteInput{Title: req.Title, Content: req.Content})
	if err != nil {
		response.Error(c, mapNoteError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"note": note})
}

// DELETE /api/notes/:id
func (h *NotesHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.notes.Delete(requestContext(c), user.ID, c.Param("id")); err != nil {
		response.Error(c, mapNoteError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Note deleted"})
}

func mapNoteError(err error) error {
	if errors.Is(err, services.ErrNoteNotFound) {
		return appErrors.ErrNotFound
	}
	return err
}
