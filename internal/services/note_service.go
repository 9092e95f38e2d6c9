package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/akash12888/note-taking-app/internal/models"
)

// ErrNoteNotFound indicates the note does not exist or belongs to someone else.
var ErrNoteNotFound = errors.New("notes: not found")

// NoteInput carries the writable fields of a note.
type NoteInput struct {
	Title   string
	Content string
}

// NoteService manages per-user notes. Every operation is scoped to the
// owning user; cross-user access behaves as if the note does not exist.
type NoteService struct {
	db *gorm.DB
}

// NewNoteService constructs a NoteService.
func NewNoteService(db *gorm.DB) (*NoteService, error) {
	if db == nil {
		return nil, errors.New("note service: db is required")
	}
	return &NoteService{db: db}, nil
}

// Create stores a new note owned by the given user.
func (s *NoteService) Create(ctx context.Context, userID string, input NoteInput) (*models.Note, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("note service: user id is required")
	}

	note := models.Note{
		Title:   strings.TrimSpace(input.Title),
		Content: input.Content,
		UserID:  userID,
	}
	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, fmt.Errorf("note service: create note: %w", err)
	}
	return &note, nil
}

// List returns the user's notes, newest first.
func (s *NoteService) List(ctx context.Context, userID string) ([]models.Note, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("note service: user id is required")
	}

	var notes []models.Note
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("note service: list notes: %w", err)
	}
	return notes, nil
}

// Get returns a single note owned by the user.
func (s *NoteService) Get(ctx context.Context, userID, noteID string) (*models.Note, error) {
	userID = strings.TrimSpace(userID)
	noteID = strings.TrimSpace(noteID)
	if userID == "" || noteID == "" {
		return nil, ErrNoteNotFound
	}

	var note models.Note
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", noteID, userID).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("note service: lookup note: %w", err)
	}
	return &note, nil
}

// Update rewrites the title and content of a note owned by the user.
func (s *NoteService) Update(ctx context.Context, userID, noteID string, input NoteInput) (*models.Note, error) {
	note, err := s.Get(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"title":   strings.TrimSpace(input.Title),
		"content": input.Content,
	}
	if err := s.db.WithContext(ctx).Model(note).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("note service: update note: %w", err)
	}
	return note, nil
}

// Delete removes a note owned by the user.
func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	userID = strings.TrimSpace(userID)
	noteID = strings.TrimSpace(noteID)
	if userID == "" || noteID == "" {
		return ErrNoteNotFound
	}

	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", noteID, userID).Delete(&models.Note{})
	if result.Error != nil {
		return fmt.Errorf("note service: delete note: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}
