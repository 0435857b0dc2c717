package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/daily-tracker/internal/models"
	"github.com/yukikurage/daily-tracker/internal/repository"
)

type NoteService struct {
	store *repository.Store
}

func NewNoteService(store *repository.Store) *NoteService {
	return &NoteService{store: store}
}

type CreateNoteInput struct {
	Title   string
	Content string
	Color   string
}

func (s *NoteService) Create(ctx context.Context, userID string, input CreateNoteInput) (*models.Note, error) {
	note := &models.Note{
		UserID:  userID,
		Title:   input.Title,
		Content: input.Content,
		Color:   input.Color,
	}
	if note.Color == "" {
		note.Color = "yellow"
	}
	if err := s.store.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return note, nil
}

func (s *NoteService) Get(ctx context.Context, userID, id string) (*models.Note, error) {
	note, err := s.store.GetNote(ctx, id)
	return owned(note, err, func(n *models.Note) string { return n.UserID }, userID)
}

func (s *NoteService) List(ctx context.Context, userID string) ([]models.Note, error) {
	return s.store.ListNotes(ctx, userID)
}

func (s *NoteService) Update(ctx context.Context, userID, id string, patch repository.NotePatch) (*models.Note, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	note, err := s.store.UpdateNote(ctx, id, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return note, err
}

func (s *NoteService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteNote(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
