package ports

import (
	"context"

	"github.com/99minutos/notes-service/internal/core/domain"
)

// CreateNoteInput carries the data needed to create a note.
type CreateNoteInput struct {
	Title    string
	Body     string
	Tags     []string
	AuthorID int64
}

// ListNotesInput carries the filter, window and ordering for a listing.
type ListNotesInput struct {
	Filter     domain.NoteFilter
	Pagination domain.Pagination
	Ordering   domain.Ordering
}

// NoteService defines the note use cases. All operations expect the caller identity
// to be resolved already.
type NoteService interface {
	Create(ctx context.Context, input CreateNoteInput) (*domain.Note, error)
	FindMany(ctx context.Context, input ListNotesInput) ([]*domain.Note, error)
	FindOne(ctx context.Context, id, authorID int64) (*domain.Note, error)
	UpdateOne(ctx context.Context, id, authorID int64, patch domain.NotePatch) (*domain.Note, error)
	Delete(ctx context.Context, filter domain.NoteFilter) (*domain.DeleteResult, error)
	Search(ctx context.Context, query string) ([]*domain.Note, error)
	ShareNote(ctx context.Context, noteID, authorID int64, userIDs []int64) (*domain.Note, error)
	GetSharedNotes(ctx context.Context, userID int64) (*domain.SharedNotes, error)
}
