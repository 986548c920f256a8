package ports

import (
	"context"

	"github.com/99minutos/notes-service/internal/core/domain"
)

// NoteStore is the storage capability behind the note service. It is filter driven
// and trusts its caller to scope filters to the authenticated user.
type NoteStore interface {
	Create(ctx context.Context, note *domain.Note) (*domain.Note, error)
	FindMany(ctx context.Context, filter domain.NoteFilter, page domain.Pagination, order domain.Ordering) ([]*domain.Note, error)
	// FindOne returns domain.ErrNoteNotFound when nothing matches.
	FindOne(ctx context.Context, filter domain.NoteFilter) (*domain.Note, error)
	// UpdateOne merges patch into the matching note in a single atomic step.
	// Returns domain.ErrNoteNotFound when nothing matches.
	UpdateOne(ctx context.Context, filter domain.NoteFilter, patch domain.NotePatch) (*domain.Note, error)
	Delete(ctx context.Context, filter domain.NoteFilter) (int64, error)
	// Search matches title or body substrings and exact tags across all notes.
	Search(ctx context.Context, query string) ([]*domain.Note, error)
	// Share adds userIDs to the note's share set atomically and returns the note with
	// SharedWith populated. Returns domain.ErrNoteNotFound or domain.ErrUserNotFound.
	Share(ctx context.Context, filter domain.NoteFilter, userIDs []int64) (*domain.Note, error)
	SharedWith(ctx context.Context, userID int64) ([]*domain.Note, error)
}
