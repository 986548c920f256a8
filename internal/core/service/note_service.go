package service

import (
	"context"
	"slices"

	"github.com/rs/zerolog"

	"github.com/99minutos/notes-service/internal/core/domain"
	"github.com/99minutos/notes-service/internal/core/ports"
)

// maxTake caps an explicit page size. A listing without one returns every match.
const maxTake = 100

// NoteService implements ports.NoteService on top of a NoteStore. Storage failures
// leave this layer as domain.InternalError.
type NoteService struct {
	store ports.NoteStore
	log   zerolog.Logger
}

func NewNoteService(store ports.NoteStore, log zerolog.Logger) *NoteService {
	return &NoteService{store: store, log: log}
}

func (s *NoteService) Create(ctx context.Context, input ports.CreateNoteInput) (*domain.Note, error) {
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	note, err := s.store.Create(ctx, &domain.Note{
		Title:    input.Title,
		Body:     input.Body,
		Tags:     tags,
		AuthorID: input.AuthorID,
	})
	if err != nil {
		s.log.Error().Err(err).Int64("author_id", input.AuthorID).Msg("failed to create note")
		return nil, domain.Internal("notes.create", err)
	}

	s.log.Info().Int64("note_id", note.ID).Int64("author_id", note.AuthorID).Msg("note created")
	return note, nil
}

// FindMany lists notes matching the filter, unpaged when Take is zero. The caller is responsible for scoping the
// filter to the authenticated author.
func (s *NoteService) FindMany(ctx context.Context, input ports.ListNotesInput) ([]*domain.Note, error) {
	page := input.Pagination
	if page.Skip < 0 {
		page.Skip = 0
	}
	switch {
	case page.Take < 0:
		page.Take = 0
	case page.Take > maxTake:
		page.Take = maxTake
	}

	notes, err := s.store.FindMany(ctx, input.Filter, page, input.Ordering.Normalize())
	if err != nil {
		return nil, domain.Internal("notes.find_many", err)
	}
	return notes, nil
}

// FindOne returns the note with id. When authorID is non-zero, notes owned by other
// users are reported as not found.
func (s *NoteService) FindOne(ctx context.Context, id, authorID int64) (*domain.Note, error) {
	note, err := s.store.FindOne(ctx, domain.NoteFilter{ID: id, AuthorID: authorID})
	if err != nil {
		return nil, domain.Internal("notes.find_one", err)
	}
	return note, nil
}

// UpdateOne applies a partial update; omitted fields keep their value.
func (s *NoteService) UpdateOne(ctx context.Context, id, authorID int64, patch domain.NotePatch) (*domain.Note, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	filter := domain.NoteFilter{ID: id, AuthorID: authorID}
	if patch.Empty() {
		return s.FindOne(ctx, id, authorID)
	}

	note, err := s.store.UpdateOne(ctx, filter, patch)
	if err != nil {
		return nil, domain.Internal("notes.update_one", err)
	}

	s.log.Info().Int64("note_id", note.ID).Msg("note updated")
	return note, nil
}

// Delete removes every note matching filter. Removing nothing is not an error.
func (s *NoteService) Delete(ctx context.Context, filter domain.NoteFilter) (*domain.DeleteResult, error) {
	if filter.Empty() {
		return nil, domain.NewValidationError(map[string]string{"filter": "delete filter must not be empty"})
	}

	count, err := s.store.Delete(ctx, filter)
	if err != nil {
		return nil, domain.Internal("notes.delete", err)
	}

	s.log.Info().Int64("note_id", filter.ID).Int64("author_id", filter.AuthorID).Int64("count", count).Msg("notes deleted")
	return &domain.DeleteResult{Count: count}, nil
}

// Search is global across authors. An empty query or an empty result is not found.
func (s *NoteService) Search(ctx context.Context, query string) ([]*domain.Note, error) {
	if query == "" {
		return nil, domain.ErrNoteNotFound
	}

	notes, err := s.store.Search(ctx, query)
	if err != nil {
		return nil, domain.Internal("notes.search", err)
	}
	if len(notes) == 0 {
		return nil, domain.ErrNoteNotFound
	}
	return notes, nil
}

// ShareNote grants read access on an author's note to userIDs. Sharing is additive and
// re-sharing with the same user is a no-op.
func (s *NoteService) ShareNote(ctx context.Context, noteID, authorID int64, userIDs []int64) (*domain.Note, error) {
	ids := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	note, err := s.store.Share(ctx, domain.NoteFilter{ID: noteID, AuthorID: authorID}, ids)
	if err != nil {
		return nil, domain.Internal("notes.share", err)
	}

	s.log.Info().Int64("note_id", noteID).Ints64("user_ids", ids).Msg("note shared")
	return note, nil
}

func (s *NoteService) GetSharedNotes(ctx context.Context, userID int64) (*domain.SharedNotes, error) {
	notes, err := s.store.SharedWith(ctx, userID)
	if err != nil {
		return nil, domain.Internal("notes.shared_with", err)
	}
	if notes == nil {
		notes = []*domain.Note{}
	}
	return &domain.SharedNotes{SharedNotes: notes}, nil
}

func validatePatch(p domain.NotePatch) error {
	fields := map[string]string{}
	if p.Title != nil && *p.Title == "" {
		fields["title"] = "title must not be empty"
	}
	if p.Body != nil && *p.Body == "" {
		fields["body"] = "body must not be empty"
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}
	return nil
}
