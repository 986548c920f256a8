// Package memory is a process-local implementation of the credential and note stores.
// It backs STORAGE_DRIVER=memory and the HTTP end-to-end tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/99minutos/notes-service/internal/core/domain"
)

type noteRecord struct {
	note   domain.Note
	shares []int64 // sorted, unique
}

// Store holds users and notes behind one lock so sharing can check users and
// mutate a note atomically.
type Store struct {
	mu       sync.RWMutex
	users    map[int64]*domain.User
	byEmail  map[string]int64
	notes    map[int64]*noteRecord
	lastUser int64
	lastNote int64
	now      func() time.Time
}

func New() *Store {
	return &Store{
		users:   make(map[int64]*domain.User),
		byEmail: make(map[string]int64),
		notes:   make(map[int64]*noteRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Users returns the credential store view.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Notes returns the note store view.
func (s *Store) Notes() *NoteRepository { return &NoteRepository{s: s} }

// Ping always succeeds; it lets the store sit in the readiness checks.
func (s *Store) Ping(context.Context) error { return nil }

// DeleteUser removes a user along with their notes and share entries.
func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(s.byEmail, u.Email)
	delete(s.users, id)

	for nid, rec := range s.notes {
		if rec.note.AuthorID == id {
			delete(s.notes, nid)
			continue
		}
		if i, found := slices.BinarySearch(rec.shares, id); found {
			rec.shares = slices.Delete(rec.shares, i, i+1)
		}
	}
	return nil
}

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return nil, domain.ErrUserExists
	}
	s.lastUser++
	u := *user
	u.ID = s.lastUser
	u.CreatedAt = s.now()
	s.users[u.ID] = &u
	s.byEmail[u.Email] = u.ID

	out := u
	return &out, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := *s.users[id]
	return &u, nil
}

func (r *UserRepository) FindByIDs(_ context.Context, ids []int64) ([]domain.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.projectUsers(ids), nil
}

// projectUsers returns credential-free copies of the known users among ids, by id.
// Callers hold the lock.
func (s *Store) projectUsers(ids []int64) []domain.User {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	out := make([]domain.User, 0, len(sorted))
	for _, id := range sorted {
		if u, ok := s.users[id]; ok {
			out = append(out, *u.Projection())
		}
	}
	return out
}

type NoteRepository struct{ s *Store }

func (r *NoteRepository) Create(_ context.Context, note *domain.Note) (*domain.Note, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[note.AuthorID]; !ok {
		return nil, domain.ErrUserNotFound
	}

	s.lastNote++
	now := s.now()
	rec := &noteRecord{note: domain.Note{
		ID:        s.lastNote,
		Title:     note.Title,
		Body:      note.Body,
		Tags:      cloneTags(note.Tags),
		AuthorID:  note.AuthorID,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	s.notes[rec.note.ID] = rec
	return rec.snapshot(), nil
}

func (r *NoteRepository) FindMany(_ context.Context, filter domain.NoteFilter, page domain.Pagination, order domain.Ordering) ([]*domain.Note, error) {
	s := r.s
	s.mu.RLock()
	matched := s.collect(func(rec *noteRecord) bool { return filter.Match(&rec.note) })
	s.mu.RUnlock()

	sortNotes(matched, order.Normalize())

	skip := max(page.Skip, 0)
	if skip >= len(matched) {
		return []*domain.Note{}, nil
	}
	matched = matched[skip:]
	if page.Take > 0 && page.Take < len(matched) {
		matched = matched[:page.Take]
	}
	return matched, nil
}

func (r *NoteRepository) FindOne(_ context.Context, filter domain.NoteFilter) (*domain.Note, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := s.first(filter)
	if rec == nil {
		return nil, domain.ErrNoteNotFound
	}
	return rec.snapshot(), nil
}

func (r *NoteRepository) UpdateOne(_ context.Context, filter domain.NoteFilter, patch domain.NotePatch) (*domain.Note, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.first(filter)
	if rec == nil {
		return nil, domain.ErrNoteNotFound
	}
	patch.Apply(&rec.note)
	rec.note.UpdatedAt = s.now()
	return rec.snapshot(), nil
}

func (r *NoteRepository) Delete(_ context.Context, filter domain.NoteFilter) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, rec := range s.notes {
		if filter.Match(&rec.note) {
			delete(s.notes, id)
			n++
		}
	}
	return n, nil
}

func (r *NoteRepository) Search(_ context.Context, query string) ([]*domain.Note, error) {
	s := r.s
	s.mu.RLock()
	matched := s.collect(func(rec *noteRecord) bool { return rec.note.Matches(query) })
	s.mu.RUnlock()

	sortNotes(matched, domain.Ordering{Field: domain.OrderByID})
	return matched, nil
}

func (r *NoteRepository) Share(_ context.Context, filter domain.NoteFilter, userIDs []int64) (*domain.Note, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.first(filter)
	if rec == nil {
		return nil, domain.ErrNoteNotFound
	}
	for _, id := range userIDs {
		if _, ok := s.users[id]; !ok {
			return nil, domain.ErrUserNotFound
		}
	}

	for _, id := range userIDs {
		if i, found := slices.BinarySearch(rec.shares, id); !found {
			rec.shares = slices.Insert(rec.shares, i, id)
		}
	}

	out := rec.snapshot()
	out.SharedWith = s.projectUsers(rec.shares)
	return out, nil
}

func (r *NoteRepository) SharedWith(_ context.Context, userID int64) ([]*domain.Note, error) {
	s := r.s
	s.mu.RLock()
	matched := s.collect(func(rec *noteRecord) bool {
		_, found := slices.BinarySearch(rec.shares, userID)
		return found
	})
	s.mu.RUnlock()

	sortNotes(matched, domain.Ordering{Field: domain.OrderByID})
	return matched, nil
}

// first returns the lowest-id note matching filter. Callers hold the lock.
func (s *Store) first(filter domain.NoteFilter) *noteRecord {
	if filter.ID != 0 {
		rec, ok := s.notes[filter.ID]
		if !ok || !filter.Match(&rec.note) {
			return nil
		}
		return rec
	}
	var best *noteRecord
	for _, rec := range s.notes {
		if filter.Match(&rec.note) && (best == nil || rec.note.ID < best.note.ID) {
			best = rec
		}
	}
	return best
}

// collect snapshots every note accepted by keep. Callers hold the lock.
func (s *Store) collect(keep func(*noteRecord) bool) []*domain.Note {
	out := []*domain.Note{}
	for _, rec := range s.notes {
		if keep(rec) {
			out = append(out, rec.snapshot())
		}
	}
	return out
}

func (rec *noteRecord) snapshot() *domain.Note {
	n := rec.note
	n.Tags = cloneTags(rec.note.Tags)
	n.SharedWith = nil
	return &n
}

func sortNotes(notes []*domain.Note, order domain.Ordering) {
	slices.SortFunc(notes, func(a, b *domain.Note) int {
		c := compareBy(a, b, order.Field)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if order.Desc {
			return -c
		}
		return c
	})
}

func compareBy(a, b *domain.Note, field domain.OrderField) int {
	switch field {
	case domain.OrderByTitle:
		return strings.Compare(a.Title, b.Title)
	case domain.OrderByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case domain.OrderByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return cmp.Compare(a.ID, b.ID)
	}
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return slices.Clone(tags)
}
