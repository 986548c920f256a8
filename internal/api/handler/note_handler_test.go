package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/notes-service/internal/api/middleware"
	"github.com/99minutos/notes-service/internal/core/domain"
	"github.com/99minutos/notes-service/internal/core/ports"
)

type stubNoteService struct {
	createFn   func(ctx context.Context, input ports.CreateNoteInput) (*domain.Note, error)
	findManyFn func(ctx context.Context, input ports.ListNotesInput) ([]*domain.Note, error)
	findOneFn  func(ctx context.Context, id, authorID int64) (*domain.Note, error)
	updateFn   func(ctx context.Context, id, authorID int64, patch domain.NotePatch) (*domain.Note, error)
	deleteFn   func(ctx context.Context, filter domain.NoteFilter) (*domain.DeleteResult, error)
	searchFn   func(ctx context.Context, query string) ([]*domain.Note, error)
	shareFn    func(ctx context.Context, noteID, authorID int64, userIDs []int64) (*domain.Note, error)
	sharedFn   func(ctx context.Context, userID int64) (*domain.SharedNotes, error)
}

func (s *stubNoteService) Create(ctx context.Context, input ports.CreateNoteInput) (*domain.Note, error) {
	return s.createFn(ctx, input)
}

func (s *stubNoteService) FindMany(ctx context.Context, input ports.ListNotesInput) ([]*domain.Note, error) {
	return s.findManyFn(ctx, input)
}

func (s *stubNoteService) FindOne(ctx context.Context, id, authorID int64) (*domain.Note, error) {
	return s.findOneFn(ctx, id, authorID)
}

func (s *stubNoteService) UpdateOne(ctx context.Context, id, authorID int64, patch domain.NotePatch) (*domain.Note, error) {
	return s.updateFn(ctx, id, authorID, patch)
}

func (s *stubNoteService) Delete(ctx context.Context, filter domain.NoteFilter) (*domain.DeleteResult, error) {
	return s.deleteFn(ctx, filter)
}

func (s *stubNoteService) Search(ctx context.Context, query string) ([]*domain.Note, error) {
	return s.searchFn(ctx, query)
}

func (s *stubNoteService) ShareNote(ctx context.Context, noteID, authorID int64, userIDs []int64) (*domain.Note, error) {
	return s.shareFn(ctx, noteID, authorID, userIDs)
}

func (s *stubNoteService) GetSharedNotes(ctx context.Context, userID int64) (*domain.SharedNotes, error) {
	return s.sharedFn(ctx, userID)
}

var caller = &domain.User{ID: 42, Email: "caller@example.com", Name: "Caller"}

// authedContext builds a request context as if the Auth middleware had already run.
func authedContext(method, target, body string, id string) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := newJSONContext(method, target, body)
	middleware.SetUser(c, caller)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}

func TestNoteHandler_Create(t *testing.T) {
	stub := &stubNoteService{
		createFn: func(_ context.Context, in ports.CreateNoteInput) (*domain.Note, error) {
			if in.AuthorID != caller.ID || in.Title != "T" || in.Body != "B" || len(in.Tags) != 2 {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Note{ID: 1, Title: in.Title, Body: in.Body, Tags: in.Tags, AuthorID: in.AuthorID}, nil
		},
	}
	h := NewNoteHandler(stub)

	c, rec := authedContext(http.MethodPost, "/notes", `{"title":"T","body":"B","tags":["a","b"]}`, "")
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["authorId"] != float64(caller.ID) || resp["title"] != "T" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestNoteHandler_Create_Validation(t *testing.T) {
	h := NewNoteHandler(&stubNoteService{})

	c, _ := authedContext(http.MethodPost, "/notes", `{"title":"","tags":[""]}`, "")
	err := h.Create(c)

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := ve.Fields["title"]; !ok {
		t.Fatalf("expected title error, got %+v", ve.Fields)
	}
	if _, ok := ve.Fields["body"]; !ok {
		t.Fatalf("expected body error, got %+v", ve.Fields)
	}
}

func TestNoteHandler_RequiresUser(t *testing.T) {
	h := NewNoteHandler(&stubNoteService{})

	c, _ := newJSONContext(http.MethodGet, "/notes", "")
	err := h.List(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestNoteHandler_List_ScopesAndParsesQuery(t *testing.T) {
	stub := &stubNoteService{
		findManyFn: func(_ context.Context, in ports.ListNotesInput) ([]*domain.Note, error) {
			if in.Filter != (domain.NoteFilter{AuthorID: caller.ID}) {
				t.Fatalf("listing not scoped to caller: %+v", in.Filter)
			}
			if in.Pagination != (domain.Pagination{Skip: 2, Take: 5}) {
				t.Fatalf("unexpected pagination: %+v", in.Pagination)
			}
			if in.Ordering != (domain.Ordering{Field: domain.OrderByTitle, Desc: true}) {
				t.Fatalf("unexpected ordering: %+v", in.Ordering)
			}
			return []*domain.Note{{ID: 3}, {ID: 4}}, nil
		},
	}
	h := NewNoteHandler(stub)

	c, rec := authedContext(http.MethodGet, "/notes?skip=2&take=5&orderBy=title&order=desc", "", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(resp))
	}
}

func TestNoteHandler_List_DefaultOrdering(t *testing.T) {
	stub := &stubNoteService{
		findManyFn: func(_ context.Context, in ports.ListNotesInput) ([]*domain.Note, error) {
			if in.Ordering != (domain.Ordering{Field: domain.OrderByID}) {
				t.Fatalf("unexpected ordering: %+v", in.Ordering)
			}
			return []*domain.Note{}, nil
		},
	}
	h := NewNoteHandler(stub)

	c, rec := authedContext(http.MethodGet, "/notes", "", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Body.String() != "[]\n" {
		t.Fatalf("expected empty array, got %q", rec.Body.String())
	}
}

func TestNoteHandler_List_RejectsUnknownOrderField(t *testing.T) {
	h := NewNoteHandler(&stubNoteService{})

	c, _ := authedContext(http.MethodGet, "/notes?orderBy=author", "", "")
	err := h.List(c)

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := ve.Fields["orderBy"]; !ok {
		t.Fatalf("expected orderBy error, got %+v", ve.Fields)
	}
}

func TestNoteHandler_Get(t *testing.T) {
	stub := &stubNoteService{
		findOneFn: func(_ context.Context, id, authorID int64) (*domain.Note, error) {
			if id != 7 || authorID != caller.ID {
				t.Fatalf("unexpected args: %d %d", id, authorID)
			}
			return nil, domain.ErrNoteNotFound
		},
	}
	h := NewNoteHandler(stub)

	c, _ := authedContext(http.MethodGet, "/notes/7", "", "7")
	if err := h.Get(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNoteHandler_Get_BadID(t *testing.T) {
	h := NewNoteHandler(&stubNoteService{})

	for _, id := range []string{"abc", "0", "-3"} {
		c, _ := authedContext(http.MethodGet, "/notes/"+id, "", id)
		err := h.Get(c)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Fields["id"] == "" {
			t.Fatalf("id %q: expected id validation error, got %v", id, err)
		}
	}
}

func TestNoteHandler_Update_PartialPatch(t *testing.T) {
	stub := &stubNoteService{
		updateFn: func(_ context.Context, id, authorID int64, p domain.NotePatch) (*domain.Note, error) {
			if id != 5 || authorID != caller.ID {
				t.Fatalf("unexpected args: %d %d", id, authorID)
			}
			if p.Title == nil || *p.Title != "new" || p.Body != nil || p.Tags != nil {
				t.Fatalf("unexpected patch: %+v", p)
			}
			return &domain.Note{ID: 5, Title: "new", Body: "old"}, nil
		},
	}
	h := NewNoteHandler(stub)

	c, rec := authedContext(http.MethodPut, "/notes/5", `{"title":"new"}`, "5")
	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestNoteHandler_Update_RejectsEmptyTitle(t *testing.T) {
	h := NewNoteHandler(&stubNoteService{})

	c, _ := authedContext(http.MethodPut, "/notes/5", `{"title":""}`, "5")
	var ve *domain.ValidationError
	if err := h.Update(c); !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNoteHandler_Delete(t *testing.T) {
	stub := &stubNoteService{
		deleteFn: func(_ context.Context, f domain.NoteFilter) (*domain.DeleteResult, error) {
			if f != (domain.NoteFilter{ID: 9, AuthorID: caller.ID}) {
				t.Fatalf("delete not scoped: %+v", f)
			}
			return &domain.DeleteResult{Count: 0}, nil
		},
	}
	h := NewNoteHandler(stub)

	c, rec := authedContext(http.MethodDelete, "/notes/9", "", "9")
	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["count"] != float64(0) {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestNoteHandler_Search(t *testing.T) {
	stub := &stubNoteService{
		searchFn: func(_ context.Context, q string) ([]*domain.Note, error) {
			if q != "go lang" {
				t.Fatalf("unexpected query %q", q)
			}
			return nil, domain.ErrNoteNotFound
		},
	}
	h := NewNoteHandler(stub)

	c, _ := authedContext(http.MethodGet, "/notes/search?query=go+lang", "", "")
	if err := h.Search(c); !errors.Is(err, domain.ErrNoteNotFound) {
		t.Fatalf("expected note not found, got %v", err)
	}
}

func TestNoteHandler_Share(t *testing.T) {
	stub := &stubNoteService{
		shareFn: func(_ context.Context, noteID, authorID int64, ids []int64) (*domain.Note, error) {
			if noteID != 3 || authorID != caller.ID || len(ids) != 2 || ids[0] != 10 || ids[1] != 11 {
				t.Fatalf("unexpected args: %d %d %v", noteID, authorID, ids)
			}
			return &domain.Note{ID: 3, SharedWith: []domain.User{{ID: 10}, {ID: 11}}}, nil
		},
	}
	h := NewNoteHandler(stub)

	c, rec := authedContext(http.MethodPost, "/notes/3/share", `{"userIds":[10,11]}`, "3")
	if err := h.Share(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	shared, ok := resp["sharedWith"].([]any)
	if !ok || len(shared) != 2 {
		t.Fatalf("unexpected sharedWith: %+v", resp["sharedWith"])
	}
}

func TestNoteHandler_Share_RequiresUsers(t *testing.T) {
	h := NewNoteHandler(&stubNoteService{})

	c, _ := authedContext(http.MethodPost, "/notes/3/share", `{"userIds":[]}`, "3")
	var ve *domain.ValidationError
	if err := h.Share(c); !errors.As(err, &ve) || ve.Fields["userIds"] == "" {
		t.Fatalf("expected userIds validation error, got %v", err)
	}
}

func TestNoteHandler_Shared(t *testing.T) {
	stub := &stubNoteService{
		sharedFn: func(_ context.Context, userID int64) (*domain.SharedNotes, error) {
			if userID != caller.ID {
				t.Fatalf("unexpected user %d", userID)
			}
			return &domain.SharedNotes{SharedNotes: []*domain.Note{{ID: 1, AuthorID: 2}}}, nil
		},
	}
	h := NewNoteHandler(stub)

	c, rec := authedContext(http.MethodGet, "/notes/shared", "", "")
	if err := h.Shared(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string][]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp["sharedNotes"]) != 1 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}
