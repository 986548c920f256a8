package domain

import "strings"

// OrderField enumerates the columns notes can be sorted by.
type OrderField string

const (
	OrderByID        OrderField = "id"
	OrderByTitle     OrderField = "title"
	OrderByCreatedAt OrderField = "createdAt"
	OrderByUpdatedAt OrderField = "updatedAt"
)

// Valid reports whether f is a known ordering column.
func (f OrderField) Valid() bool {
	switch f {
	case OrderByID, OrderByTitle, OrderByCreatedAt, OrderByUpdatedAt:
		return true
	}
	return false
}

// NoteFilter selects notes. Zero-valued fields do not constrain the result.
type NoteFilter struct {
	ID       int64
	AuthorID int64
}

// Empty reports whether the filter matches every note.
func (f NoteFilter) Empty() bool {
	return f.ID == 0 && f.AuthorID == 0
}

// Match applies the filter to a single note.
func (f NoteFilter) Match(n *Note) bool {
	if f.ID != 0 && n.ID != f.ID {
		return false
	}
	if f.AuthorID != 0 && n.AuthorID != f.AuthorID {
		return false
	}
	return true
}

// Pagination is a skip/take window. Take <= 0 means no limit.
type Pagination struct {
	Skip int
	Take int
}

// Ordering sorts a note listing. The zero value sorts by id ascending.
type Ordering struct {
	Field OrderField
	Desc  bool
}

// Normalize fills in the default ordering.
func (o Ordering) Normalize() Ordering {
	if !o.Field.Valid() {
		o.Field = OrderByID
	}
	return o
}

// DeleteResult reports how many notes a delete removed.
type DeleteResult struct {
	Count int64 `json:"count"`
}

// SharedNotes lists the notes other authors shared with a user.
type SharedNotes struct {
	SharedNotes []*Note `json:"sharedNotes"`
}

func containsString(s, sub string) bool {
	return sub != "" && strings.Contains(s, sub)
}
