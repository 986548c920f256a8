package domain

import (
	"slices"
	"time"
)

// Note is the core aggregate. AuthorID is fixed at creation; SharedWith only grows.
type Note struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Tags       []string  `json:"tags"`
	AuthorID   int64     `json:"authorId"`
	SharedWith []User    `json:"sharedWith,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NotePatch carries a partial update. Nil fields keep their stored value.
type NotePatch struct {
	Title *string
	Body  *string
	Tags  *[]string
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Body == nil && p.Tags == nil
}

// Apply merges the patch into n.
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Body != nil {
		n.Body = *p.Body
	}
	if p.Tags != nil {
		n.Tags = slices.Clone(*p.Tags)
	}
}

// Matches reports whether the note satisfies a search query: substring of title or
// body, or an exact tag.
func (n *Note) Matches(query string) bool {
	return containsString(n.Title, query) || containsString(n.Body, query) || slices.Contains(n.Tags, query)
}

// SharedWithUser reports whether userID is in the note's share set.
func (n *Note) SharedWithUser(userID int64) bool {
	return slices.ContainsFunc(n.SharedWith, func(u User) bool { return u.ID == userID })
}
