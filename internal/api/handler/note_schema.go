package handler

import "github.com/99minutos/notes-service/internal/core/domain"

type createNoteRequest struct {
	Title string   `json:"title" validate:"required"`
	Body  string   `json:"body" validate:"required"`
	Tags  []string `json:"tags" validate:"omitempty,dive,required"`
}

// updateNoteRequest uses pointers so absent fields are told apart from empty ones.
type updateNoteRequest struct {
	Title *string   `json:"title" validate:"omitnil,min=1"`
	Body  *string   `json:"body" validate:"omitnil,min=1"`
	Tags  *[]string `json:"tags" validate:"omitnil,dive,required"`
}

func (r updateNoteRequest) patch() domain.NotePatch {
	return domain.NotePatch{Title: r.Title, Body: r.Body, Tags: r.Tags}
}

type shareNoteRequest struct {
	UserIDs []int64 `json:"userIds" validate:"required,min=1,dive,gt=0"`
}

type listNotesQuery struct {
	Skip    int    `query:"skip" validate:"min=0"`
	Take    int    `query:"take" validate:"min=0"`
	OrderBy string `query:"orderBy" validate:"omitempty,oneof=id title createdAt updatedAt"`
	Order   string `query:"order" validate:"omitempty,oneof=asc desc"`
}

func (q listNotesQuery) pagination() domain.Pagination {
	return domain.Pagination{Skip: q.Skip, Take: q.Take}
}

func (q listNotesQuery) ordering() domain.Ordering {
	return domain.Ordering{Field: domain.OrderField(q.OrderBy), Desc: q.Order == "desc"}.Normalize()
}

type searchQuery struct {
	Query string `query:"query"`
}

// ErrorBody is the error envelope rendered by the central error handler.
type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
