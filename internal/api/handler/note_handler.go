package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/notes-service/internal/api/metrics"
	"github.com/99minutos/notes-service/internal/core/domain"
	"github.com/99minutos/notes-service/internal/core/ports"
)

// NoteHandler serves the /notes routes. Every route runs behind the Auth middleware.
type NoteHandler struct {
	service ports.NoteService
}

func NewNoteHandler(service ports.NoteService) *NoteHandler {
	return &NoteHandler{service: service}
}

func observe(operation string, err error) {
	metrics.NoteOperationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
}

// Create handles POST /notes.
//
// @Summary      Create a note
// @Tags         notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createNoteRequest  true  "Note content"
// @Success      201   {object}  domain.Note
// @Failure      400   {object}  ErrorBody
// @Failure      401   {object}  ErrorBody
// @Router       /notes [post]
func (h *NoteHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createNoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		observe("create", err)
		return err
	}

	note, err := h.service.Create(c.Request().Context(), ports.CreateNoteInput{
		Title:    req.Title,
		Body:     req.Body,
		Tags:     req.Tags,
		AuthorID: user.ID,
	})
	observe("create", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, note)
}

// List handles GET /notes.
//
// @Summary      List the caller's notes
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        skip     query     int     false  "Notes to skip"
// @Param        take     query     int     false  "Page size, at most 100; omit to list every note"
// @Param        orderBy  query     string  false  "id, title, createdAt or updatedAt"
// @Param        order    query     string  false  "asc or desc"
// @Success      200      {array}   domain.Note
// @Failure      400      {object}  ErrorBody
// @Failure      401      {object}  ErrorBody
// @Router       /notes [get]
func (h *NoteHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var q listNotesQuery
	if err := bindAndValidate(c, &q); err != nil {
		observe("list", err)
		return err
	}

	notes, err := h.service.FindMany(c.Request().Context(), ports.ListNotesInput{
		Filter:     domain.NoteFilter{AuthorID: user.ID},
		Pagination: q.pagination(),
		Ordering:   q.ordering(),
	})
	observe("list", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notes)
}

// Search handles GET /notes/search.
//
// @Summary      Search notes by title, body or tag
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        query  query     string  true  "Substring of title or body, or an exact tag"
// @Success      200    {array}   domain.Note
// @Failure      401    {object}  ErrorBody
// @Failure      404    {object}  ErrorBody
// @Router       /notes/search [get]
func (h *NoteHandler) Search(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	var q searchQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}

	notes, err := h.service.Search(c.Request().Context(), q.Query)
	observe("search", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notes)
}

// Shared handles GET /notes/shared.
//
// @Summary      Notes other users shared with the caller
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.SharedNotes
// @Failure      401  {object}  ErrorBody
// @Router       /notes/shared [get]
func (h *NoteHandler) Shared(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	shared, err := h.service.GetSharedNotes(c.Request().Context(), user.ID)
	observe("shared", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shared)
}

// Get handles GET /notes/:id.
//
// @Summary      Get one of the caller's notes
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Note ID"
// @Success      200  {object}  domain.Note
// @Failure      400  {object}  ErrorBody
// @Failure      404  {object}  ErrorBody
// @Router       /notes/{id} [get]
func (h *NoteHandler) Get(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := noteIDParam(c)
	if err != nil {
		return err
	}

	note, err := h.service.FindOne(c.Request().Context(), id, user.ID)
	observe("get", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// Update handles PUT /notes/:id.
//
// @Summary      Partially update a note
// @Tags         notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Note ID"
// @Param        body  body      updateNoteRequest  true  "Fields to change"
// @Success      200   {object}  domain.Note
// @Failure      400   {object}  ErrorBody
// @Failure      404   {object}  ErrorBody
// @Router       /notes/{id} [put]
func (h *NoteHandler) Update(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := noteIDParam(c)
	if err != nil {
		return err
	}
	var req updateNoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		observe("update", err)
		return err
	}

	note, err := h.service.UpdateOne(c.Request().Context(), id, user.ID, req.patch())
	observe("update", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// Delete handles DELETE /notes/:id. Deleting a missing or foreign note reports a
// zero count rather than an error.
//
// @Summary      Delete a note
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Note ID"
// @Success      200  {object}  domain.DeleteResult
// @Failure      400  {object}  ErrorBody
// @Failure      401  {object}  ErrorBody
// @Router       /notes/{id} [delete]
func (h *NoteHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := noteIDParam(c)
	if err != nil {
		return err
	}

	res, err := h.service.Delete(c.Request().Context(), domain.NoteFilter{ID: id, AuthorID: user.ID})
	observe("delete", err)
	if err != nil {
		return err
	}
	metrics.NotesDeletedTotal.Add(float64(res.Count))
	return c.JSON(http.StatusOK, res)
}

// Share handles POST /notes/:id/share.
//
// @Summary      Share a note with other users
// @Tags         notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int               true  "Note ID"
// @Param        body  body      shareNoteRequest  true  "Users to share with"
// @Success      200   {object}  domain.Note
// @Failure      400   {object}  ErrorBody
// @Failure      404   {object}  ErrorBody
// @Router       /notes/{id}/share [post]
func (h *NoteHandler) Share(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := noteIDParam(c)
	if err != nil {
		return err
	}
	var req shareNoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		observe("share", err)
		return err
	}

	note, err := h.service.ShareNote(c.Request().Context(), id, user.ID, req.UserIDs)
	observe("share", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}
