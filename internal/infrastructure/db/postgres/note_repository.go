package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/99minutos/notes-service/internal/core/domain"
)

const noteColumns = `id, title, body, tags, author_id, created_at, updated_at`

var orderColumns = map[domain.OrderField]string{
	domain.OrderByID:        "id",
	domain.OrderByTitle:     "title",
	domain.OrderByCreatedAt: "created_at",
	domain.OrderByUpdatedAt: "updated_at",
}

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	query := `INSERT INTO notes (title, body, tags, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + noteColumns

	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}

	created, err := scanNote(r.db.QueryRowContext(ctx, query, note.Title, note.Body, tags, note.AuthorID), pgtype.NewMap())
	if err != nil {
		if pgErrorCode(err) == codeForeignKeyViolation {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return created, nil
}

func (r *NoteRepository) FindMany(ctx context.Context, filter domain.NoteFilter, page domain.Pagination, order domain.Ordering) ([]*domain.Note, error) {
	where, args := filterClause(filter, nil)

	order = order.Normalize()
	direction := "ASC"
	if order.Desc {
		direction = "DESC"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM notes WHERE %s ORDER BY %s %s", noteColumns, where, orderColumns[order.Field], direction)
	if order.Field != domain.OrderByID {
		b.WriteString(", id " + direction)
	}
	if page.Take > 0 {
		args = append(args, page.Take)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	if page.Skip > 0 {
		args = append(args, page.Skip)
		b.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}

	return queryNotes(ctx, r.db, b.String(), args...)
}

func (r *NoteRepository) FindOne(ctx context.Context, filter domain.NoteFilter) (*domain.Note, error) {
	where, args := filterClause(filter, nil)
	query := "SELECT " + noteColumns + " FROM notes WHERE " + where + " ORDER BY id LIMIT 1"

	note, err := scanNote(r.db.QueryRowContext(ctx, query, args...), pgtype.NewMap())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("find note: %w", err)
	}
	return note, nil
}

// UpdateOne merges the patch with COALESCE so unset fields keep their stored value
// without a read-modify-write round trip.
func (r *NoteRepository) UpdateOne(ctx context.Context, filter domain.NoteFilter, patch domain.NotePatch) (*domain.Note, error) {
	args := []any{nullable(patch.Title), nullable(patch.Body), nullable(patch.Tags)}
	where, args := filterClause(filter, args)

	query := `UPDATE notes
		SET title = COALESCE($1, title),
			body = COALESCE($2, body),
			tags = COALESCE($3, tags),
			updated_at = now()
		WHERE ` + where + `
		RETURNING ` + noteColumns

	note, err := scanNote(r.db.QueryRowContext(ctx, query, args...), pgtype.NewMap())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("update note: %w", err)
	}
	return note, nil
}

func (r *NoteRepository) Delete(ctx context.Context, filter domain.NoteFilter) (int64, error) {
	where, args := filterClause(filter, nil)

	res, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete notes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete notes: %w", err)
	}
	return n, nil
}

func (r *NoteRepository) Search(ctx context.Context, query string) ([]*domain.Note, error) {
	pattern := "%" + escapeLike(query) + "%"
	return queryNotes(ctx, r.db, `SELECT `+noteColumns+`
		FROM notes
		WHERE title LIKE $1 ESCAPE '\' OR body LIKE $1 ESCAPE '\' OR $2 = ANY(tags)
		ORDER BY id`, pattern, query)
}

// Share locks the note row, checks every user exists and inserts the missing
// share rows, all in one transaction.
func (r *NoteRepository) Share(ctx context.Context, filter domain.NoteFilter, userIDs []int64) (*domain.Note, error) {
	ids := slices.Clone(userIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	var shared *domain.Note
	err := WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		where, args := filterClause(filter, nil)
		note, err := scanNote(tx.QueryRowContext(ctx,
			"SELECT "+noteColumns+" FROM notes WHERE "+where+" ORDER BY id LIMIT 1 FOR UPDATE", args...), pgtype.NewMap())
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNoteNotFound
			}
			return fmt.Errorf("lock note: %w", err)
		}

		if len(ids) > 0 {
			var found int
			if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM users WHERE id = ANY($1)`, ids).Scan(&found); err != nil {
				return fmt.Errorf("count users: %w", err)
			}
			if found != len(ids) {
				return domain.ErrUserNotFound
			}

			_, err := tx.ExecContext(ctx, `INSERT INTO note_shares (note_id, user_id)
				SELECT $1, unnest($2::bigint[])
				ON CONFLICT DO NOTHING`, note.ID, ids)
			if err != nil {
				if pgErrorCode(err) == codeForeignKeyViolation {
					return domain.ErrUserNotFound
				}
				return fmt.Errorf("insert shares: %w", err)
			}
		}

		note.SharedWith, err = queryUsers(ctx, tx, `SELECT u.id, u.email, u.name, u.created_at
			FROM note_shares s
			JOIN users u ON u.id = s.user_id
			WHERE s.note_id = $1
			ORDER BY u.id`, note.ID)
		if err != nil {
			return err
		}
		shared = note
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shared, nil
}

func (r *NoteRepository) SharedWith(ctx context.Context, userID int64) ([]*domain.Note, error) {
	return queryNotes(ctx, r.db, `SELECT n.id, n.title, n.body, n.tags, n.author_id, n.created_at, n.updated_at
		FROM notes n
		JOIN note_shares s ON s.note_id = n.id
		WHERE s.user_id = $1
		ORDER BY n.id`, userID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanNote reads a row in noteColumns order. Tags arrive as a text[] and go through
// the pgtype map since database/sql has no array support of its own.
func scanNote(row rowScanner, m *pgtype.Map) (*domain.Note, error) {
	var n domain.Note
	if err := row.Scan(&n.ID, &n.Title, &n.Body, m.SQLScanner(&n.Tags), &n.AuthorID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return &n, nil
}

func queryNotes(ctx context.Context, db DBTX, query string, args ...any) ([]*domain.Note, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	m := pgtype.NewMap()
	notes := []*domain.Note{}
	for rows.Next() {
		n, err := scanNote(rows, m)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

// filterClause renders f as a WHERE predicate, numbering placeholders after args.
func filterClause(f domain.NoteFilter, args []any) (string, []any) {
	var conds []string
	if f.ID != 0 {
		args = append(args, f.ID)
		conds = append(conds, "id = $"+strconv.Itoa(len(args)))
	}
	if f.AuthorID != 0 {
		args = append(args, f.AuthorID)
		conds = append(conds, "author_id = $"+strconv.Itoa(len(args)))
	}
	if len(conds) == 0 {
		return "TRUE", args
	}
	return strings.Join(conds, " AND "), args
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
