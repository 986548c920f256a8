package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/notes-service/internal/core/domain"
)

var orderFields = map[domain.OrderField]string{
	domain.OrderByID:        "_id",
	domain.OrderByTitle:     "title",
	domain.OrderByCreatedAt: "created_at",
	domain.OrderByUpdatedAt: "updated_at",
}

type NoteRepository struct {
	coll  *mongo.Collection
	users *mongo.Collection
	seq   *sequence
	now   func() time.Time
}

func NewNoteRepository(db *mongo.Database) *NoteRepository {
	return &NoteRepository{
		coll:  db.Collection(collectionNotes),
		users: db.Collection(collectionUsers),
		seq:   newSequence(db, collectionNotes),
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

type noteDoc struct {
	ID         int64     `bson:"_id"`
	Title      string    `bson:"title"`
	Body       string    `bson:"body"`
	Tags       []string  `bson:"tags"`
	AuthorID   int64     `bson:"author_id"`
	SharedWith []int64   `bson:"shared_with"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func (d noteDoc) toDomain() *domain.Note {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &domain.Note{
		ID:        d.ID,
		Title:     d.Title,
		Body:      d.Body,
		Tags:      tags,
		AuthorID:  d.AuthorID,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.users.CountDocuments(ctx, bson.M{"_id": note.AuthorID})
	if err != nil {
		return nil, fmt.Errorf("check author: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrUserNotFound
	}

	id, err := r.seq.next(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	doc := noteDoc{
		ID:         id,
		Title:      note.Title,
		Body:       note.Body,
		Tags:       note.Tags,
		AuthorID:   note.AuthorID,
		SharedWith: []int64{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *NoteRepository) FindMany(ctx context.Context, filter domain.NoteFilter, page domain.Pagination, order domain.Ordering) ([]*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	order = order.Normalize()
	dir := 1
	if order.Desc {
		dir = -1
	}
	sort := bson.D{{Key: orderFields[order.Field], Value: dir}}
	if order.Field != domain.OrderByID {
		sort = append(sort, bson.E{Key: "_id", Value: dir})
	}

	opts := options.Find().SetSort(sort)
	if page.Skip > 0 {
		opts.SetSkip(int64(page.Skip))
	}
	if page.Take > 0 {
		opts.SetLimit(int64(page.Take))
	}
	return r.find(ctx, filterDoc(filter), opts)
}

func (r *NoteRepository) FindOne(ctx context.Context, filter domain.NoteFilter) (*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc noteDoc
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := r.coll.FindOne(ctx, filterDoc(filter), opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("find note: %w", err)
	}
	return doc.toDomain(), nil
}

// UpdateOne sets only the fields present in the patch in a single findAndModify.
func (r *NoteRepository) UpdateOne(ctx context.Context, filter domain.NoteFilter, patch domain.NotePatch) (*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": r.now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Body != nil {
		set["body"] = *patch.Body
	}
	if patch.Tags != nil {
		tags := *patch.Tags
		if tags == nil {
			tags = []string{}
		}
		set["tags"] = tags
	}

	var doc noteDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.coll.FindOneAndUpdate(ctx, filterDoc(filter), bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("update note: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *NoteRepository) Delete(ctx context.Context, filter domain.NoteFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, filterDoc(filter))
	if err != nil {
		return 0, fmt.Errorf("delete notes: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *NoteRepository) Search(ctx context.Context, query string) ([]*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.find(ctx, searchDoc(query), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// Share checks the users exist, then adds them with $addToSet so concurrent
// shares of the same note cannot lose entries.
func (r *NoteRepository) Share(ctx context.Context, filter domain.NoteFilter, userIDs []int64) (*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ids := slices.Clone(userIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if ids == nil {
		ids = []int64{}
	}

	if len(ids) > 0 {
		n, err := r.users.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, fmt.Errorf("check users: %w", err)
		}
		if n != int64(len(ids)) {
			return nil, domain.ErrUserNotFound
		}
	}

	var doc noteDoc
	update := bson.M{"$addToSet": bson.M{"shared_with": bson.M{"$each": ids}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.coll.FindOneAndUpdate(ctx, filterDoc(filter), update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("share note: %w", err)
	}

	note := doc.toDomain()
	note.SharedWith = []domain.User{}
	if len(doc.SharedWith) > 0 {
		users, err := findUsers(ctx, r.users, doc.SharedWith)
		if err != nil {
			return nil, err
		}
		note.SharedWith = users
	}
	return note, nil
}

func (r *NoteRepository) SharedWith(ctx context.Context, userID int64) ([]*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.find(ctx, bson.M{"shared_with": userID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *NoteRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Note, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find notes: %w", err)
	}
	var docs []noteDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}

	notes := make([]*domain.Note, 0, len(docs))
	for _, d := range docs {
		notes = append(notes, d.toDomain())
	}
	return notes, nil
}

func filterDoc(f domain.NoteFilter) bson.M {
	doc := bson.M{}
	if f.ID != 0 {
		doc["_id"] = f.ID
	}
	if f.AuthorID != 0 {
		doc["author_id"] = f.AuthorID
	}
	return doc
}

// searchDoc matches a literal substring of title or body, or an exact tag.
func searchDoc(query string) bson.M {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query)}
	return bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"body": pattern},
		bson.M{"tags": query},
	}}
}
