package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/simp-lee/docbase/internal/domain"
	"github.com/simp-lee/docbase/internal/pkg"
)

// mongoID is the primary key field of every collection.
const mongoID = "_id"

// MongoRepository implements domain.Repository on a MongoDB collection.
//
// T must map its id to _id and carry a deleted_at field, which embedding
// domain.BaseDocument with `bson:",inline"` provides. The repository accepts
// "id" wherever a field name is expected and translates it to _id.
type MongoRepository[T any, P domain.DocumentPtr[T]] struct {
	coll *mongo.Collection
	opts Options
	now  func() time.Time
}

var _ domain.Repository[domain.User] = (*MongoRepository[domain.User, *domain.User])(nil)

// NewMongoRepository creates a repository for T stored in coll.
func NewMongoRepository[T any, P domain.DocumentPtr[T]](coll *mongo.Collection, opts Options) *MongoRepository[T, P] {
	return &MongoRepository[T, P]{coll: coll, opts: opts, now: time.Now}
}

// Create inserts doc, assigning a new id when it has none.
func (r *MongoRepository[T, P]) Create(ctx context.Context, doc *T) (*T, error) {
	p := P(doc)
	if p.GetID() == "" {
		p.SetID(uuid.NewString())
	}
	p.Touch(r.now())

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, mapMongoError(err)
	}
	return doc, nil
}

// FindOneByID returns the visible document with the given id.
func (r *MongoRepository[T, P]) FindOneByID(ctx context.Context, id string, projection ...string) (*T, error) {
	return r.findOne(ctx, visibleID(id), projection)
}

// FindOneByConditions returns the first visible document matching conds.
func (r *MongoRepository[T, P]) FindOneByConditions(ctx context.Context, conds domain.Conditions, projection ...string) (*T, error) {
	filter, err := buildFilter(conds, nil)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, filter, projection)
}

// FindAll returns every visible document matching conds and q.Search, ordered by q.Sort.
func (r *MongoRepository[T, P]) FindAll(ctx context.Context, conds domain.Conditions, q domain.QueryOptions, opts domain.FindOptions) ([]T, error) {
	if q.Paginated() {
		return nil, errPaginatedFindAll
	}
	parsed, err := r.opts.parseQuery(q)
	if err != nil {
		return nil, err
	}
	if err := checkFields("projection", opts.Projection); err != nil {
		return nil, err
	}
	filter, err := buildFilter(conds, parsed.search)
	if err != nil {
		return nil, err
	}

	findOpts := options.Find()
	if len(opts.Projection) > 0 {
		findOpts.SetProjection(projectionDoc(opts.Projection))
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if len(parsed.sort) > 0 {
		findOpts.SetSort(sortDoc(parsed.sort))
	}

	return r.find(ctx, filter, findOpts)
}

// Update applies changes to the visible document with the given id and
// returns the document as stored afterwards.
func (r *MongoRepository[T, P]) Update(ctx context.Context, id string, changes map[string]any) (*T, error) {
	values, err := prepareChanges(changes, r.now())
	if err != nil {
		return nil, err
	}

	var doc T
	err = r.coll.FindOneAndUpdate(ctx, visibleID(id), bson.M{"$set": values},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.opts.notFound()
		}
		return nil, mapMongoError(err)
	}
	return &doc, nil
}

// SoftDelete stamps deleted_at on the visible document with the given id.
func (r *MongoRepository[T, P]) SoftDelete(ctx context.Context, id string) (bool, error) {
	now := r.now()
	res, err := r.coll.UpdateOne(ctx, visibleID(id), bson.M{"$set": bson.M{
		domain.FieldDeletedAt: now,
		domain.FieldUpdatedAt: now,
	}})
	if err != nil {
		return false, mapMongoError(err)
	}
	if res.MatchedCount == 0 {
		return false, r.opts.notFound()
	}
	return true, nil
}

// PermanentlyDelete removes the visible document with the given id.
func (r *MongoRepository[T, P]) PermanentlyDelete(ctx context.Context, id string) (bool, error) {
	return r.deleteOne(ctx, visibleID(id))
}

// Purge removes the document with the given id, including a soft-deleted one.
func (r *MongoRepository[T, P]) Purge(ctx context.Context, id string) (bool, error) {
	return r.deleteOne(ctx, bson.M{mongoID: id})
}

// Paginate returns one page of the visible documents matching conds and
// q.Search. The total is counted before limit and skip are applied.
func (r *MongoRepository[T, P]) Paginate(ctx context.Context, conds domain.Conditions, q domain.QueryOptions) (*domain.PageResult[T], error) {
	parsed, err := r.opts.parseQuery(q)
	if err != nil {
		return nil, err
	}
	filter, err := buildFilter(conds, parsed.search)
	if err != nil {
		return nil, err
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, mapMongoError(err)
	}

	findOpts := options.Find()
	if q.PageSize >= 1 {
		findOpts.SetLimit(int64(q.PageSize))
		if q.Page >= 1 {
			findOpts.SetSkip(int64(pkg.Offset(q.Page, q.PageSize)))
		}
	}
	if len(parsed.sort) > 0 {
		findOpts.SetSort(sortDoc(parsed.sort))
	}

	docs, err := r.find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	return pkg.NewPageResult(docs, total, q), nil
}

// Exists reports whether any visible document matches conds.
func (r *MongoRepository[T, P]) Exists(ctx context.Context, conds domain.Conditions) (bool, error) {
	filter, err := buildFilter(conds, nil)
	if err != nil {
		return false, err
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, mapMongoError(err)
	}
	return n > 0, nil
}

func (r *MongoRepository[T, P]) findOne(ctx context.Context, filter bson.M, projection []string) (*T, error) {
	if err := checkFields("projection", projection); err != nil {
		return nil, err
	}
	findOpts := options.FindOne()
	if len(projection) > 0 {
		findOpts.SetProjection(projectionDoc(projection))
	}

	var doc T
	if err := r.coll.FindOne(ctx, filter, findOpts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.opts.notFound()
		}
		return nil, mapMongoError(err)
	}
	return &doc, nil
}

func (r *MongoRepository[T, P]) find(ctx context.Context, filter bson.M, findOpts *options.FindOptions) ([]T, error) {
	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, mapMongoError(err)
	}
	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mapMongoError(err)
	}
	return docs, nil
}

func (r *MongoRepository[T, P]) deleteOne(ctx context.Context, filter bson.M) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return false, mapMongoError(err)
	}
	if res.DeletedCount == 0 {
		return false, r.opts.notFound()
	}
	return true, nil
}

func visibleID(id string) bson.M {
	return bson.M{mongoID: id, domain.FieldDeletedAt: nil}
}

// buildFilter merges conds and search into a filter on visible documents.
// Search values match as case-insensitive substrings; regex metacharacters
// in them are matched literally.
func buildFilter(conds domain.Conditions, search domain.SearchSpec) (bson.M, error) {
	merged := mergeFilter(conds, search)
	if err := checkFields("condition", conditionKeys(merged)); err != nil {
		return nil, err
	}

	filter := bson.M{}
	for field, value := range merged {
		filter[mongoField(field)] = value
	}
	for field, pattern := range search {
		filter[mongoField(field)] = primitive.Regex{Pattern: regexp.QuoteMeta(pattern), Options: "i"}
	}
	filter[domain.FieldDeletedAt] = nil
	return filter, nil
}

func mongoField(field string) string {
	if field == domain.FieldID {
		return mongoID
	}
	return field
}

func sortDoc(sort domain.SortSpec) bson.D {
	d := make(bson.D, 0, len(sort))
	for _, s := range sort {
		dir := 1
		if s.Direction == domain.SortDesc {
			dir = -1
		}
		d = append(d, bson.E{Key: mongoField(s.Field), Value: dir})
	}
	return d
}

func projectionDoc(fields []string) bson.D {
	d := make(bson.D, 0, len(fields))
	for _, f := range fields {
		d = append(d, bson.E{Key: mongoField(f), Value: 1})
	}
	return d
}

// mapMongoError converts driver errors to domain errors.
func mapMongoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "already exists", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}
