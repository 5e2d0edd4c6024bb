package repository

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/simp-lee/docbase/internal/domain"
	"github.com/simp-lee/docbase/internal/pkg"
)

// GormRepository implements domain.Repository on a SQL database through GORM.
//
// T is the row type; it must embed domain.BaseDocument (or otherwise carry
// id and deleted_at columns). Soft delete is applied explicitly on the
// deleted_at column rather than through gorm.DeletedAt.
type GormRepository[T any, P domain.DocumentPtr[T]] struct {
	db   *gorm.DB
	opts Options
	now  func() time.Time
}

var _ domain.Repository[domain.User] = (*GormRepository[domain.User, *domain.User])(nil)

// NewGormRepository creates a repository for T backed by db.
func NewGormRepository[T any, P domain.DocumentPtr[T]](db *gorm.DB, opts Options) *GormRepository[T, P] {
	return &GormRepository[T, P]{db: db, opts: opts, now: time.Now}
}

// Create inserts doc, assigning a new id when it has none.
func (r *GormRepository[T, P]) Create(ctx context.Context, doc *T) (*T, error) {
	p := P(doc)
	if p.GetID() == "" {
		p.SetID(uuid.NewString())
	}
	p.Touch(r.now())

	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, mapGormError(err)
	}
	return doc, nil
}

// FindOneByID returns the visible row with the given id.
func (r *GormRepository[T, P]) FindOneByID(ctx context.Context, id string, projection ...string) (*T, error) {
	return r.first(r.visible(ctx).Where(idEq(id)), projection)
}

// FindOneByConditions returns the first visible row matching conds.
func (r *GormRepository[T, P]) FindOneByConditions(ctx context.Context, conds domain.Conditions, projection ...string) (*T, error) {
	tx, err := r.filtered(ctx, conds, nil)
	if err != nil {
		return nil, err
	}
	return r.first(tx, projection)
}

// FindAll returns every visible row matching conds and q.Search, ordered by q.Sort.
func (r *GormRepository[T, P]) FindAll(ctx context.Context, conds domain.Conditions, q domain.QueryOptions, opts domain.FindOptions) ([]T, error) {
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

	tx, err := r.filtered(ctx, conds, parsed.search)
	if err != nil {
		return nil, err
	}
	tx = selectColumns(tx, opts.Projection)
	if opts.Limit > 0 {
		tx = tx.Limit(opts.Limit)
	}

	docs := []T{}
	if err := orderBy(tx, parsed.sort).Find(&docs).Error; err != nil {
		return nil, mapGormError(err)
	}
	return docs, nil
}

// Update applies changes to the visible row with the given id and returns the
// row as stored afterwards.
func (r *GormRepository[T, P]) Update(ctx context.Context, id string, changes map[string]any) (*T, error) {
	values, err := prepareChanges(changes, r.now())
	if err != nil {
		return nil, err
	}

	result := r.visible(ctx).Where(idEq(id)).Updates(values)
	if result.Error != nil {
		return nil, mapGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, r.opts.notFound()
	}
	return r.FindOneByID(ctx, id)
}

// SoftDelete stamps deleted_at on the visible row with the given id.
func (r *GormRepository[T, P]) SoftDelete(ctx context.Context, id string) (bool, error) {
	now := r.now()
	result := r.visible(ctx).Where(idEq(id)).Updates(map[string]any{
		domain.FieldDeletedAt: now,
		domain.FieldUpdatedAt: now,
	})
	return r.affected(result)
}

// PermanentlyDelete removes the visible row with the given id.
func (r *GormRepository[T, P]) PermanentlyDelete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where(idEq(id)).Where(notDeleted).Delete(new(T))
	return r.affected(result)
}

// Purge removes the row with the given id, including a soft-deleted one.
func (r *GormRepository[T, P]) Purge(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where(idEq(id)).Delete(new(T))
	return r.affected(result)
}

// Paginate returns one page of the visible rows matching conds and q.Search.
// The total is counted before limit and offset are applied.
func (r *GormRepository[T, P]) Paginate(ctx context.Context, conds domain.Conditions, q domain.QueryOptions) (*domain.PageResult[T], error) {
	parsed, err := r.opts.parseQuery(q)
	if err != nil {
		return nil, err
	}
	base, err := r.filtered(ctx, conds, parsed.search)
	if err != nil {
		return nil, err
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, mapGormError(err)
	}

	tx := base
	if q.PageSize >= 1 {
		tx = tx.Limit(q.PageSize)
		if q.Page >= 1 {
			tx = tx.Offset(pkg.Offset(q.Page, q.PageSize))
		}
	}

	var docs []T
	if err := orderBy(tx, parsed.sort).Find(&docs).Error; err != nil {
		return nil, mapGormError(err)
	}
	return pkg.NewPageResult(docs, total, q), nil
}

// Exists reports whether any visible row matches conds.
func (r *GormRepository[T, P]) Exists(ctx context.Context, conds domain.Conditions) (bool, error) {
	tx, err := r.filtered(ctx, conds, nil)
	if err != nil {
		return false, err
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return false, mapGormError(err)
	}
	return n > 0, nil
}

// visible starts a query on T restricted to rows that are not soft-deleted.
func (r *GormRepository[T, P]) visible(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(new(T)).Where(notDeleted)
}

// filtered adds equality conditions and case-insensitive substring search to
// a visible query.
func (r *GormRepository[T, P]) filtered(ctx context.Context, conds domain.Conditions, search domain.SearchSpec) (*gorm.DB, error) {
	merged := mergeFilter(conds, search)
	if err := checkFields("condition", conditionKeys(merged)); err != nil {
		return nil, err
	}

	tx := r.visible(ctx)
	if len(merged) > 0 {
		tx = tx.Where(map[string]any(merged))
	}
	for _, field := range pkg.SearchFields(search) {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search[field])) + "%"
		tx = tx.Where(`LOWER(?) LIKE ? ESCAPE '\'`, clause.Column{Name: field}, pattern)
	}
	return tx, nil
}

func (r *GormRepository[T, P]) first(tx *gorm.DB, projection []string) (*T, error) {
	if err := checkFields("projection", projection); err != nil {
		return nil, err
	}
	var doc T
	if err := selectColumns(tx, projection).Take(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, r.opts.notFound()
		}
		return nil, mapGormError(err)
	}
	return &doc, nil
}

func (r *GormRepository[T, P]) affected(result *gorm.DB) (bool, error) {
	if result.Error != nil {
		return false, mapGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return false, r.opts.notFound()
	}
	return true, nil
}

var notDeleted = clause.Eq{Column: clause.Column{Name: domain.FieldDeletedAt}, Value: nil}

func idEq(id string) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: domain.FieldID}, Value: id}
}

// selectColumns limits the loaded columns to projection. The id column is
// always loaded.
func selectColumns(tx *gorm.DB, projection []string) *gorm.DB {
	if len(projection) == 0 {
		return tx
	}
	cols := projection
	if !slices.Contains(cols, domain.FieldID) {
		cols = append([]string{domain.FieldID}, projection...)
	}
	return tx.Select(cols)
}

func orderBy(tx *gorm.DB, sort domain.SortSpec) *gorm.DB {
	for _, s := range sort {
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Name: s.Field},
			Desc:   s.Direction == domain.SortDesc,
		})
	}
	return tx
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// mapGormError converts GORM errors to domain errors.
func mapGormError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "already exists", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations by examining the
// error message. This is needed because not all GORM dialectors translate
// driver-level errors to gorm.ErrDuplicatedKey (e.g. the pure-Go SQLite driver).
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
