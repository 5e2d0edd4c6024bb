package domain

import "context"

// Repository is the data access contract shared by every document type.
//
// Default reads never return soft-deleted documents. Lookups that miss, or
// that target a soft-deleted document, fail with a NotFound AppError.
// Storage failures are returned wrapped as CodeInternal; callers can still
// reach the driver error with errors.Is.
type Repository[T any] interface {
	// Create persists doc, assigning an id when it has none.
	Create(ctx context.Context, doc *T) (*T, error)

	// FindOneByID returns the visible document with the given id.
	// A non-empty projection limits the fields that are loaded.
	FindOneByID(ctx context.Context, id string, projection ...string) (*T, error)

	// FindOneByConditions returns the first visible document matching conds.
	FindOneByConditions(ctx context.Context, conds Conditions, projection ...string) (*T, error)

	// FindAll returns every visible document matching conds, searched and
	// sorted by q. It is the non-paginated path: a paginated q fails with
	// CodeInvalidUsage.
	FindAll(ctx context.Context, conds Conditions, q QueryOptions, opts FindOptions) ([]T, error)

	// Update applies changes to the visible document with the given id and
	// returns it as stored afterwards. It fails with NotFound when no visible
	// document matches.
	Update(ctx context.Context, id string, changes map[string]any) (*T, error)

	// SoftDelete stamps deleted_at on the visible document with the given id.
	SoftDelete(ctx context.Context, id string) (bool, error)

	// PermanentlyDelete removes the visible document with the given id.
	// Soft-deleted documents are not visible and therefore fail with NotFound.
	PermanentlyDelete(ctx context.Context, id string) (bool, error)

	// Purge removes the document with the given id whether or not it has been
	// soft-deleted. It is the only way to remove a soft-deleted document.
	Purge(ctx context.Context, id string) (bool, error)

	// Paginate counts the visible documents matching conds and q.Search, then
	// returns the requested page of them.
	Paginate(ctx context.Context, conds Conditions, q QueryOptions) (*PageResult[T], error)

	// Exists reports whether any visible document matches conds.
	Exists(ctx context.Context, conds Conditions) (bool, error)
}
