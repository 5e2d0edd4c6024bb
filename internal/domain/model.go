package domain

import "time"

// BaseDocument is the common base struct for all stored documents.
// It replaces gorm.Model to avoid the implicit soft delete behavior of
// gorm.DeletedAt: visibility is filtered explicitly by the repositories so
// that both storage backends follow the same rules.
type BaseDocument struct {
	ID        string     `bson:"_id" gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at" gorm:"index" json:"deleted_at,omitempty"`
}

// GetID returns the document id.
func (d *BaseDocument) GetID() string { return d.ID }

// SetID assigns the document id.
func (d *BaseDocument) SetID(id string) { d.ID = id }

// Touch stamps UpdatedAt, and CreatedAt when it is still zero.
func (d *BaseDocument) Touch(now time.Time) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
}

// IsDeleted reports whether the document has been soft-deleted.
func (d *BaseDocument) IsDeleted() bool { return d.DeletedAt != nil }

// Document is implemented by pointers to storable records, usually through an
// embedded BaseDocument.
type Document interface {
	GetID() string
	SetID(id string)
	Touch(now time.Time)
	IsDeleted() bool
}

// DocumentPtr constrains P to be *T and a Document. Repositories use it to
// operate on a value type T while calling Document methods on its pointer.
type DocumentPtr[T any] interface {
	*T
	Document
}

// Storage field names shared by every document.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
	FieldDeletedAt = "deleted_at"
)

// Conditions holds equality predicates keyed by storage field name.
type Conditions map[string]any

// QueryOptions holds pagination, sorting, and search parameters.
//
// Page is 1-based. A zero Page or PageSize means the value was not supplied.
// Sort has the form "field:asc,field2:desc" and Search "field:value,field2:value".
type QueryOptions struct {
	Page     int
	PageSize int
	Sort     string
	Search   string
}

// Paginated reports whether both Page and PageSize were supplied.
func (q QueryOptions) Paginated() bool {
	return q.Page > 0 && q.PageSize > 0
}

// SortDirection is the order applied to a sort field.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortField is one (field, direction) pair of a SortSpec.
type SortField struct {
	Field     string
	Direction SortDirection
}

// SortSpec is an ordered list of sort fields; earlier fields take precedence.
type SortSpec []SortField

// SearchSpec maps a field name to a case-insensitive substring pattern.
type SearchSpec map[string]string

// FindOptions holds extra options for non-paginated finders.
// A zero Limit means no limit; an empty Projection returns every field.
type FindOptions struct {
	Projection []string
	Limit      int
}

// PageMeta describes the page a result slice belongs to.
// CurrentPage and PageSize are -1 when the request was not paginated.
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	Total       int64 `json:"total"`
}

// PageResult pairs a result slice with its page metadata.
type PageResult[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"pagination"`
}
