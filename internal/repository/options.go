// Package repository provides the storage adapters behind domain.Repository.
package repository

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/simp-lee/docbase/internal/domain"
	"github.com/simp-lee/docbase/internal/pkg"
)

// Options configures a repository adapter.
type Options struct {
	// Name is the document type name used in error messages, e.g. "User".
	Name string
	// SortFields lists the fields accepted in QueryOptions.Sort.
	SortFields []string
	// SearchFields lists the fields accepted in QueryOptions.Search.
	SearchFields []string
}

// query is a parsed and checked QueryOptions.
type query struct {
	sort   domain.SortSpec
	search domain.SearchSpec
}

// parseQuery parses q.Sort and q.Search and checks both against the allow-lists.
func (o Options) parseQuery(q domain.QueryOptions) (query, error) {
	sort, err := pkg.ParseSort(q.Sort)
	if err != nil {
		return query{}, err
	}
	if err := pkg.CheckAllowed("sort", pkg.SortFields(sort), o.SortFields); err != nil {
		return query{}, err
	}

	search, err := pkg.ParseSearch(q.Search)
	if err != nil {
		return query{}, err
	}
	if err := pkg.CheckAllowed("search", pkg.SearchFields(search), o.SearchFields); err != nil {
		return query{}, err
	}

	return query{sort: sort, search: search}, nil
}

func (o Options) notFound() error {
	return domain.NotFoundf("%s not found", o.name())
}

func (o Options) name() string {
	if o.Name == "" {
		return "document"
	}
	return o.Name
}

// errPaginatedFindAll is returned when FindAll is given a page request.
var errPaginatedFindAll = domain.NewAppError(domain.CodeInvalidUsage,
	"FindAll does not paginate; use Paginate for page and page_size", nil)

// checkFields reports an invalid-usage error for any name that is not a plain
// field name. Conditions and projections come from code, not from requests.
func checkFields(kind string, names []string) error {
	for _, n := range names {
		if !pkg.ValidFieldName(n) {
			return domain.NewAppError(domain.CodeInvalidUsage, fmt.Sprintf("invalid %s field name %q", kind, n), nil)
		}
	}
	return nil
}

// protectedFields may not be changed through Update.
var protectedFields = []string{domain.FieldID, "_id", domain.FieldCreatedAt, domain.FieldDeletedAt}

// prepareChanges validates an Update change set and returns a copy stamped
// with updated_at.
func prepareChanges(changes map[string]any, now time.Time) (map[string]any, error) {
	out := make(map[string]any, len(changes)+1)
	for k, v := range changes {
		if slices.Contains(protectedFields, k) {
			return nil, domain.Validationf("field %q cannot be updated", k)
		}
		if !pkg.ValidFieldName(k) {
			return nil, domain.Validationf("invalid update field name %q", k)
		}
		out[k] = v
	}
	out[domain.FieldUpdatedAt] = now
	return out, nil
}

// mergeFilter combines equality conditions with search patterns. A field
// present in both is matched by its search pattern.
func mergeFilter(conds domain.Conditions, search domain.SearchSpec) domain.Conditions {
	out := maps.Clone(conds)
	if out == nil {
		out = domain.Conditions{}
	}
	for f := range search {
		delete(out, f)
	}
	return out
}

func conditionKeys(conds domain.Conditions) []string {
	keys := make([]string, 0, len(conds))
	for k := range conds {
		keys = append(keys, k)
	}
	return keys
}
