package pkg

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/docbase/internal/domain"
)

// Unpaginated is reported as CurrentPage and PageSize when no page was requested.
const Unpaginated = -1

const (
	// MaxPage caps page on incoming requests.
	MaxPage = 1_000_000
	// MaxPageSize caps page_size on incoming requests.
	MaxPageSize = 100
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterStructValidation(validateQueryOptionsRequest, QueryOptionsRequest{})
	}
}

// QueryOptionsRequest binds the pagination, sorting, and search query parameters.
// Upper bounds come from MaxPage and MaxPageSize.
type QueryOptionsRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1"`
	Sort     string `form:"sort" binding:"omitempty,max=256"`
	Search   string `form:"search" binding:"omitempty,max=512"`
}

func validateQueryOptionsRequest(sl validator.StructLevel) {
	r := sl.Current().Interface().(QueryOptionsRequest)
	if r.Page > MaxPage {
		sl.ReportError(r.Page, "Page", "Page", "max", strconv.Itoa(MaxPage))
	}
	if r.PageSize > MaxPageSize {
		sl.ReportError(r.PageSize, "PageSize", "PageSize", "max", strconv.Itoa(MaxPageSize))
	}
}

// QueryOptions converts the request into domain.QueryOptions.
func (r QueryOptionsRequest) QueryOptions() domain.QueryOptions {
	return domain.QueryOptions{
		Page:     r.Page,
		PageSize: r.PageSize,
		Sort:     r.Sort,
		Search:   r.Search,
	}
}

// BindQueryOptions extracts pagination, sorting, and search parameters from the
// query string. Absent page and page_size are left at zero. On invalid input it
// writes a 400 response and returns false.
func BindQueryOptions(c *gin.Context) (domain.QueryOptions, bool) {
	var req QueryOptionsRequest
	if !BindQueryAndValidate(c, &req) {
		return domain.QueryOptions{}, false
	}
	return req.QueryOptions(), true
}

// NewPageMeta builds page metadata from a total count and the requested page
// and page size. Values below 1 are reported as Unpaginated.
func NewPageMeta(total int64, page, pageSize int) domain.PageMeta {
	meta := domain.PageMeta{
		CurrentPage: Unpaginated,
		PageSize:    Unpaginated,
		Total:       total,
	}
	if page >= 1 {
		meta.CurrentPage = page
	}
	if pageSize >= 1 {
		meta.PageSize = pageSize
	}
	return meta
}

// Offset returns the number of records to skip for the given page, or 0 when
// page or pageSize is below 1. It saturates at math.MaxInt instead of
// overflowing, so an out-of-range page yields an empty result.
func Offset(page, pageSize int) int {
	if page < 1 || pageSize < 1 {
		return 0
	}
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}

// NewPageResult pairs data with page metadata. A nil slice is replaced with an
// empty one so that it serializes as [].
func NewPageResult[T any](data []T, total int64, q domain.QueryOptions) *domain.PageResult[T] {
	if data == nil {
		data = []T{}
	}
	return &domain.PageResult[T]{
		Data: data,
		Meta: NewPageMeta(total, q.Page, q.PageSize),
	}
}
