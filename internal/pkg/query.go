package pkg

import (
	"regexp"
	"slices"
	"strings"

	"github.com/simp-lee/docbase/internal/domain"
)

const (
	segmentSeparator = ","
	pairSeparator    = ":"
)

// validFieldName matches only alphanumeric characters and underscores.
var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidFieldName reports whether name is safe to use as a storage field name.
func ValidFieldName(name string) bool {
	return validFieldName.MatchString(name)
}

// ParseSort converts "field:asc,field2:desc" into an ordered SortSpec.
//
// Empty input yields an empty spec. Empty segments (e.g. a trailing comma) are
// skipped. Any malformed segment rejects the whole string with a validation
// error: a segment must hold exactly one colon, a valid field name, and a
// direction of "asc" or "desc" (case-insensitive). A field may appear once.
// Commas and colons cannot be escaped.
func ParseSort(s string) (domain.SortSpec, error) {
	spec := domain.SortSpec{}
	seen := make(map[string]struct{})

	for _, segment := range strings.Split(s, segmentSeparator) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		field, value, err := splitPair(segment, "sort")
		if err != nil {
			return nil, err
		}

		direction := domain.SortDirection(strings.ToLower(value))
		if direction != domain.SortAsc && direction != domain.SortDesc {
			return nil, domain.Validationf("invalid sort direction %q for field %q: must be asc or desc", value, field)
		}
		if _, dup := seen[field]; dup {
			return nil, domain.Validationf("duplicate sort field %q", field)
		}
		seen[field] = struct{}{}

		spec = append(spec, domain.SortField{Field: field, Direction: direction})
	}

	return spec, nil
}

// ParseSearch converts "field:value,field2:value2" into a SearchSpec.
//
// It follows the same segment rules as ParseSort; the value is taken verbatim
// after trimming surrounding whitespace. When a field repeats, the last value wins.
func ParseSearch(s string) (domain.SearchSpec, error) {
	spec := domain.SearchSpec{}

	for _, segment := range strings.Split(s, segmentSeparator) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		field, value, err := splitPair(segment, "search")
		if err != nil {
			return nil, err
		}
		spec[field] = value
	}

	return spec, nil
}

// CheckAllowed returns a validation error naming the first field in fields
// that is not in allowed.
func CheckAllowed(kind string, fields []string, allowed []string) error {
	for _, f := range fields {
		if !slices.Contains(allowed, f) {
			return domain.Validationf("%s field %q is not allowed", kind, f)
		}
	}
	return nil
}

// SortFields returns the field names of spec in order.
func SortFields(spec domain.SortSpec) []string {
	fields := make([]string, 0, len(spec))
	for _, f := range spec {
		fields = append(fields, f.Field)
	}
	return fields
}

// SearchFields returns the field names of spec in sorted order.
func SearchFields(spec domain.SearchSpec) []string {
	fields := make([]string, 0, len(spec))
	for f := range spec {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

func splitPair(segment, kind string) (string, string, error) {
	if strings.Count(segment, pairSeparator) != 1 {
		return "", "", domain.Validationf("malformed %s segment %q: expected field:value", kind, segment)
	}
	field, value, _ := strings.Cut(segment, pairSeparator)
	field = strings.TrimSpace(field)
	value = strings.TrimSpace(value)

	if field == "" || value == "" {
		return "", "", domain.Validationf("malformed %s segment %q: expected field:value", kind, segment)
	}
	if !ValidFieldName(field) {
		return "", "", domain.Validationf("invalid %s field name %q", kind, field)
	}
	return field, value, nil
}
