package filter

import (
	"net/url"
	"strconv"

	"github.com/siahsang/conduit/internal/validator"
)

const (
	DefaultLimit  = 20
	DefaultOffset = 0

	MaxLimit  = 100
	MaxOffset = 10_000_000
)

// Filter is a page window over a listing ordered newest first.
type Filter struct {
	Limit  int64
	Offset int64
}

func NewFilter(limit, offset int64) Filter {
	return Filter{
		Limit:  limit,
		Offset: offset,
	}
}

func DefaultFilter() Filter {
	return NewFilter(DefaultLimit, DefaultOffset)
}

// FromQuery reads limit and offset from qs, using the defaults for absent keys,
// and records problems in v.
func FromQuery(qs url.Values, v *validator.Validator) Filter {
	filters := NewFilter(
		readInt(qs, "limit", DefaultLimit, v),
		readInt(qs, "offset", DefaultOffset, v),
	)
	ValidateFilters(filters, v)
	return filters
}

func ValidateFilters(filters Filter, v *validator.Validator) {
	v.Check(filters.Limit > 0, "limit", "must be greater than 0")
	v.Check(filters.Limit <= MaxLimit, "limit", "must be a maximum of 100")
	v.Check(filters.Offset >= 0, "offset", "must be greater than or equal to 0")
	v.Check(filters.Offset <= MaxOffset, "offset", "must be a maximum of 10_000_000")
}

func readInt(qs url.Values, key string, defaultValue int64, v *validator.Validator) int64 {
	s := qs.Get(key)
	if s == "" {
		return defaultValue
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		v.AddError(key, "must be an integer value")
		return defaultValue
	}
	return i
}
