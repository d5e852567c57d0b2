package models

const (
	DefaultSkip  = 0
	DefaultLimit = 100
)

// Pagination is bound from the skip/limit query parameters.
type Pagination struct {
	Skip  *int64 `form:"skip" binding:"omitempty,min=0"`
	Limit *int64 `form:"limit" binding:"omitempty,min=0"`
}

func (p Pagination) Bounds() (skip, limit uint64) {
	skip, limit = DefaultSkip, DefaultLimit
	if p.Skip != nil {
		skip = uint64(*p.Skip)
	}
	if p.Limit != nil {
		limit = uint64(*p.Limit)
	}
	return skip, limit
}
