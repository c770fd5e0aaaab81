package model

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListQuery is the paging and search input shared by list endpoints.
type ListQuery struct {
	Page     int
	PageSize int
	Search   string
	Status   string
}

// Normalize clamps paging values into their allowed ranges.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}
