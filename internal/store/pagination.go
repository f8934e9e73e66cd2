package store

import "math"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxOffset bounds the rows skipped to reach a page.
	MaxOffset = math.MaxInt32
)

type Pagination struct {
	CurrentPage int  `json:"current_page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	TotalCount  int  `json:"total_count"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
	NextPage    *int `json:"next_page"`
	PrevPage    *int `json:"prev_page"`
}

func Paginate(totalCount, page, pageSize int) Pagination {
	p := Pagination{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalCount:  totalCount,
	}
	if pageSize > 0 {
		p.TotalPages = (totalCount + pageSize - 1) / pageSize
	}
	p.HasNext = page < p.TotalPages
	p.HasPrev = page > 1
	if p.HasNext {
		next := page + 1
		p.NextPage = &next
	}
	if p.HasPrev {
		prev := page - 1
		p.PrevPage = &prev
	}
	return p
}

// normalizePage applies the defaults and bounds to a requested page.
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// offsetInRange reports whether the first row of page fits under MaxOffset.
func offsetInRange(page, pageSize int) bool {
	return page-1 <= MaxOffset/pageSize
}
