package domain

// Cursor describes a paged list's position. It is recomputed wholesale on
// every successful fetch, never merged incrementally.
type Cursor struct {
	Page     int
	PageSize int
	Total    int
	HasNext  bool
	HasPrev  bool
}

// ResolveCursor computes a cursor from a fetch response. totalKnown reports
// whether the backend included a total count; without one HasNext stays
// conservatively false.
func ResolveCursor(page, pageSize, total int, totalKnown bool) Cursor {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	c := Cursor{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasPrev:  page > 1,
	}
	if totalKnown {
		c.HasNext = page < c.TotalPages()
	}
	return c
}

// TotalPages returns the page count implied by Total and PageSize, never
// less than 1.
func (c Cursor) TotalPages() int {
	if c.PageSize <= 0 {
		return 1
	}
	pages := (c.Total + c.PageSize - 1) / c.PageSize
	if pages < 1 {
		return 1
	}
	return pages
}
