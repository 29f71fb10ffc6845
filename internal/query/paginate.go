package query

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// Page is one slice of a filtered, sorted sequence.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Paginate returns items[(page-1)*limit : (page-1)*limit+limit]. page and
// limit below 1 are treated as 1. A page past the end is empty, not an error.
func Paginate[T any](items []T, page, limit int) Page[T] {
	page = max(page, 1)
	limit = max(limit, 1)

	total := len(items)
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	// (page-1)*limit only when the page starts inside items, so huge page
	// or limit values cannot overflow.
	start := total
	if page-1 < totalPages {
		start = (page - 1) * limit
	}
	end := start + min(limit, total-start)

	out := make([]T, end-start)
	copy(out, items[start:end])

	return Page[T]{
		Items: out,
		Pagination: Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalItems:  total,
			HasNext:     page < totalPages,
			HasPrev:     page > 1,
		},
	}
}
