package shared

// Filter defines common listing criteria for repository queries
type Filter struct {
	// Page number (1-indexed); 0 means no paging
	Page int
	// PageSize is the number of items per page
	PageSize int
	// SortBy is the column to sort by (repository validates against a whitelist)
	SortBy string
	// SortDesc sorts in descending order when true
	SortDesc bool
	// IncludeDeleted includes soft-deleted rows when true
	IncludeDeleted bool
}

// Offset returns the row offset for the current page
func (f Filter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Limit returns the page size, or 0 when paging is disabled
func (f Filter) Limit() int {
	if f.Page <= 0 || f.PageSize <= 0 {
		return 0
	}
	return f.PageSize
}
