package pipeline

// DefaultPageSize is applied when a page request carries no usable size.
const DefaultPageSize = 50

// PageRequest selects a 1-indexed window of fixed size.
type PageRequest struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// PageResult is one page of a filtered-and-sorted collection plus the total
// count before pagination.
type PageResult struct {
	Items []Record `json:"items"`
	Total int      `json:"total"`
}

// TotalPages returns the page count for a given window size.
func (r PageResult) TotalPages(size int) int {
	if size <= 0 {
		return 0
	}
	return (r.Total + size - 1) / size
}

// Paginate slices records into the requested window. Out-of-range page
// numbers are never an error: a page past the end yields empty items with
// the unchanged total, and callers disable navigation from Total rather
// than relying on a rejection here.
func Paginate(records []Record, req PageRequest) PageResult {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Size <= 0 {
		req.Size = DefaultPageSize
	}

	total := len(records)
	start := (req.Page - 1) * req.Size
	if start > total {
		start = total
	}
	end := start + req.Size
	if end > total {
		end = total
	}

	items := make([]Record, end-start)
	copy(items, records[start:end])
	return PageResult{Items: items, Total: total}
}
