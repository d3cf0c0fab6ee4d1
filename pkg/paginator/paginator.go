// Package paginator implements forgiving page arithmetic: malformed page
// numbers fall back to the first page and numbers past the end clamp to the
// last one.
package paginator

import "strconv"

// Page describes one page of a result set
type Page struct {
	Number     int   `json:"number"`
	Size       int   `json:"size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_previous"`
}

// Offset is the index of the first item on the page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// NumPages returns how many pages total items fill; an empty set still has one page
func NumPages(total int64, size int) int {
	if size < 1 {
		size = 1
	}
	if total <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Get resolves a raw page parameter against the total item count
func Get(raw string, total int64, size int) Page {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		n = 1
	}
	return At(n, total, size)
}

// At builds the page for a numeric page number, clamped to the valid range
func At(number int, total int64, size int) Page {
	if size < 1 {
		size = 1
	}
	pages := NumPages(total, size)
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}
	return Page{
		Number:     number,
		Size:       size,
		TotalItems: total,
		TotalPages: pages,
		HasNext:    number < pages,
		HasPrev:    number > 1,
	}
}

// PageOf returns the 1-based page holding the item at a 0-based position
func PageOf(position, size int) int {
	if size < 1 {
		size = 1
	}
	if position < 0 {
		return 1
	}
	return position/size + 1
}
