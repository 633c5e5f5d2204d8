package entity

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage keeps Page*Size within an int32 row offset.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// PageRequest selects a zero-based page of a listing.
type PageRequest struct {
	Page int
	Size int
}

// Normalize clamps the request to valid bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}

	return p
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one page of a listing.
type Page[T any] struct {
	Content       []T
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
}

// NewPage builds a page and derives the page count.
func NewPage[T any](content []T, req PageRequest, total int64) *Page[T] {
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	if content == nil {
		content = []T{}
	}

	return &Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

// MapPage converts the content of a page, keeping its paging metadata.
func MapPage[T, R any](p *Page[T], fn func(T) R) *Page[R] {
	out := make([]R, 0, len(p.Content))
	for _, item := range p.Content {
		out = append(out, fn(item))
	}

	return &Page[R]{
		Content:       out,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	}
}
