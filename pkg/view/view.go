// Package view derives displayed pages from store snapshots. The pipeline
// runs in a fixed order: kind filter, date range, search, sort, paginate.
package view

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Spec describes how a row type is filtered, searched and sorted.
type Spec[T any] struct {
	PageSize int
	// MatchKind reports whether row belongs to kind. Kind "" matches all.
	MatchKind func(row T, kind string) bool
	// Date returns the timestamp used by the date-range stage. Nil disables it.
	Date func(row T) time.Time
	// Fields returns the text searched by the search stage.
	Fields func(row T) []string
	// Less orders rows. Nil keeps the snapshot order.
	Less func(a, b T) bool
}

// Params are the user-controlled inputs of the pipeline.
type Params struct {
	Kind   string
	Start  *time.Time
	End    *time.Time
	Search string
	Page   int
}

// Page is one rendered page.
type Page[T any] struct {
	Rows       []T
	Page       int
	TotalPages int
	// Matched counts rows after filtering, before pagination.
	Matched int
	// Window is the set of page numbers to offer for navigation.
	Window []int
}

// Apply runs the pipeline over rows. It does not modify rows and returns the
// same page for the same inputs.
func Apply[T any](spec Spec[T], rows []T, p Params) Page[T] {
	filtered := Filter(spec, rows, p)

	size := spec.PageSize
	if size <= 0 {
		size = len(filtered)
		if size == 0 {
			size = 1
		}
	}

	total := TotalPages(len(filtered), size)
	page := clamp(p.Page, total)

	start := (page - 1) * size
	end := start + size
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return Page[T]{
		Rows:       filtered[start:end],
		Page:       page,
		TotalPages: total,
		Matched:    len(filtered),
		Window:     PageWindow(page, total),
	}
}

// Filter runs every stage except pagination and returns a new slice.
func Filter[T any](spec Spec[T], rows []T, p Params) []T {
	search := strings.ToLower(strings.TrimSpace(p.Search))
	var endOfDay time.Time
	if p.End != nil {
		endOfDay = EndOfDay(*p.End)
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if p.Kind != "" && spec.MatchKind != nil && !spec.MatchKind(row, p.Kind) {
			continue
		}
		if spec.Date != nil {
			d := spec.Date(row)
			if p.Start != nil && d.Before(*p.Start) {
				continue
			}
			if p.End != nil && d.After(endOfDay) {
				continue
			}
		}
		if search != "" && !matches(spec.Fields, row, search) {
			continue
		}
		out = append(out, row)
	}

	if spec.Less != nil {
		sort.SliceStable(out, func(i, j int) bool { return spec.Less(out[i], out[j]) })
	}
	return out
}

func matches[T any](fields func(T) []string, row T, search string) bool {
	if fields == nil {
		return true
	}
	for _, f := range fields(row) {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// EndOfDay returns the last millisecond of t's day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// TotalPages returns the number of pages for n rows; at least one.
func TotalPages(n, size int) int {
	if n <= 0 || size <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// PageWindow returns the page numbers to show around current: every page when
// there are at most seven, otherwise five pages at either edge or three
// centred on current.
func PageWindow(current, total int) []int {
	if total <= 0 {
		return nil
	}
	current = clamp(current, total)

	var from, to int
	switch {
	case total <= 7:
		from, to = 1, total
	case current <= 3:
		from, to = 1, 5
	case current >= total-2:
		from, to = total-4, total
	default:
		from, to = current-1, current+1
	}

	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func clamp(page, total int) int {
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// View holds the parameters for one list on screen and recomputes its page
// on demand. Every filter change returns to the first page.
type View[T any] struct {
	spec Spec[T]

	mu     sync.RWMutex
	params Params
}

// New creates a view on page 1.
func New[T any](spec Spec[T]) *View[T] {
	return &View[T]{spec: spec, params: Params{Page: 1}}
}

// Params returns the current parameters.
func (v *View[T]) Params() Params {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.params
}

// SetKind sets the type or category filter.
func (v *View[T]) SetKind(kind string) {
	v.update(func(p *Params) { p.Kind = kind })
}

// SetDateRange sets the inclusive date range. Nil ends are open.
func (v *View[T]) SetDateRange(start, end *time.Time) {
	v.update(func(p *Params) {
		p.Start = start
		p.End = end
	})
}

// SetSearch sets the free-text search.
func (v *View[T]) SetSearch(search string) {
	v.update(func(p *Params) { p.Search = search })
}

// Reset clears every filter.
func (v *View[T]) Reset() {
	v.update(func(p *Params) { *p = Params{} })
}

// SetPage moves to page; Compute clamps it to the available pages.
func (v *View[T]) SetPage(page int) {
	v.mu.Lock()
	v.params.Page = page
	v.mu.Unlock()
}

// Compute returns the current page of rows. The stored page is clamped to
// the result so paging past the end stays on the last page.
func (v *View[T]) Compute(rows []T) Page[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	page := Apply(v.spec, rows, v.params)
	v.params.Page = page.Page
	return page
}

func (v *View[T]) update(fn func(*Params)) {
	v.mu.Lock()
	fn(&v.params)
	v.params.Page = 1
	v.mu.Unlock()
}
