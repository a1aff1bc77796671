package pagination

import (
	"fmt"

	"github.com/kailas-cloud/b2bsearch/internal/domain"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/result"
)

// MaxWindow bounds from+size for offset paging. Deeper pages need a cursor.
const MaxWindow = 10000

// Selector is the incoming page choice: an offset or a cursor.
type Selector struct {
	from   int
	cursor Cursor
}

// NewSelector validates an incoming page choice for a page of size results.
// A cursor takes precedence; from is then ignored.
func NewSelector(from int, cursor Cursor, size int) (Selector, error) {
	if !cursor.IsZero() {
		return Selector{cursor: cursor}, nil
	}
	if from < 0 {
		return Selector{}, domain.NewValidationError("from", "must be >= 0")
	}
	if from+size > MaxWindow {
		return Selector{}, domain.NewValidationError("from",
			fmt.Sprintf("from+size must be <= %d, use searchAfter for deeper pages", MaxWindow))
	}
	return Selector{from: from}, nil
}

// From returns the offset. Always 0 when a cursor is set.
func (s Selector) From() int { return s.from }

// Cursor returns the incoming cursor.
func (s Selector) Cursor() Cursor { return s.cursor }

// Params are the paging parameters handed to the retrieval backend.
type Params struct {
	Size        int
	From        int
	SearchAfter []any
}

// Resolve converts a selector into backend parameters.
func Resolve(size int, sel Selector) Params {
	if !sel.cursor.IsZero() {
		return Params{Size: size, SearchAfter: sel.cursor.Values()}
	}
	return Params{Size: size, From: sel.from}
}

// Next returns the cursor for the page after hits. It is set only when the page
// is full; a short page means there is nothing more to fetch.
func Next(hits []result.Hit, size int) Cursor {
	if size <= 0 || len(hits) != size {
		return Cursor{}
	}
	last := hits[len(hits)-1]
	return fromSortKey(last.SortKey())
}

// Info is the pagination block of a response. Either From/TotalPages or
// NextCursor/HasMore is populated.
type Info struct {
	Size       int
	From       *int
	TotalPages *int
	NextCursor Cursor
	HasMore    *bool
}

// CursorMode reports whether the block describes cursor paging.
func (i Info) CursorMode() bool { return i.HasMore != nil }

// Describe builds the pagination block. Cursor paging is reported when the
// request carried a cursor or the response issues one.
func Describe(size int, sel Selector, next Cursor, total int64) Info {
	info := Info{Size: size}
	if !sel.cursor.IsZero() || !next.IsZero() {
		hasMore := !next.IsZero()
		info.NextCursor = next
		info.HasMore = &hasMore
		return info
	}

	from := sel.from
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	info.From = &from
	info.TotalPages = &pages
	return info
}
