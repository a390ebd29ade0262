// Package store is the persistence gateway for derived call records.
//
// Uniqueness is enforced by the storage layer itself (a single constrained
// insert), never by a check-then-write, so concurrent duplicate uploads
// cannot race each other into double rows.
package store

import (
	"context"

	"cdr-analyzer/internal/cdr"
)

// Filter narrows a List read. All fields are optional and AND-combined.
type Filter struct {
	// From and To are inclusive timestamp bounds, compared lexicographically
	// against the stored ISO-8601 timestamp.
	From string
	To   string

	// Search is a substring match on caller_number.
	Search string

	// Page is 1-based; Limit is the page size.
	Page  int
	Limit int
}

func (f Filter) normalized() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}
	return f
}

// Store is the full gateway contract consumed by ingestion, reporting and the
// HTTP boundary.
type Store interface {
	// Insert adds a record keyed by its unique id. Returns false without
	// error when the identifier already exists.
	Insert(ctx context.Context, rec cdr.CallRecord) (bool, error)

	// List returns one page of records ordered by timestamp descending,
	// plus the total count across the whole filtered set.
	List(ctx context.Context, f Filter) ([]cdr.CallRecord, int, error)

	// ClearAll irreversibly removes every record and reports how many.
	ClearAll(ctx context.Context) (int64, error)

	// ListRange returns records with from <= timestamp <= to, comparing the
	// full timestamp strings.
	ListRange(ctx context.Context, from, to string) ([]cdr.CallRecord, error)

	// ListAnswered returns answered records that carry an extension, bounded
	// like ListRange.
	ListAnswered(ctx context.Context, from, to string) ([]cdr.CallRecord, error)

	// ListWithCaller returns records with a non-empty caller number whose
	// calendar date falls inside the date-truncated bounds. Note the bound
	// semantics differ from ListRange on purpose; see DESIGN.md.
	ListWithCaller(ctx context.Context, from, to string) ([]cdr.CallRecord, error)
}

// dateOnly truncates an ISO-8601 timestamp to its calendar date. Values too
// short to hold a date (possible with unnormalized timestamps) pass through.
func dateOnly(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}
