package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"cdr-analyzer/internal/cdr"
)

// Memory is an in-memory Store for tests and early development. It mirrors
// the Postgres implementation's semantics, including dedup-by-identifier and
// the date-truncated bounds of ListWithCaller.
type Memory struct {
	mu      sync.Mutex
	records []cdr.CallRecord
	byID    map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{byID: map[string]struct{}{}}
}

func (m *Memory) Insert(ctx context.Context, rec cdr.CallRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.byID[rec.UniqueID]; dup {
		return false, nil
	}
	m.byID[rec.UniqueID] = struct{}{}
	m.records = append(m.records, rec)
	return true, nil
}

func (m *Memory) List(ctx context.Context, f Filter) ([]cdr.CallRecord, int, error) {
	f = f.normalized()

	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]cdr.CallRecord, 0)
	for _, rec := range m.records {
		if f.From != "" && rec.Timestamp < f.From {
			continue
		}
		if f.To != "" && rec.Timestamp > f.To {
			continue
		}
		if f.Search != "" && !strings.Contains(rec.CallerNumber, f.Search) {
			continue
		}
		matched = append(matched, rec)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp > matched[j].Timestamp
	})

	total := len(matched)
	start := (f.Page - 1) * f.Limit
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *Memory) ClearAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.records))
	m.records = nil
	m.byID = map[string]struct{}{}
	return n, nil
}

func (m *Memory) ListRange(ctx context.Context, from, to string) ([]cdr.CallRecord, error) {
	return m.filtered(func(rec cdr.CallRecord) bool {
		return rec.Timestamp >= from && rec.Timestamp <= to
	}), nil
}

func (m *Memory) ListAnswered(ctx context.Context, from, to string) ([]cdr.CallRecord, error) {
	return m.filtered(func(rec cdr.CallRecord) bool {
		return rec.Status == cdr.StatusAnswered &&
			rec.Extension != "" &&
			rec.Timestamp >= from && rec.Timestamp <= to
	}), nil
}

func (m *Memory) ListWithCaller(ctx context.Context, from, to string) ([]cdr.CallRecord, error) {
	fromDate, toDate := dateOnly(from), dateOnly(to)
	return m.filtered(func(rec cdr.CallRecord) bool {
		d := dateOnly(rec.Timestamp)
		return rec.CallerNumber != "" && d >= fromDate && d <= toDate
	}), nil
}

func (m *Memory) filtered(keep func(cdr.CallRecord) bool) []cdr.CallRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]cdr.CallRecord, 0)
	for _, rec := range m.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}
