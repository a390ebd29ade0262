package cdr

import (
	"context"
	"fmt"
)

// RecordStore is the slice of the persistence gateway the ingest pass needs.
// Insert must be atomic per record with uniqueness enforced by the storage
// layer itself; returning inserted=false for a duplicate identifier is a
// defined outcome, not an error.
type RecordStore interface {
	Insert(ctx context.Context, rec CallRecord) (bool, error)
}

// Service runs the upload pass: parse and group a raw export, then persist
// the derived records one at a time. It is stateless apart from the shared
// store and safe for concurrent use.
type Service struct {
	store RecordStore
}

func NewService(store RecordStore) *Service {
	return &Service{store: store}
}

// UploadSummary reports the outcome of one upload pass.
type UploadSummary struct {
	Processed   int    `json:"processed"`
	UniqueCalls int    `json:"unique_calls"`
	Skipped     int    `json:"skipped"`
	Message     string `json:"message"`
}

// Ingest processes a raw CDR CSV export and persists the derived records.
// Duplicate identifiers increment Skipped and leave the stored record
// untouched, so re-uploading a file is idempotent.
//
// A storage failure mid-pass aborts the upload; records committed before the
// failure stay durable (each insert commits on its own), which is safe
// because a retry of the same file skips them as duplicates.
func (s *Service) Ingest(ctx context.Context, content []byte) (UploadSummary, error) {
	if s.store == nil {
		return UploadSummary{}, fmt.Errorf("cdr: store not configured")
	}

	records, totalRows, err := ProcessFile(content)
	if err != nil {
		return UploadSummary{}, err
	}

	inserted := 0
	skipped := 0
	for _, rec := range records {
		ok, err := s.store.Insert(ctx, rec)
		if err != nil {
			return UploadSummary{}, fmt.Errorf("cdr: insert %s: %w", rec.UniqueID, err)
		}
		if ok {
			inserted++
		} else {
			skipped++
		}
	}

	return UploadSummary{
		Processed:   totalRows,
		UniqueCalls: inserted,
		Skipped:     skipped,
		Message:     summaryMessage(totalRows, inserted, skipped),
	}, nil
}
