package cdr

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// requiredColumns is the canonical column contract of a CDR export, in the
// order used for missing-column reporting.
var requiredColumns = []string{"UniqueID", "Source", "Date", "Status", "Duration"}

// columns is the resolved header layout of one export file.
type columns struct {
	uniqueID int
	source   int
	date     int
	status   int
	duration int

	// dstChannel is -1 when the export has no destination-channel column,
	// which disables extension extraction for the whole file.
	dstChannel int
}

// ProcessFile parses a raw CDR CSV export and collapses its leg rows into one
// CallRecord per call identifier. It returns the derived records together
// with the number of data rows seen in the file.
//
// Failure modes:
// - unreadable CSV: *ProcessingError wrapping the cause
// - missing required columns: *ValidationError listing them
// Either way no records are returned, so a failed file persists nothing.
func ProcessFile(content []byte) ([]CallRecord, int, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, 0, &ProcessingError{cause: err}
	}
	if len(rows) == 0 {
		return nil, 0, &ProcessingError{cause: errors.New("no columns to parse from file")}
	}

	cols, err := resolveColumns(rows[0])
	if err != nil {
		return nil, 0, err
	}

	legs := rows[1:]
	records := groupAndResolve(legs, cols)
	return records, len(legs), nil
}

// resolveColumns matches the header against the column contract,
// case-insensitively and with surrounding whitespace trimmed.
func resolveColumns(header []string) (columns, error) {
	byName := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, seen := byName[key]; !seen {
			byName[key] = i
		}
	}

	var missing []string
	lookup := func(canonical string) int {
		idx, ok := byName[strings.ToLower(canonical)]
		if !ok {
			missing = append(missing, canonical)
			return -1
		}
		return idx
	}

	cols := columns{
		uniqueID: lookup("UniqueID"),
		source:   lookup("Source"),
		date:     lookup("Date"),
		status:   lookup("Status"),
		duration: lookup("Duration"),
	}
	if len(missing) > 0 {
		return columns{}, newMissingColumnsError(missing)
	}

	// The destination-channel column is optional and fuzzy-matched; exports
	// name it "Dst. Channel", "DstChannel", "dst_channel", and so on.
	cols.dstChannel = -1
	for i, name := range header {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "dst") && strings.Contains(lower, "channel") {
			cols.dstChannel = i
			break
		}
	}
	return cols, nil
}

// groupAndResolve partitions leg rows by call identifier and resolves each
// group into at most one CallRecord. Groups are resolved in ascending
// identifier order so output is deterministic regardless of input order.
func groupAndResolve(legs [][]string, cols columns) []CallRecord {
	groups := make(map[string][][]string)
	for _, leg := range legs {
		id := strings.TrimSpace(leg[cols.uniqueID])
		if id == "" {
			continue
		}
		groups[id] = append(groups[id], leg)
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]CallRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := resolveGroup(id, groups[id], cols); ok {
			records = append(records, rec)
		}
	}
	return records
}

// resolveGroup derives a single CallRecord from all legs sharing one call
// identifier. A call may ring multiple extensions or forward through several
// legs; only the leg that actually carried the conversation contributes
// duration and extension.
func resolveGroup(id string, legs [][]string, cols columns) (CallRecord, bool) {
	first := legs[0]

	caller := strings.TrimSpace(first[cols.source])
	// Numeric-to-text conversion upstream leaves a ".0" artifact on numbers.
	caller = strings.TrimSuffix(caller, ".0")

	ts := NormalizeTimestamp(first[cols.date])
	if ts == "" {
		// No usable start time; drop the whole group.
		return CallRecord{}, false
	}

	rec := CallRecord{
		UniqueID:     id,
		Timestamp:    ts,
		CallerNumber: caller,
		Status:       StatusMissed,
	}

	// An answered candidate must carry actual talk time; switches log
	// ANSWERED legs with zero duration when the bridge never completed.
	bestIdx := -1
	bestDuration := 0
	for i, leg := range legs {
		if !strings.EqualFold(strings.TrimSpace(leg[cols.status]), string(StatusAnswered)) {
			continue
		}
		d := ParseDuration(leg[cols.duration])
		if d <= 0 {
			continue
		}
		// Strict > keeps the first occurrence on ties.
		if d > bestDuration {
			bestDuration = d
			bestIdx = i
		}
	}

	if bestIdx >= 0 {
		rec.Status = StatusAnswered
		rec.Duration = bestDuration
		if cols.dstChannel >= 0 {
			rec.Extension = ParseExtension(legs[bestIdx][cols.dstChannel])
		}
	}
	return rec, true
}

// Summary line for upload responses, mirroring what operators expect to see
// in the dashboard.
func summaryMessage(processed, inserted, skipped int) string {
	msg := fmt.Sprintf("Processed %d records, %d unique calls added", processed, inserted)
	if skipped > 0 {
		msg += fmt.Sprintf(", %d duplicates skipped", skipped)
	}
	return msg
}
