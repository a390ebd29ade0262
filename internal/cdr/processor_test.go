package cdr

import (
	"errors"
	"strings"
	"testing"
)

func mustProcess(t *testing.T, csvData string) ([]CallRecord, int) {
	t.Helper()
	records, total, err := ProcessFile([]byte(csvData))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return records, total
}

func TestProcessFile_HeaderOnly(t *testing.T) {
	records, total := mustProcess(t, "UniqueID,Source,Date,Status,Duration\n")
	if len(records) != 0 || total != 0 {
		t.Fatalf("expected no records for header-only file, got %d records, total %d", len(records), total)
	}
}

func TestProcessFile_SingleAnsweredRow(t *testing.T) {
	data := "UniqueID,Source,Date,Status,Duration,Dst. Channel\n" +
		"1765268086.31589,09121234567,2024-12-09 14:30:00,ANSWERED,45s,SIP/209-001\n"
	records, total := mustProcess(t, data)
	if total != 1 || len(records) != 1 {
		t.Fatalf("expected 1 record from 1 row, got %d from %d", len(records), total)
	}
	rec := records[0]
	if rec.Status != StatusAnswered || rec.Duration != 45 || rec.Extension != "209" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Timestamp != "2024-12-09T14:30:00" {
		t.Fatalf("unexpected timestamp %q", rec.Timestamp)
	}
}

func TestProcessFile_MultiLegCollapsesToOneRecord(t *testing.T) {
	data := "UniqueID,Source,Date,Status,Duration,Dst. Channel\n" +
		"call-1,100,2024-12-09 10:00:00,RINGING,0,SIP/201-001\n" +
		"call-1,100,2024-12-09 10:00:00,ANSWERED,30s,SIP/202-001\n" +
		"call-1,100,2024-12-09 10:00:00,ANSWERED,2min 30s,SIP/203-001\n"
	records, total := mustProcess(t, data)
	if total != 3 || len(records) != 1 {
		t.Fatalf("expected 1 record from 3 legs, got %d from %d", len(records), total)
	}
	rec := records[0]
	if rec.Status != StatusAnswered {
		t.Fatalf("expected ANSWERED, got %s", rec.Status)
	}
	// Longest leg carried the conversation.
	if rec.Duration != 150 || rec.Extension != "203" {
		t.Fatalf("expected winning leg 203/150s, got %s/%d", rec.Extension, rec.Duration)
	}
}

func TestProcessFile_AnsweredZeroDurationIsMissed(t *testing.T) {
	data := "UniqueID,Source,Date,Status,Duration\n" +
		"call-1,100,2024-12-09 10:00:00,ANSWERED,0\n"
	records, _ := mustProcess(t, data)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Status != StatusMissed || rec.Duration != 0 || rec.Extension != "" {
		t.Fatalf("zero-duration answered leg should resolve MISSED, got %+v", rec)
	}
}

func TestProcessFile_RingGroupAnswered(t *testing.T) {
	data := "UniqueID,Source,Date,Status,Duration,Dst. Channel\n" +
		"rg-1,555,2024-12-09 09:00:00,NO ANSWER,0,SIP/201-001\n" +
		"rg-1,555,2024-12-09 09:00:00,NO ANSWER,0,SIP/202-001\n" +
		"rg-1,555,2024-12-09 09:00:00,ANSWERED,180,SIP/203-001\n"
	records, _ := mustProcess(t, data)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Status != StatusAnswered || rec.Duration != 180 || rec.Extension != "203" {
		t.Fatalf("unexpected ring-group resolution: %+v", rec)
	}
}

func TestProcessFile_RingGroupAllMissed(t *testing.T) {
	data := "UniqueID,Source,Date,Status,Duration,Dst. Channel\n" +
		"rg-2,555,2024-12-09 09:00:00,NO ANSWER,0,SIP/201-001\n" +
		"rg-2,555,2024-12-09 09:00:00,NO ANSWER,0,SIP/202-001\n"
	records, _ := mustProcess(t, data)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Status != StatusMissed {
		t.Fatalf("expected MISSED, got %s", records[0].Status)
	}
}

func TestProcessFile_DurationTieKeepsFirstLeg(t *testing.T) {
	data := "UniqueID,Source,Date,Status,Duration,Dst. Channel\n" +
		"tie-1,555,2024-12-09 09:00:00,ANSWERED,60,SIP/201-001\n" +
		"tie-1,555,2024-12-09 09:00:00,ANSWERED,60,SIP/202-001\n"
	records, _ := mustProcess(t, data)
	if records[0].Extension != "201" {
		t.Fatalf("tie should keep first leg in source order, got %s", records[0].Extension)
	}
}

func TestProcessFile_CallerNumberFloatArtifactStripped(t *testing.T) {
	data := "UniqueID,Source,Date,Status,Duration\n" +
		"a,9121234567.0,2024-12-09 10:00:00,NO ANSWER,0\n" +
		"b,9129876543,2024-12-09 10:00:00,NO ANSWER,0\n"
	records, _ := mustProcess(t, data)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].CallerNumber != "9121234567" {
		t.Fatalf("expected .0 suffix stripped, got %q", records[0].CallerNumber)
	}
	if records[1].CallerNumber != "9129876543" {
		t.Fatalf("expected plain number unchanged, got %q", records[1].CallerNumber)
	}
}

func TestProcessFile_CaseInsensitiveHeaders(t *testing.T) {
	data := "uniqueid, SOURCE ,date,STATUS,duration,dst_channel\n" +
		"c-1,100,2024-12-09 10:00:00,answered,45,PJSIP/301-0001\n"
	records, _ := mustProcess(t, data)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Status != StatusAnswered || rec.Extension != "301" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestProcessFile_MissingDstChannelDisablesExtension(t *testing.T) {
	data := "UniqueID,Source,Date,Status,Duration\n" +
		"c-1,100,2024-12-09 10:00:00,ANSWERED,45\n"
	records, _ := mustProcess(t, data)
	if records[0].Status != StatusAnswered || records[0].Extension != "" {
		t.Fatalf("expected answered record without extension, got %+v", records[0])
	}
}

func TestProcessFile_MissingRequiredColumns(t *testing.T) {
	data := "UniqueID,Source,Date,Duration\n" +
		"c-1,100,2024-12-09 10:00:00,45\n"
	_, _, err := ProcessFile([]byte(data))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.MissingColumns) != 1 || ve.MissingColumns[0] != "Status" {
		t.Fatalf("expected Status reported missing, got %v", ve.MissingColumns)
	}
	if !strings.Contains(ve.Error(), "Status") {
		t.Fatalf("error message should name missing columns: %q", ve.Error())
	}
}

func TestProcessFile_EmptyIdentifierRowsDropped(t *testing.T) {
	data := "UniqueID,Source,Date,Status,Duration\n" +
		",100,2024-12-09 10:00:00,ANSWERED,45\n" +
		"c-1,100,2024-12-09 10:00:00,NO ANSWER,0\n"
	records, total := mustProcess(t, data)
	if total != 2 {
		t.Fatalf("expected 2 rows counted, got %d", total)
	}
	if len(records) != 1 || records[0].UniqueID != "c-1" {
		t.Fatalf("expected only c-1 to survive, got %+v", records)
	}
}

func TestProcessFile_EmptyDateDropsGroup(t *testing.T) {
	data := "UniqueID,Source,Date,Status,Duration\n" +
		"c-1,100,,ANSWERED,45\n" +
		"c-2,100,2024-12-09 10:00:00,ANSWERED,45\n"
	records, _ := mustProcess(t, data)
	if len(records) != 1 || records[0].UniqueID != "c-2" {
		t.Fatalf("group without usable date should be dropped, got %+v", records)
	}
}

func TestProcessFile_GroupsResolvedInAscendingIDOrder(t *testing.T) {
	data := "UniqueID,Source,Date,Status,Duration\n" +
		"zz,100,2024-12-09 10:00:00,NO ANSWER,0\n" +
		"aa,100,2024-12-09 11:00:00,NO ANSWER,0\n"
	records, _ := mustProcess(t, data)
	if len(records) != 2 || records[0].UniqueID != "aa" || records[1].UniqueID != "zz" {
		t.Fatalf("expected ascending identifier order, got %+v", records)
	}
}

func TestProcessFile_MalformedCSV(t *testing.T) {
	data := "UniqueID,Source,Date,Status,Duration\n" +
		"\"unterminated,100,2024-12-09 10:00:00,ANSWERED,45\n"
	_, _, err := ProcessFile([]byte(data))
	var pe *ProcessingError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProcessingError, got %v", err)
	}
}

func TestProcessFile_EmptyFile(t *testing.T) {
	_, _, err := ProcessFile(nil)
	var pe *ProcessingError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProcessingError for empty file, got %v", err)
	}
}
