package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"cdr-analyzer/internal/cdr"
	"cdr-analyzer/internal/stats"
	"cdr-analyzer/internal/store"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T, mem *store.Memory) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := Handlers{
		Ingest:         cdr.NewService(mem),
		Stats:          stats.NewService(mem),
		Store:          mem,
		MaxUploadBytes: 1 << 20,
	}

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/upload", h.Upload)
	v1.GET("/calls", h.ListCalls)
	v1.GET("/stats/daily", h.DailyStats)
	v1.GET("/stats/extensions", h.ExtensionStats)
	v1.GET("/stats/unique-callers", h.UniqueCallerStats)
	v1.DELETE("/admin/clear-database", h.ClearDatabase)
	return r
}

func multipartCSV(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, w.FormDataContentType()
}

const exportCSV = "UniqueID,Source,Date,Status,Duration,Dst. Channel\n" +
	"c-1,09121234567,2024-12-09 14:30:00,ANSWERED,45s,SIP/209-001\n" +
	"c-2,09129876543,2024-12-09 15:00:00,NO ANSWER,0,SIP/210-001\n"

func TestUpload_ProcessesFile(t *testing.T) {
	mem := store.NewMemory()
	r := newTestRouter(t, mem)

	body, contentType := multipartCSV(t, "export.csv", exportCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var sum cdr.UploadSummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if sum.Processed != 2 || sum.UniqueCalls != 2 || sum.Skipped != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	_, total, err := mem.List(context.Background(), store.Filter{})
	if err != nil || total != 2 {
		t.Fatalf("expected 2 stored records, got %d err=%v", total, err)
	}
}

func TestUpload_RejectsNonCSV(t *testing.T) {
	r := newTestRouter(t, store.NewMemory())

	body, contentType := multipartCSV(t, "export.xlsx", "not,a,csv")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-CSV upload, got %d", w.Code)
	}
}

func TestUpload_MissingColumnIs400(t *testing.T) {
	r := newTestRouter(t, store.NewMemory())

	body, contentType := multipartCSV(t, "export.csv", "UniqueID,Source,Date,Duration\nc-1,100,2024-12-09 10:00:00,45\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] == "" {
		t.Fatalf("expected error message naming missing columns")
	}
}

func TestListCalls_PaginatesWithDefaults(t *testing.T) {
	mem := store.NewMemory()
	for _, rec := range []cdr.CallRecord{
		{UniqueID: "a", Timestamp: "2024-12-01T10:00:00", CallerNumber: "111", Status: cdr.StatusMissed},
		{UniqueID: "b", Timestamp: "2024-12-02T10:00:00", CallerNumber: "222", Status: cdr.StatusMissed},
	} {
		if _, err := mem.Insert(context.Background(), rec); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	r := newTestRouter(t, mem)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/calls?search=222", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp callListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Calls) != 1 || resp.Calls[0].UniqueID != "b" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Page != 1 || resp.Limit != defaultPageLimit {
		t.Fatalf("expected default pagination, got page=%d limit=%d", resp.Page, resp.Limit)
	}
}

func TestDailyStats_Endpoint(t *testing.T) {
	mem := store.NewMemory()
	if _, err := mem.Insert(context.Background(), cdr.CallRecord{
		UniqueID: "a", Timestamp: "2024-12-01T10:00:00", Status: cdr.StatusAnswered, Duration: 30,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := newTestRouter(t, mem)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/daily?from=2024-12-01T00:00:00&to=2024-12-01T23:59:59", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var out []stats.DailyStat
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 1 || out[0].Answered != 1 {
		t.Fatalf("unexpected stats: %+v", out)
	}
}

func TestClearDatabase_Endpoint(t *testing.T) {
	mem := store.NewMemory()
	if _, err := mem.Insert(context.Background(), cdr.CallRecord{
		UniqueID: "a", Timestamp: "2024-12-01T10:00:00", Status: cdr.StatusMissed,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := newTestRouter(t, mem)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/clear-database", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp clearResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.RecordsDeleted != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	_, total, err := mem.List(context.Background(), store.Filter{})
	if err != nil || total != 0 {
		t.Fatalf("expected empty store after clear, got %d err=%v", total, err)
	}
}
