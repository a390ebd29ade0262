package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"cdr-analyzer/internal/cdr"
	"cdr-analyzer/internal/stats"
	"cdr-analyzer/internal/store"
	"cdr-analyzer/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Ingest *cdr.Service
	Stats  *stats.Service
	Store  store.Store

	// MaxUploadBytes caps accepted file sizes; the processing core does not
	// enforce size, the boundary does.
	MaxUploadBytes int64

	// Limiter caps concurrent upload passes. Nil means uncapped (tests,
	// single-process setups without redis).
	Limiter *UploadLimiter
}

// --- Upload ---

// Upload accepts a multipart CDR CSV export, runs the derivation pass and
// reports processed/inserted/skipped counts.
func (h Handlers) Upload(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Ingest == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "ingest not configured"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}
	defer file.Close()

	if !strings.EqualFold(ext(header.Filename), ".csv") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid file format, only CSV files are accepted"})
		return
	}
	if h.MaxUploadBytes > 0 && header.Size > h.MaxUploadBytes {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "file size exceeds limit"})
		return
	}

	if h.Limiter != nil {
		ok, err := h.Limiter.Acquire(c.Request.Context())
		if err != nil {
			log.Error("upload slot acquire failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many concurrent uploads, retry shortly"})
			return
		}
		defer h.Limiter.Release(c.Request.Context())
	}

	content, err := io.ReadAll(file)
	if err != nil {
		log.Warn("upload read failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}

	summary, err := h.Ingest.Ingest(c.Request.Context(), content)
	if err != nil {
		var ve *cdr.ValidationError
		var pe *cdr.ProcessingError
		switch {
		case errors.As(err, &ve):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
		case errors.As(err, &pe):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": pe.Error()})
		default:
			log.Error("upload failed", "file", header.Filename, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	log.Info("upload processed",
		"file", header.Filename,
		"processed", summary.Processed,
		"inserted", summary.UniqueCalls,
		"skipped", summary.Skipped,
	)
	c.JSON(http.StatusOK, summary)
}

// --- Calls ---

type callListResponse struct {
	Calls []cdr.CallRecord `json:"calls"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// ListCalls returns a filtered, paginated page of call records, newest first.
func (h Handlers) ListCalls(c *gin.Context) {
	if h.Store == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "store not configured"})
		return
	}

	page := intQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := intQuery(c, "limit", defaultPageLimit)
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	f := store.Filter{
		From:   c.Query("from"),
		To:     c.Query("to"),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}

	calls, total, err := h.Store.List(c.Request.Context(), f)
	if err != nil {
		logger.FromGin(c).Error("call list failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, callListResponse{Calls: calls, Total: total, Page: page, Limit: limit})
}

// --- Stats ---

func (h Handlers) DailyStats(c *gin.Context) {
	if h.Stats == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "stats not configured"})
		return
	}
	out, err := h.Stats.Daily(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		logger.FromGin(c).Error("daily stats failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) ExtensionStats(c *gin.Context) {
	if h.Stats == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "stats not configured"})
		return
	}
	out, err := h.Stats.Extensions(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		logger.FromGin(c).Error("extension stats failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) UniqueCallerStats(c *gin.Context) {
	if h.Stats == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "stats not configured"})
		return
	}
	out, err := h.Stats.UniqueCallers(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		logger.FromGin(c).Error("unique caller stats failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- Admin ---

type clearResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	RecordsDeleted int64  `json:"records_deleted"`
}

// ClearDatabase removes every stored call record. Irreversible.
func (h Handlers) ClearDatabase(c *gin.Context) {
	if h.Store == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "store not configured"})
		return
	}
	log := logger.FromGin(c)

	n, err := h.Store.ClearAll(c.Request.Context())
	if err != nil {
		log.Error("clear database failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to clear database"})
		return
	}

	log.Info("database cleared", "records_deleted", n)
	c.JSON(http.StatusOK, clearResponse{
		Success:        true,
		Message:        "Database cleared successfully",
		RecordsDeleted: n,
	})
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func ext(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return filename[idx:]
}
