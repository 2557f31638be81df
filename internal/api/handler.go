package api

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kurihiro0119/msg-ingest/internal/domain"
	apperrors "github.com/kurihiro0119/msg-ingest/internal/errors"
	"github.com/kurihiro0119/msg-ingest/internal/logging"
	"github.com/kurihiro0119/msg-ingest/internal/storage"
	"github.com/kurihiro0119/msg-ingest/internal/tracker"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Handler handles API requests
type Handler struct {
	store          storage.Storage
	tracker        tracker.Tracker
	maxUploadBytes int64
	logger         *slog.Logger
	now            func() time.Time
}

// NewHandler creates a new API handler. tr may be nil when no external tracker is configured.
func NewHandler(store storage.Storage, tr tracker.Tracker, maxUploadBytes int64) *Handler {
	return &Handler{
		store:          store,
		tracker:        tr,
		maxUploadBytes: maxUploadBytes,
		logger:         logging.Component("api"),
		now:            time.Now,
	}
}

// IngestMsg stores an uploaded file as a new issue
// POST /api/ingest-msg-dir
func (h *Handler) IngestMsg(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, apperrors.NewPayloadTooLargeError(h.maxUploadBytes))
			return
		}
		respondError(c, apperrors.NewBadRequestError("multipart field 'file' is required"))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, apperrors.NewInternalError("failed to open upload", err))
		return
	}
	defer file.Close()

	hash := sha256.New()
	size, err := io.Copy(hash, file)
	if err != nil {
		respondError(c, apperrors.NewInternalError("failed to read upload", err))
		return
	}

	issue := &domain.Issue{
		ID:        uuid.NewString(),
		FileName:  header.Filename,
		Size:      size,
		SHA256:    hex.EncodeToString(hash.Sum(nil)),
		CreatedAt: h.now(),
	}

	if h.tracker != nil {
		ref, err := h.tracker.CreateIssue(c.Request.Context(), issue)
		if err != nil {
			h.logger.Error("failed to create external issue", "file", issue.FileName, "error", err)
			respondError(c, apperrors.NewInternalError("failed to create external issue", err))
			return
		}
		issue.ExternalRef = ref
	}

	if err := h.store.SaveIssue(c.Request.Context(), issue); err != nil {
		if issue.ExternalRef != "" {
			h.logger.Error("failed to save issue, external issue left orphaned",
				"file", issue.FileName, "external_ref", issue.ExternalRef, "error", err)
		} else {
			h.logger.Error("failed to save issue", "file", issue.FileName, "error", err)
		}
		respondError(c, apperrors.NewInternalError("failed to save issue", err))
		return
	}

	h.logger.Info("file ingested", "file", issue.FileName, "size", issue.Size, "issue_id", issueID(issue))
	c.JSON(http.StatusOK, gin.H{
		"issue_id": issueID(issue),
	})
}

// GetIssue returns a single issue
// GET /api/issues/:id
func (h *Handler) GetIssue(c *gin.Context) {
	issue, err := h.store.GetIssue(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": toIssueResponse(issue),
	})
}

// ListIssues returns the most recent issues
// GET /api/issues?limit=N
func (h *Handler) ListIssues(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, apperrors.NewBadRequestError("limit must be a positive integer"))
			return
		}
		limit = min(n, maxListLimit)
	}

	issues, err := h.store.ListIssues(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]issueResponse, 0, len(issues))
	for _, issue := range issues {
		data = append(data, toIssueResponse(issue))
	}
	c.JSON(http.StatusOK, gin.H{
		"data": data,
	})
}

// HealthCheck returns the health status
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

type issueResponse struct {
	IssueID     string    `json:"issue_id"`
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	ExternalRef string    `json:"external_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toIssueResponse(issue *domain.Issue) issueResponse {
	return issueResponse{
		IssueID:     issueID(issue),
		ID:          issue.ID,
		FileName:    issue.FileName,
		Size:        issue.Size,
		SHA256:      issue.SHA256,
		ExternalRef: issue.ExternalRef,
		CreatedAt:   issue.CreatedAt,
	}
}

// issueID is the identifier reported to clients: the tracker reference when there is one
func issueID(issue *domain.Issue) string {
	if issue.ExternalRef != "" {
		return issue.ExternalRef
	}
	return issue.ID
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodePayloadTooLarge:
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrCodeInternal,
			"message": err.Error(),
		},
	})
}
