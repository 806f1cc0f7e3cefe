package ingest

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"records-backend/internal/documents"
	"records-backend/internal/shared/server/middleware"
	"records-backend/internal/shared/server/respond"
)

// Handler exposes upload and deletion over HTTP.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches ingestion routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.DELETE("/documents/:id", h.remove)
}

func (h *Handler) upload(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)
	if h.Svc.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.MaxUploadBytes+1<<20)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	in := Input{
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(c.PostForm("title")),
		FileName:  fileHeader.Filename,
		MimeType:  mimeType,
		Data:      data,
		RequestID: middleware.RequestIDFromContext(c),
		TypeID:    strings.TrimSpace(c.PostForm("typeId")),
		Class:     documents.Class(strings.TrimSpace(c.PostForm("class"))),
	}

	if raw := strings.TrimSpace(c.PostForm("effectiveDate")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "effectiveDate must be YYYY-MM-DD", nil)
			return
		}
		in.EffectiveDate = parsed
	}
	if raw := strings.TrimSpace(c.PostForm("customRenewalPeriod")); raw != "" {
		period, err := strconv.Atoi(raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "customRenewalPeriod must be an integer", nil)
			return
		}
		in.HasCustomRenewal = true
		in.CustomRenewalPeriod = period
		in.CustomRenewalUnit = documents.RenewalUnit(strings.TrimSpace(c.PostForm("customRenewalUnit")))
	}

	doc, err := h.Svc.Ingest(c.Request.Context(), in)
	if err != nil {
		h.respondIngestError(c, err)
		return
	}

	c.Set("documentId", doc.ID)
	respond.JSON(c, http.StatusCreated, documents.ToResponse(doc))
}

func (h *Handler) remove(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)
	documentID := c.Param("id")

	err := h.Svc.Delete(c.Request.Context(), ownerID, documentID, middleware.RequestIDFromContext(c))
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete document", nil)
		return
	}

	c.Set("documentId", documentID)
	respond.JSON(c, http.StatusOK, gin.H{"documentId": documentID, "deleted": true})
}

func (h *Handler) respondIngestError(c *gin.Context, err error) {
	var verr *ValidationError
	var dup *DuplicateContentError
	var qerr *QuotaExceededError
	var serr *StorageError
	var perr *PersistenceError

	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", verr.Error(), gin.H{"field": verr.Field})
	case errors.As(err, &dup):
		respond.Error(c, http.StatusConflict, "duplicate_content", "identical content already exists", gin.H{
			"existingDocumentId": dup.ExistingID,
		})
	case errors.As(err, &qerr):
		respond.Error(c, http.StatusRequestEntityTooLarge, "quota_exceeded", "storage quota exceeded", gin.H{
			"requestedBytes": qerr.RequestedBytes,
			"availableBytes": qerr.AvailableBytes,
			"limitBytes":     qerr.LimitBytes,
		})
	case errors.As(err, &serr):
		respond.Error(c, http.StatusBadGateway, "storage_error", "failed to store document", nil)
	case errors.As(err, &perr):
		respond.Error(c, http.StatusInternalServerError, "persistence_error", "failed to persist document", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "ingestion failed", nil)
	}
}
