package documents

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"records-backend/internal/shared/server/middleware"
	"records-backend/internal/shared/server/respond"
	"records-backend/internal/shared/storage/object"
)

const downloadURLTTL = 15 * time.Minute

// Handler serves read-only document routes. Upload and deletion live in the
// ingestion handler because they run the full pipeline.
type Handler struct {
	Repo  Repo
	Store object.ObjectStore
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo, store object.ObjectStore) *Handler {
	return &Handler{Repo: repo, Store: store}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.GET("/documents/:id/download", h.download)
	rg.PATCH("/documents/:id/status", h.updateStatus)
}

func (h *Handler) list(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	docs, err := h.Repo.ListByOwner(c.Request.Context(), ownerID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, ToResponse(doc))
	}
	respond.JSON(c, http.StatusOK, gin.H{"documents": out})
}

func (h *Handler) get(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)

	doc, err := h.Repo.GetByID(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		return
	}

	c.Set("documentId", doc.ID)
	respond.JSON(c, http.StatusOK, ToResponse(doc))
}

func (h *Handler) download(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)

	doc, err := h.Repo.GetByID(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		return
	}

	url, err := h.Store.SignedURL(c.Request.Context(), doc.StorageKey, downloadURLTTL)
	if err != nil {
		if errors.Is(err, object.ErrSignedURLUnsupported) {
			h.stream(c, doc)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate download url", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"url":              url,
		"expiresInSeconds": int64(downloadURLTTL.Seconds()),
	})
}

// stream serves the bytes directly when the store cannot sign URLs.
func (h *Handler) stream(c *gin.Context, doc Document) {
	rc, err := h.Store.Open(c.Request.Context(), doc.StorageKey)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open document", nil)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	c.DataFromReader(http.StatusOK, doc.StoredSizeBytes, doc.MimeType, rc, nil)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	err := h.Repo.UpdateStatus(c.Request.Context(), ownerID, c.Param("id"), Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrInvalidTransition):
			respond.Error(c, http.StatusConflict, "invalid_transition", "status can only move forward", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update status", nil)
		}
		return
	}

	c.Set("documentId", c.Param("id"))
	respond.JSON(c, http.StatusOK, gin.H{"documentId": c.Param("id"), "status": req.Status})
}
