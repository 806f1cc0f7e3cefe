package renewal

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"records-backend/internal/documents"
	"records-backend/internal/shared/server/respond"
)

// Handler serves renewal queries.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches renewal routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/renewals/expiring", h.expiring)
	rg.GET("/renewals/expired", h.expired)
}

type expiringResponse struct {
	Document            documents.DocumentResponse `json:"document"`
	DaysUntilExpiration int                        `json:"daysUntilExpiration"`
	Urgency             string                     `json:"urgency"`
}

type expiredResponse struct {
	Document    documents.DocumentResponse `json:"document"`
	DaysExpired int                        `json:"daysExpired"`
}

func (h *Handler) expiring(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "days must be a non-negative integer", nil)
		return
	}

	items, err := h.Svc.ExpiringWithin(c.Request.Context(), days)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list expiring documents", nil)
		return
	}

	out := make([]expiringResponse, 0, len(items))
	for _, item := range items {
		out = append(out, expiringResponse{
			Document:            documents.ToResponse(item.Document),
			DaysUntilExpiration: item.DaysUntilExpiration,
			Urgency:             item.Urgency,
		})
	}
	respond.JSON(c, http.StatusOK, gin.H{"expiring": out})
}

func (h *Handler) expired(c *gin.Context) {
	items, err := h.Svc.Expired(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list expired documents", nil)
		return
	}

	out := make([]expiredResponse, 0, len(items))
	for _, item := range items {
		out = append(out, expiredResponse{
			Document:    documents.ToResponse(item.Document),
			DaysExpired: item.DaysExpired,
		})
	}
	respond.JSON(c, http.StatusOK, gin.H{"expired": out})
}
