package handler

import (
	"net/http"
	"strconv"

	"github.com/bbasabana/redevance-sub001/internal/middleware"
	"github.com/bbasabana/redevance-sub001/internal/model"
	"github.com/bbasabana/redevance-sub001/internal/repository"
	"github.com/bbasabana/redevance-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditRepo repository.AuditRepository
}

func NewAuditHandler(auditRepo repository.AuditRepository) *AuditHandler {
	return &AuditHandler{auditRepo: auditRepo}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audit := router.Group("/api/audit")
	{
		audit.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleDirecteur), h.ListerJournal)
	}
}

// ListerJournal returns audit entries, newest first, optionally filtered by action
func (h *AuditHandler) ListerJournal(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, total, err := h.auditRepo.List(c.Request.Context(), c.Query("action"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   entries,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}
