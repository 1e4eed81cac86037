package handler

import (
	"net/http"

	"github.com/bbasabana/redevance-sub001/internal/middleware"
	"github.com/bbasabana/redevance-sub001/internal/model"
	"github.com/bbasabana/redevance-sub001/internal/service"
	"github.com/bbasabana/redevance-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

type TarifHandler struct {
	tarifService service.TarifService
}

func NewTarifHandler(tarifService service.TarifService) *TarifHandler {
	return &TarifHandler{tarifService: tarifService}
}

func (h *TarifHandler) RegisterRoutes(router *gin.RouterGroup) {
	tarifs := router.Group("/api/tarifs")
	{
		tarifs.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleAgent, model.RoleDirecteurAdjoint, model.RoleDirecteur), h.ListerTarifs)
		tarifs.POST("", middleware.RequireRole(model.RoleAdmin), h.CreerTarif)
		tarifs.PUT("/:id", middleware.RequireRole(model.RoleAdmin), h.ModifierTarif)
		tarifs.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DesactiverTarif)
	}
}

// ListerTarifs returns the tariff grid, by default only active entries
func (h *TarifHandler) ListerTarifs(c *gin.Context) {
	seulementActifs := c.DefaultQuery("actifs", "true") == "true"

	tarifs, err := h.tarifService.ListerTarifs(c.Request.Context(), seulementActifs)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tarifs))
}

// CreerTarif creates a tariff entry for a (device, taxpayer category, zone) triple
func (h *TarifHandler) CreerTarif(c *gin.Context) {
	var req service.CreateTarifRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	tarif, err := h.tarifService.CreerTarif(c.Request.Context(), req, userIDStr)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tarif))
}

// ModifierTarif updates the unit price of a tariff entry
func (h *TarifHandler) ModifierTarif(c *gin.Context) {
	var req service.UpdateTarifRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	tarif, err := h.tarifService.ModifierTarif(c.Request.Context(), c.Param("id"), req, userIDStr)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tarif))
}

// DesactiverTarif retires a tariff entry without deleting its history
func (h *TarifHandler) DesactiverTarif(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	if err := h.tarifService.DesactiverTarif(c.Request.Context(), c.Param("id"), userIDStr); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Tarif desactive"}))
}
