package handler

import (
	"net/http"

	"github.com/bbasabana/redevance-sub001/internal/middleware"
	"github.com/bbasabana/redevance-sub001/internal/model"
	"github.com/bbasabana/redevance-sub001/internal/service"
	"github.com/bbasabana/redevance-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

type EntiteHandler struct {
	geographieService service.GeographieService
}

func NewEntiteHandler(geographieService service.GeographieService) *EntiteHandler {
	return &EntiteHandler{geographieService: geographieService}
}

func (h *EntiteHandler) RegisterRoutes(router *gin.RouterGroup) {
	entites := router.Group("/api/entites")
	{
		entites.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleAgent, model.RoleDirecteurAdjoint, model.RoleDirecteur), h.ListerEntites)
		entites.POST("", middleware.RequireRole(model.RoleAdmin), h.CreerEntite)
	}
}

// ListerEntites returns the territorial hierarchy, optionally filtered by type
func (h *EntiteHandler) ListerEntites(c *gin.Context) {
	entites, err := h.geographieService.ListerEntites(c.Request.Context(), c.Query("type"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, entites))
}

// CreerEntite adds a node to the territorial hierarchy
func (h *EntiteHandler) CreerEntite(c *gin.Context) {
	var req service.CreerEntiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entite, err := h.geographieService.CreerEntite(c.Request.Context(), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entite))
}
