package handler

import (
	"net/http"

	"github.com/bbasabana/redevance-sub001/internal/middleware"
	"github.com/bbasabana/redevance-sub001/internal/model"
	"github.com/bbasabana/redevance-sub001/internal/service"
	"github.com/bbasabana/redevance-sub001/pkg/pagination"
	"github.com/bbasabana/redevance-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

type AssujettiHandler struct {
	assujettiService service.AssujettiService
}

func NewAssujettiHandler(assujettiService service.AssujettiService) *AssujettiHandler {
	return &AssujettiHandler{assujettiService: assujettiService}
}

func (h *AssujettiHandler) RegisterRoutes(router *gin.RouterGroup) {
	assujettis := router.Group("/api/assujettis")
	{
		tous := middleware.RequireRole(model.RoleAdmin, model.RoleAgent, model.RoleDirecteurAdjoint, model.RoleDirecteur)
		assujettis.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleAgent), h.CreerAssujetti)
		assujettis.GET("", tous, h.ListerAssujettis)
		assujettis.GET("/:id", tous, h.ObtenirAssujetti)
		assujettis.GET("/:id/notes", tous, h.NotesAssujetti)
		assujettis.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleAgent), h.ModifierAssujetti)
	}
}

// CreerAssujetti registers a new taxpayer
// @Summary      Register taxpayer
// @Description  Registers a taxpayer attached to a territorial entity; the compliance status starts at NOUVEAU
// @Tags         assujettis
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreerAssujettiRequest  true  "Taxpayer Payload"
// @Success      201      {object}  response.Response{data=model.Assujetti}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/assujettis [post]
func (h *AssujettiHandler) CreerAssujetti(c *gin.Context) {
	var req service.CreerAssujettiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	assujetti, err := h.assujettiService.Creer(c.Request.Context(), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, assujetti))
}

// ListerAssujettis returns a paginated list of taxpayers
func (h *AssujettiHandler) ListerAssujettis(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.AssujettiFilter{
		Statut:    c.Query("statut"),
		Categorie: c.Query("categorie"),
		Recherche: c.Query("recherche"),
		Page:      params.Page,
		Limit:     params.Limit,
	}

	assujettis, total, err := h.assujettiService.Lister(c.Request.Context(), filter)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   assujettis,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// ObtenirAssujetti returns a single taxpayer with its territorial entity
func (h *AssujettiHandler) ObtenirAssujetti(c *gin.Context) {
	assujetti, err := h.assujettiService.Obtenir(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, assujetti))
}

// NotesAssujetti returns the taxpayer's taxation notes across exercises
func (h *AssujettiHandler) NotesAssujetti(c *gin.Context) {
	notes, err := h.assujettiService.NotesAssujetti(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, notes))
}

// ModifierAssujetti updates a taxpayer's contact details
func (h *AssujettiHandler) ModifierAssujetti(c *gin.Context) {
	var req service.ModifierAssujettiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	assujetti, err := h.assujettiService.Modifier(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, assujetti))
}
