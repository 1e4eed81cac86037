package handler

import (
	"net/http"
	"strconv"

	"github.com/bbasabana/redevance-sub001/internal/middleware"
	"github.com/bbasabana/redevance-sub001/internal/model"
	"github.com/bbasabana/redevance-sub001/internal/service"
	"github.com/bbasabana/redevance-sub001/pkg/pagination"
	"github.com/bbasabana/redevance-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

type DeclarationHandler struct {
	declarationService service.DeclarationService
}

func NewDeclarationHandler(declarationService service.DeclarationService) *DeclarationHandler {
	return &DeclarationHandler{declarationService: declarationService}
}

func (h *DeclarationHandler) RegisterRoutes(router *gin.RouterGroup) {
	declarations := router.Group("/api/declarations")
	{
		declarations.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleAgent), h.SoumettreDeclaration)
		declarations.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleAgent, model.RoleDirecteurAdjoint, model.RoleDirecteur), h.ListerDeclarations)
		declarations.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleAgent, model.RoleDirecteurAdjoint, model.RoleDirecteur), h.ObtenirDeclaration)
	}
}

// SoumettreDeclaration ingests a yearly device declaration and refreshes the draft note
// @Summary      Submit declaration
// @Description  Submits (or replaces) a taxpayer's device declaration for a fiscal year and creates or refreshes the attached draft taxation note
// @Tags         declarations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SoumettreDeclarationRequest  true  "Declaration Payload"
// @Success      201      {object}  response.Response{data=service.DeclarationResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/declarations [post]
func (h *DeclarationHandler) SoumettreDeclaration(c *gin.Context) {
	var req service.SoumettreDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	declaration, err := h.declarationService.Soumettre(c.Request.Context(), req, userIDStr)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, declaration))
}

// ListerDeclarations returns a paginated list of declarations
// @Summary      List declarations
// @Description  Retrieves a paginated list of declarations, optionally filtered by taxpayer, fiscal year and status
// @Tags         declarations
// @Security     BearerAuth
// @Produce      json
// @Param        assujetti_id  query     string  false  "Filter by taxpayer id"
// @Param        exercice      query     int     false  "Filter by fiscal year"
// @Param        statut        query     string  false  "Filter by status (SOUMISE, VALIDEE, CONTESTEE)"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Number of items per page (default 20)"
// @Success      200           {object}  response.Response{data=object}
// @Failure      500           {object}  response.Response
// @Router       /api/declarations [get]
func (h *DeclarationHandler) ListerDeclarations(c *gin.Context) {
	params := pagination.Parse(c)
	exercice, _ := strconv.Atoi(c.Query("exercice"))

	filter := service.DeclarationFilter{
		AssujettiID: c.Query("assujetti_id"),
		Exercice:    exercice,
		Statut:      c.Query("statut"),
		Page:        params.Page,
		Limit:       params.Limit,
	}

	declarations, total, err := h.declarationService.Lister(c.Request.Context(), filter)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   declarations,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// ObtenirDeclaration returns a single declaration with its lines and note
func (h *DeclarationHandler) ObtenirDeclaration(c *gin.Context) {
	declaration, err := h.declarationService.Obtenir(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, declaration))
}
