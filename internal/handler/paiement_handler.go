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

type PaiementHandler struct {
	paiementService service.PaiementService
}

func NewPaiementHandler(paiementService service.PaiementService) *PaiementHandler {
	return &PaiementHandler{paiementService: paiementService}
}

func (h *PaiementHandler) RegisterRoutes(router *gin.RouterGroup) {
	paiements := router.Group("/api/paiements")
	{
		tous := middleware.RequireRole(model.RoleAdmin, model.RoleAgent, model.RoleDirecteurAdjoint, model.RoleDirecteur)
		paiements.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleAgent), h.EnregistrerPaiement)
		paiements.GET("", tous, h.ListerPaiements)
		paiements.PUT("/:id/valider", middleware.RequireRole(model.RoleAdmin, model.RoleAgent), h.ValiderPaiement)
		paiements.PUT("/:id/rejeter", middleware.RequireRole(model.RoleAdmin, model.RoleAgent), h.RejeterPaiement)
	}
}

// EnregistrerPaiement records a declared payment against a taxation note
// @Summary      Record payment
// @Description  Records a payment declaration against a taxation note; the payment stays pending until an agent confirms or rejects it
// @Tags         paiements
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.EnregistrerPaiementRequest  true  "Payment Payload"
// @Success      201      {object}  response.Response{data=service.PaiementResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/paiements [post]
func (h *PaiementHandler) EnregistrerPaiement(c *gin.Context) {
	var req service.EnregistrerPaiementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	paiement, err := h.paiementService.Enregistrer(c.Request.Context(), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, paiement))
}

// ListerPaiements returns a paginated list of payments
func (h *PaiementHandler) ListerPaiements(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.PaiementFilter{
		NoteTaxationID: c.Query("note_taxation_id"),
		Statut:         c.Query("statut"),
		Page:           params.Page,
		Limit:          params.Limit,
	}

	paiements, total, err := h.paiementService.Lister(c.Request.Context(), filter)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   paiements,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// ValiderPaiement confirms a pending payment and updates the note balance
// @Summary      Confirm payment
// @Description  Confirms a pending payment, recomputes the note balance under a row lock and rolls the taxpayer's compliance status up
// @Tags         paiements
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Payment id"
// @Success      200 {object}  response.Response{data=service.PaiementResponse}
// @Failure      404 {object}  response.Response
// @Failure      409 {object}  response.Response
// @Router       /api/paiements/{id}/valider [put]
func (h *PaiementHandler) ValiderPaiement(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	paiement, err := h.paiementService.Valider(c.Request.Context(), c.Param("id"), userIDStr)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, paiement))
}

// RejeterPaiement rejects a pending payment with a required motive
func (h *PaiementHandler) RejeterPaiement(c *gin.Context) {
	var req service.RejeterPaiementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	paiement, err := h.paiementService.Rejeter(c.Request.Context(), c.Param("id"), req.Motif, userIDStr)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, paiement))
}
