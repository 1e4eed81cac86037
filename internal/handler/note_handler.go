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

type NoteHandler struct {
	noteService     service.NoteService
	paiementService service.PaiementService
	relanceService  service.RelanceService
}

func NewNoteHandler(noteService service.NoteService, paiementService service.PaiementService, relanceService service.RelanceService) *NoteHandler {
	return &NoteHandler{
		noteService:     noteService,
		paiementService: paiementService,
		relanceService:  relanceService,
	}
}

func (h *NoteHandler) RegisterRoutes(router *gin.RouterGroup) {
	notes := router.Group("/api/notes")
	{
		tous := middleware.RequireRole(model.RoleAdmin, model.RoleAgent, model.RoleDirecteurAdjoint, model.RoleDirecteur)
		notes.GET("", tous, h.ListerNotes)
		notes.GET("/:id", tous, h.ObtenirNote)
		notes.GET("/:id/solde", tous, h.SoldeNote)
		notes.GET("/:id/relances", tous, h.RelancesNote)
		notes.PUT("/:id/soumettre", middleware.RequireRole(model.RoleAdmin, model.RoleAgent), h.SoumettrePourSignature)
		notes.PUT("/:id/signer", middleware.RequireRole(model.RoleDirecteurAdjoint, model.RoleDirecteur), h.SignerNote)
		notes.PUT("/:id/contester", middleware.RequireRole(model.RoleAdmin, model.RoleAgent), h.ContesterNote)
	}
}

type contesterRequest struct {
	Motif string `json:"motif" binding:"required"`
}

// ListerNotes returns a paginated list of taxation notes
// @Summary      List taxation notes
// @Description  Retrieves a paginated list of taxation notes, optionally filtered by taxpayer, fiscal year, status or note number
// @Tags         notes
// @Security     BearerAuth
// @Produce      json
// @Param        assujetti_id  query     string  false  "Filter by taxpayer id"
// @Param        exercice      query     int     false  "Filter by fiscal year"
// @Param        statut        query     string  false  "Filter by status"
// @Param        numero        query     string  false  "Partial match on note number"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Number of items per page (default 20)"
// @Success      200           {object}  response.Response{data=object}
// @Failure      500           {object}  response.Response
// @Router       /api/notes [get]
func (h *NoteHandler) ListerNotes(c *gin.Context) {
	params := pagination.Parse(c)
	exercice, _ := strconv.Atoi(c.Query("exercice"))

	filter := service.NoteFilter{
		AssujettiID: c.Query("assujetti_id"),
		Exercice:    exercice,
		Statut:      c.Query("statut"),
		NumeroNote:  c.Query("numero"),
		Page:        params.Page,
		Limit:       params.Limit,
	}

	notes, total, err := h.noteService.Lister(c.Request.Context(), filter)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   notes,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// ObtenirNote returns a single taxation note
func (h *NoteHandler) ObtenirNote(c *gin.Context) {
	note, err := h.noteService.Obtenir(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, note))
}

// SoldeNote returns the balance view of a note (due, confirmed, remaining)
func (h *NoteHandler) SoldeNote(c *gin.Context) {
	solde, err := h.paiementService.Solde(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, solde))
}

// RelancesNote returns the escalation notices sent for a note
func (h *NoteHandler) RelancesNote(c *gin.Context) {
	relances, err := h.relanceService.ListerParNote(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, relances))
}

// SoumettrePourSignature moves a draft note into the signature circuit
// @Summary      Submit note for signature
// @Description  Moves a draft or submitted note to ATTENTE_SIGNATURE_1, entering the two-signer approval circuit
// @Tags         notes
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Note id"
// @Success      200 {object}  response.Response{data=service.NoteResponse}
// @Failure      404 {object}  response.Response
// @Failure      409 {object}  response.Response
// @Router       /api/notes/{id}/soumettre [put]
func (h *NoteHandler) SoumettrePourSignature(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	note, err := h.noteService.SoumettrePourSignature(c.Request.Context(), c.Param("id"), userIDStr)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, note))
}

// SignerNote applies the caller's signature to a note pending approval
// @Summary      Sign note
// @Description  Applies the signature matching the caller's role: deputy director moves the note to ATTENTE_SIGNATURE_2, director issues it (EMISE) and stamps the issue, delivery and due dates
// @Tags         notes
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Note id"
// @Success      200 {object}  response.Response{data=service.NoteResponse}
// @Failure      404 {object}  response.Response
// @Failure      409 {object}  response.Response
// @Router       /api/notes/{id}/signer [put]
func (h *NoteHandler) SignerNote(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	userRole, _ := c.Get("userRole")
	userRoleStr, _ := userRole.(string)

	// The JWT role decides which signature is being applied
	var roleSignataire string
	switch userRoleStr {
	case model.RoleDirecteurAdjoint:
		roleSignataire = model.RoleSignataireAdjoint
	case model.RoleDirecteur:
		roleSignataire = model.RoleSignataireDirecteur
	default:
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
		return
	}

	note, err := h.noteService.Signer(c.Request.Context(), c.Param("id"), roleSignataire, userIDStr)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, note))
}

// ContesterNote marks a note (and its declaration) as contested
func (h *NoteHandler) ContesterNote(c *gin.Context) {
	var req contesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	note, err := h.noteService.Contester(c.Request.Context(), c.Param("id"), req.Motif, userIDStr)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, note))
}
