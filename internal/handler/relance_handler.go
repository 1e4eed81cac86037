package handler

import (
	"net/http"
	"os"
	"time"

	"github.com/bbasabana/redevance-sub001/internal/service"
	"github.com/bbasabana/redevance-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

type RelanceHandler struct {
	relanceService service.RelanceService
}

func NewRelanceHandler(relanceService service.RelanceService) *RelanceHandler {
	return &RelanceHandler{relanceService: relanceService}
}

func (h *RelanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Cron trigger, authenticated by shared secret rather than JWT
	router.POST("/api/relances/executer", h.ExecuterRelances)
}

// ExecuterRelances runs the escalation batch over all outstanding notes
// @Summary      Run escalation batch
// @Description  Scans outstanding notes and sends the reminder stage each one has reached; idempotent per (note, stage)
// @Tags         relances
// @Produce      json
// @Param        secret  query     string  true  "Cron shared secret"
// @Success      200     {object}  response.Response{data=service.ResultatRelance}
// @Failure      401     {object}  response.Response
// @Router       /api/relances/executer [post]
func (h *RelanceHandler) ExecuterRelances(c *gin.Context) {
	secret := os.Getenv("RELANCE_CRON_SECRET")
	if secret == "" && os.Getenv("GIN_MODE") == "release" {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Cron secret not configured"))
		return
	}
	if secret != "" && c.Query("secret") != secret {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid cron secret"))
		return
	}

	resultat, err := h.relanceService.Executer(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, resultat))
}
