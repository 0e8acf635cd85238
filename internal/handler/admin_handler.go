package handler

import (
	"net/http"

	"brigade-service/internal/services"
	"brigade-service/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	sweeper *services.SweeperService
}

func NewAdminHandler(sweeper *services.SweeperService) *AdminHandler {
	return &AdminHandler{sweeper: sweeper}
}

// Sweep runs one reconciliation pass between the bucket and the images table.
func (h *AdminHandler) Sweep(c *gin.Context) {
	report, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(report))
}
