package handler

import (
	"net/http"

	"brigade-service/internal/services"
	"brigade-service/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	service *services.ReportService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(items))
}

func (h *ReportHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(item))
}

func (h *ReportHandler) Create(c *gin.Context) {
	var req httpdto.ReportForm
	if !bindForm(c, &req) {
		return
	}
	if req.DonationID == 0 {
		badRequest(c, "invalid request")
		return
	}
	files, closeFiles, err := formFiles(c, "photos")
	defer closeFiles()
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.service.Create(c.Request.Context(), services.ReportInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		CampaignID:  req.DonationID,
	}, files)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(item))
}

func (h *ReportHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req httpdto.ReportUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, services.ReportInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		CampaignID:  req.DonationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(item))
}

func (h *ReportHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
