package handler

import (
	"net/http"

	"brigade-service/internal/services"
	"brigade-service/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// DonationHandler serves /api/donations.
type DonationHandler struct {
	service *services.CampaignService
}

func NewDonationHandler(service *services.CampaignService) *DonationHandler {
	return &DonationHandler{service: service}
}

func (h *DonationHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(items))
}

func (h *DonationHandler) Get(c *gin.Context) {
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

// Create accepts multipart fields plus an optional "photo" part.
func (h *DonationHandler) Create(c *gin.Context) {
	var req httpdto.DonationForm
	if !bindForm(c, &req) {
		return
	}
	photo, closeFiles, err := formFile(c, "photo")
	defer closeFiles()
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.service.Create(c.Request.Context(), services.CampaignInput{
		Title:        req.Title,
		Description:  req.Description,
		Goal:         req.Goal,
		DonationLink: req.DonationLink,
	}, photo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(item))
}

func (h *DonationHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req httpdto.DonationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, services.CampaignInput{
		Title:        req.Title,
		Description:  req.Description,
		Goal:         req.Goal,
		DonationLink: req.DonationLink,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(item))
}

func (h *DonationHandler) Delete(c *gin.Context) {
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

func (h *DonationHandler) ToggleComplete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := h.service.ToggleCompletion(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DonationHandler) ListReports(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	items, err := h.service.ListReports(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(items))
}

func (h *DonationHandler) CreateReport(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req httpdto.ReportForm
	if !bindForm(c, &req) {
		return
	}
	files, closeFiles, err := formFiles(c, "photos")
	defer closeFiles()
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.service.CreateReport(c.Request.Context(), id, services.ReportInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}, files)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(item))
}

// Redirect sends visitors on to the external donation page.
func (h *DonationHandler) Redirect(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	link, err := h.service.DonationLink(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, link)
}
