package handler

import (
	"net/http"

	"brigade-service/internal/services"
	"brigade-service/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type VacancyHandler struct {
	service *services.VacancyService
}

func NewVacancyHandler(service *services.VacancyService) *VacancyHandler {
	return &VacancyHandler{service: service}
}

func (h *VacancyHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(items))
}

func (h *VacancyHandler) Get(c *gin.Context) {
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

func (h *VacancyHandler) Create(c *gin.Context) {
	var req httpdto.VacancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	item, err := h.service.Create(c.Request.Context(), toVacancyInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(item))
}

func (h *VacancyHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req httpdto.VacancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, toVacancyInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(item))
}

func (h *VacancyHandler) Delete(c *gin.Context) {
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

func toVacancyInput(req httpdto.VacancyRequest) services.VacancyInput {
	return services.VacancyInput{
		Title:          req.Title,
		Description:    req.Description,
		ContactPhone:   req.ContactPhone,
		Requirements:   req.Requirements,
		Salary:         req.Salary,
		EmploymentType: req.EmploymentType,
		EducationLevel: req.EducationLevel,
	}
}
