package handler

import (
	"net/http"

	"brigade-service/internal/domain/image"
	"brigade-service/internal/services"
	"brigade-service/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// ImageHandler serves /api/images. Report and post routes share the same
// handlers and differ only in owner kind.
type ImageHandler struct {
	service *services.ImageService
}

func NewImageHandler(service *services.ImageService) *ImageHandler {
	return &ImageHandler{service: service}
}

func (h *ImageHandler) DonationImageURL(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	url, err := h.service.CampaignImageURL(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.URLResponse{URL: url}))
}

func (h *ImageHandler) ReplaceDonationImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	photo, closeFiles, err := formFile(c, "photo")
	defer closeFiles()
	if err != nil {
		respondError(c, err)
		return
	}
	if photo == nil {
		badRequest(c, "photo is required")
		return
	}
	view, err := h.service.ReplaceCampaignImage(c.Request.Context(), id, *photo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(view))
}

func (h *ImageHandler) RemoveDonationImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.RemoveCampaignImage(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ImageHandler) List(kind image.OwnerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerParam(c, kind)
		if !ok {
			return
		}
		views, err := h.service.List(c.Request.Context(), owner)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(views))
	}
}

func (h *ImageHandler) Attach(kind image.OwnerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerParam(c, kind)
		if !ok {
			return
		}
		files, closeFiles, err := formFiles(c, "photos")
		defer closeFiles()
		if err != nil {
			respondError(c, err)
			return
		}
		views, err := h.service.Attach(c.Request.Context(), owner, files)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(views))
	}
}

func (h *ImageHandler) Presign(kind image.OwnerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerParam(c, kind)
		if !ok {
			return
		}
		var req httpdto.PresignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request")
			return
		}
		res, err := h.service.Presign(c.Request.Context(), owner, services.PresignInput{
			FileName:    req.FileName,
			ContentType: req.ContentType,
			Size:        req.Size,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(res))
	}
}

func (h *ImageHandler) Confirm(kind image.OwnerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerParam(c, kind)
		if !ok {
			return
		}
		var req httpdto.ConfirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request")
			return
		}
		view, err := h.service.Confirm(c.Request.Context(), owner, services.ConfirmInput{
			Key:    req.Key,
			ETag:   req.ETag,
			Width:  req.Width,
			Height: req.Height,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(view))
	}
}

func (h *ImageHandler) URL(kind image.OwnerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerParam(c, kind)
		if !ok {
			return
		}
		imageID, ok := parseID(c, "imageId")
		if !ok {
			return
		}
		url, err := h.service.URL(c.Request.Context(), owner, imageID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.URLResponse{URL: url}))
	}
}

func (h *ImageHandler) Remove(kind image.OwnerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerParam(c, kind)
		if !ok {
			return
		}
		imageID, ok := parseID(c, "imageId")
		if !ok {
			return
		}
		if err := h.service.Remove(c.Request.Context(), owner, imageID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func ownerParam(c *gin.Context, kind image.OwnerKind) (image.Owner, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return image.Owner{}, false
	}
	owner, err := image.NewOwner(kind, id)
	if err != nil {
		badRequest(c, err.Error())
		return image.Owner{}, false
	}
	return owner, true
}
