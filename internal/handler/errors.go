package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"brigade-service/internal/storage"
	"brigade-service/internal/transport/httpdto"
	brigade_errors "brigade-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// HTTPStatus maps service errors to response codes.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, brigade_errors.ErrPartialFailure):
		return http.StatusInternalServerError
	case errors.Is(err, brigade_errors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, brigade_errors.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, brigade_errors.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, brigade_errors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, brigade_errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, brigade_errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, brigade_errors.ErrAlreadyExists), errors.Is(err, brigade_errors.ErrNotUploaded):
		return http.StatusConflict
	case errors.Is(err, brigade_errors.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, brigade_errors.ErrUpstreamStore):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusUnsupportedMediaType:
		return "UNSUPPORTED_MEDIA_TYPE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusBadGateway:
		return "UPSTREAM_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// respondError writes the error envelope. Server-side failures are attached
// to the context for the error middleware to log and are not echoed back.
func respondError(c *gin.Context, err error) {
	status := HTTPStatus(err)
	message := err.Error()
	switch {
	case status == http.StatusBadGateway:
		_ = c.Error(err)
		message = "object store unavailable"
	case status >= http.StatusInternalServerError:
		_ = c.Error(err)
		message = "internal error"
	}
	c.JSON(status, httpdto.NewErrorResponse(message, errorCode(status)))
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(message, "INVALID_REQUEST"))
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// formFiles opens every file sent under field. The returned func closes them
// and must be called once the upload is done.
func formFiles(c *gin.Context, field string) ([]storage.FileInput, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, multipartError(err)
	}
	return openFiles(form.File[field])
}

// formFile opens the single file sent under field, or returns nil when the
// part is absent.
func formFile(c *gin.Context, field string) (*storage.FileInput, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, multipartError(err)
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, func() {}, nil
	}
	files, closeAll, err := openFiles(headers[:1])
	if err != nil {
		return nil, closeAll, err
	}
	return &files[0], closeAll, nil
}

func openFiles(headers []*multipart.FileHeader) ([]storage.FileInput, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	files := make([]storage.FileInput, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, f)
		files = append(files, storage.FileInput{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return files, closeAll, nil
}

// bindForm binds multipart fields into obj. An oversized body answers 413.
func bindForm(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			respondError(c, multipartError(err))
		} else {
			badRequest(c, "invalid request")
		}
		return false
	}
	return true
}

func multipartError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return fmt.Errorf("%w: request body exceeds %d bytes", brigade_errors.ErrPayloadTooLarge, maxBytes.Limit)
	}
	return fmt.Errorf("%w: invalid multipart form", brigade_errors.ErrInvalidInput)
}
