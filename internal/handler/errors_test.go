package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	brigade_errors "brigade-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{brigade_errors.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("report 3: %w", brigade_errors.ErrNotFound), http.StatusNotFound},
		{brigade_errors.ErrInvalidInput, http.StatusBadRequest},
		{brigade_errors.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},
		{brigade_errors.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{brigade_errors.ErrUnauthorized, http.StatusUnauthorized},
		{brigade_errors.ErrForbidden, http.StatusForbidden},
		{brigade_errors.ErrAlreadyExists, http.StatusConflict},
		{brigade_errors.ErrNotUploaded, http.StatusConflict},
		{brigade_errors.ErrRateLimited, http.StatusTooManyRequests},
		{brigade_errors.ErrUpstreamStore, http.StatusBadGateway},
		{brigade_errors.ErrPersistence, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
		{
			&brigade_errors.PartialFailureError{Op: "attach", Leftovers: []string{"k"}, Err: brigade_errors.ErrUpstreamStore},
			http.StatusInternalServerError,
		},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestRespondErrorHidesServerFailures(t *testing.T) {
	r := gin.New()
	r.GET("/store", func(c *gin.Context) {
		respondError(c, fmt.Errorf("%w: dial tcp 10.0.0.1:443", brigade_errors.ErrUpstreamStore))
	})
	r.GET("/db", func(c *gin.Context) {
		respondError(c, fmt.Errorf("%w: pq: connection refused", brigade_errors.ErrPersistence))
	})
	r.GET("/client", func(c *gin.Context) {
		respondError(c, fmt.Errorf("%w: title is required", brigade_errors.ErrInvalidInput))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/store", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "object store unavailable")
	assert.NotContains(t, w.Body.String(), "10.0.0.1")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/db", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/client", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "title is required")
}

func TestParseID(t *testing.T) {
	r := gin.New()
	r.GET("/x/:id", func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for path, want := range map[string]int{
		"/x/12":  http.StatusOK,
		"/x/0":   http.StatusBadRequest,
		"/x/-1":  http.StatusBadRequest,
		"/x/abc": http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}
