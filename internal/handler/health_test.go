package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(h *HealthHandler, path string) *httptest.ResponseRecorder {
		r := gin.New()
		r.GET("/health", h.Health)
		r.GET("/ready", h.Ready)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	assert.Equal(t, http.StatusOK, serve(NewHealthHandler(nil), "/health").Code)
	assert.Equal(t, http.StatusOK, serve(NewHealthHandler(nil), "/ready").Code)
	assert.Equal(t, http.StatusOK, serve(NewHealthHandler(map[string]Pinger{"mongo": ok}), "/ready").Code)

	w := serve(NewHealthHandler(map[string]Pinger{"mongo": ok, "redis": down}), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
