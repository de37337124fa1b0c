//go:build integration

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/coffeeshop-api/internal/pkg/redistest"
)

func TestRateLimit_SharedAcrossInstances(t *testing.T) {
	rdb := redistest.New(t)

	newInstance := func() *gin.Engine {
		limit, err := RateLimit("orders", "2-M", redistest.Clone(t, rdb))
		require.NoError(t, err)

		r := gin.New()
		r.POST("/order", limit, func(ctx *gin.Context) { ctx.String(http.StatusOK, "ok") })

		return r
	}
	a, b := newInstance(), newInstance()

	assert.Equal(t, http.StatusOK, serve(a, httptest.NewRequest(http.MethodPost, "/order", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(b, httptest.NewRequest(http.MethodPost, "/order", nil)).Code)

	w := serve(a, httptest.NewRequest(http.MethodPost, "/order", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}
