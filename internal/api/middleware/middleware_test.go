package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticVerifier struct{}

func (staticVerifier) Verify(token string) (string, error) {
	if token == "good" {
		return "admin", nil
	}

	return "", errors.New("bad token")
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestCartSession(t *testing.T) {
	r := gin.New()
	r.Use(CartSession(time.Hour, false))
	r.GET("/", func(ctx *gin.Context) { ctx.String(http.StatusOK, SessionID(ctx)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	issued := w.Body.String()
	require.NoError(t, uuid.Validate(issued))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CartCookie, cookies[0].Name)
	assert.Equal(t, issued, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CartCookie, Value: issued})
	assert.Equal(t, issued, serve(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CartCookie, Value: "forged"})
	assert.NotEqual(t, "forged", serve(r, req).Body.String())
}

func TestAdminAuth(t *testing.T) {
	auth := NewAdminAuth(staticVerifier{})
	r := gin.New()
	r.Use(auth.Identify())
	r.GET("/who", func(ctx *gin.Context) { ctx.String(http.StatusOK, "%v", IsAdmin(ctx)) })
	r.GET("/admin/dashboard", auth.RequirePage(), func(ctx *gin.Context) { ctx.String(http.StatusOK, "dashboard") })
	r.POST("/admin/orders", auth.RequireAPI(), func(ctx *gin.Context) { ctx.String(http.StatusOK, "ok") })

	assert.Equal(t, "false", serve(r, httptest.NewRequest(http.MethodGet, "/who", nil)).Body.String())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))

	w = serve(r, httptest.NewRequest(http.MethodPost, "/admin/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "admin login required")

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookie, Value: "good"})
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dashboard", w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer good")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/admin/orders", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookie, Value: "bad"})
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestRateLimit(t *testing.T) {
	limit, err := RateLimit("test", "2-M", nil)
	require.NoError(t, err)

	r := gin.New()
	r.POST("/order", limit, func(ctx *gin.Context) { ctx.String(http.StatusOK, "ok") })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/order", nil)).Code)
	}

	w := serve(r, httptest.NewRequest(http.MethodPost, "/order", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestRateLimit_BadFormat(t *testing.T) {
	_, err := RateLimit("test", "lots", nil)
	assert.Error(t, err)
}

func TestConfigCORS(t *testing.T) {
	r := gin.New()
	r.Use(ConfigCORS([]string{"https://shop.example"}))
	r.GET("/", func(ctx *gin.Context) { ctx.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://shop.example")
	assert.Equal(t, "https://shop.example", serve(r, req).Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)
}
