package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/coffeeshop-api/internal/api/handler/v1/response"
)

const (
	AdminCookie = "admin_token"

	adminKey = "admin_username"
)

var errAdminRequired = errors.New("admin login required")

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type AdminAuth struct {
	verifier TokenVerifier
}

func NewAdminAuth(verifier TokenVerifier) *AdminAuth {
	return &AdminAuth{
		verifier: verifier,
	}
}

// Identify records the admin on the context when a valid session cookie is
// present, without rejecting anonymous requests.
func (a *AdminAuth) Identify() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		a.identify(ctx)
		ctx.Next()
	}
}

// RequirePage sends anonymous visitors to the login form.
func (a *AdminAuth) RequirePage() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !a.identify(ctx) {
			ctx.Redirect(http.StatusFound, "/admin/login")
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}

// RequireAPI answers 401 JSON to anonymous callers.
func (a *AdminAuth) RequireAPI() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !a.identify(ctx) {
			response.RenderErr(ctx, response.ErrUnauthorized(errAdminRequired))
			return
		}

		ctx.Next()
	}
}

func (a *AdminAuth) identify(ctx *gin.Context) bool {
	if IsAdmin(ctx) {
		return true
	}

	token, err := ctx.Cookie(AdminCookie)
	if err != nil || token == "" {
		token = strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
	}
	if token == "" {
		return false
	}

	username, err := a.verifier.Verify(token)
	if err != nil {
		return false
	}
	ctx.Set(adminKey, username)

	return true
}

func IsAdmin(ctx *gin.Context) bool {
	return ctx.GetString(adminKey) != ""
}
