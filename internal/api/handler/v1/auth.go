package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/coffeeshop-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/coffeeshop-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/coffeeshop-api/internal/api/middleware"
	"github.com/vietanh2810/coffeeshop-api/internal/config"
	"github.com/vietanh2810/coffeeshop-api/internal/service"
)

type AuthService interface {
	Login(username, password string) (string, error)
}

type AuthHandler struct {
	apiConf   *config.APIConfig
	adminConf *config.AdminConfig
	svc       AuthService
}

func NewAuthHandler(apiConf *config.APIConfig, adminConf *config.AdminConfig, svc AuthService) *AuthHandler {
	return &AuthHandler{
		apiConf:   apiConf,
		adminConf: adminConf,
		svc:       svc,
	}
}

// HandleLogin godoc
// @Summary      Admin login
// @Description  Returns a token and sets it as an HttpOnly cookie.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.LoginRequest  true  "request body"
// @Success      200      {object}  map[string]any
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      429      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /api/admin/login [post]
func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	var req request.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	token, err := h.svc.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrWrongCredentials) {
			response.RenderErr(ctx, response.ErrWrongCredentials(service.ErrWrongCredentials))
			return
		}
		err = fmt.Errorf("v1.HandleLogin -> h.svc.Login -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	SetAdminCookie(ctx, token, h.adminConf, h.apiConf.SecureCookies)
	ctx.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

// HandleLogout godoc
// @Summary      Admin logout
// @Tags         admin
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /api/admin/logout [post]
func (h *AuthHandler) HandleLogout(ctx *gin.Context) {
	ClearAdminCookie(ctx, h.apiConf.SecureCookies)
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func SetAdminCookie(ctx *gin.Context, token string, conf *config.AdminConfig, secure bool) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(middleware.AdminCookie, token, int(conf.TokenTTL.Seconds()), "/", "", secure, true)
}

func ClearAdminCookie(ctx *gin.Context, secure bool) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(middleware.AdminCookie, "", -1, "/", "", secure, true)
}
