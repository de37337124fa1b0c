package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Err is the body of every failed JSON request.
type Err struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	Success    bool   `json:"success"`
	StatusText string `json:"status_text"`
	Message    string `json:"message,omitempty"`
}

func (e *Err) Error() string {
	if e.Err == nil {
		return e.StatusText
	}

	return e.Err.Error()
}

func RenderErr(ctx *gin.Context, e *Err) {
	if e.HTTPStatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", e.HTTPStatusCode),
			zap.Error(e.Err),
		)
	}

	ctx.AbortWithStatusJSON(e.HTTPStatusCode, e)
}

func newErr(err error, status int, message string) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
		Message:        message,
	}
}

func ErrBadRequest(err error) *Err {
	return newErr(err, http.StatusBadRequest, err.Error())
}

func ErrWrongCredentials(err error) *Err {
	return newErr(err, http.StatusUnauthorized, err.Error())
}

func ErrUnauthorized(err error) *Err {
	return newErr(err, http.StatusUnauthorized, "admin login required")
}

func ErrNotFound(resource, field string, value any) *Err {
	err := fmt.Errorf("%s with %s %v not found", resource, field, value)
	return newErr(err, http.StatusNotFound, err.Error())
}

func ErrConflict(err error) *Err {
	return newErr(err, http.StatusConflict, err.Error())
}

func ErrTooManyRequests(err error) *Err {
	return newErr(err, http.StatusTooManyRequests, err.Error())
}

// ErrInternalServerError hides err from the client; it is only logged.
func ErrInternalServerError(err error) *Err {
	return newErr(err, http.StatusInternalServerError, "internal server error")
}

// ErrMessage shows message to the client as is.
func ErrMessage(status int, message string) *Err {
	return newErr(errors.New(message), status, message)
}
