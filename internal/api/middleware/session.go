package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CartCookie = "cart_session"

	sessionKey = "cart_session_id"
)

// CartSession makes sure every visitor carries an anonymous session id the
// cart is stored under.
func CartSession(ttl time.Duration, secure bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, err := ctx.Cookie(CartCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
		}

		// Refreshed on every request so the cookie outlives an active visit.
		ctx.SetSameSite(http.SameSiteLaxMode)
		ctx.SetCookie(CartCookie, id, int(ttl.Seconds()), "/", "", secure, true)
		ctx.Set(sessionKey, id)

		ctx.Next()
	}
}

func SessionID(ctx *gin.Context) string {
	return ctx.GetString(sessionKey)
}
