package v1

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vietanh2810/coffeeshop-api/internal/api/middleware"
)

type Hub interface {
	Serve(conn *websocket.Conn, admin bool)
}

type RealtimeHandler struct {
	hub      Hub
	upgrader websocket.Upgrader
}

// NewRealtimeHandler accepts sockets from the same host or from one of
// allowedOrigins. An empty list accepts any origin.
func NewRealtimeHandler(hub Hub, allowedOrigins []string) *RealtimeHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if len(allowed) == 0 || origin == "" || allowed[origin] {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && u.Host == r.Host
			},
		},
	}
}

// HandleWebSocket godoc
// @Summary      Realtime order updates
// @Description  Send {"type":"joinOrder","order_id":"..."} to follow an order. Admins may send {"type":"joinAdmin"}.
// @Tags         realtime
// @Success      101  {string}  string  "Switching Protocols"
// @Router       /ws [get]
func (h *RealtimeHandler) HandleWebSocket(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	h.hub.Serve(conn, middleware.IsAdmin(ctx))
}
