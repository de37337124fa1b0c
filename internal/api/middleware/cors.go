package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// ConfigCORS allows the listed origins, or every origin when the list is empty.
func ConfigCORS(domains []string) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: len(domains) > 0,
		MaxAge:           12 * time.Hour,
	}
	if len(domains) == 0 {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = domains
	}

	return cors.New(conf)
}
