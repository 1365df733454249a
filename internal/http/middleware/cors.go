package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studygraph-backend/internal/platform/envutil"
)

// CORS builds the cross-origin policy from ALLOWED_ORIGINS, a comma
// separated list. Empty means same-origin only in production and wide open
// in development.
func CORS() gin.HandlerFunc {
	raw := envutil.String("ALLOWED_ORIGINS", "")
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-User-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if raw == "" {
		if envutil.String("ENVIRONMENT", "development") == "development" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
		} else {
			cfg.AllowOrigins = []string{}
		}
		return cors.New(cfg)
	}

	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}
