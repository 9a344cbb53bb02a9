package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bunkbook/internal/service"
)

const unmatchedRoute = "unmatched"

// pollPaths are scraped or polled often enough to drown real traffic.
var pollPaths = map[string]struct{}{
	"/metrics": {},
	"/health":  {},
	"/ready":   {},
}

// Metrics records request duration and status per route template. Requests
// that match no route share one label.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if _, skip := pollPaths[path]; skip {
			return
		}
		if path == "" {
			path = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
