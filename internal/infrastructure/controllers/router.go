package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-Id"

// RouterDeps are the handlers mounted by NewRouter.
type RouterDeps struct {
	Imports   *ImportsHandler
	Discovery *DiscoveryHandler
}

// NewRouter builds the HTTP surface. Organization names may contain
// URL-encoded slashes (GitLab subgroups), so the raw path is routed.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.UseRawPath = true
	router.UnescapePathValues = true
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/imports", deps.Imports.Create)

	router.GET("/organizations", deps.Discovery.ListOrganizations)
	router.GET("/organizations/:org/repositories", deps.Discovery.ListOrganizationRepositories)
	router.GET("/repositories", deps.Discovery.ListRepositories)

	return router
}

// requestLogger tags every request with an ID and logs its outcome.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Set("request_id", requestID)

		start := time.Now()
		c.Next()

		entry := logger.WithFields(logger.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("Request failed")
			return
		}
		entry.Info("Request handled")
	}
}

func errorBody(messages ...string) gin.H {
	return gin.H{"errors": messages}
}
