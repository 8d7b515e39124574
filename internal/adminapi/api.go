// Package adminapi exposes the admin console surface over HTTP: dashboard
// stats, entity listings with their decorated link views, the report review
// workflow, messaging and evidence uploads.
package adminapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"assurecore/internal/core"
)

// API wires the application service into gin handlers.
type API struct {
	svc    *core.Service
	logger *zap.Logger
}

// New constructs the HTTP surface. A nil logger disables request logging.
func New(svc *core.Service, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{svc: svc, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/dashboard", a.getDashboard)

		api.GET("/businesses", a.listBusinesses)
		api.POST("/businesses", a.createBusiness)
		api.GET("/businesses/:id", a.getBusiness)
		api.GET("/businesses/:id/links", a.listBusinessLinks)
		api.GET("/businesses/:id/reports", a.listBusinessReports)
		api.GET("/businesses/:id/audits", a.listBusinessAudits)
		api.GET("/businesses/:id/audits/latest", a.getLatestAudit)
		api.GET("/businesses/:id/threads", a.listBusinessThreads)
		api.GET("/businesses/:id/evidence", a.listBusinessEvidence)

		api.GET("/investors", a.listInvestors)
		api.POST("/investors", a.createInvestor)
		api.GET("/investors/:id", a.getInvestor)
		api.GET("/investors/:id/links", a.listInvestorLinks)
		api.GET("/investors/:id/portfolio", a.getPortfolio)

		api.GET("/links", a.listLinks)
		api.POST("/links", a.createLink)

		api.GET("/reports", a.listReports)
		api.POST("/reports", a.createReport)
		api.GET("/reports/:id", a.getReport)
		api.PUT("/reports/:id/status", a.updateReportStatus)

		api.GET("/audits", a.listAudits)
		api.POST("/audits", a.createAudit)

		api.POST("/threads", a.createThread)
		api.GET("/threads/:id", a.getThread)
		api.GET("/threads/:id/messages", a.listThreadMessages)
		api.POST("/threads/:id/messages", a.postMessage)

		api.POST("/evidence", a.uploadEvidence)
		api.GET("/evidence/:id/url", a.getEvidenceURL)
	}
	return r
}

// requestLogger emits one structured line per request.
func (a *API) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
