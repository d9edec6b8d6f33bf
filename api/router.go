package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docsearch/api/handlers"
	"github.com/meghashyamc/docsearch/logger"
	"github.com/meghashyamc/docsearch/metrics"
	"github.com/meghashyamc/docsearch/services/index"
	"github.com/meghashyamc/docsearch/services/search"
	"github.com/meghashyamc/docsearch/validation"
)

func setupRoutes(router *gin.Engine, logger logger.Logger, indexService *index.Service, searchService *search.Service, metrics *metrics.Metrics, validator *validation.Validator) {
	router.GET("/health", health())
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	handlers.SetupIndex(router, logger, indexService)
	handlers.SetupLookup(router, logger, searchService, validator)
	handlers.SetupDocuments(router, logger, searchService)
	handlers.SetupObjects(router, logger, searchService, validator)
	handlers.SetupTitles(router, logger, searchService, validator)

}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

func newRouter() *gin.Engine {
	router := gin.New()
	router.UseRawPath = true
	router.Use(_CORSMiddleware())
	router.Use(gin.Recovery())

	return router
}
