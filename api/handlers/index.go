package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docsearch/logger"
	"github.com/meghashyamc/docsearch/services/index"
)

func SetupIndex(router *gin.Engine, logger logger.Logger, service *index.Service) {
	router.GET("/status", handleGetStatus(service))
	router.POST("/reload", handleReload(service, logger))
}

func handleGetStatus(service *index.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := service.Status()
		if err != nil {
			c.Abort()
			writeResponse(c, nil, statusForError(err), []string{err.Error()})
			return
		}

		writeResponse(c, status, http.StatusOK, nil)
	}
}

func handleReload(service *index.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := service.Load(c.Request.Context())
		if err != nil {
			logger.Warn("could not reload search index", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, statusForError(err), []string{err.Error()})
			return
		}

		writeResponse(c, status, http.StatusOK, nil)
	}
}
