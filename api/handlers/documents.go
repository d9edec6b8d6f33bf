package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docsearch/logger"
	"github.com/meghashyamc/docsearch/services/search"
)

type DocumentRequest struct {
	Index int `uri:"index"`
}

func SetupDocuments(router *gin.Engine, logger logger.Logger, service *search.Service) {
	router.GET("/documents/:index", handleGetDocument(service, logger))
}

func handleGetDocument(service *search.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := DocumentRequest{}
		if err := c.ShouldBindUri(&request); err != nil {
			logger.Warn("document index is not an integer", "index", c.Param("index"), "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"document index must be an integer"})
			return
		}

		doc, err := service.Document(request.Index)
		if err != nil {
			c.Abort()
			writeResponse(c, nil, statusForError(err), []string{err.Error()})
			return
		}

		writeResponse(c, doc, http.StatusOK, nil)
	}
}
