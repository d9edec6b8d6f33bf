package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docsearch/db/titledb"
	"github.com/meghashyamc/docsearch/logger"
	"github.com/meghashyamc/docsearch/services/search"
	"github.com/meghashyamc/docsearch/validation"
)

type TitlesRequest struct {
	Query string `form:"query" validate:"required,valid_query,min=1,max=1000"`
	PageParams
}

type TitlesResponse struct {
	Results     []titledb.Result `json:"results"`
	PageDetails Pagination       `json:"page_details"`
}

func SetupTitles(router *gin.Engine, logger logger.Logger, service *search.Service, validator *validation.Validator) {
	router.GET("/titles", handleSearchTitles(service, logger, validator))
}

func handleSearchTitles(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := TitlesRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from titles request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}
		request.setDefaults()

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate titles request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		limit, offset := request.limitOffset()
		results, err := service.SearchTitles(request.Query, limit, offset)
		if err != nil {
			logger.Error("title search failed", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, statusForError(err), []string{err.Error()})
			return
		}

		c.Header(HeaderPaginationTotalCount, strconv.FormatUint(results.Total, 10))
		writeResponse(c, TitlesResponse{
			Results:     results.Results,
			PageDetails: calculatePagination(int(results.Total), limit, offset),
		}, http.StatusOK, nil)
	}
}
