package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docsearch/db/searchindex"
	"github.com/meghashyamc/docsearch/logger"
	"github.com/meghashyamc/docsearch/services/search"
	"github.com/meghashyamc/docsearch/validation"
)

type LookupRequest struct {
	Term  string `form:"term" validate:"required_without=Terms,valid_term,max=200"`
	Terms string `form:"terms" validate:"valid_terms,max=2000"`
	PageParams
}

type LookupResponse struct {
	Results     []searchindex.DocumentRef `json:"results"`
	PageDetails Pagination                `json:"page_details"`
}

func SetupLookup(router *gin.Engine, logger logger.Logger, service *search.Service, validator *validation.Validator) {
	router.GET("/lookup", handleLookup(service, logger, validator))
}

func handleLookup(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := LookupRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from lookup request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}
		request.setDefaults()

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate lookup request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		var refs []searchindex.DocumentRef
		var err error
		if request.Terms != "" {
			refs, err = service.LookupAll(splitTerms(request.Terms))
		} else {
			refs, err = service.Lookup(request.Term)
		}
		if err != nil {
			logger.Error("lookup failed", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, statusForError(err), []string{err.Error()})
			return
		}

		limit, offset := request.limitOffset()
		c.Header(HeaderPaginationTotalCount, strconv.Itoa(len(refs)))
		writeResponse(c, LookupResponse{
			Results:     paginate(refs, limit, offset),
			PageDetails: calculatePagination(len(refs), limit, offset),
		}, http.StatusOK, nil)
	}
}

func splitTerms(terms string) []string {
	split := strings.Split(terms, ",")
	for i := range split {
		split[i] = strings.TrimSpace(split[i])
	}
	return split
}
