package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/wpstatic/db/searchdb"
	"github.com/meghashyamc/wpstatic/logger"
	"github.com/meghashyamc/wpstatic/services/search"
	"github.com/meghashyamc/wpstatic/validation"
)

type FullTextRequest struct {
	Query string `form:"query" json:"query" validate:"required,valid_query,max=1000"`
	pageRequest
}

type FullTextResponse struct {
	Results     []searchdb.Result `json:"results"`
	PageDetails Pagination        `json:"page_details"`
}

// SetupFullText exposes ranked search over whole post bodies, backed by the
// full-text index the builder maintains.
func SetupFullText(router gin.IRouter, logger logger.Logger, service *search.Service, validator *validation.Validator) {
	router.GET("/fulltext", handleFullText(service, logger, validator))
}

func handleFullText(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := FullTextRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from full-text request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}
		request.setDefaults()

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate full-text request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		results, err := service.FullText(request.Query, request.PerPage, request.Page)
		if err != nil {
			writeServiceError(c, logger, "full-text search failed", err)
			return
		}

		limit, offset := request.limitAndOffset()
		setTotalCountHeader(c, int(results.Total))
		writeResponse(c, FullTextResponse{
			Results:     results.Results,
			PageDetails: calculatePagination(int(results.Total), limit, offset),
		}, http.StatusOK, nil)
	}
}
