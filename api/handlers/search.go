package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/wpstatic/logger"
	"github.com/meghashyamc/wpstatic/services/search"
	"github.com/meghashyamc/wpstatic/validation"
)

const defaultResultsPerPage = 20

type SearchRequest struct {
	Query string `form:"query" json:"query" validate:"valid_query,max=1000"`
	pageRequest
}

type SearchResponse struct {
	Query       string       `json:"query"`
	Message     string       `json:"message"`
	Results     []search.Hit `json:"results"`
	PageDetails Pagination   `json:"page_details"`
}

func SetupSearch(router gin.IRouter, logger logger.Logger, service *search.Service, validator *validation.Validator) {
	router.GET("/search", handleSearch(service, logger, validator))
}

func handleSearch(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := SearchRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}
		request.setDefaults()

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		outcome, err := service.Search(request.Query)
		if err != nil {
			writeServiceError(c, logger, "search failed", err)
			return
		}
		if !outcome.Applied {
			logger.Warn("query is too short to search", "query", request.Query)
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{"query is too short"})
			return
		}

		hits := outcome.Hits
		if hits == nil {
			// A blank query lists every post without scoring.
			hits = make([]search.Hit, 0, len(outcome.Posts))
			for _, post := range outcome.Posts {
				hits = append(hits, search.Hit{Post: post})
			}
		}

		limit, offset := request.limitAndOffset()
		setTotalCountHeader(c, len(hits))
		writeResponse(c, SearchResponse{
			Query:       outcome.Query,
			Message:     outcome.Message,
			Results:     paginate(hits, limit, offset),
			PageDetails: calculatePagination(len(hits), limit, offset),
		}, http.StatusOK, nil)
	}
}

// writeServiceError maps errors from the search service to a status code.
func writeServiceError(c *gin.Context, logger logger.Logger, msg string, err error) {
	c.Abort()
	switch {
	case errors.Is(err, search.ErrIndexUnavailable):
		logger.Warn(msg, "err", err.Error())
		writeResponse(c, nil, http.StatusServiceUnavailable, []string{err.Error()})
	case errors.Is(err, search.ErrPostNotFound):
		logger.Warn(msg, "err", err.Error())
		writeResponse(c, nil, http.StatusNotFound, []string{err.Error()})
	default:
		logger.Error(msg, "err", err.Error())
		writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
	}
}
