package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/wpstatic/db"
	"github.com/meghashyamc/wpstatic/logger"
	"github.com/meghashyamc/wpstatic/services/search"
	"github.com/meghashyamc/wpstatic/validation"
)

type PostsRequest struct {
	Category string `form:"category" json:"category" validate:"valid_slug,max=200"`
	Tag      string `form:"tag" json:"tag" validate:"valid_slug,max=200"`
	pageRequest
}

type PostsResponse struct {
	Message     string     `json:"message"`
	Posts       []db.Post  `json:"posts"`
	PageDetails Pagination `json:"page_details"`
}

type RelatedRequest struct {
	ID    int `uri:"id" json:"id" validate:"min=1"`
	Limit int `form:"limit" json:"limit" validate:"min=0,max=20"`
}

type RelatedResponse struct {
	Posts []db.Post `json:"posts"`
}

func SetupPosts(router gin.IRouter, logger logger.Logger, service *search.Service, validator *validation.Validator) {
	router.GET("/posts", handleListPosts(service, logger, validator))
	router.GET("/posts/:id/related", handleRelatedPosts(service, logger, validator))
}

func handleListPosts(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := PostsRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from posts request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}
		request.setDefaults()

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate posts request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		posts, label, err := service.Posts(request.Category, request.Tag)
		if err != nil {
			writeServiceError(c, logger, "could not list posts", err)
			return
		}

		message := ""
		if label != "" {
			message = search.ResultsMessage(len(posts), label)
		}

		limit, offset := request.limitAndOffset()
		setTotalCountHeader(c, len(posts))
		writeResponse(c, PostsResponse{
			Message:     message,
			Posts:       paginate(posts, limit, offset),
			PageDetails: calculatePagination(len(posts), limit, offset),
		}, http.StatusOK, nil)
	}
}

func handleRelatedPosts(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := RelatedRequest{}
		if err := c.ShouldBindUri(&request); err != nil {
			logger.Warn("could not extract post id from related posts request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract post id"})
			return
		}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from related posts request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate related posts request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		posts, err := service.Related(request.ID, request.Limit)
		if err != nil {
			writeServiceError(c, logger, "could not find related posts", err)
			return
		}

		writeResponse(c, RelatedResponse{Posts: posts}, http.StatusOK, nil)
	}
}
