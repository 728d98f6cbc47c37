package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/meghashyamc/wpstatic/db/kvdb"
	"github.com/meghashyamc/wpstatic/logger"
	"github.com/meghashyamc/wpstatic/services/build"
	"github.com/meghashyamc/wpstatic/validation"
)

const (
	BuildStateRunning  = "running"
	BuildStateComplete = "complete"
	BuildStateFailed   = "failed"
)

type BuildResponse struct {
	ID string `json:"id"`
}

type BuildStatusRequest struct {
	ID string `uri:"id" json:"id" validate:"required,valid_request_id"`
}

type BuildStatusResponse struct {
	ID       string `json:"id"`
	Progress int    `json:"progress"`
	State    string `json:"state"`
}

func SetupBuilds(router gin.IRouter, logger logger.Logger, service *build.Service, validator *validation.Validator) {
	router.POST("/builds", handleBuild(service, logger))
	router.GET("/builds/:id", handleBuildStatus(service, logger, validator))
}

func handleBuild(service *build.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()

		if err := service.Build(requestID); err != nil {
			c.Abort()
			if errors.Is(err, build.ErrBuildInProgress) {
				logger.Warn("rejected build request", "request_id", requestID, "err", err.Error())
				writeResponse(c, nil, http.StatusConflict, []string{err.Error()})
				return
			}
			logger.Error("could not start build", "request_id", requestID, "err", err.Error())
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		logger.Info("build accepted", "request_id", requestID)
		writeResponse(c, BuildResponse{ID: requestID}, http.StatusAccepted, nil)
	}
}

// handleBuildStatus answers 202 while the build runs and 200 once it is done.
func handleBuildStatus(service *build.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := BuildStatusRequest{}
		if err := c.ShouldBindUri(&request); err != nil {
			logger.Warn("could not extract request id from build status request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request id"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate build status request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		progress, err := service.GetStatus(request.ID)
		if err != nil {
			c.Abort()
			if errors.Is(err, kvdb.ErrNotFound) {
				logger.Warn("build request not found", "request_id", request.ID)
				writeResponse(c, nil, http.StatusNotFound, []string{err.Error()})
				return
			}
			logger.Error("could not get build status", "request_id", request.ID, "err", err.Error())
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		status := BuildStatusResponse{ID: request.ID, Progress: progress}
		switch progress {
		case build.ProgressStatusComplete:
			status.State = BuildStateComplete
			writeResponse(c, status, http.StatusOK, nil)
		case build.ProgressStatusFailed:
			status.State = BuildStateFailed
			writeResponse(c, status, http.StatusOK, nil)
		default:
			status.State = BuildStateRunning
			writeResponse(c, status, http.StatusAccepted, nil)
		}
	}
}
