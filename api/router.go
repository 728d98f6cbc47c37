package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/wpstatic/api/handlers"
	"github.com/meghashyamc/wpstatic/logger"
	"github.com/meghashyamc/wpstatic/services/build"
	"github.com/meghashyamc/wpstatic/services/search"
	"github.com/meghashyamc/wpstatic/site"
	"github.com/meghashyamc/wpstatic/validation"
)

func setupRoutes(router *gin.Engine, logger logger.Logger, outputDir string, searchService *search.Service, buildService *build.Service, validator *validation.Validator) {
	router.GET("/health", health())

	// Serve the generated site
	router.Static("/site", outputDir)
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/site/"+site.ListingFileName)
	})

	api := router.Group("/api")
	handlers.SetupSearch(api, logger, searchService, validator)
	handlers.SetupPosts(api, logger, searchService, validator)
	handlers.SetupFullText(api, logger, searchService, validator)
	handlers.SetupBuilds(api, logger, buildService, validator)

}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

func newRouter() *gin.Engine {
	router := gin.Default()
	router.UseRawPath = true
	router.Use(_CORSMiddleware())
	router.Use(gin.Recovery())

	return router
}
