package ginserver

import (
	_ "embed"
	"net/http"
	"strings"
	"sync"

	gin "github.com/gin-gonic/gin"
)

//go:embed swagger/openapi.json
var openapiSpec []byte

//go:embed swagger/index.html
var swaggerPage string

// registerSwaggerRoutes serves the embedded OpenAPI document and a viewer
// page under /swagger.
func registerSwaggerRoutes(router gin.IRoutes) {
	renderPage := sync.OnceValue(func() []byte {
		return []byte(strings.ReplaceAll(swaggerPage, "{{SPEC_URL}}", "/swagger/doc.json"))
	})
	router.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openapiSpec)
	})
	router.GET("/swagger", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", renderPage())
	})
}
