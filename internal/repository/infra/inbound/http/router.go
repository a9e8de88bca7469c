package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BasePath agrupa los recursos para no chocar con las rutas de servicio.
const BasePath = "/api"

// RegisterRecordRoutes monta el API estilo PostgREST sobre el handler.
func RegisterRecordRoutes[C any](r *gin.Engine, handler *RecordHandler[C], middleware ...gin.HandlerFunc) {
	records := r.Group(BasePath, middleware...)
	{
		records.GET("/", handler.ListResources)
		records.GET("/:resource", handler.Where)
		records.HEAD("/:resource", handler.Count)
		records.POST("/:resource", handler.Create)
		records.PATCH("/:resource", handler.Update)
		records.DELETE("/:resource", handler.Destroy)
	}
}

// RegisterHealth añade /health.
func RegisterHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
