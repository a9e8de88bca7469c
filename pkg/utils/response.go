package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrorResponse es el cuerpo de todas las respuestas de error.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// SendError responde {"error": {...}} y corta la cadena de handlers, así un
// middleware puede rechazar la petición sin más pasos.
func SendError(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, gin.H{
		"error": ErrorResponse{Message: message, Code: statusCode},
	})
}

func SendBadRequest(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, message)
}

func SendUnauthorized(c *gin.Context, message string) {
	SendError(c, http.StatusUnauthorized, message)
}

// SendRecords escribe una página de registros. contentRange vacío omite la
// cabecera; "Prefer: return=minimal" deja la respuesta sin cuerpo.
func SendRecords(c *gin.Context, statusCode int, contentRange string, records any) {
	if contentRange != "" {
		c.Header("Content-Range", contentRange)
	}
	if PreferMinimal(c) {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(statusCode, records)
}

// PreferMinimal indica si el cliente pidió "Prefer: return=minimal".
func PreferMinimal(c *gin.Context) bool {
	for _, header := range c.Request.Header.Values("Prefer") {
		for _, pref := range strings.Split(header, ",") {
			if strings.TrimSpace(pref) == "return=minimal" {
				return true
			}
		}
	}
	return false
}
