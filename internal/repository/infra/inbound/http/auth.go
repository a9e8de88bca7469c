package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/hexaquery/internal/repository/application"
	"github.com/davicafu/hexaquery/pkg/utils"
)

// BearerToken extrae el token de "Authorization: Bearer <token>".
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// Authenticate deja el token de la petición en el contexto para que llegue a
// los backends que lo necesiten. Si allowed no está vacío, solo acepta esos
// tokens.
func Authenticate(allowed ...string) gin.HandlerFunc {
	valid := make(map[string]struct{}, len(allowed))
	for _, t := range allowed {
		valid[t] = struct{}{}
	}

	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if len(valid) > 0 {
			if _, known := valid[token]; !ok || !known {
				utils.SendUnauthorized(c, "invalid or missing bearer token")
				return
			}
		}
		if ok {
			c.Request = c.Request.WithContext(application.WithToken(c.Request.Context(), token))
		}
		c.Next()
	}
}
