package main

import (
	"net/http"

	"github.com/catalogodata/catalogo_backend/config"
	"github.com/catalogodata/catalogo_backend/utils"
	"github.com/gin-gonic/gin"
)

// logoutHandler revokes the opaque session token. Bearer JWTs are stateless
// and simply expire, so there is nothing to revoke for them.
func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := utils.GetTokenFromContext(c.Request.Context())
		if !ok || token == "" {
			c.JSON(http.StatusOK, gin.H{"success": true})
			return
		}
		if err := config.RemoveRedisKey("Token:" + token); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not revoke token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
