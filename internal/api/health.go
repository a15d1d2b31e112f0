package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports that the gateway is serving
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
