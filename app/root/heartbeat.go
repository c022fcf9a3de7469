package root

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Heartbeat answers HEAD with an empty 200 and GET with the server time
func Heartbeat(c *gin.Context) {
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
