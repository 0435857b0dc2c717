package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/daily-tracker/internal/repository"
)

// Health reports liveness and which storage backend is serving requests.
func Health(store *repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"storage": store.Mode().String(),
		})
	}
}
