package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/daily-tracker/internal/middleware"
)

// Broadcaster pushes change notifications to connected clients.
type Broadcaster interface {
	Broadcast(event string, data any)
}

// Event names are <entity>:<action>.
const (
	actionCreated = "created"
	actionUpdated = "updated"
	actionDeleted = "deleted"
)

func event(entity, action string) string {
	return entity + ":" + action
}

// deletedPayload is broadcast for removed records.
type deletedPayload struct {
	ID string `json:"id"`
}

// currentUserID returns the session user. Routes using it sit behind
// middleware.RequireAuth.
func currentUserID(c *gin.Context) string {
	userID, _ := middleware.GetUserID(c)
	return userID
}
