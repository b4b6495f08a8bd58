// internal/interfaces/http/handlers/session.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// getOrCreateSessionID resolves the guest session: the X-Session-ID header
// wins, then the session cookie, otherwise a new session is minted.
func getOrCreateSessionID(c *gin.Context) string {
	if sessionID := c.GetHeader("X-Session-ID"); sessionID != "" {
		return sessionID
	}

	sessionID, err := c.Cookie("session_id")
	if err != nil || sessionID == "" {
		sessionID = uuid.New().String()

		// Set session cookie (24 hours)
		c.SetCookie("session_id", sessionID, 86400, "/", "", false, true)
	}

	return sessionID
}
