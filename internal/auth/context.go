package auth

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

const (
	UserIDKey       = "userID"
	SessionTokenKey = "sessionToken"
)

// GetUserIDFromContext extracts userID from Gin context
func GetUserIDFromContext(c *gin.Context) (int, error) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, fmt.Errorf("user ID not found in context")
	}

	id, ok := userID.(int)
	if !ok {
		return 0, fmt.Errorf("invalid user ID type")
	}

	return id, nil
}

// IsAuthenticated reports whether a session was attached to the request.
func IsAuthenticated(c *gin.Context) bool {
	_, err := GetUserIDFromContext(c)
	return err == nil
}
