package middleware

import (
	"net/http"
	"strings"

	"attendance-backend/models"
	"attendance-backend/services"
	"attendance-backend/utils"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "current_user"

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tok, tok != ""
}

func resolveUser(tokens *services.TokenManager, users *services.UserService, tok string) (models.User, bool) {
	claims, err := tokens.Parse(tok)
	if err != nil {
		return models.User{}, false
	}
	user, err := users.GetByID(claims.UserID)
	if err != nil || !user.IsActive {
		return models.User{}, false
	}
	return user, true
}

// AuthRequired loads the acting user from the bearer token. The user is
// re-read from the database so deactivation and role changes apply at once.
func AuthRequired(tokens *services.TokenManager, users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearerToken(c)
		if !ok {
			utils.AbortJSONError(c, http.StatusUnauthorized, "error.unauthorized", "missing token")
			return
		}
		user, ok := resolveUser(tokens, users, tok)
		if !ok {
			utils.AbortJSONError(c, http.StatusUnauthorized, "error.unauthorized", "invalid token")
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// AuthOptional sets the acting user when a valid token is present and lets
// anonymous requests through.
func AuthOptional(tokens *services.TokenManager, users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok, ok := bearerToken(c); ok {
			if user, ok := resolveUser(tokens, users, tok); ok {
				c.Set(currentUserKey, user)
			}
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
