package controllers

import (
	"net/http"
	"strings"

	"attendance-backend/services"

	"github.com/gin-gonic/gin"
)

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthController struct {
	UserSvc *services.UserService
	Tokens  *services.TokenManager
}

func NewAuthController(users *services.UserService, tokens *services.TokenManager) *AuthController {
	return &AuthController{UserSvc: users, Tokens: tokens}
}

func (ac *AuthController) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadPayload(c, err)
		return
	}

	username := strings.TrimSpace(payload.Username)
	if username == "" || payload.Password == "" {
		respondError(c, http.StatusBadRequest, "error.invalid_payload", "username and password required")
		return
	}

	user, err := ac.UserSvc.Authenticate(username, payload.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, exp, err := ac.Tokens.Issue(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp,
		"user":       user,
	})
}

// Logout is an acknowledgement only; tokens are stateless and expire on their own.
func (ac *AuthController) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"detail": "Successfully logged out."})
}
