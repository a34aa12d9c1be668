package controllers

import (
	"net/http"

	"attendance-backend/middleware"
	"attendance-backend/models"
	"attendance-backend/services"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserSvc *services.UserService
}

func NewUserController(svc *services.UserService) *UserController {
	return &UserController{UserSvc: svc}
}

// Register is open to anonymous callers; creating an admin needs an admin token.
func (uc *UserController) Register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadPayload(c, err)
		return
	}

	var actor *models.User
	if u, ok := middleware.CurrentUser(c); ok {
		actor = &u
	}

	user, err := uc.UserSvc.Register(actor, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (uc *UserController) List(c *gin.Context) {
	users, err := uc.UserSvc.List()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (uc *UserController) Me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, user)
}

// Get lets users see themselves; admins see anyone.
func (uc *UserController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actor, _ := middleware.CurrentUser(c)
	if !actor.IsAdmin() && actor.ID != id {
		respondServiceError(c, services.ErrForbidden)
		return
	}

	user, err := uc.UserSvc.GetByID(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (uc *UserController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var patch services.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadPayload(c, err)
		return
	}

	actor, _ := middleware.CurrentUser(c)
	user, err := uc.UserSvc.Update(actor, id, patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
