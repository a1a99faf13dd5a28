package handler

import (
	"net/http"

	"school-inventory/internal/middleware"
	"school-inventory/internal/service"
	"school-inventory/pkg/apperror"
	"school-inventory/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	directory service.ActorResolver
}

// NewUserHandler sets up the routing dependencies for User endpoints
func NewUserHandler(directory service.ActorResolver) *UserHandler {
	return &UserHandler{directory: directory}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Me route (authenticated, any valid token)
	router.GET("/api/me", middleware.RequireRole(), h.GetMe)
}

type MeResponse struct {
	ID             string  `json:"id"`
	Username       string  `json:"username"`
	Role           string  `json:"role"`
	DepartmentID   *string `json:"department_id"`
	DepartmentName string  `json:"department_name"`
}

// GetMe returns the caller as the request workflow sees them
// @Summary      Get current user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=handler.MeResponse}
// @Failure      401  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	actor, err := h.directory.ResolveActor(c.Request.Context(), identity)
	if err != nil {
		status := apperror.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	me := MeResponse{
		ID:             actor.ID.String(),
		Username:       actor.Name,
		Role:           string(actor.Role),
		DepartmentName: actor.DepartmentName,
	}
	if actor.DepartmentID != nil {
		d := actor.DepartmentID.String()
		me.DepartmentID = &d
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, me))
}
