package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/models"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	CreateUser(context.Context, cqrs.CreateUserCommand) (*models.User, error)
	UpdateUser(context.Context, cqrs.UpdateUserCommand) (*models.User, error)
	DeleteUser(context.Context, cqrs.DeleteUserCommand) (*models.User, error)
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	ListUsers(context.Context, cqrs.ListUsersQuery) ([]models.User, error)
	GetUser(context.Context, cqrs.GetUserQuery) (*models.User, error)
}

// UserHandler routes requests to the command or query service as appropriate.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
}

type CreateUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type UpdateUserRequest struct {
	Name     *string   `json:"name" validate:"omitempty,min=1"`
	Email    *string   `json:"email" validate:"omitempty,email"`
	IsActive *bool     `json:"isActive"`
	Accounts *[]string `json:"accounts"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	h.listUsers(c, nil)
}

func (h *UserHandler) ListActiveUsers(c *gin.Context) {
	active := true
	h.listUsers(c, &active)
}

func (h *UserHandler) ListInactiveUsers(c *gin.Context) {
	active := false
	h.listUsers(c, &active)
}

func (h *UserHandler) listUsers(c *gin.Context, isActive *bool) {
	users, err := h.queries.ListUsers(c.Request.Context(), cqrs.ListUsersQuery{IsActive: isActive})
	if err != nil {
		respondWithServiceError(c, err, "Failed to list users")
		return
	}
	c.JSON(http.StatusOK, ListResponse{Success: true, Data: users})
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.commands.CreateUser(c.Request.Context(), cqrs.CreateUserCommand{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		respondWithServiceError(c, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{UserID: c.Param("id")})
	if err != nil {
		respondWithServiceError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.commands.UpdateUser(c.Request.Context(), cqrs.UpdateUserCommand{
		UserID:   c.Param("id"),
		Name:     req.Name,
		Email:    req.Email,
		IsActive: req.IsActive,
		Accounts: req.Accounts,
	})
	if err != nil {
		respondWithServiceError(c, err, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	user, err := h.commands.DeleteUser(c.Request.Context(), cqrs.DeleteUserCommand{UserID: c.Param("id")})
	if err != nil {
		respondWithServiceError(c, err, "Failed to delete user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// RegisterRoutes mounts the user endpoints.
func (h *UserHandler) RegisterRoutes(r gin.IRouter) {
	users := r.Group("/users")
	users.GET("", h.ListUsers)
	users.POST("", h.CreateUser)
	users.GET("/active", h.ListActiveUsers)
	users.GET("/inactive", h.ListInactiveUsers)
	users.GET("/:id", h.GetUser)
	users.PUT("/:id", h.UpdateUser)
	users.DELETE("/:id", h.DeleteUser)
}
