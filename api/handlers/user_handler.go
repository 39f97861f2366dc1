// api/handlers/user_handler.go
package handlers

import (
	"net/http"

	"example.com/coldchain/api/middleware"
	"example.com/coldchain/internal/models"
	"example.com/coldchain/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UserHandler handles operator account requests
type UserHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(svc service.Service, log *logrus.Logger) *UserHandler {
	return &UserHandler{
		service: svc,
		log:     log,
	}
}

// CreateUser handles operator account creation. The generated API token is
// returned once, in this response only.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		h.log.WithError(err).Warn("Invalid user format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user format",
		})
		return
	}

	actor, _ := middleware.GetUserFromContext(c)
	if err := h.service.CreateUser(c.Request.Context(), &user, actor); err != nil {
		h.log.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create user",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":      user,
		"api_token": user.APIToken,
	})
}

// GetUser handles user retrieval
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to get user")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get user",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers handles user listing
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list users",
		})
		return
	}

	c.JSON(http.StatusOK, users)
}

// UpdateUser handles user updates
func (h *UserHandler) UpdateUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to get user")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get user",
		})
		return
	}

	if err := c.ShouldBindJSON(user); err != nil {
		h.log.WithError(err).Warn("Invalid user format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user format",
		})
		return
	}

	actor, _ := middleware.GetUserFromContext(c)
	if err := h.service.UpdateUser(c.Request.Context(), user, actor); err != nil {
		h.log.WithError(err).Error("Failed to update user")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update user",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}
