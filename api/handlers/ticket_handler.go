// api/handlers/ticket_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"example.com/coldchain/api/middleware"
	"example.com/coldchain/internal/models"
	"example.com/coldchain/internal/repository"
	"example.com/coldchain/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TicketHandler handles ticket-related requests
type TicketHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewTicketHandler creates a new TicketHandler instance
func NewTicketHandler(svc service.Service, log *logrus.Logger) *TicketHandler {
	return &TicketHandler{
		service: svc,
		log:     log,
	}
}

// CreateTicket handles manual ticket creation
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	var ticket models.Ticket
	if err := c.ShouldBindJSON(&ticket); err != nil {
		h.log.WithError(err).Warn("Invalid ticket format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid ticket format",
		})
		return
	}

	actor, _ := middleware.GetUserFromContext(c)
	if err := h.service.CreateTicket(c.Request.Context(), &ticket, actor); err != nil {
		h.log.WithError(err).Error("Failed to create ticket")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create ticket",
		})
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

// GetTicket handles ticket retrieval
func (h *TicketHandler) GetTicket(c *gin.Context) {
	ticket, err := h.service.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Ticket not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to get ticket")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get ticket",
		})
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// ListTickets handles ticket listing with optional filters
func (h *TicketHandler) ListTickets(c *gin.Context) {
	filter := repository.TicketFilter{
		Status:   models.TicketStatus(c.Query("status")),
		Priority: models.TicketPriority(c.Query("priority")),
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid limit",
			})
			return
		}
		filter.Limit = limit
	}

	tickets, err := h.service.ListTickets(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("Failed to list tickets")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list tickets",
		})
		return
	}

	c.JSON(http.StatusOK, tickets)
}

// ticketUpdate is the wire format for ticket changes
type ticketUpdate struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Status       *string `json:"status"`
	Priority     *string `json:"priority"`
	AssignedToID *string `json:"assigned_to_id"`
}

// UpdateTicket handles ticket updates
func (h *TicketHandler) UpdateTicket(c *gin.Context) {
	ticket, err := h.service.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Ticket not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to get ticket")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get ticket",
		})
		return
	}

	var update ticketUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.log.WithError(err).Warn("Invalid ticket format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid ticket format",
		})
		return
	}

	if update.Title != nil {
		ticket.Title = *update.Title
	}
	if update.Description != nil {
		ticket.Description = *update.Description
	}
	if update.Status != nil {
		ticket.Status = models.TicketStatus(*update.Status)
	}
	if update.Priority != nil {
		ticket.Priority = models.TicketPriority(*update.Priority)
	}
	if update.AssignedToID != nil {
		id, err := uuid.Parse(*update.AssignedToID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid assignee id",
			})
			return
		}
		ticket.AssignedToID = &id
	}

	actor, _ := middleware.GetUserFromContext(c)
	if err := h.service.UpdateTicket(c.Request.Context(), ticket, actor); err != nil {
		h.log.WithError(err).Error("Failed to update ticket")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update ticket",
		})
		return
	}

	c.JSON(http.StatusOK, ticket)
}
