package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/estate-operations-system/backend/internal/store"
)

// TicketHandler serves the /api/tickets routes.
type TicketHandler struct {
	tickets store.TicketStore
}

// NewTicketHandler binds the handler to its store.
func NewTicketHandler(tickets store.TicketStore) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

type createTicketRequest struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Address     string `json:"address"`
	ResidentID  int64  `json:"resident_id"`
}

// Create handles POST /api/tickets.
func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Category == "" || req.Description == "" || req.ResidentID == 0 {
		respondError(c, http.StatusBadRequest, "category, description and resident_id are required")
		return
	}

	ticket, err := h.tickets.Create(c.Request.Context(), store.NewTicket{
		Category:    req.Category,
		Description: req.Description,
		Address:     req.Address,
		ResidentID:  req.ResidentID,
	})
	if err != nil {
		if errors.Is(err, store.ErrForeignKey) {
			respondError(c, http.StatusNotFound, "resident not found")
			return
		}
		c.Error(err) //nolint:errcheck
		respondError(c, http.StatusInternalServerError, "failed to create ticket")
		return
	}
	respondOK(c, http.StatusCreated, ticket)
}

// Get handles GET /api/tickets/:id.
func (h *TicketHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid id")
		return
	}
	ticket, err := h.tickets.ByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "ticket not found")
			return
		}
		c.Error(err) //nolint:errcheck
		respondError(c, http.StatusInternalServerError, "failed to get ticket")
		return
	}
	respondOK(c, http.StatusOK, ticket)
}

// List handles GET /api/tickets with an optional resident_id filter.
func (h *TicketHandler) List(c *gin.Context) {
	if raw := c.Query("resident_id"); raw != "" {
		residentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid resident_id")
			return
		}
		tickets, err := h.tickets.ByResident(c.Request.Context(), residentID)
		if err != nil {
			c.Error(err) //nolint:errcheck
			respondError(c, http.StatusInternalServerError, "failed to list tickets")
			return
		}
		respondList(c, http.StatusOK, tickets, len(tickets))
		return
	}

	tickets, err := h.tickets.List(c.Request.Context())
	if err != nil {
		c.Error(err) //nolint:errcheck
		respondError(c, http.StatusInternalServerError, "failed to list tickets")
		return
	}
	respondList(c, http.StatusOK, tickets, len(tickets))
}
