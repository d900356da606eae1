package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/estate-operations-system/backend/internal/store"
)

// UserHandler serves the /api/users routes.
type UserHandler struct {
	users store.UserStore
}

// NewUserHandler binds the handler to its store.
func NewUserHandler(users store.UserStore) *UserHandler {
	return &UserHandler{users: users}
}

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   *int   `json:"age"`
}

// Create handles POST /api/users. Duplicate email yields 409 so that
// clients performing find-or-create can fall back to a lookup.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Name == "" || req.Email == "" {
		respondError(c, http.StatusBadRequest, "name and email are required")
		return
	}

	user, err := h.users.Create(c.Request.Context(), store.NewUser{
		Name:  req.Name,
		Email: req.Email,
		Age:   req.Age,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			respondError(c, http.StatusConflict, "user with this email already exists")
			return
		}
		c.Error(err) //nolint:errcheck
		respondError(c, http.StatusInternalServerError, "failed to create user")
		return
	}
	respondMessage(c, http.StatusCreated, "user created", user)
}

// List handles GET /api/users. With ?email= it performs an exact lookup
// instead of listing.
func (h *UserHandler) List(c *gin.Context) {
	if email := c.Query("email"); email != "" {
		user, err := h.users.ByEmail(c.Request.Context(), email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(c, http.StatusNotFound, "user not found")
				return
			}
			c.Error(err) //nolint:errcheck
			respondError(c, http.StatusInternalServerError, "failed to get user")
			return
		}
		respondOK(c, http.StatusOK, user)
		return
	}

	users, err := h.users.List(c.Request.Context())
	if err != nil {
		c.Error(err) //nolint:errcheck
		respondError(c, http.StatusInternalServerError, "failed to list users")
		return
	}
	respondList(c, http.StatusOK, users, len(users))
}

// Get handles GET /api/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid id")
		return
	}
	user, err := h.users.ByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		c.Error(err) //nolint:errcheck
		respondError(c, http.StatusInternalServerError, "failed to get user")
		return
	}
	respondOK(c, http.StatusOK, user)
}

type updateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Age   *int    `json:"age"`
}

// Update handles PUT /api/users/:id.
func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid id")
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, store.UserUpdate{
		Name:  req.Name,
		Email: req.Email,
		Age:   req.Age,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			respondError(c, http.StatusNotFound, "user not found")
		case errors.Is(err, store.ErrDuplicateEmail):
			respondError(c, http.StatusConflict, "user with this email already exists")
		default:
			c.Error(err) //nolint:errcheck
			respondError(c, http.StatusInternalServerError, "failed to update user")
		}
		return
	}
	respondMessage(c, http.StatusOK, "user updated", user)
}

// Delete handles DELETE /api/users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		c.Error(err) //nolint:errcheck
		respondError(c, http.StatusInternalServerError, "failed to delete user")
		return
	}
	respondMessage(c, http.StatusOK, "user deleted", gin.H{"id": id})
}
