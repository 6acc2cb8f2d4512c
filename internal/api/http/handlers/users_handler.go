package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/api/dto"
	"github.com/spec-kit/issue-tracker/internal/service"
)

// UsersHandler exposes account administration.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Invite handles POST /users/invite.
func (h *UsersHandler) Invite(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req dto.InviteUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.users.Invite(c.UserContext(), a, req.Input())
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewInviteUserResponse(result))
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	list, err := h.users.List(c.UserContext(), a, c.Query("search"), pageQuery(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewUserListResponse(list))
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), a, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewUserResponse(user))
}

// Update handles PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), a, c.Params("id"), req.Patch())
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewUserResponse(user))
}

// Delete handles DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), a, c.Params("id")); err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.MessageResponse{Message: "User deleted successfully"})
}
