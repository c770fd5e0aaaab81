package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/http/response"
	"github.com/nurpe/erp-console/internal/service"
)

type userRequest struct {
	Username     string     `json:"username" binding:"required"`
	FullName     string     `json:"full_name" binding:"required"`
	Email        string     `json:"email"`
	Position     string     `json:"position"`
	DepartmentID *uuid.UUID `json:"department_id"`
	Permissions  []string   `json:"permissions"`
	Password     string     `json:"password"`
}

func (r userRequest) input() service.UserInput {
	return service.UserInput{
		Username:     r.Username,
		FullName:     r.FullName,
		Email:        r.Email,
		Position:     r.Position,
		DepartmentID: r.DepartmentID,
		Permissions:  r.Permissions,
		Password:     r.Password,
	}
}

type passwordRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) listUsers(c *gin.Context) {
	page, err := h.svc.Users.List(c.Request.Context(), listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Page(c, page)
}

func (h *Handler) getUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.svc.Users.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, user)
}

func (h *Handler) createUser(c *gin.Context) {
	var req userRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.svc.Users.Create(c.Request.Context(), req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, user)
}

func (h *Handler) updateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req userRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.svc.Users.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, user)
}

func (h *Handler) deleteUser(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Users.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *Handler) blockUser(c *gin.Context) {
	h.setBlocked(c, true)
}

func (h *Handler) unblockUser(c *gin.Context) {
	h.setBlocked(c, false)
}

func (h *Handler) setBlocked(c *gin.Context, blocked bool) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.svc.Users.SetBlocked(c.Request.Context(), principal, id, blocked)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, user)
}

func (h *Handler) resetPassword(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req passwordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.svc.Users.ResetPassword(c.Request.Context(), id, req.Password); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}
