package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/erp-console/internal/http/response"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.svc.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, result)
}

func (h *Handler) logout(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	if err := h.svc.Auth.Logout(c.Request.Context(), principal); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *Handler) bootstrap(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	result, err := h.svc.Bootstrap.Load(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, result)
}
