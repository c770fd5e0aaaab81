package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/http/response"
	"github.com/nurpe/erp-console/internal/model"
	"github.com/nurpe/erp-console/internal/service"
)

type departmentRequest struct {
	Code     string     `json:"code" binding:"required"`
	Name     string     `json:"name" binding:"required"`
	ParentID *uuid.UUID `json:"parent_id"`
	IsActive *bool      `json:"is_active"`
}

func (r departmentRequest) input() service.DepartmentInput {
	return service.DepartmentInput{Code: r.Code, Name: r.Name, ParentID: r.ParentID, IsActive: r.IsActive}
}

func (h *Handler) listDepartments(c *gin.Context) {
	page, err := h.svc.Departments.List(c.Request.Context(), listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Page(c, page)
}

func (h *Handler) getDepartment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	dept, err := h.svc.Departments.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, dept)
}

func (h *Handler) createDepartment(c *gin.Context) {
	var req departmentRequest
	if !bind(c, &req) {
		return
	}
	dept, err := h.svc.Departments.Create(c.Request.Context(), req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, dept)
}

func (h *Handler) updateDepartment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req departmentRequest
	if !bind(c, &req) {
		return
	}
	dept, err := h.svc.Departments.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, dept)
}

func (h *Handler) deleteDepartment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Departments.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

type customerRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	TaxID   string `json:"tax_id"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Region  string `json:"region"`
}

func (r customerRequest) input() service.CustomerInput {
	return service.CustomerInput{
		Code:    r.Code,
		Name:    r.Name,
		TaxID:   r.TaxID,
		Email:   r.Email,
		Phone:   r.Phone,
		Address: r.Address,
		Region:  r.Region,
	}
}

func (h *Handler) listCustomers(c *gin.Context) {
	page, err := h.svc.Customers.List(c.Request.Context(), listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Page(c, page)
}

func (h *Handler) getCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	customer, err := h.svc.Customers.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, customer)
}

func (h *Handler) createCustomer(c *gin.Context) {
	var req customerRequest
	if !bind(c, &req) {
		return
	}
	customer, err := h.svc.Customers.Create(c.Request.Context(), req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, customer)
}

func (h *Handler) updateCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req customerRequest
	if !bind(c, &req) {
		return
	}
	customer, err := h.svc.Customers.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, customer)
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Customers.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

type contractRequest struct {
	Number       string     `json:"number" binding:"required"`
	Name         string     `json:"name" binding:"required"`
	CustomerID   uuid.UUID  `json:"customer_id" binding:"required"`
	DepartmentID *uuid.UUID `json:"department_id"`
	Amount       float64    `json:"amount"`
	StartAt      string     `json:"start_at" binding:"required"`
	EndAt        string     `json:"end_at" binding:"required"`
	Notes        string     `json:"notes"`
	Status       string     `json:"status"`
}

func contractInput(c *gin.Context, req contractRequest) (service.ContractInput, bool) {
	start, err := parseDate(req.StartAt)
	if err != nil {
		invalidField(c, "start_at")
		return service.ContractInput{}, false
	}
	end, err := parseDate(req.EndAt)
	if err != nil {
		invalidField(c, "end_at")
		return service.ContractInput{}, false
	}
	return service.ContractInput{
		Number:       req.Number,
		Name:         req.Name,
		CustomerID:   req.CustomerID,
		DepartmentID: req.DepartmentID,
		Amount:       req.Amount,
		StartAt:      start,
		EndAt:        end,
		Notes:        req.Notes,
		Status:       model.ContractStatus(req.Status),
	}, true
}

func (h *Handler) listContracts(c *gin.Context) {
	page, err := h.svc.Contracts.List(c.Request.Context(), listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Page(c, page)
}

func (h *Handler) getContract(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	contract, err := h.svc.Contracts.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, contract)
}

func (h *Handler) createContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req contractRequest
	if !bind(c, &req) {
		return
	}
	input, ok := contractInput(c, req)
	if !ok {
		return
	}
	contract, err := h.svc.Contracts.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, contract)
}

func (h *Handler) updateContract(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req contractRequest
	if !bind(c, &req) {
		return
	}
	input, ok := contractInput(c, req)
	if !ok {
		return
	}
	contract, err := h.svc.Contracts.Update(c.Request.Context(), id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, contract)
}

func (h *Handler) deleteContract(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Contracts.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}
