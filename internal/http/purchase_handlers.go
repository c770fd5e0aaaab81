package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/http/response"
	"github.com/nurpe/erp-console/internal/model"
	"github.com/nurpe/erp-console/internal/service"
)

type purchaseLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  float64   `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
}

type purchaseRequest struct {
	Number     string                `json:"number" binding:"required"`
	CustomerID uuid.UUID             `json:"customer_id" binding:"required"`
	ContractID *uuid.UUID            `json:"contract_id"`
	Region     string                `json:"region" binding:"required"`
	OrderDate  string                `json:"order_date" binding:"required"`
	Lines      []purchaseLineRequest `json:"lines" binding:"dive"`
}

func purchaseInput(c *gin.Context, req purchaseRequest) (service.PurchaseInput, bool) {
	orderDate, err := parseDate(req.OrderDate)
	if err != nil {
		invalidField(c, "order_date")
		return service.PurchaseInput{}, false
	}
	lines := make([]service.PurchaseLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, service.PurchaseLineInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return service.PurchaseInput{
		Number:     req.Number,
		CustomerID: req.CustomerID,
		ContractID: req.ContractID,
		Region:     req.Region,
		OrderDate:  orderDate,
		Lines:      lines,
	}, true
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type quoteRequest struct {
	Region     string      `json:"region" binding:"required"`
	Date       string      `json:"date" binding:"required"`
	ProductIDs []uuid.UUID `json:"product_ids"`
}

func (h *Handler) listPurchases(c *gin.Context) {
	page, err := h.svc.Purchases.List(c.Request.Context(), listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Page(c, page)
}

func (h *Handler) getPurchase(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.svc.Purchases.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, order)
}

func (h *Handler) createPurchase(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req purchaseRequest
	if !bind(c, &req) {
		return
	}
	input, ok := purchaseInput(c, req)
	if !ok {
		return
	}
	order, err := h.svc.Purchases.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, order)
}

func (h *Handler) updatePurchase(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req purchaseRequest
	if !bind(c, &req) {
		return
	}
	input, ok := purchaseInput(c, req)
	if !ok {
		return
	}
	order, err := h.svc.Purchases.Update(c.Request.Context(), id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, order)
}

func (h *Handler) deletePurchase(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Purchases.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *Handler) submitPurchase(c *gin.Context) {
	h.purchaseAction(c, func(principal model.Principal, id uuid.UUID) (*model.PurchaseOrder, error) {
		return h.svc.Purchases.Submit(c.Request.Context(), id)
	})
}

func (h *Handler) approvePurchase(c *gin.Context) {
	h.purchaseAction(c, func(principal model.Principal, id uuid.UUID) (*model.PurchaseOrder, error) {
		return h.svc.Purchases.Approve(c.Request.Context(), principal, id)
	})
}

func (h *Handler) cancelPurchase(c *gin.Context) {
	h.purchaseAction(c, func(principal model.Principal, id uuid.UUID) (*model.PurchaseOrder, error) {
		return h.svc.Purchases.Cancel(c.Request.Context(), id)
	})
}

func (h *Handler) rejectPurchase(c *gin.Context) {
	var req rejectRequest
	if !bind(c, &req) {
		return
	}
	h.purchaseAction(c, func(principal model.Principal, id uuid.UUID) (*model.PurchaseOrder, error) {
		return h.svc.Purchases.Reject(c.Request.Context(), principal, id, req.Reason)
	})
}

func (h *Handler) purchaseAction(c *gin.Context, action func(model.Principal, uuid.UUID) (*model.PurchaseOrder, error)) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := action(principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, order)
}

func (h *Handler) quotePrices(c *gin.Context) {
	var req quoteRequest
	if !bind(c, &req) {
		return
	}
	day, err := parseDate(req.Date)
	if err != nil {
		invalidField(c, "date")
		return
	}
	quotes, err := h.svc.Pricing.Quote(c.Request.Context(), service.QuoteInput{
		Region:     req.Region,
		Date:       day,
		ProductIDs: req.ProductIDs,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	if quotes == nil {
		quotes = []model.PriceQuote{}
	}
	response.OK(c, http.StatusOK, quotes)
}

func (h *Handler) purchasePDF(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.svc.Purchases.PDF(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.File(c, result.FileName, "application/pdf", result.Content)
}
