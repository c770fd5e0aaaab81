package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/http/response"
	"github.com/nurpe/erp-console/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type productRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
	Unit string `json:"unit" binding:"required"`
}

func (h *Handler) listProducts(c *gin.Context) {
	page, err := h.svc.Products.List(c.Request.Context(), listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Page(c, page)
}

func (h *Handler) createProduct(c *gin.Context) {
	var req productRequest
	if !bind(c, &req) {
		return
	}
	product, err := h.svc.Products.Create(c.Request.Context(), service.ProductInput{
		Code: req.Code,
		Name: req.Name,
		Unit: req.Unit,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, product)
}

type bulletinItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	UnitPrice float64   `json:"unit_price"`
}

type bulletinRequest struct {
	Number    string                `json:"number" binding:"required"`
	Region    string                `json:"region" binding:"required"`
	ValidFrom string                `json:"valid_from" binding:"required"`
	ValidTo   string                `json:"valid_to"`
	Items     []bulletinItemRequest `json:"items" binding:"dive"`
}

func bulletinInput(c *gin.Context, req bulletinRequest) (service.BulletinInput, bool) {
	from, err := parseDate(req.ValidFrom)
	if err != nil {
		invalidField(c, "valid_from")
		return service.BulletinInput{}, false
	}
	to, err := parseOptionalDate(req.ValidTo)
	if err != nil {
		invalidField(c, "valid_to")
		return service.BulletinInput{}, false
	}
	items := make([]service.BulletinItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.BulletinItemInput{ProductID: item.ProductID, UnitPrice: item.UnitPrice})
	}
	return service.BulletinInput{
		Number:    req.Number,
		Region:    req.Region,
		ValidFrom: from,
		ValidTo:   to,
		Items:     items,
	}, true
}

func (h *Handler) listBulletins(c *gin.Context) {
	page, err := h.svc.Bulletins.List(c.Request.Context(), listQuery(c), strings.TrimSpace(c.Query("region")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Page(c, page)
}

func (h *Handler) getBulletin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	bulletin, err := h.svc.Bulletins.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, bulletin)
}

func (h *Handler) createBulletin(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req bulletinRequest
	if !bind(c, &req) {
		return
	}
	input, ok := bulletinInput(c, req)
	if !ok {
		return
	}
	bulletin, err := h.svc.Bulletins.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, bulletin)
}

func (h *Handler) updateBulletin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req bulletinRequest
	if !bind(c, &req) {
		return
	}
	input, ok := bulletinInput(c, req)
	if !ok {
		return
	}
	bulletin, err := h.svc.Bulletins.Update(c.Request.Context(), id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, bulletin)
}

func (h *Handler) deleteBulletin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Bulletins.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *Handler) publishBulletin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	bulletin, err := h.svc.Bulletins.Publish(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, bulletin)
}

func (h *Handler) archiveBulletin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	bulletin, err := h.svc.Bulletins.Archive(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, bulletin)
}

func (h *Handler) exportBulletin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.svc.Bulletins.Export(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.File(c, result.FileName, xlsxContentType, result.Content)
}
