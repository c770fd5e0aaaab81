package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/http/response"
	"github.com/nurpe/erp-console/internal/service"
)

// multipartOverhead leaves room for the form fields and part headers around
// the file itself.
const multipartOverhead = 64 << 10

type rowPatchRequest struct {
	ProductID *uuid.UUID `json:"product_id"`
	UnitPrice *float64   `json:"unit_price"`
	Excluded  *bool      `json:"excluded"`
}

type commitRequest struct {
	Number string `json:"number"`
}

func (h *Handler) uploadImport(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	limit := h.svc.Imports.MaxFileBytes()
	if limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fileTooLarge(c, limit)
			return
		}
		invalidField(c, "file")
		return
	}
	if limit > 0 && header.Size > limit {
		fileTooLarge(c, limit)
		return
	}
	file, err := header.Open()
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		h.handleError(c, err)
		return
	}

	var validFrom time.Time
	if raw := strings.TrimSpace(c.PostForm("valid_from")); raw != "" {
		validFrom, err = parseDate(raw)
		if err != nil {
			invalidField(c, "valid_from")
			return
		}
	}

	job, err := h.svc.Imports.Upload(c.Request.Context(), principal, service.UploadInput{
		FileName:  header.Filename,
		Content:   content,
		Region:    c.PostForm("region"),
		ValidFrom: validFrom,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusAccepted, job)
}

func (h *Handler) getImport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	job, err := h.svc.Imports.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, job)
}

func (h *Handler) updateImportRow(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	lineNo, err := strconv.Atoi(c.Param("line"))
	if err != nil || lineNo < 1 {
		invalidField(c, "line")
		return
	}
	var req rowPatchRequest
	if !bind(c, &req) {
		return
	}
	row, err := h.svc.Imports.UpdateRow(c.Request.Context(), id, lineNo, service.RowPatch{
		ProductID: req.ProductID,
		UnitPrice: req.UnitPrice,
		Excluded:  req.Excluded,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, row)
}

func (h *Handler) commitImport(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req commitRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	bulletin, err := h.svc.Imports.Commit(c.Request.Context(), principal, id, service.CommitInput{Number: req.Number})
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, bulletin)
}

func (h *Handler) cancelImport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	job, err := h.svc.Imports.Cancel(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, job)
}

func fileTooLarge(c *gin.Context, limit int64) {
	response.Error(c, http.StatusBadRequest, response.CodeInvalidInput, fmt.Sprintf("invalid input: file exceeds %d bytes", limit))
}
