// Package response writes the API envelope:
// {"success":true,"data":...,"meta":...} or
// {"success":false,"error":{"code":...,"message":...}}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/erp-console/internal/model"
)

const (
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeSessionExpired     = "SESSION_EXPIRED"
	CodeUserBlocked        = "USER_BLOCKED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInvalidState       = "INVALID_STATE"
	CodeInternal           = "INTERNAL"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PageMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

func OK(c *gin.Context, status int, data any) {
	body := gin.H{"success": true}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// Page writes the page items as data and the paging values as meta.
func Page[T any](c *gin.Context, page *model.Page[T]) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"meta":    PageMeta{Page: page.Page, PageSize: page.PageSize, Total: page.Total},
	})
}

// Error aborts the chain with an error envelope.
func Error(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   errorBody{Code: code, Message: message},
	})
}

// File sends a generated document as an attachment.
func File(c *gin.Context, name, contentType string, content []byte) {
	c.Header("Content-Disposition", "attachment; filename=\""+name+"\"")
	c.Data(http.StatusOK, contentType, content)
}
