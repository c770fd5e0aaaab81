package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/erp-console/internal/http/middleware"
	"github.com/nurpe/erp-console/internal/http/response"
	"github.com/nurpe/erp-console/internal/model"
	"github.com/nurpe/erp-console/internal/routes"
	"github.com/nurpe/erp-console/internal/service"
)

type Services struct {
	Auth        *service.AuthService
	Bootstrap   *service.BootstrapService
	Departments *service.DepartmentService
	Customers   *service.CustomerService
	Contracts   *service.ContractService
	Users       *service.UserService
	Products    *service.ProductService
	Bulletins   *service.BulletinService
	Pricing     *service.PricingService
	Purchases   *service.PurchaseService
	Imports     *service.ImportService
}

type Handler struct {
	svc Services
	log zerolog.Logger
}

func NewHandler(svc Services, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log.With().Str("component", "http").Logger()}
}

// Register mounts every route of the shared table. Non-public routes run
// behind authMiddleware and the route's permission check.
func (h *Handler) Register(group *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	protected := group.Group("")
	protected.Use(authMiddleware)

	mount := func(key string, handler gin.HandlerFunc) {
		route, ok := routes.Lookup(key)
		if !ok {
			panic("http: no route " + key)
		}
		if route.Public {
			routes.Mount(group, key, handler)
			return
		}
		if len(route.Permissions) == 0 {
			routes.Mount(protected, key, handler)
			return
		}
		routes.Mount(protected, key, middleware.RequirePermission(route.Permissions...), handler)
	}

	mount("auth.login", h.login)
	mount("auth.logout", h.logout)
	mount("bootstrap", h.bootstrap)

	mount("department.list", h.listDepartments)
	mount("department.get", h.getDepartment)
	mount("department.create", h.createDepartment)
	mount("department.update", h.updateDepartment)
	mount("department.delete", h.deleteDepartment)

	mount("customer.list", h.listCustomers)
	mount("customer.get", h.getCustomer)
	mount("customer.create", h.createCustomer)
	mount("customer.update", h.updateCustomer)
	mount("customer.delete", h.deleteCustomer)

	mount("contract.list", h.listContracts)
	mount("contract.get", h.getContract)
	mount("contract.create", h.createContract)
	mount("contract.update", h.updateContract)
	mount("contract.delete", h.deleteContract)

	mount("user.list", h.listUsers)
	mount("user.get", h.getUser)
	mount("user.create", h.createUser)
	mount("user.update", h.updateUser)
	mount("user.delete", h.deleteUser)
	mount("user.block", h.blockUser)
	mount("user.unblock", h.unblockUser)
	mount("user.resetPassword", h.resetPassword)

	mount("product.list", h.listProducts)
	mount("product.create", h.createProduct)

	mount("priceBulletin.list", h.listBulletins)
	mount("priceBulletin.get", h.getBulletin)
	mount("priceBulletin.create", h.createBulletin)
	mount("priceBulletin.update", h.updateBulletin)
	mount("priceBulletin.delete", h.deleteBulletin)
	mount("priceBulletin.publish", h.publishBulletin)
	mount("priceBulletin.archive", h.archiveBulletin)
	mount("priceBulletin.export", h.exportBulletin)

	mount("purchase.list", h.listPurchases)
	mount("purchase.get", h.getPurchase)
	mount("purchase.create", h.createPurchase)
	mount("purchase.update", h.updatePurchase)
	mount("purchase.delete", h.deletePurchase)
	mount("purchase.submit", h.submitPurchase)
	mount("purchase.approve", h.approvePurchase)
	mount("purchase.reject", h.rejectPurchase)
	mount("purchase.cancel", h.cancelPurchase)
	mount("purchase.quote", h.quotePrices)
	mount("purchase.pdf", h.purchasePDF)

	mount("priceImport.upload", h.uploadImport)
	mount("priceImport.get", h.getImport)
	mount("priceImport.updateRow", h.updateImportRow)
	mount("priceImport.commit", h.commitImport)
	mount("priceImport.cancel", h.cancelImport)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		response.Error(c, http.StatusForbidden, response.CodePermissionDenied, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidInput, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		response.Error(c, http.StatusConflict, response.CodeConflict, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		response.Error(c, http.StatusConflict, response.CodeInvalidState, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, err.Error())
	case errors.Is(err, service.ErrUserBlocked):
		response.Error(c, http.StatusForbidden, response.CodeUserBlocked, err.Error())
	case errors.Is(err, service.ErrSessionExpired):
		response.Error(c, http.StatusUnauthorized, response.CodeSessionExpired, err.Error())
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "internal error")
	}
}

func (h *Handler) principal(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing principal")
	}
	return principal, ok
}

// bind decodes the JSON body, answering 400 on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidInput, err.Error())
		return false
	}
	return true
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func listQuery(c *gin.Context) model.ListQuery {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return model.ListQuery{
		Page:     page,
		PageSize: size,
		Search:   strings.TrimSpace(c.Query("search")),
		Status:   strings.TrimSpace(c.Query("status")),
	}.Normalize()
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

// parseOptionalDate returns nil for an empty value.
func parseOptionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parsed, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func invalidField(c *gin.Context, field string) {
	response.Error(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid "+field)
}
