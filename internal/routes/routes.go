// Package routes is the single table of API routes shared by the server and
// the console client. Each route is addressed by a symbolic key such as
// "contract.list"; path templates carry :name placeholders.
package routes

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/nurpe/erp-console/internal/model"
)

var (
	ErrUnknownRoute = errors.New("unknown route")
	ErrMissingParam = errors.New("missing route parameter")
)

// Route describes one API endpoint. Permissions lists the codes of which the
// caller needs at least one; Public routes skip authentication.
type Route struct {
	Key         string
	Method      string
	Path        string
	Permissions []string
	Public      bool
}

func crud(area, path, view, create, edit, remove string) []Route {
	return []Route{
		{Key: area + ".list", Method: http.MethodGet, Path: path, Permissions: []string{view}},
		{Key: area + ".get", Method: http.MethodGet, Path: path + "/:id", Permissions: []string{view}},
		{Key: area + ".create", Method: http.MethodPost, Path: path, Permissions: []string{create}},
		{Key: area + ".update", Method: http.MethodPut, Path: path + "/:id", Permissions: []string{edit}},
		{Key: area + ".delete", Method: http.MethodDelete, Path: path + "/:id", Permissions: []string{remove}},
	}
}

var table = buildTable()

func buildTable() map[string]Route {
	var all []Route
	all = append(all,
		Route{Key: "auth.login", Method: http.MethodPost, Path: "/auth/login", Public: true},
		Route{Key: "auth.logout", Method: http.MethodPost, Path: "/auth/logout"},
		Route{Key: "bootstrap", Method: http.MethodGet, Path: "/bootstrap"},
	)
	all = append(all, crud("contract", "/contracts",
		model.PermContractView, model.PermContractCreate, model.PermContractEdit, model.PermContractDelete)...)
	all = append(all, crud("customer", "/customers",
		model.PermCustomerView, model.PermCustomerCreate, model.PermCustomerEdit, model.PermCustomerDelete)...)
	all = append(all, crud("department", "/departments",
		model.PermDepartmentView, model.PermDepartmentCreate, model.PermDepartmentEdit, model.PermDepartmentDelete)...)
	all = append(all, crud("user", "/users",
		model.PermUserView, model.PermUserCreate, model.PermUserEdit, model.PermUserDelete)...)
	all = append(all,
		Route{Key: "user.block", Method: http.MethodPost, Path: "/users/:id/block", Permissions: []string{model.PermUserEdit}},
		Route{Key: "user.unblock", Method: http.MethodPost, Path: "/users/:id/unblock", Permissions: []string{model.PermUserEdit}},
		Route{Key: "user.resetPassword", Method: http.MethodPost, Path: "/users/:id/password", Permissions: []string{model.PermUserEdit}},
	)
	all = append(all, crud("purchase", "/purchases",
		model.PermPurchaseView, model.PermPurchaseCreate, model.PermPurchaseEdit, model.PermPurchaseDelete)...)
	all = append(all,
		Route{Key: "purchase.submit", Method: http.MethodPost, Path: "/purchases/:id/submit", Permissions: []string{model.PermPurchaseEdit}},
		Route{Key: "purchase.approve", Method: http.MethodPost, Path: "/purchases/:id/approve", Permissions: []string{model.PermPurchaseApprove}},
		Route{Key: "purchase.reject", Method: http.MethodPost, Path: "/purchases/:id/reject", Permissions: []string{model.PermPurchaseApprove}},
		Route{Key: "purchase.cancel", Method: http.MethodPost, Path: "/purchases/:id/cancel", Permissions: []string{model.PermPurchaseEdit, model.PermPurchaseApprove}},
		Route{Key: "purchase.quote", Method: http.MethodPost, Path: "/purchases/quote", Permissions: []string{model.PermPurchaseCreate, model.PermPurchaseEdit}},
		Route{Key: "purchase.pdf", Method: http.MethodGet, Path: "/purchases/:id/pdf", Permissions: []string{model.PermPurchaseView}},
	)
	all = append(all, crud("priceBulletin", "/price-bulletins",
		model.PermBulletinView, model.PermBulletinCreate, model.PermBulletinEdit, model.PermBulletinDelete)...)
	all = append(all,
		Route{Key: "priceBulletin.publish", Method: http.MethodPost, Path: "/price-bulletins/:id/publish", Permissions: []string{model.PermBulletinPublish}},
		Route{Key: "priceBulletin.archive", Method: http.MethodPost, Path: "/price-bulletins/:id/archive", Permissions: []string{model.PermBulletinPublish}},
		Route{Key: "priceBulletin.export", Method: http.MethodGet, Path: "/price-bulletins/:id/export", Permissions: []string{model.PermBulletinView}},
		Route{Key: "product.list", Method: http.MethodGet, Path: "/products", Permissions: []string{model.PermProductView, model.PermPurchaseCreate, model.PermBulletinCreate}},
		Route{Key: "product.create", Method: http.MethodPost, Path: "/products", Permissions: []string{model.PermProductCreate}},
		Route{Key: "priceImport.upload", Method: http.MethodPost, Path: "/price-imports", Permissions: []string{model.PermPriceImportManage}},
		Route{Key: "priceImport.get", Method: http.MethodGet, Path: "/price-imports/:id", Permissions: []string{model.PermPriceImportManage}},
		Route{Key: "priceImport.updateRow", Method: http.MethodPatch, Path: "/price-imports/:id/rows/:line", Permissions: []string{model.PermPriceImportManage}},
		Route{Key: "priceImport.commit", Method: http.MethodPost, Path: "/price-imports/:id/commit", Permissions: []string{model.PermPriceImportManage}},
		Route{Key: "priceImport.cancel", Method: http.MethodDelete, Path: "/price-imports/:id", Permissions: []string{model.PermPriceImportManage}},
	)

	result := make(map[string]Route, len(all))
	for _, r := range all {
		if _, dup := result[r.Key]; dup {
			panic("routes: duplicate key " + r.Key)
		}
		result[r.Key] = r
	}
	return result
}

func Lookup(key string) (Route, bool) {
	r, ok := table[key]
	return r, ok
}

// All returns every route ordered by key.
func All() []Route {
	result := make([]Route, 0, len(table))
	for _, r := range table {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// Resolve returns the method and concrete path for key. Every :name segment
// is replaced by the path-escaped params[name]; params that the template does
// not use are ignored.
func Resolve(key string, params map[string]string) (string, string, error) {
	r, ok := table[key]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownRoute, key)
	}
	segments := strings.Split(r.Path, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		name := seg[1:]
		value, ok := params[name]
		if !ok || value == "" {
			return "", "", fmt.Errorf("%w: %s needs %q", ErrMissingParam, key, name)
		}
		segments[i] = url.PathEscape(value)
	}
	return r.Method, strings.Join(segments, "/"), nil
}
