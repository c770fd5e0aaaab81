package apiclient

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/model"
)

func itoa(v int) string { return strconv.Itoa(v) }

func idParams(id uuid.UUID) map[string]string {
	return map[string]string{"id": id.String()}
}

func call[T any](ctx context.Context, c *Client, key string, opts CallOptions) (*T, error) {
	var out T
	if err := c.Call(ctx, key, opts).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func list[T any](ctx context.Context, c *Client, key string, params ListParams) (*model.Page[T], error) {
	env := c.Call(ctx, key, CallOptions{Query: params.query()})
	var items []T
	if err := env.Decode(&items); err != nil {
		return nil, err
	}
	page := &model.Page[T]{Items: items, Total: int64(len(items))}
	if env.Meta != nil {
		page.Page = env.Meta.Page
		page.PageSize = env.Meta.PageSize
		page.Total = env.Meta.Total
	}
	return page, nil
}

// Resource is the list/get/create/update/delete wrapper of one feature area.
type Resource[T any, R any] struct {
	c    *Client
	area string
}

func (r Resource[T, R]) List(ctx context.Context, params ListParams) (*model.Page[T], error) {
	return list[T](ctx, r.c, r.area+".list", params)
}

func (r Resource[T, R]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	return call[T](ctx, r.c, r.area+".get", CallOptions{Params: idParams(id)})
}

func (r Resource[T, R]) Create(ctx context.Context, req R) (*T, error) {
	return call[T](ctx, r.c, r.area+".create", CallOptions{Body: req})
}

func (r Resource[T, R]) Update(ctx context.Context, id uuid.UUID, req R) (*T, error) {
	return call[T](ctx, r.c, r.area+".update", CallOptions{Params: idParams(id), Body: req})
}

func (r Resource[T, R]) Delete(ctx context.Context, id uuid.UUID) error {
	return r.c.Call(ctx, r.area+".delete", CallOptions{Params: idParams(id)}).Err()
}

func (c *Client) Contracts() Resource[model.Contract, ContractRequest] {
	return Resource[model.Contract, ContractRequest]{c: c, area: "contract"}
}

func (c *Client) Customers() Resource[model.Customer, CustomerRequest] {
	return Resource[model.Customer, CustomerRequest]{c: c, area: "customer"}
}

func (c *Client) Departments() Resource[model.Department, DepartmentRequest] {
	return Resource[model.Department, DepartmentRequest]{c: c, area: "department"}
}

type UsersAPI struct {
	Resource[model.User, UserRequest]
}

func (c *Client) Users() UsersAPI {
	return UsersAPI{Resource[model.User, UserRequest]{c: c, area: "user"}}
}

func (u UsersAPI) Block(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return call[model.User](ctx, u.c, "user.block", CallOptions{Params: idParams(id)})
}

func (u UsersAPI) Unblock(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return call[model.User](ctx, u.c, "user.unblock", CallOptions{Params: idParams(id)})
}

func (u UsersAPI) ResetPassword(ctx context.Context, id uuid.UUID, password string) error {
	return u.c.Call(ctx, "user.resetPassword", CallOptions{
		Params: idParams(id),
		Body:   map[string]string{"password": password},
	}).Err()
}

type PurchasesAPI struct {
	Resource[model.PurchaseOrder, PurchaseRequest]
}

func (c *Client) Purchases() PurchasesAPI {
	return PurchasesAPI{Resource[model.PurchaseOrder, PurchaseRequest]{c: c, area: "purchase"}}
}

func (p PurchasesAPI) Submit(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	return call[model.PurchaseOrder](ctx, p.c, "purchase.submit", CallOptions{Params: idParams(id)})
}

func (p PurchasesAPI) Approve(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	return call[model.PurchaseOrder](ctx, p.c, "purchase.approve", CallOptions{Params: idParams(id)})
}

func (p PurchasesAPI) Reject(ctx context.Context, id uuid.UUID, reason string) (*model.PurchaseOrder, error) {
	return call[model.PurchaseOrder](ctx, p.c, "purchase.reject", CallOptions{
		Params: idParams(id),
		Body:   map[string]string{"reason": reason},
	})
}

func (p PurchasesAPI) Cancel(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	return call[model.PurchaseOrder](ctx, p.c, "purchase.cancel", CallOptions{Params: idParams(id)})
}

func (p PurchasesAPI) Quote(ctx context.Context, req QuoteRequest) ([]model.PriceQuote, error) {
	quotes, err := call[[]model.PriceQuote](ctx, p.c, "purchase.quote", CallOptions{Body: req})
	if err != nil {
		return nil, err
	}
	return *quotes, nil
}

func (p PurchasesAPI) PDF(ctx context.Context, id uuid.UUID) (*File, error) {
	return download(ctx, p.c, "purchase.pdf", id)
}

type BulletinsAPI struct {
	Resource[model.PriceBulletin, BulletinRequest]
}

func (c *Client) Bulletins() BulletinsAPI {
	return BulletinsAPI{Resource[model.PriceBulletin, BulletinRequest]{c: c, area: "priceBulletin"}}
}

func (b BulletinsAPI) Publish(ctx context.Context, id uuid.UUID) (*model.PriceBulletin, error) {
	return call[model.PriceBulletin](ctx, b.c, "priceBulletin.publish", CallOptions{Params: idParams(id)})
}

func (b BulletinsAPI) Archive(ctx context.Context, id uuid.UUID) (*model.PriceBulletin, error) {
	return call[model.PriceBulletin](ctx, b.c, "priceBulletin.archive", CallOptions{Params: idParams(id)})
}

func (b BulletinsAPI) Export(ctx context.Context, id uuid.UUID) (*File, error) {
	return download(ctx, b.c, "priceBulletin.export", id)
}

type ProductsAPI struct {
	c *Client
}

func (c *Client) Products() ProductsAPI {
	return ProductsAPI{c: c}
}

func (p ProductsAPI) List(ctx context.Context, params ListParams) (*model.Page[model.Product], error) {
	return list[model.Product](ctx, p.c, "product.list", params)
}

func (p ProductsAPI) Create(ctx context.Context, req ProductRequest) (*model.Product, error) {
	return call[model.Product](ctx, p.c, "product.create", CallOptions{Body: req})
}

type ImportsAPI struct {
	c *Client
}

func (c *Client) Imports() ImportsAPI {
	return ImportsAPI{c: c}
}

func (i ImportsAPI) Upload(ctx context.Context, req UploadRequest) (*model.PriceImportJob, error) {
	form := map[string]string{"region": req.Region}
	if !req.ValidFrom.IsZero() {
		form["valid_from"] = FormatDate(req.ValidFrom)
	}
	return call[model.PriceImportJob](ctx, i.c, "priceImport.upload", CallOptions{
		File: &Upload{Field: "file", Name: req.FileName, Content: req.Content},
		Form: form,
	})
}

func (i ImportsAPI) Get(ctx context.Context, id uuid.UUID) (*model.PriceImportJob, error) {
	return call[model.PriceImportJob](ctx, i.c, "priceImport.get", CallOptions{Params: idParams(id)})
}

func (i ImportsAPI) UpdateRow(ctx context.Context, id uuid.UUID, lineNo int, patch RowPatch) (*model.PriceImportRow, error) {
	return call[model.PriceImportRow](ctx, i.c, "priceImport.updateRow", CallOptions{
		Params: map[string]string{"id": id.String(), "line": itoa(lineNo)},
		Body:   patch,
	})
}

func (i ImportsAPI) Commit(ctx context.Context, id uuid.UUID, number string) (*model.PriceBulletin, error) {
	return call[model.PriceBulletin](ctx, i.c, "priceImport.commit", CallOptions{
		Params: idParams(id),
		Body:   map[string]string{"number": number},
	})
}

func (i ImportsAPI) Cancel(ctx context.Context, id uuid.UUID) (*model.PriceImportJob, error) {
	return call[model.PriceImportJob](ctx, i.c, "priceImport.cancel", CallOptions{Params: idParams(id)})
}

// Bootstrap loads the startup payload and refreshes the permissions cached
// with the session.
func (c *Client) Bootstrap(ctx context.Context) (*model.Bootstrap, error) {
	result, err := call[model.Bootstrap](ctx, c, "bootstrap", CallOptions{})
	if err != nil {
		return nil, err
	}
	if c.session != nil {
		if profile, ok := c.session.Load(); ok {
			profile.User = result.User
			profile.Permissions = result.Permissions
			if err := c.session.Save(*profile); err != nil {
				c.log.Warn().Err(err).Msg("refresh cached permissions")
			}
		}
	}
	return result, nil
}

// File is a downloaded document.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

func download(ctx context.Context, c *Client, key string, id uuid.UUID) (*File, error) {
	env := c.Call(ctx, key, CallOptions{Params: idParams(id)})
	if err := env.Err(); err != nil {
		return nil, err
	}
	return &File{Name: env.FileName, ContentType: env.ContentType, Content: env.Raw}, nil
}
