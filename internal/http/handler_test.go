package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/erp-console/internal/apiclient"
	"github.com/nurpe/erp-console/internal/auth"
	"github.com/nurpe/erp-console/internal/events"
	"github.com/nurpe/erp-console/internal/http/middleware"
	"github.com/nurpe/erp-console/internal/model"
	"github.com/nurpe/erp-console/internal/service"
	"github.com/nurpe/erp-console/internal/session"
)

type memoryCustomers struct {
	items map[uuid.UUID]model.Customer
}

func (m *memoryCustomers) List(_ context.Context, q model.ListQuery) (*model.Page[model.Customer], error) {
	items := make([]model.Customer, 0, len(m.items))
	for _, c := range m.items {
		if q.Search == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(q.Search)) {
			items = append(items, c)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Code < items[j].Code })
	return &model.Page[model.Customer]{Items: items, Total: int64(len(items)), Page: q.Page, PageSize: q.PageSize}, nil
}

func (m *memoryCustomers) Get(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (m *memoryCustomers) Create(_ context.Context, c *model.Customer) error {
	for _, existing := range m.items {
		if existing.Code == c.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	m.items[c.ID] = *c
	return nil
}

func (m *memoryCustomers) Update(_ context.Context, c *model.Customer) error {
	m.items[c.ID] = *c
	return nil
}

func (m *memoryCustomers) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.items, id)
	return nil
}

type staticQuotes map[uuid.UUID]model.PriceQuote

func (s staticQuotes) FindQuotes(_ context.Context, _ string, _ time.Time, ids []uuid.UUID) (map[uuid.UUID]model.PriceQuote, error) {
	result := make(map[uuid.UUID]model.PriceQuote)
	for _, id := range ids {
		if q, ok := s[id]; ok {
			result[id] = q
		}
	}
	return result, nil
}

type stubResolver struct {
	principal model.Principal
	err       error
}

func (s stubResolver) Resolve(_ context.Context, claims auth.Claims) (model.Principal, error) {
	if s.err != nil {
		return model.Principal{}, s.err
	}
	p := s.principal
	p.UserID = claims.UserID
	p.SessionID = claims.SessionID
	return p, nil
}

type testAPI struct {
	router *gin.Engine
	token  string
}

func newTestAPI(t *testing.T, resolver stubResolver, quotes staticQuotes) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	parser := auth.NewParser("test-secret")
	token, _, err := parser.Issue(uuid.New(), uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	handler := NewHandler(Services{
		Customers: service.NewCustomerService(&memoryCustomers{items: map[uuid.UUID]model.Customer{}}),
		Pricing:   service.NewPricingService(quotes),
	}, zerolog.Nop())
	router := NewRouter(handler, middleware.Auth(parser, resolver), RouterOptions{Environment: "test"}, zerolog.Nop())
	return &testAPI{router: router, token: token}
}

func principalWith(perms ...string) model.Principal {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return model.Principal{Username: "tester", Permissions: set}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *struct {
		Page     int   `json:"page"`
		PageSize int   `json:"page_size"`
		Total    int64 `json:"total"`
	} `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *testAPI) do(t *testing.T, method, path string, body any, token string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, APIPrefix+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
	}
	return rec.Code, env
}

func TestAuthMiddlewareRejections(t *testing.T) {
	api := newTestAPI(t, stubResolver{principal: principalWith(model.PermCustomerView)}, nil)

	code, env := api.do(t, http.MethodGet, "/customers", nil, "")
	if code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED, got %d %+v", code, env.Error)
	}

	code, env = api.do(t, http.MethodGet, "/customers", nil, "not-a-jwt")
	if code != http.StatusUnauthorized || env.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED for garbage token, got %d %+v", code, env.Error)
	}

	expired := newTestAPI(t, stubResolver{err: service.ErrSessionExpired}, nil)
	code, env = expired.do(t, http.MethodGet, "/customers", nil, expired.token)
	if code != http.StatusUnauthorized || env.Error.Code != "SESSION_EXPIRED" {
		t.Fatalf("expected SESSION_EXPIRED, got %d %+v", code, env.Error)
	}

	blocked := newTestAPI(t, stubResolver{err: service.ErrUserBlocked}, nil)
	code, env = blocked.do(t, http.MethodGet, "/customers", nil, blocked.token)
	if code != http.StatusUnauthorized || env.Error.Code != "USER_BLOCKED" {
		t.Fatalf("expected USER_BLOCKED, got %d %+v", code, env.Error)
	}
}

func TestPermissionCheck(t *testing.T) {
	api := newTestAPI(t, stubResolver{principal: principalWith(model.PermContractView)}, nil)
	code, env := api.do(t, http.MethodGet, "/customers", nil, api.token)
	if code != http.StatusForbidden || env.Error == nil || env.Error.Code != "PERMISSION_DENIED" {
		t.Fatalf("expected PERMISSION_DENIED, got %d %+v", code, env.Error)
	}

	admin := newTestAPI(t, stubResolver{principal: principalWith(model.PermAll)}, nil)
	code, env = admin.do(t, http.MethodGet, "/customers", nil, admin.token)
	if code != http.StatusOK || !env.Success {
		t.Fatalf("expected wildcard to pass, got %d %+v", code, env.Error)
	}
}

func TestCustomerCRUD(t *testing.T) {
	api := newTestAPI(t, stubResolver{principal: principalWith(
		model.PermCustomerView, model.PermCustomerCreate, model.PermCustomerEdit, model.PermCustomerDelete,
	)}, nil)

	code, env := api.do(t, http.MethodPost, "/customers", map[string]string{"code": "ACME", "name": "Acme"}, api.token)
	if code != http.StatusCreated || !env.Success {
		t.Fatalf("create: %d %+v", code, env.Error)
	}
	var created model.Customer
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode customer: %v", err)
	}

	code, env = api.do(t, http.MethodPost, "/customers", map[string]string{"code": "ACME", "name": "Again"}, api.token)
	if code != http.StatusConflict || env.Error.Code != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %d %+v", code, env.Error)
	}

	code, env = api.do(t, http.MethodPost, "/customers", map[string]string{"code": "X"}, api.token)
	if code != http.StatusBadRequest || env.Error.Code != "INVALID_INPUT" {
		t.Fatalf("expected INVALID_INPUT, got %d %+v", code, env.Error)
	}

	code, env = api.do(t, http.MethodGet, "/customers?page=1&page_size=500", nil, api.token)
	if code != http.StatusOK || env.Meta == nil {
		t.Fatalf("list: %d %+v", code, env.Error)
	}
	if env.Meta.Total != 1 || env.Meta.PageSize != model.MaxPageSize || env.Meta.Page != 1 {
		t.Fatalf("unexpected meta %+v", env.Meta)
	}

	code, env = api.do(t, http.MethodPut, "/customers/"+created.ID.String(),
		map[string]string{"code": "ACME", "name": "Acme Corp", "email": "ops@acme.test"}, api.token)
	if code != http.StatusOK {
		t.Fatalf("update: %d %+v", code, env.Error)
	}

	code, env = api.do(t, http.MethodGet, "/customers/not-a-uuid", nil, api.token)
	if code != http.StatusBadRequest || env.Error.Code != "INVALID_INPUT" {
		t.Fatalf("expected invalid id, got %d %+v", code, env.Error)
	}

	code, _ = api.do(t, http.MethodDelete, "/customers/"+created.ID.String(), nil, api.token)
	if code != http.StatusOK {
		t.Fatalf("delete: %d", code)
	}
	code, env = api.do(t, http.MethodGet, "/customers/"+created.ID.String(), nil, api.token)
	if code != http.StatusNotFound || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %d %+v", code, env.Error)
	}
}

func TestQuoteEndpointKeepsOrder(t *testing.T) {
	cement, sand := uuid.New(), uuid.New()
	bulletinID := uuid.New()
	api := newTestAPI(t, stubResolver{principal: principalWith(model.PermPurchaseCreate)}, staticQuotes{
		cement: {ProductID: cement, UnitPrice: 12.5, BulletinID: &bulletinID, Found: true},
	})

	code, env := api.do(t, http.MethodPost, "/purchases/quote", map[string]any{
		"region":      "north",
		"date":        "2025-04-01",
		"product_ids": []uuid.UUID{sand, cement, sand},
	}, api.token)
	if code != http.StatusOK {
		t.Fatalf("quote: %d %+v", code, env.Error)
	}
	var quotes []model.PriceQuote
	if err := json.Unmarshal(env.Data, &quotes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(quotes) != 3 || quotes[0].Found || !quotes[1].Found || quotes[1].UnitPrice != 12.5 || quotes[2].ProductID != sand {
		t.Fatalf("unexpected quotes %+v", quotes)
	}

	code, env = api.do(t, http.MethodPost, "/purchases/quote", map[string]any{"region": "north", "date": "yesterday"}, api.token)
	if code != http.StatusBadRequest || env.Error.Code != "INVALID_INPUT" {
		t.Fatalf("expected bad date rejected, got %d %+v", code, env.Error)
	}
}

func TestHandleErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(Services{}, zerolog.Nop())
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: customer", service.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{service.ErrPermissionDenied, http.StatusForbidden, "PERMISSION_DENIED"},
		{fmt.Errorf("%w: name is required", service.ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT"},
		{service.ErrConflict, http.StatusConflict, "CONFLICT"},
		{service.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{service.ErrUserBlocked, http.StatusForbidden, "USER_BLOCKED"},
		{service.ErrSessionExpired, http.StatusUnauthorized, "SESSION_EXPIRED"},
		{errors.New("db down"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		h.handleError(c, tc.err)

		var env envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rec.Code != tc.status || env.Success || env.Error == nil || env.Error.Code != tc.code {
			t.Fatalf("%v: expected %d %s, got %d %+v", tc.err, tc.status, tc.code, rec.Code, env.Error)
		}
	}
}

func TestParseDateLayouts(t *testing.T) {
	for _, raw := range []string{"2025-01-31", "2025-01-31T10:00:00", "2025-01-31T10:00:00Z"} {
		got, err := parseDate(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got.Year() != 2025 || got.Month() != time.January || got.Day() != 31 {
			t.Fatalf("parse %q: got %v", raw, got)
		}
	}
	if _, err := parseDate("31.01.2025"); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if got, err := parseOptionalDate(" "); err != nil || got != nil {
		t.Fatalf("expected nil date, got %v %v", got, err)
	}
}

func TestClientAgainstRouter(t *testing.T) {
	api := newTestAPI(t, stubResolver{principal: principalWith(model.PermCustomerView, model.PermCustomerCreate)}, nil)
	server := httptest.NewServer(api.router)
	defer server.Close()

	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err := store.Save(session.Profile{Token: api.token}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	client := apiclient.New(apiclient.Options{BaseURL: server.URL + APIPrefix, Session: store})

	created, err := client.Customers().Create(context.Background(), apiclient.CustomerRequest{Code: "B1", Name: "Builder"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	page, err := client.Customers().List(context.Background(), apiclient.ListParams{Search: "build"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != created.ID {
		t.Fatalf("unexpected page %+v", page)
	}

	var apiErr *apiclient.APIError
	if err := client.Customers().Delete(context.Background(), created.ID); !errors.As(err, &apiErr) || apiErr.Code != apiclient.CodePermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestUploadRejectsOversizeFileBeforeReading(t *testing.T) {
	gin.SetMode(gin.TestMode)
	parser := auth.NewParser("test-secret")
	token, _, err := parser.Issue(uuid.New(), uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	imports := service.NewImportService(nil, nil, nil, service.ImportSettings{MaxFileBytes: 16}, events.Nop{}, zerolog.Nop())
	handler := NewHandler(Services{Imports: imports}, zerolog.Nop())
	resolver := stubResolver{principal: principalWith(model.PermPriceImportManage)}
	router := NewRouter(handler, middleware.Auth(parser, resolver), RouterOptions{Environment: "test"}, zerolog.Nop())

	upload := func(size int) (int, envelope) {
		var body bytes.Buffer
		form := multipart.NewWriter(&body)
		part, err := form.CreateFormFile("file", "prices.pdf")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		if _, err := part.Write(append([]byte("%PDF-1.4 "), bytes.Repeat([]byte("x"), size)...)); err != nil {
			t.Fatalf("write part: %v", err)
		}
		_ = form.WriteField("region", "north")
		_ = form.WriteField("valid_from", "2026-01-01")
		if err := form.Close(); err != nil {
			t.Fatalf("close form: %v", err)
		}
		req := httptest.NewRequest(http.MethodPost, APIPrefix+"/price-imports", &body)
		req.Header.Set("Content-Type", form.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		var env envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v (%s)", err, rec.Body.String())
		}
		return rec.Code, env
	}

	code, env := upload(1024)
	if code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "INVALID_INPUT" || !strings.Contains(env.Error.Message, "exceeds 16 bytes") {
		t.Fatalf("expected size rejection, got %d %+v", code, env.Error)
	}

	code, env = upload(256 << 10)
	if code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "INVALID_INPUT" {
		t.Fatalf("expected oversize body rejected, got %d %+v", code, env.Error)
	}
}
