package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/model"
	"github.com/nurpe/erp-console/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *session.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	return New(Options{BaseURL: server.URL, Timeout: 5 * time.Second, Session: store}), store
}

func TestCallResolvesRouteAndAttachesToken(t *testing.T) {
	id := uuid.New()
	var gotAuth, gotPath, gotMethod, gotSearch string
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotSearch = r.URL.Query().Get("search")
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": id, "number": "C-1"},
		})
	}))
	if err := store.Save(session.Profile{Token: "abc"}); err != nil {
		t.Fatalf("save session: %v", err)
	}

	env := client.Call(context.Background(), "contract.get", CallOptions{
		Params: map[string]string{"id": id.String()},
		Query:  map[string]string{"search": "x"},
	})
	if !env.Success || env.StatusCode != http.StatusOK {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if gotMethod != http.MethodGet || gotPath != "/contracts/"+id.String() || gotSearch != "x" {
		t.Fatalf("unexpected request %s %s search=%q", gotMethod, gotPath, gotSearch)
	}
	if gotAuth != "Bearer abc" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}

	var contract model.Contract
	if err := env.Decode(&contract); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if contract.ID != id || contract.Number != "C-1" {
		t.Fatalf("unexpected contract %+v", contract)
	}
}

func TestCallUnknownRouteAndMissingParam(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())

	env := client.Call(context.Background(), "contract.explode", CallOptions{})
	if env.Success || env.Error == nil || env.Error.Code != CodeUnknownRoute {
		t.Fatalf("expected unknown route envelope, got %+v", env)
	}
	env = client.Call(context.Background(), "contract.get", CallOptions{})
	if env.Success || env.Error == nil || env.Error.Code != CodeUnknownRoute {
		t.Fatalf("expected missing param envelope, got %+v", env)
	}
}

func TestCallNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := New(Options{BaseURL: url, Timeout: time.Second})
	env := client.Call(context.Background(), "bootstrap", CallOptions{})
	if env.Success || env.Error == nil || env.Error.Code != CodeNetworkError {
		t.Fatalf("expected network error, got %+v", env)
	}
	if ClassifyError(env.Err()).Key != MsgNetwork {
		t.Fatalf("expected network classification")
	}
}

func TestCallErrorEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"success": false,
			"error":   map[string]string{"code": CodeConflict, "message": "number already exists"},
		})
	}))
	env := client.Call(context.Background(), "customer.create", CallOptions{Body: CustomerRequest{Code: "A"}})
	if env.Success || env.Error == nil {
		t.Fatalf("expected failure, got %+v", env)
	}
	if env.Error.Code != CodeConflict || env.Error.StatusCode != http.StatusConflict {
		t.Fatalf("unexpected error %+v", env.Error)
	}
	var apiErr *APIError
	if err := env.Decode(&struct{}{}); !errors.As(err, &apiErr) || apiErr.Code != CodeConflict {
		t.Fatalf("expected decode to return api error, got %v", err)
	}
}

func TestCallNonJSONFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	env := client.Call(context.Background(), "bootstrap", CallOptions{})
	if env.Success || env.Error == nil || env.Error.Code != CodeBadResponse || env.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestSessionExpiredClearsSession(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"error":   map[string]string{"code": CodeSessionExpired, "message": "session expired"},
		})
	}))
	var fired atomic.Int32
	client.onExpired = func() { fired.Add(1) }
	if err := store.Save(session.Profile{Token: "stale"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	env := client.Call(context.Background(), "bootstrap", CallOptions{})
	if env.Success {
		t.Fatalf("expected failure")
	}
	if _, ok := store.Load(); ok {
		t.Fatalf("expected session cleared")
	}
	if fired.Load() != 1 {
		t.Fatalf("expected callback once, got %d", fired.Load())
	}
}

func TestLoginSavesProfileAndLogoutClears(t *testing.T) {
	userID := uuid.New()
	var logoutAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "alice" || body["password"] != "secret-pass" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"success": false,
				"error":   map[string]string{"code": CodeInvalidCredentials, "message": "invalid username or password"},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"token":       "tok",
				"expires_at":  "2030-01-01T00:00:00Z",
				"user":        map[string]any{"id": userID, "username": "alice"},
				"permissions": []string{model.PermContractView},
			},
		})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		logoutAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	client, store := newTestClient(t, mux)

	_, err := client.Login(context.Background(), "alice", "wrong")
	if got := ClassifyError(err).Key; got != MsgAuthPassword {
		t.Fatalf("expected password message, got %q (%v)", got, err)
	}

	profile, err := client.Login(context.Background(), "alice", "secret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if profile.User.ID != userID || profile.Token != "tok" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	cached, ok := store.Load()
	if !ok || cached.Token != "tok" || len(cached.Permissions) != 1 {
		t.Fatalf("expected cached profile, got %+v", cached)
	}

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if logoutAuth != "Bearer tok" {
		t.Fatalf("expected logout to carry token, got %q", logoutAuth)
	}
	if _, ok := store.Load(); ok {
		t.Fatalf("expected session cleared")
	}
}

func TestListDecodesMeta(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/customers" || r.URL.Query().Get("page") != "2" || r.URL.Query().Get("page_size") != "1" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    []map[string]any{{"code": "C2", "name": "Beta"}},
			"meta":    map[string]any{"page": 2, "page_size": 1, "total": 5},
		})
	}))
	page, err := client.Customers().List(context.Background(), ListParams{Page: 2, PageSize: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 5 || page.Page != 2 || len(page.Items) != 1 || page.Items[0].Code != "C2" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestUploadSendsMultipart(t *testing.T) {
	jobID := uuid.New()
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/price-imports" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false})
			return
		}
		content, _ := io.ReadAll(file)
		if header.Filename != "prices.pdf" || string(content) != "%PDF-1.4" {
			t.Errorf("unexpected file %q %q", header.Filename, content)
		}
		if r.FormValue("region") != "north" || r.FormValue("valid_from") != "2025-03-01" {
			t.Errorf("unexpected form values %v", r.Form)
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"success": true,
			"data":    map[string]any{"id": jobID, "status": "PENDING"},
		})
	}))

	job, err := client.Imports().Upload(context.Background(), UploadRequest{
		FileName:  "prices.pdf",
		Content:   []byte("%PDF-1.4"),
		Region:    "north",
		ValidFrom: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if job.ID != jobID || job.Status != model.ImportStatusPending {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestDownloadReturnsRawFile(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="purchase-order-PO-1.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.3 body"))
	}))
	file, err := client.Purchases().PDF(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if file.Name != "purchase-order-PO-1.pdf" || file.ContentType != "application/pdf" || string(file.Content) != "%PDF-1.3 body" {
		t.Fatalf("unexpected file %+v", file)
	}
}

func TestBootstrapRefreshesCachedPermissions(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"user":          map[string]any{"username": "alice"},
				"permissions":   []string{model.PermPurchaseApprove, model.PermPurchaseView},
				"notifications": []map[string]any{{"kind": "PURCHASES_AWAITING_APPROVAL", "count": 2}},
			},
		})
	}))
	if err := store.Save(session.Profile{Token: "tok", Permissions: []string{model.PermPurchaseView}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	result, err := client.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if len(result.Notifications) != 1 || result.Notifications[0].Count != 2 {
		t.Fatalf("unexpected notifications %+v", result.Notifications)
	}
	cached, _ := store.Load()
	perms := session.NewPermissionSet(cached.Permissions)
	if !perms.Has(model.PermPurchaseApprove) || cached.Token != "tok" {
		t.Fatalf("expected refreshed permissions, got %+v", cached)
	}
}
