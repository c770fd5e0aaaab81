package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/model"
)

func TestBootstrapFiltersNotificationsByPermission(t *testing.T) {
	users := newFakeUsers()
	products := newFakeProducts()
	purchases := newFakePurchases(products)
	imports := newFakeImports(newFakeBulletins())
	contracts := newFakeContracts()

	purchases.items[uuid.New()] = model.PurchaseOrder{Status: model.PurchaseStatusSubmitted}
	purchases.items[uuid.New()] = model.PurchaseOrder{Status: model.PurchaseStatusSubmitted}
	purchases.items[uuid.New()] = model.PurchaseOrder{Status: model.PurchaseStatusDraft}
	imports.jobs[uuid.New()] = model.PriceImportJob{Status: model.ImportStatusReady}

	now := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)
	contracts.items[uuid.New()] = model.Contract{Status: model.ContractStatusActive, EndAt: day("2026-05-20")}
	contracts.items[uuid.New()] = model.Contract{Status: model.ContractStatusActive, EndAt: day("2026-12-31")}

	approver := model.User{
		ID:          uuid.New(),
		Username:    "approver",
		Permissions: model.StringList{model.PermPurchaseApprove, model.PermContractView},
	}
	users.items[approver.ID] = approver

	svc := NewBootstrapService(users, purchases, imports, contracts, 30)
	svc.now = func() time.Time { return now }

	payload, err := svc.Load(context.Background(), model.NewPrincipal(approver, uuid.New()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if payload.User.Username != "approver" {
		t.Fatalf("unexpected user %+v", payload.User)
	}
	if len(payload.Permissions) != 2 || payload.Permissions[0] != model.PermContractView {
		t.Fatalf("expected sorted permissions, got %v", payload.Permissions)
	}
	if len(payload.Notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %+v", payload.Notifications)
	}
	if n := payload.Notifications[0]; n.Kind != model.NotifyPurchasesAwaitingApproval || n.Count != 2 {
		t.Fatalf("unexpected purchase notification %+v", n)
	}
	if n := payload.Notifications[1]; n.Kind != model.NotifyContractsEndingSoon || n.Count != 1 {
		t.Fatalf("unexpected contract notification %+v", n)
	}
}

func TestBootstrapOmitsZeroCounts(t *testing.T) {
	users := newFakeUsers()
	admin := model.User{ID: uuid.New(), Username: "admin", Permissions: model.StringList{model.PermAll}}
	users.items[admin.ID] = admin

	svc := NewBootstrapService(users, newFakePurchases(newFakeProducts()), newFakeImports(newFakeBulletins()), newFakeContracts(), 30)
	payload, err := svc.Load(context.Background(), model.NewPrincipal(admin, uuid.New()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(payload.Notifications) != 0 {
		t.Fatalf("expected no notifications, got %+v", payload.Notifications)
	}
	if len(payload.Permissions) != 1 || payload.Permissions[0] != model.PermAll {
		t.Fatalf("unexpected permissions %v", payload.Permissions)
	}
}
