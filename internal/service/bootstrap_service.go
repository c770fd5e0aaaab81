package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nurpe/erp-console/internal/model"
)

type PurchaseCounter interface {
	CountByStatus(ctx context.Context, status model.PurchaseStatus) (int64, error)
}

type ImportCounter interface {
	CountByStatus(ctx context.Context, status model.ImportStatus) (int64, error)
}

type ContractExpiryCounter interface {
	CountEndingBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// BootstrapService builds the console startup payload.
type BootstrapService struct {
	users      UserStore
	purchases  PurchaseCounter
	imports    ImportCounter
	contracts  ContractExpiryCounter
	expiryDays int
	now        func() time.Time
}

func NewBootstrapService(
	users UserStore,
	purchases PurchaseCounter,
	imports ImportCounter,
	contracts ContractExpiryCounter,
	expiryDays int,
) *BootstrapService {
	return &BootstrapService{
		users:      users,
		purchases:  purchases,
		imports:    imports,
		contracts:  contracts,
		expiryDays: expiryDays,
		now:        time.Now,
	}
}

func (s *BootstrapService) Load(ctx context.Context, principal model.Principal) (*model.Bootstrap, error) {
	user, err := s.users.Get(ctx, principal.UserID)
	if err != nil {
		return nil, storeError(err)
	}

	var (
		awaitingApproval int64
		awaitingReview   int64
		endingSoon       int64
	)
	group, gctx := errgroup.WithContext(ctx)
	if principal.Can(model.PermPurchaseApprove) {
		group.Go(func() error {
			n, err := s.purchases.CountByStatus(gctx, model.PurchaseStatusSubmitted)
			awaitingApproval = n
			return err
		})
	}
	if principal.Can(model.PermPriceImportManage) {
		group.Go(func() error {
			n, err := s.imports.CountByStatus(gctx, model.ImportStatusReady)
			awaitingReview = n
			return err
		})
	}
	if principal.Can(model.PermContractView) {
		group.Go(func() error {
			today := dateOnly(s.now())
			n, err := s.contracts.CountEndingBetween(gctx, today, today.AddDate(0, 0, s.expiryDays))
			endingSoon = n
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	notifications := make([]model.Notification, 0, 3)
	if awaitingApproval > 0 {
		notifications = append(notifications, model.Notification{
			Kind:    model.NotifyPurchasesAwaitingApproval,
			Count:   awaitingApproval,
			Message: fmt.Sprintf("%d purchase order(s) awaiting approval", awaitingApproval),
		})
	}
	if awaitingReview > 0 {
		notifications = append(notifications, model.Notification{
			Kind:    model.NotifyImportsAwaitingReview,
			Count:   awaitingReview,
			Message: fmt.Sprintf("%d price import(s) ready for review", awaitingReview),
		})
	}
	if endingSoon > 0 {
		notifications = append(notifications, model.Notification{
			Kind:    model.NotifyContractsEndingSoon,
			Count:   endingSoon,
			Message: fmt.Sprintf("%d contract(s) end within %d days", endingSoon, s.expiryDays),
		})
	}

	permissions := append([]string{}, user.Permissions...)
	sort.Strings(permissions)

	return &model.Bootstrap{
		User:          user.Summary(),
		Permissions:   permissions,
		Notifications: notifications,
	}, nil
}
