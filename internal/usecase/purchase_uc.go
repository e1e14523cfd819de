// File: internal/usecase/purchase_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"whitelist-vpn-miniapp/internal/domain"
	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/domain/ports/adapter"
	"whitelist-vpn-miniapp/internal/domain/ports/repository"
	"whitelist-vpn-miniapp/internal/infra/clock"
	"whitelist-vpn-miniapp/internal/infra/i18n"
	"whitelist-vpn-miniapp/internal/infra/logging"
	"whitelist-vpn-miniapp/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

// PurchaseUseCase turns a plan choice into an active subscription.
type PurchaseUseCase interface {
	// Purchase always returns a non-nil outcome. The error equals outcome.Err.
	Purchase(ctx context.Context, plan model.Plan, user *model.UserProfile) (*model.PurchaseOutcome, error)
	// Busy reports whether a purchase is in flight.
	Busy() bool
}

type purchaseUC struct {
	store    repository.SubscriptionStore
	invoices adapter.InvoiceClient
	bridge   adapter.HostBridge
	state    StateCell
	tr       i18n.Translator
	clock    clock.Clock

	// confirmTimeout bounds OpenInvoice; zero waits until ctx is done.
	confirmTimeout time.Duration

	busy atomic.Bool
	log  *zerolog.Logger
}

func NewPurchaseUseCase(
	store repository.SubscriptionStore,
	invoices adapter.InvoiceClient,
	bridge adapter.HostBridge,
	state StateCell,
	tr i18n.Translator,
	clk clock.Clock,
	confirmTimeout time.Duration,
	logger *zerolog.Logger,
) *purchaseUC {
	return &purchaseUC{
		store:          store,
		invoices:       invoices,
		bridge:         bridge,
		state:          state,
		tr:             tr,
		clock:          clk,
		confirmTimeout: confirmTimeout,
		log:            logger,
	}
}

func (u *purchaseUC) Busy() bool { return u.busy.Load() }

func (u *purchaseUC) Purchase(ctx context.Context, plan model.Plan, user *model.UserProfile) (*model.PurchaseOutcome, error) {
	if !u.busy.CompareAndSwap(false, true) {
		out := &model.PurchaseOutcome{Kind: model.OutcomeRejected, Plan: plan, Err: domain.ErrPurchaseInProgress}
		return out, out.Err
	}
	defer u.busy.Store(false)
	defer logging.TraceDuration(u.log, "PurchaseUC.Purchase")()

	ctx = logging.WithPlanID(ctx, plan.ID)
	if !user.IsZero() {
		ctx = logging.WithTgID(ctx, user.ID)
	}
	log := logging.With(ctx, u.log)

	start := time.Now()
	var out *model.PurchaseOutcome
	if plan.IsTrial {
		out = u.purchaseTrial(ctx, plan, user)
	} else {
		out = u.purchasePaid(ctx, plan, user)
	}
	metrics.ObservePurchase(plan.ID, string(out.Kind), time.Since(start))

	if out.Err != nil {
		log.Info().Str("outcome", string(out.Kind)).Err(out.Err).Msg("purchase did not complete")
	} else {
		log.Info().Str("outcome", string(out.Kind)).Time("expires_at", *out.Subscription.ExpiresAt).Msg("purchase completed")
	}
	return out, out.Err
}

func (u *purchaseUC) purchaseTrial(ctx context.Context, plan model.Plan, user *model.UserProfile) *model.PurchaseOutcome {
	used := user != nil && user.HasUsedTrial
	if !used {
		consumed, err := u.store.ReadTrialConsumed(ctx)
		if err != nil {
			return u.fail(plan, fmt.Errorf("read trial flag: %w", err))
		}
		used = consumed
	}
	if used {
		u.bridge.Haptic(model.HapticWarning)
		return &model.PurchaseOutcome{Kind: model.OutcomeRejected, Plan: plan, Err: domain.ErrAlreadyUsedTrial}
	}

	sub, err := u.extend(ctx, plan)
	if err != nil {
		return u.fail(plan, err)
	}
	if err := u.store.CommitTrial(ctx, sub); err != nil {
		return u.fail(plan, fmt.Errorf("commit trial: %w", err))
	}

	next := u.state.Update(func(s model.AppState) model.AppState {
		s.Subscription = sub
		if s.User != nil {
			s.User.HasUsedTrial = true
		}
		return s
	})
	return u.succeed(plan, sub, next.User, user, true)
}

func (u *purchaseUC) purchasePaid(ctx context.Context, plan model.Plan, user *model.UserProfile) *model.PurchaseOutcome {
	if user.IsZero() {
		u.bridge.Haptic(model.HapticError)
		return &model.PurchaseOutcome{Kind: model.OutcomeFailed, Plan: plan, Err: domain.ErrMissingIdentity}
	}
	u.bridge.Haptic(model.HapticHeavy)

	link, err := u.invoices.CreateInvoice(ctx, adapter.InvoiceRequest{
		UserID:     user.ID,
		PlanID:     plan.ID,
		PriceStars: plan.PriceStars,
		PlanName:   plan.Name,
	})
	if err == nil && link == "" {
		err = domain.NewInvoiceError(0, "")
	}
	if err != nil {
		var invErr *domain.InvoiceError
		if !errors.As(err, &invErr) {
			u.log.Warn().Err(err).Msg("invoice request failed")
			invErr = domain.NewInvoiceError(0, "")
		}
		u.popup("invoice_failed_title", "invoice_failed_message", invErr.Detail)
		return u.fail(plan, invErr)
	}

	status, err := u.openInvoice(ctx, link)
	if err != nil {
		u.popup("payment_failed_title", "payment_failed_message")
		return u.fail(plan, err)
	}
	switch status {
	case model.InvoiceStatusPaid:
	case model.InvoiceStatusCancelled:
		u.bridge.Haptic(model.HapticError)
		u.popup("payment_cancelled_title", "payment_cancelled_message")
		return &model.PurchaseOutcome{Kind: model.OutcomeCancelled, Plan: plan, Err: domain.ErrPaymentCancelled}
	default:
		u.popup("payment_failed_title", "payment_failed_message")
		return u.fail(plan, domain.ErrPaymentFailed)
	}

	// The host's paid status is trusted as-is; there is no settlement check here.
	sub, err := u.extend(ctx, plan)
	if err != nil {
		return u.fail(plan, err)
	}
	if err := u.store.WriteSubscription(ctx, sub); err != nil {
		return u.fail(plan, fmt.Errorf("write subscription: %w", err))
	}
	next := u.state.Update(func(s model.AppState) model.AppState {
		s.Subscription = sub
		return s
	})
	return u.succeed(plan, sub, next.User, user, false)
}

// openInvoice waits for the host's single terminal status, bounded by confirmTimeout.
func (u *purchaseUC) openInvoice(ctx context.Context, link string) (model.InvoiceStatus, error) {
	waitCtx := ctx
	if u.confirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, u.confirmTimeout)
		defer cancel()
	}
	status, err := u.bridge.OpenInvoice(waitCtx, link)
	if err == nil {
		return status, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return "", domain.ErrPaymentTimeout
	}
	return "", fmt.Errorf("%w: %w", domain.ErrPaymentFailed, err)
}

// extend computes the new subscription from the stored one. The store is the
// renewal basis for both trial and paid purchases.
func (u *purchaseUC) extend(ctx context.Context, plan model.Plan) (model.Subscription, error) {
	current, err := u.store.ReadSubscription(ctx)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("read subscription: %w", err)
	}
	basis := model.RenewalBasis(current, u.clock.Now())
	return model.NewActiveSubscription(basis.Add(plan.Duration()), plan.Name), nil
}

func (u *purchaseUC) succeed(plan model.Plan, sub model.Subscription, stateUser, caller *model.UserProfile, trial bool) *model.PurchaseOutcome {
	u.bridge.Haptic(model.HapticSuccess)
	user := stateUser
	if user == nil && caller != nil {
		cp := *caller
		if trial {
			cp.HasUsedTrial = true
		}
		user = &cp
	}
	return &model.PurchaseOutcome{Kind: model.OutcomeSuccess, Plan: plan, Subscription: &sub, User: user}
}

func (u *purchaseUC) fail(plan model.Plan, err error) *model.PurchaseOutcome {
	u.bridge.Haptic(model.HapticError)
	return &model.PurchaseOutcome{Kind: model.OutcomeFailed, Plan: plan, Err: err}
}

func (u *purchaseUC) popup(titleKey, messageKey string, args ...interface{}) {
	lang := u.state.Snapshot().Language
	u.bridge.ShowPopup(u.tr.T(lang, titleKey), u.tr.T(lang, messageKey, args...))
}
