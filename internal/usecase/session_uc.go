// File: internal/usecase/session_uc.go
package usecase

import (
	"context"

	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/domain/ports/adapter"
	"whitelist-vpn-miniapp/internal/domain/ports/repository"
	"whitelist-vpn-miniapp/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

// SessionUseCase bootstraps the application state when the view attaches.
type SessionUseCase interface {
	Load(ctx context.Context) (model.AppState, error)
}

type sessionUC struct {
	bridge   adapter.HostBridge
	store    repository.SubscriptionStore
	invoices adapter.InvoiceClient
	stats    adapter.StatsClient
	state    StateCell
	// devFallback substitutes the development profile when the host gives no user.
	// Without it a missing identity leaves the user nil, so paid plans fail
	// with ErrMissingIdentity instead of charging a made-up account.
	devFallback bool
	log         *zerolog.Logger
}

func NewSessionUseCase(
	bridge adapter.HostBridge,
	store repository.SubscriptionStore,
	invoices adapter.InvoiceClient,
	stats adapter.StatsClient,
	state StateCell,
	devFallback bool,
	logger *zerolog.Logger,
) *sessionUC {
	return &sessionUC{
		bridge:      bridge,
		store:       store,
		invoices:    invoices,
		stats:       stats,
		state:       state,
		devFallback: devFallback,
		log:         logger,
	}
}

// Load reads identity and audience counters, then rebuilds the whole
// application state. The stored subscription and trial flag are read inside
// the state update so a purchase that lands while counters are loading is kept.
// Missing pieces degrade to defaults.
func (u *sessionUC) Load(ctx context.Context) (model.AppState, error) {
	defer logging.TraceDuration(u.log, "SessionUC.Load")()

	var (
		user       *model.UserProfile
		theme      model.Theme
		totalUsers int64
	)
	lang := model.DefaultLanguage

	identity := u.bridge.Identity(ctx)
	switch {
	case identity != nil:
		user = model.NewUserProfile(*identity)
		lang = model.ParseLanguage(identity.LanguageCode)
		theme = identity.Theme
		ctx = logging.WithTgID(ctx, identity.ID)
		if identity.RawInitData != "" && u.invoices != nil {
			if err := u.invoices.Authenticate(ctx, identity.RawInitData); err != nil {
				logging.With(ctx, u.log).Warn().Err(err).Msg("backend session exchange failed")
			}
		}
	case u.devFallback:
		user = model.DevUserProfile()
	}
	log := logging.With(ctx, u.log)

	if user != nil && u.stats != nil {
		st, err := u.stats.Stats(ctx, user.ID)
		if err != nil {
			log.Warn().Err(err).Msg("failed to load audience stats")
		} else {
			totalUsers = st.TotalUsers
			user.ReferredCount = st.ReferredCount
		}
	}

	u.bridge.ApplyTheme(theme)
	next := u.state.Update(func(model.AppState) model.AppState {
		fresh := model.InitialAppState()
		fresh.User = user
		fresh.Language = lang
		fresh.TotalUsers = totalUsers

		sub, err := u.store.ReadSubscription(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to read stored subscription")
		} else {
			fresh.Subscription = sub
		}
		if fresh.User != nil {
			used, err := u.store.ReadTrialConsumed(ctx)
			if err != nil {
				log.Error().Err(err).Msg("failed to read trial flag")
			}
			fresh.User.HasUsedTrial = used
		}
		return fresh
	})
	log.Debug().Bool("host", u.bridge.Available()).Bool("active", next.Subscription.Active).Msg("session loaded")
	return next, nil
}
