// File: internal/usecase/profile_uc.go
package usecase

import (
	"context"
	"time"

	"whitelist-vpn-miniapp/internal/domain"
	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/domain/ports/adapter"
	"whitelist-vpn-miniapp/internal/infra/clock"
	"whitelist-vpn-miniapp/internal/infra/i18n"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ProfileUseCase = (*profileUC)(nil)

// ProfileView is everything the profile page renders.
type ProfileView struct {
	User         model.UserProfile        `json:"user"`
	Status       model.SubscriptionStatus `json:"status"`
	ReferralLink string                   `json:"referral_link"`
	SetupURL     string                   `json:"setup_url"`
	Language     model.Language           `json:"language"`
}

type ProfileUseCase interface {
	Profile(ctx context.Context) (*ProfileView, error)
	ShareReferral(ctx context.Context) (string, error)
	SetLanguage(ctx context.Context, lang model.Language) (model.AppState, error)
}

type profileUC struct {
	state    StateCell
	bridge   adapter.HostBridge
	tr       i18n.Translator
	clock    clock.Clock
	linkTmpl string
	setupURL string
	log      *zerolog.Logger
}

func NewProfileUseCase(state StateCell, bridge adapter.HostBridge, tr i18n.Translator, clk clock.Clock, linkTmpl, setupURL string, logger *zerolog.Logger) *profileUC {
	return &profileUC{
		state:    state,
		bridge:   bridge,
		tr:       tr,
		clock:    clk,
		linkTmpl: linkTmpl,
		setupURL: setupURL,
		log:      logger,
	}
}

// Profile derives the subscription status at the current time; nothing is cached.
func (u *profileUC) Profile(ctx context.Context) (*ProfileView, error) {
	s := u.state.Snapshot()
	if s.User == nil {
		return nil, domain.ErrMissingIdentity
	}
	return &ProfileView{
		User:         *s.User,
		Status:       s.Subscription.StatusAt(u.now()),
		ReferralLink: model.ReferralLink(u.linkTmpl, s.User.ReferralCode),
		SetupURL:     u.setupURL,
		Language:     s.Language,
	}, nil
}

// ShareReferral signals the host and shows the referral link in a popup.
func (u *profileUC) ShareReferral(ctx context.Context) (string, error) {
	s := u.state.Snapshot()
	if s.User == nil {
		return "", domain.ErrMissingIdentity
	}
	link := model.ReferralLink(u.linkTmpl, s.User.ReferralCode)
	u.bridge.Haptic(model.HapticLight)
	u.bridge.ShowPopup(u.tr.T(s.Language, "copied"), link)
	return link, nil
}

func (u *profileUC) SetLanguage(ctx context.Context, lang model.Language) (model.AppState, error) {
	if !lang.Valid() {
		return model.AppState{}, domain.ErrInvalidArgument
	}
	next := u.state.Update(func(s model.AppState) model.AppState {
		s.Language = lang
		return s
	})
	u.log.Debug().Str("language", string(lang)).Msg("language changed")
	return next, nil
}

func (u *profileUC) now() time.Time {
	if u.clock == nil {
		return time.Now()
	}
	return u.clock.Now()
}
