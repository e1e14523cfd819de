package application

import (
	"context"

	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/usecase"
)

// ---- small interfaces to decouple the facade from concrete usecase structs ----
// These describe the minimal surface that the facade needs. Using interfaces
// enables tests to pass in light-weight mocks.
type PurchaseUseCaseIface interface {
	Purchase(ctx context.Context, plan model.Plan, user *model.UserProfile) (*model.PurchaseOutcome, error)
	Busy() bool
}

type SessionUseCaseIface interface {
	Load(ctx context.Context) (model.AppState, error)
}

type ProfileUseCaseIface interface {
	Profile(ctx context.Context) (*usecase.ProfileView, error)
	ShareReferral(ctx context.Context) (string, error)
	SetLanguage(ctx context.Context, lang model.Language) (model.AppState, error)
}

type PlanUseCaseIface interface {
	List() []model.Plan
	Get(id string) (model.Plan, error)
}

// Translator is the i18n surface the facade exposes to the view.
type Translator interface {
	Table(lang model.Language) map[string]string
}
