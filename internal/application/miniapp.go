package application

import (
	"context"
	"fmt"

	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/usecase"
)

// PlanView is a catalog entry annotated for the current session.
type PlanView struct {
	model.Plan
	BestValue bool `json:"best_value"`
	// Unavailable is set on the trial once it has been used.
	Unavailable bool `json:"unavailable"`
	Current     bool `json:"current"`
}

// MiniApp composes usecases into the operations the view layer calls.
type MiniApp struct {
	PurchaseUC PurchaseUseCaseIface
	SessionUC  SessionUseCaseIface
	ProfileUC  ProfileUseCaseIface
	PlanUC     PlanUseCaseIface
	State      *StateContainer
	Tr         Translator
}

// NewMiniApp constructs a facade from provided usecases.
func NewMiniApp(
	purchaseUC PurchaseUseCaseIface,
	sessionUC SessionUseCaseIface,
	profileUC ProfileUseCaseIface,
	planUC PlanUseCaseIface,
	state *StateContainer,
	tr Translator,
) *MiniApp {
	return &MiniApp{
		PurchaseUC: purchaseUC,
		SessionUC:  sessionUC,
		ProfileUC:  profileUC,
		PlanUC:     planUC,
		State:      state,
		Tr:         tr,
	}
}

// Bootstrap loads identity, persisted subscription and counters into the state.
func (a *MiniApp) Bootstrap(ctx context.Context) (model.AppState, error) {
	st, err := a.SessionUC.Load(ctx)
	if err != nil {
		return model.AppState{}, fmt.Errorf("load session: %w", err)
	}
	return st, nil
}

func (a *MiniApp) Snapshot() model.AppState { return a.State.Snapshot() }

// Plans returns the catalog with per-session flags.
func (a *MiniApp) Plans() []PlanView {
	st := a.State.Snapshot()
	trialUsed := st.User != nil && st.User.HasUsedTrial
	current := ""
	if st.Subscription.Active {
		current = st.Subscription.PlanName
	}

	plans := a.PlanUC.List()
	out := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanView{
			Plan:        p,
			BestValue:   p.ID == model.BestValuePlanID,
			Unavailable: p.IsTrial && trialUsed,
			Current:     current != "" && p.Name == current,
		})
	}
	return out
}

// BuyPlan resolves the plan and the session user, then runs the purchase.
func (a *MiniApp) BuyPlan(ctx context.Context, planID string) (*model.PurchaseOutcome, error) {
	plan, err := a.PlanUC.Get(planID)
	if err != nil {
		return nil, fmt.Errorf("plan %q: %w", planID, err)
	}
	return a.PurchaseUC.Purchase(ctx, plan, a.State.Snapshot().User)
}

func (a *MiniApp) Busy() bool { return a.PurchaseUC.Busy() }

func (a *MiniApp) Profile(ctx context.Context) (*usecase.ProfileView, error) {
	return a.ProfileUC.Profile(ctx)
}

func (a *MiniApp) ShareReferral(ctx context.Context) (string, error) {
	return a.ProfileUC.ShareReferral(ctx)
}

// SetLanguage accepts only the supported codes; unlike host codes it does not default.
func (a *MiniApp) SetLanguage(ctx context.Context, code string) (model.AppState, error) {
	return a.ProfileUC.SetLanguage(ctx, model.Language(code))
}

// Translations returns the UI strings for the session language.
func (a *MiniApp) Translations() (model.Language, map[string]string) {
	lang := a.State.Snapshot().Language
	return lang, a.Tr.Table(lang)
}
