package usecase

import (
	"sort"

	"whitelist-vpn-miniapp/internal/domain"
	"whitelist-vpn-miniapp/internal/domain/model"
)

// PlanUseCase exposes the fixed plan catalog.
type PlanUseCase struct {
	plans []model.Plan
}

// NewPlanUseCase constructs a PlanUseCase over the given catalog.
func NewPlanUseCase(plans []model.Plan) *PlanUseCase {
	cp := make([]model.Plan, len(plans))
	copy(cp, plans)
	return &PlanUseCase{plans: cp}
}

// List returns the plans cheapest first, so the trial leads.
func (uc *PlanUseCase) List() []model.Plan {
	out := make([]model.Plan, len(uc.plans))
	copy(out, uc.plans)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PriceStars < out[j].PriceStars })
	return out
}

// Get retrieves a plan by ID.
func (uc *PlanUseCase) Get(id string) (model.Plan, error) {
	for _, p := range uc.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Plan{}, domain.ErrPlanNotFound
}
