package model

import (
	"sort"
	"time"

	"whitelist-vpn-miniapp/internal/domain"
)

const (
	// TrialPeriod is the fixed length of the one-time trial, independent of DurationMonths.
	TrialPeriod = 7 * 24 * time.Hour
	// BillingMonth approximates a month as 30 days; not a calendar month.
	BillingMonth = 30 * 24 * time.Hour

	BestValuePlanID = "12m"
)

// Plan is an immutable catalog entry priced in Telegram Stars.
type Plan struct {
	ID             string `json:"id"`
	DurationMonths int    `json:"duration_months"`
	PriceStars     int64  `json:"price_stars"`
	IsTrial        bool   `json:"is_trial"`
	Name           string `json:"name"`
}

func (p Plan) IsZero() bool { return p.ID == "" }

// Duration is the entitlement a successful purchase of p adds to the basis time.
func (p Plan) Duration() time.Duration {
	if p.IsTrial {
		return TrialPeriod
	}
	return time.Duration(p.DurationMonths) * BillingMonth
}

var defaultCatalog = []Plan{
	{ID: "trial", DurationMonths: 0, PriceStars: 0, IsTrial: true, Name: "Trial"},
	{ID: "1m", DurationMonths: 1, PriceStars: 100, Name: "1 Month"},
	{ID: "3m", DurationMonths: 3, PriceStars: 270, Name: "3 Months"},
	{ID: "6m", DurationMonths: 6, PriceStars: 500, Name: "6 Months"},
	{ID: "12m", DurationMonths: 12, PriceStars: 900, Name: "1 Year"},
}

// DefaultCatalog returns a copy of the fixed plan catalog, cheapest first.
func DefaultCatalog() []Plan {
	out := make([]Plan, len(defaultCatalog))
	copy(out, defaultCatalog)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PriceStars < out[j].PriceStars })
	return out
}

// FindPlan looks a plan up in the catalog by id.
func FindPlan(id string) (Plan, error) {
	for _, p := range defaultCatalog {
		if p.ID == id {
			return p, nil
		}
	}
	return Plan{}, domain.ErrPlanNotFound
}
