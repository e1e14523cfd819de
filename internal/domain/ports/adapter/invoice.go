package adapter

import "context"

// InvoiceRequest is the body sent to the remote invoice endpoint.
type InvoiceRequest struct {
	UserID     int64  `json:"user_id"`
	PlanID     string `json:"plan_id"`
	PriceStars int64  `json:"price_stars"`
	PlanName   string `json:"plan_name"`
}

// InvoiceClient talks to the remote invoice-creation endpoint.
type InvoiceClient interface {
	// Authenticate exchanges host init data for a backend session.
	Authenticate(ctx context.Context, initData string) error
	// CreateInvoice returns the invoice link. Failures are *domain.InvoiceError.
	CreateInvoice(ctx context.Context, req InvoiceRequest) (string, error)
}

// AudienceStats are the externally sourced counters shown in the app.
type AudienceStats struct {
	TotalUsers    int64 `json:"total_users"`
	ReferredCount int   `json:"referred_count"`
}

// StatsClient reads audience counters.
type StatsClient interface {
	Stats(ctx context.Context, userID int64) (AudienceStats, error)
}
