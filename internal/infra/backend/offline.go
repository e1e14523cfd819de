package backend

import (
	"context"
	"errors"
	"math/rand"

	"whitelist-vpn-miniapp/internal/domain"
	"whitelist-vpn-miniapp/internal/domain/ports/adapter"
)

var (
	_ adapter.InvoiceClient = Offline{}
	_ adapter.StatsClient   = Offline{}
)

// ErrNotConfigured is the detail Offline reports for every invoice request.
var ErrNotConfigured = errors.New("invoice service is not configured")

// Offline stands in for the invoice API during local development. Invoices
// always fail; audience numbers are placeholders.
type Offline struct{}

func (Offline) Authenticate(ctx context.Context, initData string) error { return nil }

func (Offline) CreateInvoice(ctx context.Context, req adapter.InvoiceRequest) (string, error) {
	return "", domain.NewInvoiceError(0, ErrNotConfigured.Error())
}

func (Offline) Stats(ctx context.Context, userID int64) (adapter.AudienceStats, error) {
	return adapter.AudienceStats{TotalUsers: 14502 + int64(rand.Intn(100)), ReferredCount: 2}, nil
}
