package bridge

import (
	"context"

	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/domain/ports/adapter"
)

// Switch routes to Primary while it is available and to Fallback otherwise.
// Development runs use it so the app works with and without a connected view.
type Switch struct {
	Primary  adapter.HostBridge
	Fallback adapter.HostBridge
}

var _ adapter.HostBridge = (*Switch)(nil)

func (s *Switch) pick() adapter.HostBridge {
	if s.Primary.Available() {
		return s.Primary
	}
	return s.Fallback
}

func (s *Switch) Available() bool { return s.Primary.Available() }

func (s *Switch) Identity(ctx context.Context) *model.HostIdentity {
	if id := s.Primary.Identity(ctx); id != nil {
		return id
	}
	return s.Fallback.Identity(ctx)
}

func (s *Switch) Haptic(kind model.HapticKind)    { s.pick().Haptic(kind) }
func (s *Switch) ShowPopup(title, message string) { s.pick().ShowPopup(title, message) }
func (s *Switch) ApplyTheme(theme model.Theme)    { s.pick().ApplyTheme(theme) }

func (s *Switch) OpenInvoice(ctx context.Context, link string) (model.InvoiceStatus, error) {
	return s.pick().OpenInvoice(ctx, link)
}
