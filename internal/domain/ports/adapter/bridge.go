package adapter

import (
	"context"

	"whitelist-vpn-miniapp/internal/domain/model"
)

// HostBridge is the capability surface of the enclosing mini-app container.
// Every method must be safe to call when the container is absent.
type HostBridge interface {
	Available() bool
	// Identity returns nil when the host supplied no user.
	Identity(ctx context.Context) *model.HostIdentity

	Haptic(kind model.HapticKind)
	ShowPopup(title, message string)
	ApplyTheme(theme model.Theme)

	// OpenInvoice presents the invoice and blocks until the host reports exactly
	// one terminal status, or ctx is done.
	OpenInvoice(ctx context.Context, link string) (model.InvoiceStatus, error)
}
