package bridge

import (
	"context"

	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/domain/ports/adapter"
)

// Noop stands in for the host container when the app runs outside it.
type Noop struct {
	// Status is what OpenInvoice resolves to.
	Status model.InvoiceStatus
}

var _ adapter.HostBridge = (*Noop)(nil)

// NewNoop returns a bridge that simulates invoices with status, defaulting to cancelled.
func NewNoop(status string) *Noop {
	s := model.InvoiceStatusCancelled
	if status != "" {
		s = model.ParseInvoiceStatus(status)
	}
	return &Noop{Status: s}
}

func (n *Noop) Available() bool                              { return false }
func (n *Noop) Identity(context.Context) *model.HostIdentity { return nil }
func (n *Noop) Haptic(model.HapticKind)                      {}
func (n *Noop) ShowPopup(string, string)                     {}
func (n *Noop) ApplyTheme(model.Theme)                       {}

func (n *Noop) OpenInvoice(ctx context.Context, _ string) (model.InvoiceStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return n.Status, nil
}
