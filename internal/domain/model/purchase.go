package model

// InvoiceStatus is the terminal status the host reports for a presented invoice.
type InvoiceStatus string

const (
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
	InvoiceStatusFailed    InvoiceStatus = "failed"
)

// ParseInvoiceStatus maps a host status string; anything unknown counts as failed.
func ParseInvoiceStatus(s string) InvoiceStatus {
	switch InvoiceStatus(s) {
	case InvoiceStatusPaid, InvoiceStatusCancelled, InvoiceStatusFailed:
		return InvoiceStatus(s)
	default:
		return InvoiceStatusFailed
	}
}

type OutcomeKind string

const (
	OutcomeSuccess   OutcomeKind = "success"
	OutcomeCancelled OutcomeKind = "cancelled"
	OutcomeFailed    OutcomeKind = "failed"
	OutcomeRejected  OutcomeKind = "rejected"
)

// PurchaseOutcome is what a purchase attempt converges on. Subscription and User
// are set only on success; Err is set on every other kind.
type PurchaseOutcome struct {
	Kind         OutcomeKind
	Plan         Plan
	Subscription *Subscription
	User         *UserProfile
	Err          error
}

// HapticKind names a host haptic cue.
type HapticKind string

const (
	HapticLight   HapticKind = "light"
	HapticMedium  HapticKind = "medium"
	HapticHeavy   HapticKind = "heavy"
	HapticSuccess HapticKind = "success"
	HapticError   HapticKind = "error"
	HapticWarning HapticKind = "warning"
)

// Notification reports whether the cue is a notification rather than an impact.
func (k HapticKind) Notification() bool {
	return k == HapticSuccess || k == HapticError || k == HapticWarning
}

const DefaultThemeColor = "#17212b"

// Theme carries the host theme parameters we care about.
type Theme struct {
	BgColor         string `json:"bg_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
	HintColor       string `json:"hint_color,omitempty"`
	LinkColor       string `json:"link_color,omitempty"`
	ButtonColor     string `json:"button_color,omitempty"`
	ButtonTextColor string `json:"button_text_color,omitempty"`
}

// Background returns the background color, falling back to the app default.
func (t Theme) Background() string {
	if t.BgColor == "" {
		return DefaultThemeColor
	}
	return t.BgColor
}
