package model

import (
	"strconv"
	"strings"
	"time"
)

// StarsCurrency is the Telegram Stars currency code.
const StarsCurrency = "XTR"

// IssuedInvoice is what the invoice API remembers about a link it created,
// so pre-checkout can check the charge against it.
type IssuedInvoice struct {
	Payload     string    `json:"payload"`
	UserID      int64     `json:"user_id"`
	PlanID      string    `json:"plan_id"`
	AmountStars int64     `json:"amount_stars"`
	CreatedAt   time.Time `json:"created_at"`
}

// InvoicePayload renders <plan_id>:<user_id>:<nonce>.
func InvoicePayload(planID string, userID int64, nonce string) string {
	return planID + ":" + strconv.FormatInt(userID, 10) + ":" + nonce
}

// ParseInvoicePayload is the inverse of InvoicePayload.
func ParseInvoicePayload(payload string) (planID string, userID int64, nonce string, ok bool) {
	parts := strings.Split(payload, ":")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return "", 0, "", false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, "", false
	}
	return parts[0], id, parts[2], true
}
