package repository

import (
	"context"

	"whitelist-vpn-miniapp/internal/domain/model"
)

// SubscriptionStore is the port for the durable local subscription cell.
// It holds values only; expiry is interpreted by callers at read time.
type SubscriptionStore interface {
	// ReadSubscription returns the zero subscription when nothing is stored or the
	// stored value cannot be parsed. Only I/O failures are returned as errors.
	ReadSubscription(ctx context.Context) (model.Subscription, error)
	// WriteSubscription overwrites the stored subscription as one value.
	WriteSubscription(ctx context.Context, sub model.Subscription) error

	ReadTrialConsumed(ctx context.Context) (bool, error)
	// MarkTrialConsumed is idempotent; nothing in this port unsets the flag.
	MarkTrialConsumed(ctx context.Context) error

	// CommitTrial writes sub and the trial flag in a single atomic step.
	CommitTrial(ctx context.Context, sub model.Subscription) error
}
