package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"whitelist-vpn-miniapp/internal/domain/ports/adapter"

	"github.com/go-redis/redis/v8"
)

const usersKey = "audience:users"

var _ adapter.StatsClient = (*Audience)(nil)

// Audience keeps the user set and per-referrer counters shown in the app.
type Audience struct {
	client RedisClient
}

func NewAudience(client RedisClient) *Audience {
	return &Audience{client: client}
}

func referralsKey(referrerID int64) string { return fmt.Sprintf("audience:referrals:%d", referrerID) }
func referredByKey(userID int64) string    { return fmt.Sprintf("audience:referred_by:%d", userID) }

// Register adds the user to the audience and reports whether it was new.
func (a *Audience) Register(ctx context.Context, userID int64) (bool, error) {
	n, err := a.client.SAdd(ctx, usersKey, userID)
	if err != nil {
		return false, fmt.Errorf("register user: %w", err)
	}
	return n == 1, nil
}

// CreditReferral credits referrerID for userID at most once. Self-referrals are ignored.
func (a *Audience) CreditReferral(ctx context.Context, referrerID, userID int64) (bool, error) {
	if referrerID <= 0 || referrerID == userID {
		return false, nil
	}
	first, err := a.client.SetNX(ctx, referredByKey(userID), referrerID, 0)
	if err != nil {
		return false, fmt.Errorf("claim referral: %w", err)
	}
	if !first {
		return false, nil
	}
	if _, err := a.client.Incr(ctx, referralsKey(referrerID)); err != nil {
		return false, fmt.Errorf("credit referral: %w", err)
	}
	return true, nil
}

func (a *Audience) Stats(ctx context.Context, userID int64) (adapter.AudienceStats, error) {
	total, err := a.client.SCard(ctx, usersKey)
	if err != nil {
		return adapter.AudienceStats{}, fmt.Errorf("count users: %w", err)
	}
	st := adapter.AudienceStats{TotalUsers: total}
	raw, err := a.client.Get(ctx, referralsKey(userID))
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return adapter.AudienceStats{}, fmt.Errorf("read referrals: %w", err)
	default:
		n, _ := strconv.Atoi(raw)
		st.ReferredCount = n
	}
	return st, nil
}
