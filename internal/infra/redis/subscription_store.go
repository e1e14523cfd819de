package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/domain/ports/repository"
	"whitelist-vpn-miniapp/internal/infra/store"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const driverName = "redis"

var _ repository.SubscriptionStore = (*SubscriptionStore)(nil)

// SubscriptionStore keeps the subscription cell in Redis under the same keys
// the file store uses, optionally prefixed per installation.
type SubscriptionStore struct {
	client RedisClient
	prefix string
	log    *zerolog.Logger
}

func NewSubscriptionStore(client RedisClient, prefix string, logger *zerolog.Logger) *SubscriptionStore {
	return &SubscriptionStore{client: client, prefix: prefix, log: logger}
}

func (s *SubscriptionStore) subKey() string   { return s.prefix + store.KeySubscription }
func (s *SubscriptionStore) trialKey() string { return s.prefix + store.KeyTrialUsed }

func (s *SubscriptionStore) ReadSubscription(ctx context.Context) (model.Subscription, error) {
	raw, err := s.client.Get(ctx, s.subKey())
	if errors.Is(err, redis.Nil) {
		raw, err = "", nil
	}
	if err != nil {
		return model.Subscription{}, fmt.Errorf("read subscription: %w", err)
	}
	return store.DecodeSubscription(raw, driverName, s.log), nil
}

func (s *SubscriptionStore) WriteSubscription(ctx context.Context, sub model.Subscription) error {
	b, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	if err := s.client.Set(ctx, s.subKey(), b, 0); err != nil {
		return fmt.Errorf("write subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) ReadTrialConsumed(ctx context.Context) (bool, error) {
	v, err := s.client.Get(ctx, s.trialKey())
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read trial flag: %w", err)
	}
	return v == "true", nil
}

func (s *SubscriptionStore) MarkTrialConsumed(ctx context.Context) error {
	if err := s.client.Set(ctx, s.trialKey(), "true", 0); err != nil {
		return fmt.Errorf("mark trial: %w", err)
	}
	return nil
}

// CommitTrial writes both keys in one MULTI/EXEC.
func (s *SubscriptionStore) CommitTrial(ctx context.Context, sub model.Subscription) error {
	b, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.subKey(), b, 0)
		p.Set(ctx, s.trialKey(), "true", 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit trial: %w", err)
	}
	return nil
}
