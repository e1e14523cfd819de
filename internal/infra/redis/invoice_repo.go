package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"whitelist-vpn-miniapp/internal/domain"
	"whitelist-vpn-miniapp/internal/domain/model"

	"github.com/go-redis/redis/v8"
)

// InvoiceRepo remembers issued invoices until they expire, and which
// payments have already been counted.
type InvoiceRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewInvoiceRepo(client RedisClient, ttl time.Duration) *InvoiceRepo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &InvoiceRepo{client: client, ttl: ttl}
}

func (r *InvoiceRepo) invoiceKey(payload string) string {
	return fmt.Sprintf("invoice:%s", payload)
}

func (r *InvoiceRepo) paymentKey(chargeID string) string {
	return fmt.Sprintf("payment:%s", chargeID)
}

func (r *InvoiceRepo) Save(ctx context.Context, inv *model.IssuedInvoice) error {
	data, err := json.Marshal(inv)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.invoiceKey(inv.Payload), data, r.ttl)
}

// Find returns domain.ErrNotFound for unknown or expired payloads.
func (r *InvoiceRepo) Find(ctx context.Context, payload string) (*model.IssuedInvoice, error) {
	data, err := r.client.Get(ctx, r.invoiceKey(payload))
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var inv model.IssuedInvoice
	if err := json.Unmarshal([]byte(data), &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// MarkPaid reports true the first time a charge id is seen.
func (r *InvoiceRepo) MarkPaid(ctx context.Context, chargeID string) (bool, error) {
	return r.client.SetNX(ctx, r.paymentKey(chargeID), time.Now().Unix(), 30*24*time.Hour)
}
