package store

import (
	"encoding/json"

	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// DecodeSubscription parses a persisted subscription value. Empty or corrupt
// input yields the zero subscription; an active value without expiry is corrupt.
func DecodeSubscription(raw, driver string, log *zerolog.Logger) model.Subscription {
	return decodeSubscription(raw, driver, log)
}

func decodeSubscription(raw, driver string, log *zerolog.Logger) model.Subscription {
	if raw == "" {
		metrics.IncStoreRead(driver, "miss")
		return model.Subscription{}
	}
	var sub model.Subscription
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		log.Warn().Err(err).Str("driver", driver).Msg("stored subscription is corrupt, treating as absent")
		metrics.IncStoreRead(driver, "corrupt")
		return model.Subscription{}
	}
	if sub.Active && sub.ExpiresAt == nil {
		log.Warn().Str("driver", driver).Msg("stored subscription is active without expiry, treating as absent")
		metrics.IncStoreRead(driver, "corrupt")
		return model.Subscription{}
	}
	metrics.IncStoreRead(driver, "hit")
	return sub
}
