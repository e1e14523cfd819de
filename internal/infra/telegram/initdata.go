package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"whitelist-vpn-miniapp/internal/domain"
	"whitelist-vpn-miniapp/internal/domain/model"
)

var (
	ErrInitDataSignature = fmt.Errorf("init data signature mismatch: %w", domain.ErrUnauthorized)
	ErrInitDataExpired   = fmt.Errorf("init data expired: %w", domain.ErrUnauthorized)
	ErrInitDataMalformed = fmt.Errorf("init data malformed: %w", domain.ErrInvalidArgument)
)

// InitData is the parsed container launch payload.
type InitData struct {
	User       model.HostIdentity
	AuthDate   time.Time
	QueryID    string
	StartParam string
	Raw        string
}

type initDataUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
}

// ParseInitData parses a Telegram web-app init-data query string. With a
// non-empty botToken the hash is verified; with a positive maxAge, stale
// payloads are rejected.
func ParseInitData(raw, botToken string, maxAge time.Duration, now time.Time) (*InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitDataMalformed, err)
	}

	if botToken != "" {
		got := values.Get("hash")
		if got == "" || !hmac.Equal([]byte(got), []byte(signValues(values, botToken))) {
			return nil, ErrInitDataSignature
		}
	}

	out := &InitData{
		QueryID:    values.Get("query_id"),
		StartParam: values.Get("start_param"),
		Raw:        raw,
	}
	if ts := values.Get("auth_date"); ts != "" {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: auth_date", ErrInitDataMalformed)
		}
		out.AuthDate = time.Unix(sec, 0)
	}
	if maxAge > 0 && (out.AuthDate.IsZero() || now.Sub(out.AuthDate) > maxAge) {
		return nil, ErrInitDataExpired
	}

	var u initDataUser
	if err := json.Unmarshal([]byte(values.Get("user")), &u); err != nil || u.ID == 0 {
		return nil, fmt.Errorf("%w: user", ErrInitDataMalformed)
	}
	out.User = model.HostIdentity{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.Username,
		LanguageCode: u.LanguageCode,
		RawInitData:  raw,
	}
	return out, nil
}

// SignInitData adds a valid hash to values and returns the encoded string.
func SignInitData(values url.Values, botToken string) string {
	values.Del("hash")
	values.Set("hash", signValues(values, botToken))
	return values.Encode()
}

// signValues computes hex(HMAC_SHA256(HMAC_SHA256("WebAppData", token), data_check_string)).
func signValues(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

// IsUnauthorized reports whether err came from signature or age checks.
func IsUnauthorized(err error) bool { return errors.Is(err, domain.ErrUnauthorized) }
