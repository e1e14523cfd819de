//go:build !integration

package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/domain/ports/adapter"
	"whitelist-vpn-miniapp/internal/domain/ports/repository"
	"whitelist-vpn-miniapp/internal/infra/i18n"
	"whitelist-vpn-miniapp/internal/usecase"
)

var (
	_ repository.SubscriptionStore = (*memStore)(nil)
	_ adapter.HostBridge           = (*fakeBridge)(nil)
	_ adapter.InvoiceClient        = (*fakeInvoices)(nil)
	_ adapter.StatsClient          = (*fakeStats)(nil)
	_ usecase.StateCell            = (*memState)(nil)
)

// -----------------------------
// memStore keeps the persisted bytes so tests can compare them exactly.
// -----------------------------

type memStore struct {
	mu       sync.Mutex
	subBytes []byte
	trial    bool
	writes   int
	readErr  error
	writeErr error
}

func newMemStore() *memStore { return &memStore{} }

func (m *memStore) seed(sub model.Subscription) {
	b, _ := json.Marshal(sub)
	m.subBytes = b
}

func (m *memStore) bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.subBytes...)
}

func (m *memStore) ReadSubscription(ctx context.Context) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return model.Subscription{}, m.readErr
	}
	var s model.Subscription
	if len(m.subBytes) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(m.subBytes, &s); err != nil {
		return model.Subscription{}, nil
	}
	return s, nil
}

func (m *memStore) WriteSubscription(ctx context.Context, sub model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	b, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	m.subBytes = b
	m.writes++
	return nil
}

func (m *memStore) ReadTrialConsumed(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trial, m.readErr
}

func (m *memStore) MarkTrialConsumed(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.trial = true
	m.writes++
	return nil
}

func (m *memStore) CommitTrial(ctx context.Context, sub model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	b, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	m.subBytes = b
	m.trial = true
	m.writes++
	return nil
}

// -----------------------------
// fakeBridge records every signal and answers invoices from a script.
// -----------------------------

type popup struct{ title, message string }

type fakeBridge struct {
	mu        sync.Mutex
	available bool
	identity  *model.HostIdentity
	haptics   []model.HapticKind
	popups    []popup
	themes    []model.Theme
	opened    []string

	status model.InvoiceStatus
	err    error
	// block makes OpenInvoice wait for ctx, as if the host never called back.
	block bool
	// onOpen runs while the invoice is open.
	onOpen func()
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{available: true, status: model.InvoiceStatusPaid}
}

func (b *fakeBridge) Available() bool { return b.available }

func (b *fakeBridge) Identity(ctx context.Context) *model.HostIdentity { return b.identity }

func (b *fakeBridge) Haptic(kind model.HapticKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.haptics = append(b.haptics, kind)
}

func (b *fakeBridge) ShowPopup(title, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.popups = append(b.popups, popup{title, message})
}

func (b *fakeBridge) ApplyTheme(theme model.Theme) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.themes = append(b.themes, theme)
}

func (b *fakeBridge) OpenInvoice(ctx context.Context, link string) (model.InvoiceStatus, error) {
	b.mu.Lock()
	b.opened = append(b.opened, link)
	onOpen := b.onOpen
	b.mu.Unlock()
	if onOpen != nil {
		onOpen()
	}
	if b.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return b.status, b.err
}

func (b *fakeBridge) lastHaptic() model.HapticKind {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.haptics) == 0 {
		return ""
	}
	return b.haptics[len(b.haptics)-1]
}

func (b *fakeBridge) popupCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.popups)
}

// -----------------------------
// fakeInvoices
// -----------------------------

type fakeInvoices struct {
	mu       sync.Mutex
	link     string
	err      error
	requests []adapter.InvoiceRequest
	authed   []string
	authErr  error
}

func (f *fakeInvoices) Authenticate(ctx context.Context, initData string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authed = append(f.authed, initData)
	return f.authErr
}

func (f *fakeInvoices) CreateInvoice(ctx context.Context, req adapter.InvoiceRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.link, f.err
}

// -----------------------------
// fakeStats
// -----------------------------

type fakeStats struct {
	stats adapter.AudienceStats
	err   error
	// during runs while the call is in flight.
	during func()
}

func (f *fakeStats) Stats(ctx context.Context, userID int64) (adapter.AudienceStats, error) {
	if f.during != nil {
		f.during()
	}
	return f.stats, f.err
}

// -----------------------------
// memState is a minimal StateCell.
// -----------------------------

type memState struct {
	mu sync.Mutex
	s  model.AppState
}

func newMemState(s model.AppState) *memState { return &memState{s: s.Clone()} }

func (m *memState) Snapshot() model.AppState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.Clone()
}

func (m *memState) Update(fn func(model.AppState) model.AppState) model.AppState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = fn(m.s.Clone()).Clone()
	return m.s.Clone()
}

var errBoom = errors.New("boom")

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator() i18n.Translator {
	return i18n.MustDefault()
}
