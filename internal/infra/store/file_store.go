// File: internal/infra/store/file_store.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/domain/ports/repository"
	"whitelist-vpn-miniapp/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const (
	KeySubscription = "vpn_app_subscription"
	KeyTrialUsed    = "vpn_app_trial_used"

	driverName = "file"
)

var trialUsedPattern = regexp.MustCompile(`"` + KeyTrialUsed + `"\s*:\s*"true"`)

var _ repository.SubscriptionStore = (*FileStore)(nil)

// FileStore keeps string values under fixed keys in one JSON document.
// Every write rewrites the whole document through a temp file and rename.
type FileStore struct {
	mu   sync.Mutex
	path string
	log  *zerolog.Logger
}

func NewFileStore(path string, logger *zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{path: path, log: logger}, nil
}

func (s *FileStore) ReadSubscription(ctx context.Context) (model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return model.Subscription{}, err
	}
	return decodeSubscription(doc[KeySubscription], driverName, s.log), nil
}

func (s *FileStore) WriteSubscription(ctx context.Context, sub model.Subscription) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc[KeySubscription] = string(raw)
	return s.save(doc)
}

func (s *FileStore) ReadTrialConsumed(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}
	return doc[KeyTrialUsed] == "true", nil
}

func (s *FileStore) MarkTrialConsumed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if doc[KeyTrialUsed] == "true" {
		return nil
	}
	doc[KeyTrialUsed] = "true"
	return s.save(doc)
}

func (s *FileStore) CommitTrial(ctx context.Context, sub model.Subscription) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc[KeySubscription] = string(raw)
	doc[KeyTrialUsed] = "true"
	return s.save(doc)
}

// load decodes the document key by key. A value that is not a string is
// dropped alone. An unreadable document keeps only the trial flag, which is
// never unset.
func (s *FileStore) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	doc := map[string]string{}
	if len(b) == 0 {
		return doc, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("store document is corrupt, keeping only the trial flag")
		metrics.IncStoreRead(driverName, "corrupt")
		if trialUsedPattern.Match(b) {
			doc[KeyTrialUsed] = "true"
		}
		return doc, nil
	}
	for k, v := range raw {
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			s.log.Warn().Str("path", s.path).Str("key", k).Msg("store value is not a string, dropping it")
			metrics.IncStoreRead(driverName, "corrupt")
			continue
		}
		doc[k] = str
	}
	return doc, nil
}

func (s *FileStore) save(doc map[string]string) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
