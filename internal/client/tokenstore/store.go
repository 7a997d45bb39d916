// Package tokenstore persists the client's token pair in secure storage
// under a single named entry.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/discbaboons/internal/common"
	"github.com/dmitrijs2005/discbaboons/internal/logging"
	"github.com/dmitrijs2005/discbaboons/internal/tokens"
)

// EntryName is the secure-storage entry holding the serialized pair. Its
// existence is what "a session was established on this device" means.
const EntryName = "discbaboons_auth_tokens"

// SecureStorage is the platform facility the store writes through.
type SecureStorage interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Set(ctx context.Context, name string, value []byte) error
	Delete(ctx context.Context, name string) error
	Has(ctx context.Context, name string) (bool, error)
}

type Store struct {
	storage SecureStorage
	logger  logging.Logger
}

func New(storage SecureStorage, logger logging.Logger) *Store {
	return &Store{storage: storage, logger: logger}
}

// Store persists pair. An incomplete pair is rejected before anything is
// written.
func (s *Store) Store(ctx context.Context, pair *tokens.Pair) error {
	if !pair.Complete() {
		return common.NewValidationError("Access token and refresh token are required")
	}

	b, err := json.Marshal(pair)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, EntryName, b)
}

// Load returns the stored pair, or nil when there is none. Storage errors
// and malformed payloads are logged and reported as "no tokens".
func (s *Store) Load(ctx context.Context) *tokens.Pair {
	b, err := s.storage.Get(ctx, EntryName)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "token store unreadable", "error", err)
		}
		return nil
	}

	var pair tokens.Pair
	if err := json.Unmarshal(b, &pair); err != nil {
		s.logger.Warn(ctx, "stored tokens malformed", "error", err)
		return nil
	}
	if !pair.Complete() {
		s.logger.Warn(ctx, "stored tokens incomplete")
		return nil
	}
	return &pair
}

// Clear removes the stored pair. Failures are returned, never panicked.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx, EntryName); err != nil {
		s.logger.Warn(ctx, "token store clear failed", "error", err)
		return err
	}
	return nil
}

// Has reports whether a pair has been stored. Errors count as false.
func (s *Store) Has(ctx context.Context) bool {
	ok, err := s.storage.Has(ctx, EntryName)
	if err != nil {
		s.logger.Warn(ctx, "token store check failed", "error", err)
		return false
	}
	return ok
}
