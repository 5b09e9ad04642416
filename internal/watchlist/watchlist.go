package watchlist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"dash-monitor/internal/interfaces"
	"dash-monitor/internal/models"
	"dash-monitor/internal/validation"

	"github.com/rs/zerolog"
)

// MaxAddressesPerSubscriber caps how many addresses one subscriber may
// watch simultaneously.
const MaxAddressesPerSubscriber = 5

var (
	ErrInvalidAddress    = errors.New("invalid address")
	ErrLimitExceeded     = errors.New("address limit exceeded")
	ErrAlreadyRegistered = errors.New("address already registered")
	ErrNotFound          = errors.New("address not registered")
)

// Service is the synchronous registration boundary called by the chat
// front end, and the scheduler's source of cycle snapshots. The RWMutex
// serializes mutations against snapshot reads so a cycle never sees a
// half-applied registration.
type Service struct {
	mu     sync.RWMutex
	store  interfaces.Store
	logger *zerolog.Logger
}

func NewService(store interfaces.Store, logger *zerolog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Register validates and adds an address for a subscriber. A fresh dedup
// scope starts implicitly: seen records only exist once transactions are
// observed.
func (s *Service) Register(ctx context.Context, subscriber, address string) error {
	if err := validation.ValidateAddress(address); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Addresses(ctx, subscriber)
	if err != nil {
		return fmt.Errorf("reading watchlist: %w", err)
	}
	for _, addr := range existing {
		if addr == address {
			return ErrAlreadyRegistered
		}
	}
	if len(existing) >= MaxAddressesPerSubscriber {
		return ErrLimitExceeded
	}

	scope := models.Scope{Subscriber: subscriber, Address: address}
	if err := s.store.AddAddress(ctx, scope); err != nil {
		return fmt.Errorf("storing address: %w", err)
	}

	s.logger.Info().
		Str("subscriber", subscriber).
		Str("address", address).
		Msg("Address registered")
	return nil
}

// Remove deletes an address and cascades to the pair's dedup scope, so a
// later re-registration starts sequencing from 1 again.
func (s *Service) Remove(ctx context.Context, subscriber, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Addresses(ctx, subscriber)
	if err != nil {
		return fmt.Errorf("reading watchlist: %w", err)
	}
	found := false
	for _, addr := range existing {
		if addr == address {
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}

	scope := models.Scope{Subscriber: subscriber, Address: address}
	if err := s.store.RemoveAddress(ctx, scope); err != nil {
		return fmt.Errorf("removing address: %w", err)
	}
	if err := s.store.DeleteScope(ctx, scope); err != nil {
		return fmt.Errorf("deleting dedup scope: %w", err)
	}

	s.logger.Info().
		Str("subscriber", subscriber).
		Str("address", address).
		Msg("Address removed")
	return nil
}

// List returns a subscriber's addresses in insertion order.
func (s *Service) List(ctx context.Context, subscriber string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.store.Addresses(ctx, subscriber)
}

// Snapshot returns all (subscriber, address) pairs for one poll cycle.
func (s *Service) Snapshot(ctx context.Context) ([]models.Scope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.store.Pairs(ctx)
}
