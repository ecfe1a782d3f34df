// Package session keeps the persisted per-browser state of the web frontend.
// Each browser is identified by a client ID carried in a cookie; its values
// (the theme preference, the last saved summary time) live in a Store, Redis
// in production and process memory otherwise.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by a Store when a key does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when a stored record cannot be decoded
	ErrInvalidState = errors.New("invalid client state")
	// ErrInvalidClientID is returned for empty client IDs
	ErrInvalidClientID = errors.New("invalid client id")
)

// Manager defines the client state operations used by the views
type Manager interface {
	NewClientID() string
	// Get returns the value of key and whether it was set
	Get(ctx context.Context, clientID, key string) (string, bool, error)
	Set(ctx context.Context, clientID, key, value string) error
	// Clear removes every value stored for the client
	Clear(ctx context.Context, clientID string) error
}

// manager implements Manager interface
type manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a new client state manager. Records expire ttl after
// their last write.
func NewManager(store Store, ttl time.Duration) Manager {
	return &manager{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// NewClientID generates a fresh client identifier
func (m *manager) NewClientID() string {
	return uuid.New().String()
}

// Get retrieves a single value for a client
func (m *manager) Get(ctx context.Context, clientID, key string) (string, bool, error) {
	state, err := m.load(ctx, clientID)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	value, ok := state.Values[key]
	return value, ok, nil
}

// Set stores a single value for a client, creating the record if needed
func (m *manager) Set(ctx context.Context, clientID, key, value string) error {
	state, err := m.load(ctx, clientID)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidState) {
		state = &ClientState{
			ID:        clientID,
			Values:    make(map[string]string),
			CreatedAt: m.now(),
		}
	} else if err != nil {
		return err
	}

	if state.Values == nil {
		state.Values = make(map[string]string)
	}
	state.Values[key] = value
	state.UpdatedAt = m.now()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal client state: %w", err)
	}

	if err := m.store.Set(ctx, stateKey(clientID), string(data), m.ttl); err != nil {
		return fmt.Errorf("failed to store client state: %w", err)
	}

	return nil
}

// Clear removes the whole record of a client
func (m *manager) Clear(ctx context.Context, clientID string) error {
	if clientID == "" {
		return ErrInvalidClientID
	}
	if err := m.store.Delete(ctx, stateKey(clientID)); err != nil {
		return fmt.Errorf("failed to clear client state: %w", err)
	}
	return nil
}

func (m *manager) load(ctx context.Context, clientID string) (*ClientState, error) {
	if clientID == "" {
		return nil, ErrInvalidClientID
	}

	data, err := m.store.Get(ctx, stateKey(clientID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load client state: %w", err)
	}

	var state ClientState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, ErrInvalidState
	}

	return &state, nil
}

func stateKey(clientID string) string {
	return fmt.Sprintf("client:%s", clientID)
}
