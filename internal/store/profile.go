package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/couchcryptid/carbon-food-print/internal/domain"
)

// ProfileKey is the storage key of the user profile.
const ProfileKey = "user_profile"

// ProfileStore holds the single user profile with overwrite semantics.
type ProfileStore struct {
	kv domain.KeyValueStore

	mu      sync.RWMutex
	profile domain.UserProfile
}

// NewProfileStore creates an unregistered profile store.
func NewProfileStore(kv domain.KeyValueStore) *ProfileStore {
	return &ProfileStore{kv: kv}
}

// Save trims, validates and persists the profile. Blank values are rejected
// with a *domain.InputRejectedError and leave the current profile untouched. A
// failed write keeps the new profile in memory and returns a
// *domain.StorageError.
func (s *ProfileStore) Save(ctx context.Context, name, residence string) error {
	name, residence = strings.TrimSpace(name), strings.TrimSpace(residence)
	switch {
	case name == "":
		return domain.Rejectf("name is required")
	case residence == "":
		return domain.Rejectf("residence is required")
	}

	profile := domain.UserProfile{Name: name, Residence: residence}
	data, err := json.Marshal(profile)
	if err != nil {
		return &domain.StorageError{Key: ProfileKey, Err: fmt.Errorf("encode profile: %w", err)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile

	if err := s.kv.Set(ctx, ProfileKey, data); err != nil {
		return &domain.StorageError{Key: ProfileKey, Err: err}
	}
	return nil
}

// Load reads the persisted profile and reports whether one was found.
func (s *ProfileStore) Load(ctx context.Context) (bool, error) {
	data, ok, err := s.kv.Get(ctx, ProfileKey)
	if err != nil {
		return false, fmt.Errorf("load profile: %w", err)
	}
	if !ok {
		return false, nil
	}

	var profile domain.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return false, fmt.Errorf("decode profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
	return true, nil
}

// Profile returns the current profile.
func (s *ProfileStore) Profile() domain.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// IsRegistered reports whether the current profile has a name and residence.
func (s *ProfileStore) IsRegistered() bool {
	return s.Profile().IsRegistered()
}
