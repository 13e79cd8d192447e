// Package profiles holds the configured LLM profiles and the active selection.
package profiles

import (
	"fmt"
	"sort"
	"sync"

	"chatstream/internal/core"
)

// Store is an in-memory core.ProfileResolver. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]core.Profile
	active   string
}

// NewStore creates a store from profiles keyed by name. The Name field of
// each profile is set from its key. active may be empty.
func NewStore(profiles map[string]core.Profile, active string) (*Store, error) {
	s := &Store{profiles: make(map[string]core.Profile, len(profiles))}
	for name, p := range profiles {
		p.Name = name
		s.profiles[name] = p
	}
	if active != "" {
		if err := s.SetActive(active); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ActiveProfile returns the selected profile.
func (s *Store) ActiveProfile() (core.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == "" {
		return core.Profile{}, false
	}
	p, ok := s.profiles[s.active]
	return p, ok
}

// Lookup returns the profile called name.
func (s *Store) Lookup(name string) (core.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[name]
	return p, ok
}

// Active returns the name of the selected profile, or "" when none is selected.
func (s *Store) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Names returns all profile names in lexicographic order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetActive selects the profile called name.
func (s *Store) SetActive(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[name]; !ok {
		return fmt.Errorf("cannot activate %q: %w", name, core.NewProfileMissingError(name))
	}
	s.active = name
	return nil
}
