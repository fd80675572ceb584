// Package reactionroles keeps the reaction role mappings, mirrors them onto the published messages and applies them
// to the members who react.
package reactionroles

import (
	"context"
	"fmt"
	"sync"

	"github.com/Jacobbrewer1/v0bot/pkg/dataaccess"
	"github.com/Jacobbrewer1/v0bot/pkg/entities"
)

// Store is the in-memory view of the role mappings, written through to a dal.
type Store struct {
	dal dataaccess.RoleMappingDal

	// writeMu serialises the writers so the dal and the map see mutations in the same order.
	writeMu sync.Mutex

	mu      sync.RWMutex
	records map[string]*entities.RoleMapping
}

// NewStore creates an empty store over the dal. Call Load before use.
func NewStore(dal dataaccess.RoleMappingDal) *Store {
	return &Store{
		dal:     dal,
		records: make(map[string]*entities.RoleMapping),
	}
}

// Load replaces the in-memory view with the persisted mappings.
func (s *Store) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	records, err := s.dal.Load(ctx)
	if err != nil {
		return fmt.Errorf("error loading reaction roles: %w", err)
	}
	if records == nil {
		records = make(map[string]*entities.RoleMapping)
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the mapping of a message.
func (s *Store) Get(messageID string) (*entities.RoleMapping, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.records[messageID]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// Put persists the mapping of a message and then makes it visible. On error nothing changes.
func (s *Store) Put(ctx context.Context, messageID string, mapping *entities.RoleMapping) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	m := mapping.Clone()
	if err := s.dal.Save(ctx, messageID, m); err != nil {
		return fmt.Errorf("error saving reaction role: %w", err)
	}

	s.mu.Lock()
	s.records[messageID] = m
	s.mu.Unlock()
	return nil
}

// Delete persists the removal of the mapping of a message and then forgets it.
func (s *Store) Delete(ctx context.Context, messageID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.dal.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("error deleting reaction role: %w", err)
	}

	s.mu.Lock()
	delete(s.records, messageID)
	s.mu.Unlock()
	return nil
}

// ResolveRole returns the role of the first pair of the message whose emoji equals emoji.
func (s *Store) ResolveRole(messageID, emoji string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.records[messageID]
	if !ok {
		return "", false
	}
	return m.ResolveRole(emoji)
}

// All returns a copy of every mapping.
func (s *Store) All() map[string]*entities.RoleMapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*entities.RoleMapping, len(s.records))
	for id, m := range s.records {
		out[id] = m.Clone()
	}
	return out
}
