package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/storage"
)

// Service resolves federation ids to display names
type Service struct {
	storage storage.Storage

	mu     sync.RWMutex
	feds   model.Federations
	loaded bool
}

// New creates a new federation Service
func New(storage storage.Storage) *Service {
	return &Service{
		storage: storage,
		feds:    make(model.Federations),
	}
}

// LoadFromStorage loads federations previously saved to storage
func (s *Service) LoadFromStorage(ctx context.Context) error {
	feds, err := s.storage.GetFederations(ctx)
	if err != nil {
		return err
	}
	s.load(feds)
	return nil
}

// LoadFromFile loads a JSON object of federation id to name
func (s *Service) LoadFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var feds model.Federations
	if err := json.Unmarshal(data, &feds); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	// Save to storage for other instances
	if err := s.storage.SaveFederations(ctx, feds); err != nil {
		return err
	}

	s.load(feds)
	return nil
}

// Load directly replaces the federation map (useful for testing)
func (s *Service) Load(feds model.Federations) {
	s.load(feds)
}

func (s *Service) load(feds model.Federations) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.feds = make(model.Federations, len(feds))
	for id, name := range feds {
		s.feds[strings.ToUpper(strings.TrimSpace(id))] = name
	}
	s.loaded = true
}

// Federations returns a copy of the loaded map. Before loading it is
// empty, so names fall back to ids.
func (s *Service) Federations() model.Federations {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(model.Federations, len(s.feds))
	for id, name := range s.feds {
		result[id] = name
	}
	return result
}

// Name returns the display name of a federation id
func (s *Service) Name(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feds.Name(id)
}

// IsLoaded returns whether federations have been loaded
func (s *Service) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Count returns the number of known federations
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.feds)
}
