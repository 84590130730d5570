package rules

import (
	"log"
	"sync/atomic"
)

// Store publishes rule snapshots to concurrent readers. Reloads swap
// the whole Repository pointer, so an in-flight evaluation keeps the
// snapshot it started with and never observes a partial update.
type Store struct {
	current atomic.Pointer[Repository]
}

// NewStore creates a store seeded with an initial repository.
func NewStore(repo *Repository) *Store {
	s := &Store{}
	s.current.Store(repo)
	return s
}

// Current returns the active rule snapshot.
func (s *Store) Current() *Repository {
	return s.current.Load()
}

// Swap publishes a new snapshot.
func (s *Store) Swap(repo *Repository) {
	s.current.Store(repo)
	log.Printf("[RuleStore] Published new rule snapshot (%d study types)", len(repo.studyTypes))
}

// ReloadFile loads a rule file and publishes it atomically. On error
// the previous snapshot stays active.
func (s *Store) ReloadFile(path string) error {
	repo, err := LoadFile(path)
	if err != nil {
		log.Printf("[RuleStore] Reload from %s failed, keeping active snapshot: %v", path, err)
		return err
	}
	s.Swap(repo)
	return nil
}
