package livestore

import (
	"sync"

	sbnmodels "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Models"
)

// Store is the process-wide live state cache: one snapshot per device,
// always the most recently accepted message. It starts empty on every
// process start and is never persisted; readers must handle the absent
// case. Puts are atomic per key and safe against a concurrent All.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]sbnmodels.LiveSnapshot
}

func New() *Store {
	return &Store{
		snapshots: make(map[string]sbnmodels.LiveSnapshot),
	}
}

// Put unconditionally overwrites the snapshot for a device. Ordering is
// by arrival time: the router calls Put from a single dispatch
// goroutine, so last-seen is monotonically non-decreasing per device.
func (s *Store) Put(deviceID string, snapshot sbnmodels.LiveSnapshot) {
	s.mu.Lock()
	s.snapshots[deviceID] = snapshot
	s.mu.Unlock()
}

// Get returns the snapshot for a device and whether one exists.
func (s *Store) Get(deviceID string) (sbnmodels.LiveSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[deviceID]
	return snapshot, ok
}

// All returns a point-in-time copy of every snapshot.
func (s *Store) All() map[string]sbnmodels.LiveSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]sbnmodels.LiveSnapshot, len(s.snapshots))
	for id, snapshot := range s.snapshots {
		out[id] = snapshot
	}
	return out
}

// Len reports how many devices currently have a live snapshot.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}
