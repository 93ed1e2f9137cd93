// Package osdstore implements the local, per-OSD byte store: the
// leaf-most layer of the simulated cluster. It knows nothing about
// pools, placement groups, or replication — just durable storage of
// an opaque blob plus a sibling metadata blob, keyed by
// (pool ID, object ID).
package osdstore

import "sync"

type key struct {
	poolID   int
	objectID string
}

type entry struct {
	data     []byte
	metadata []byte
}

// Store is an in-memory stand-in for the opaque, byte-addressable
// local storage each OSD owns. The contract it honors is the one
// §4.1 requires: data and metadata are atomically linked, so a
// Get call returns both or neither.
type Store struct {
	mu      sync.RWMutex
	entries map[key]entry
}

// New returns an empty local store.
func New() *Store {
	return &Store{entries: make(map[key]entry)}
}

// Put durably links data and metadata under (poolID, objectID),
// overwriting any prior value. The caller owns data/metadata after
// the call returns; Store keeps its own copies.
func (s *Store) Put(poolID int, objectID string, data, metadata []byte) error {
	dataCopy := append([]byte(nil), data...)
	metaCopy := append([]byte(nil), metadata...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key{poolID, objectID}] = entry{data: dataCopy, metadata: metaCopy}
	return nil
}

// Get returns the data and metadata blobs for (poolID, objectID), or
// ok=false if absent. Never returns a partial result.
func (s *Store) Get(poolID int, objectID string) (data, metadata []byte, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, found := s.entries[key{poolID, objectID}]
	if !found {
		return nil, nil, false
	}
	return append([]byte(nil), e.data...), append([]byte(nil), e.metadata...), true
}

// Delete removes (poolID, objectID) if present. Idempotent: deleting
// an absent key is not an error and reports ok=true either way, per
// §4.1 ("missing object returns success").
func (s *Store) Delete(poolID int, objectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key{poolID, objectID})
	return true
}

// Len reports the number of objects currently held, for diagnostics.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
