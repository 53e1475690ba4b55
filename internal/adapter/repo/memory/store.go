package memory

import (
	"context"
	"sync"

	"civico/internal/app/ports"
	"civico/internal/domain/settlement"
	"civico/internal/domain/worldmap"
)

// Store keeps every table in process memory. Values are cloned on the way in
// and out so callers never share maps or slices with the store.
type Store struct {
	mu          sync.RWMutex
	settlements map[string]settlement.Snapshot
	byUsername  map[string]string
	byCell      map[worldmap.Point]string
	cells       map[worldmap.Point]string
	credentials map[string]ports.CredentialRecord
	events      map[string][]settlement.Event
}

func NewStore() *Store {
	return &Store{
		settlements: make(map[string]settlement.Snapshot),
		byUsername:  make(map[string]string),
		byCell:      make(map[worldmap.Point]string),
		cells:       make(map[worldmap.Point]string),
		credentials: make(map[string]ports.CredentialRecord),
		events:      make(map[string][]settlement.Event),
	}
}

// SeedSettlement inserts snap and claims its cell, replacing anything stored under the same id.
func (s *Store) SeedSettlement(snap settlement.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settlements[snap.ID] = snap.Clone()
	s.byUsername[snap.Username] = snap.ID
	s.byCell[snap.Coordinates] = snap.ID
	s.cells[snap.Coordinates] = snap.ID
}

// checkpoint copies every table so a failed transaction can be undone.
// Callers hold s.mu.
func (s *Store) checkpoint() *Store {
	c := &Store{
		settlements: make(map[string]settlement.Snapshot, len(s.settlements)),
		byUsername:  make(map[string]string, len(s.byUsername)),
		byCell:      make(map[worldmap.Point]string, len(s.byCell)),
		cells:       make(map[worldmap.Point]string, len(s.cells)),
		credentials: make(map[string]ports.CredentialRecord, len(s.credentials)),
		events:      make(map[string][]settlement.Event, len(s.events)),
	}
	for k, v := range s.settlements {
		c.settlements[k] = v.Clone()
	}
	for k, v := range s.byUsername {
		c.byUsername[k] = v
	}
	for k, v := range s.byCell {
		c.byCell[k] = v
	}
	for k, v := range s.cells {
		c.cells[k] = v
	}
	for k, v := range s.credentials {
		c.credentials[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v[:len(v):len(v)]
	}
	return c
}

// restore puts back the tables saved by checkpoint. Callers hold s.mu.
func (s *Store) restore(c *Store) {
	s.settlements = c.settlements
	s.byUsername = c.byUsername
	s.byCell = c.byCell
	s.cells = c.cells
	s.credentials = c.credentials
	s.events = c.events
}

type txKeyType struct{}

var txKey = txKeyType{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey).(bool)
	return v
}

// read runs fn under the read lock unless the caller already holds the
// store lock through RunInTx.
func (s *Store) read(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn()
}

func (s *Store) write(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn()
}
