// Package memory is an in-process storage adapter. A single lock serializes every
// unit of work, which gives it the same atomicity as the PostgreSQL adapter.
package memory

import (
	"sync"
	"time"

	"github.com/SscSPs/cashdesk/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
)

// Store holds every table of the in-memory adapter.
type Store struct {
	mu              sync.RWMutex
	branches        map[string]domain.Branch
	sessions        map[string]domain.CashSession
	activeByKey     map[string]string // openedBy|branchID -> OPEN session id
	movements       []domain.CashMovement
	movementsByID   map[string]int
	movementsBySess map[string][]int
	seq             int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		branches:        make(map[string]domain.Branch),
		sessions:        make(map[string]domain.CashSession),
		activeByKey:     make(map[string]string),
		movementsByID:   make(map[string]int),
		movementsBySess: make(map[string][]int),
	}
}

// NewRepositoryProvider wires every repository onto one shared store.
func NewRepositoryProvider(store *Store, idempotency portsrepo.IdempotencyStore) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		SessionRepo:     &SessionRepository{store: store},
		MovementRepo:    &MovementRepository{store: store},
		ReportingRepo:   &ReportingRepository{store: store},
		BranchRepo:      &BranchRepository{store: store},
		IdempotencyRepo: idempotency,
	}
}

func activeKey(userID, branchID string) string {
	return userID + "|" + branchID
}

// appendLocked stores m with the next sequence. Callers hold the write lock.
func (s *Store) appendLocked(m domain.CashMovement) domain.CashMovement {
	s.seq++
	m.Seq = s.seq
	s.movements = append(s.movements, m)
	idx := len(s.movements) - 1
	s.movementsByID[m.MovementID] = idx
	s.movementsBySess[m.SessionID] = append(s.movementsBySess[m.SessionID], idx)
	return m
}

// totalsLocked sums a session's movements. Callers hold a lock.
func (s *Store) totalsLocked(sessionID string) domain.MovementTotals {
	totals := domain.MovementTotals{}
	for _, idx := range s.movementsBySess[sessionID] {
		m := s.movements[idx]
		totals.Add(m.Type, m.Amount)
	}
	return totals
}

// lastMovementAtLocked returns the latest movement date of a session. Callers hold a lock.
func (s *Store) lastMovementAtLocked(sessionID string) time.Time {
	var last time.Time
	for _, idx := range s.movementsBySess[sessionID] {
		if d := s.movements[idx].MovementDate; d.After(last) {
			last = d
		}
	}
	return last
}
