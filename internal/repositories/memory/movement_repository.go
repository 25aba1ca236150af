package memory

import (
	"context"
	"sort"

	"github.com/SscSPs/cashdesk/internal/apperrors"
	"github.com/SscSPs/cashdesk/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
)

// MovementRepository is the in-memory movement ledger.
type MovementRepository struct {
	store *Store
}

var _ portsrepo.CashMovementRepositoryFacade = (*MovementRepository)(nil)

func (r *MovementRepository) AppendMovement(ctx context.Context, movement domain.CashMovement) (*domain.CashMovement, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[movement.SessionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("cash session " + movement.SessionID)
	}
	if !session.IsOpen() {
		return nil, apperrors.NewInvalidState("record movement", session.SessionID, string(session.Status))
	}
	if _, exists := s.movementsByID[movement.MovementID]; exists {
		return nil, apperrors.ErrDuplicate
	}

	stored := s.appendLocked(movement)
	return &stored, nil
}

func (r *MovementRepository) FindMovementByID(ctx context.Context, movementID string) (*domain.CashMovement, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.movementsByID[movementID]
	if !ok {
		return nil, apperrors.NewNotFoundError("cash movement " + movementID)
	}
	m := s.movements[idx]
	return &m, nil
}

func (r *MovementRepository) ListMovements(ctx context.Context, sessionID string, filter domain.MovementFilter, after *domain.MovementCursor, limit int) ([]domain.CashMovement, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CashMovement, 0)
	for _, idx := range s.movementsBySess[sessionID] {
		m := s.movements[idx]
		if filter.Type != nil && m.Type != *filter.Type {
			continue
		}
		if after != nil && !isAfter(m, *after) {
			continue
		}
		result = append(result, m)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].MovementDate.Equal(result[j].MovementDate) {
			return result[i].MovementDate.Before(result[j].MovementDate)
		}
		return result[i].Seq < result[j].Seq
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *MovementRepository) SumMovementsBySession(ctx context.Context, sessionIDs []string) (map[string]domain.MovementTotals, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.MovementTotals, len(sessionIDs))
	for _, id := range sessionIDs {
		if len(s.movementsBySess[id]) == 0 {
			continue
		}
		result[id] = s.totalsLocked(id)
	}
	return result, nil
}

func isAfter(m domain.CashMovement, c domain.MovementCursor) bool {
	if m.MovementDate.Equal(c.MovementDate) {
		return m.Seq > c.Seq
	}
	return m.MovementDate.After(c.MovementDate)
}
