package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SscSPs/cashdesk/internal/apperrors"
	"github.com/SscSPs/cashdesk/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
)

// SessionRepository is the in-memory cash session store.
type SessionRepository struct {
	store *Store
}

var _ portsrepo.CashSessionRepositoryFacade = (*SessionRepository)(nil)

func (r *SessionRepository) CreateSession(ctx context.Context, session domain.CashSession, opening domain.CashMovement) (*domain.CashSession, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.SessionID]; exists {
		return nil, apperrors.ErrDuplicate
	}
	key := activeKey(session.OpenedBy, session.BranchID)
	if existingID, exists := s.activeByKey[key]; exists {
		return nil, apperrors.NewConflict("open session", existingID, string(domain.SessionOpen), "session already open for this user/branch")
	}

	s.sessions[session.SessionID] = session
	s.activeByKey[key] = session.SessionID
	s.appendLocked(opening)

	created := session
	return &created, nil
}

func (r *SessionRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.CashSession, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("cash session " + sessionID)
	}
	return &session, nil
}

func (r *SessionRepository) CloseSession(ctx context.Context, closure domain.SessionClosure, reconcile portsrepo.ReconcileFunc) (*domain.CashSession, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[closure.SessionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("cash session " + closure.SessionID)
	}
	if !session.IsOpen() {
		return nil, apperrors.NewInvalidState("close session", session.SessionID, string(session.Status))
	}

	closure = closure.NotBefore(s.lastMovementAtLocked(session.SessionID))
	closed, closing, err := session.Close(closure, reconcile(session, s.totalsLocked(session.SessionID)))
	if err != nil {
		return nil, err
	}

	s.sessions[closed.SessionID] = closed
	delete(s.activeByKey, activeKey(closed.OpenedBy, closed.BranchID))
	s.appendLocked(closing)
	return &closed, nil
}

func (r *SessionRepository) UpdateObservations(ctx context.Context, sessionID string, observations *string, at time.Time) (*domain.CashSession, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("cash session " + sessionID)
	}
	if !session.IsOpen() {
		return nil, apperrors.NewInvalidState("update session", sessionID, string(session.Status))
	}
	session.Observations = observations
	session.LastUpdatedAt = at
	s.sessions[sessionID] = session
	return &session, nil
}

func (r *SessionRepository) ListSessions(ctx context.Context, filter domain.SessionFilter, limit, offset int) ([]domain.CashSession, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.CashSession, 0)
	for _, session := range s.sessions {
		if matchesFilter(session, filter) {
			matched = append(matched, session)
		}
	}
	sortByOpenedDesc(matched)

	total := len(matched)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.CashSession{}, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (r *SessionRepository) ListSessionsOverlapping(ctx context.Context, branchID *string, from, to time.Time) ([]domain.CashSession, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.CashSession, 0)
	for _, session := range s.sessions {
		if branchID != nil && session.BranchID != *branchID {
			continue
		}
		if !session.OpenedAt.Before(to) {
			continue
		}
		if session.ClosedAt != nil && session.ClosedAt.Before(from) {
			continue
		}
		matched = append(matched, session)
	}
	sortByOpenedDesc(matched)
	return matched, nil
}

func matchesFilter(session domain.CashSession, f domain.SessionFilter) bool {
	if f.UserID != nil && session.OpenedBy != *f.UserID {
		return false
	}
	if f.BranchID != nil && session.BranchID != *f.BranchID {
		return false
	}
	if f.Status != nil && session.Status != *f.Status {
		return false
	}
	if f.OpenedFrom != nil && session.OpenedAt.Before(*f.OpenedFrom) {
		return false
	}
	if f.OpenedTo != nil && !session.OpenedAt.Before(*f.OpenedTo) {
		return false
	}
	return true
}

// sortByOpenedDesc orders like the SQL adapter: opened_at DESC, session_id DESC.
func sortByOpenedDesc(sessions []domain.CashSession) {
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].OpenedAt.Equal(sessions[j].OpenedAt) {
			return sessions[i].OpenedAt.After(sessions[j].OpenedAt)
		}
		return sessions[i].SessionID > sessions[j].SessionID
	})
}
