package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/cashdesk/internal/apperrors"
	"github.com/SscSPs/cashdesk/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashdesk/internal/core/ports/services"
	"github.com/SscSPs/cashdesk/internal/core/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockSessionRepository is a mock type for the CashSessionRepositoryFacade interface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, session domain.CashSession, opening domain.CashMovement) (*domain.CashSession, error) {
	args := m.Called(ctx, session, opening)
	if fn, ok := args.Get(0).(func(context.Context, domain.CashSession, domain.CashMovement) *domain.CashSession); ok {
		return fn(ctx, session, opening), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashSession), args.Error(1)
}

func (m *MockSessionRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.CashSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashSession), args.Error(1)
}

func (m *MockSessionRepository) CloseSession(ctx context.Context, closure domain.SessionClosure, reconcile portsrepo.ReconcileFunc) (*domain.CashSession, error) {
	args := m.Called(ctx, closure, reconcile)
	if fn, ok := args.Get(0).(func(context.Context, domain.SessionClosure, portsrepo.ReconcileFunc) *domain.CashSession); ok {
		return fn(ctx, closure, reconcile), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashSession), args.Error(1)
}

func (m *MockSessionRepository) UpdateObservations(ctx context.Context, sessionID string, observations *string, at time.Time) (*domain.CashSession, error) {
	args := m.Called(ctx, sessionID, observations, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashSession), args.Error(1)
}

func (m *MockSessionRepository) ListSessions(ctx context.Context, filter domain.SessionFilter, limit, offset int) ([]domain.CashSession, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.CashSession), args.Int(1), args.Error(2)
}

func (m *MockSessionRepository) ListSessionsOverlapping(ctx context.Context, branchID *string, from, to time.Time) ([]domain.CashSession, error) {
	args := m.Called(ctx, branchID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CashSession), args.Error(1)
}

var _ portsrepo.CashSessionRepositoryFacade = (*MockSessionRepository)(nil)

// MockMovementRepository is a mock type for the CashMovementRepositoryFacade interface
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) AppendMovement(ctx context.Context, movement domain.CashMovement) (*domain.CashMovement, error) {
	args := m.Called(ctx, movement)
	if fn, ok := args.Get(0).(func(context.Context, domain.CashMovement) *domain.CashMovement); ok {
		return fn(ctx, movement), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashMovement), args.Error(1)
}

func (m *MockMovementRepository) FindMovementByID(ctx context.Context, movementID string) (*domain.CashMovement, error) {
	args := m.Called(ctx, movementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashMovement), args.Error(1)
}

func (m *MockMovementRepository) ListMovements(ctx context.Context, sessionID string, filter domain.MovementFilter, after *domain.MovementCursor, limit int) ([]domain.CashMovement, error) {
	args := m.Called(ctx, sessionID, filter, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CashMovement), args.Error(1)
}

func (m *MockMovementRepository) SumMovementsBySession(ctx context.Context, sessionIDs []string) (map[string]domain.MovementTotals, error) {
	args := m.Called(ctx, sessionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.MovementTotals), args.Error(1)
}

var _ portsrepo.CashMovementRepositoryFacade = (*MockMovementRepository)(nil)

// MockIdempotencyStore is a mock type for the IdempotencyStore interface
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockIdempotencyStore) Complete(ctx context.Context, key, movementID string, ttl time.Duration) error {
	args := m.Called(ctx, key, movementID, ttl)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

var _ portsrepo.IdempotencyStore = (*MockIdempotencyStore)(nil)

// --- Test Suite Setup ---

type LedgerServiceTestSuite struct {
	suite.Suite
	mockSessions    *MockSessionRepository
	mockMovements   *MockMovementRepository
	mockIdempotency *MockIdempotencyStore
	service         portssvc.LedgerSvcFacade
	now             time.Time
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockSessions = new(MockSessionRepository)
	suite.mockMovements = new(MockMovementRepository)
	suite.mockIdempotency = new(MockIdempotencyStore)
	suite.now = time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC)
	suite.service = services.NewLedgerService(suite.mockSessions, suite.mockMovements,
		services.WithLedgerClock(func() time.Time { return suite.now }),
		services.WithIdempotencyStore(suite.mockIdempotency, time.Hour))
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func (suite *LedgerServiceTestSuite) saleInput(key string) domain.MovementInput {
	return domain.MovementInput{
		SessionID:      "sess-1",
		UserID:         "user-1",
		Type:           domain.MovementSale,
		Amount:         dec("12.50"),
		Concept:        "  Venta F-9  ",
		IdempotencyKey: key,
	}
}

// --- Test Cases ---

func (suite *LedgerServiceTestSuite) TestRecordMovement_Success() {
	ctx := context.Background()
	suite.mockMovements.On("AppendMovement", ctx, mock.MatchedBy(func(m domain.CashMovement) bool {
		return m.SessionID == "sess-1" &&
			m.Type == domain.MovementSale &&
			m.Method == domain.MethodCash &&
			m.Concept == "Venta F-9" &&
			m.MovementDate.Equal(suite.now) &&
			m.MovementID != ""
	})).Return(func(_ context.Context, m domain.CashMovement) *domain.CashMovement {
		m.Seq = 7
		return &m
	}, nil).Once()

	movement, err := suite.service.RecordMovement(ctx, suite.saleInput(""))

	suite.Require().NoError(err)
	suite.Equal(int64(7), movement.Seq)
	_, parseErr := uuid.Parse(movement.MovementID)
	suite.NoError(parseErr)
	suite.mockMovements.AssertExpectations(suite.T())
	suite.mockIdempotency.AssertNotCalled(suite.T(), "Reserve", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestRecordMovement_AppendError() {
	ctx := context.Background()
	suite.mockMovements.On("AppendMovement", ctx, mock.AnythingOfType("domain.CashMovement")).Return(nil, assert.AnError).Once()

	movement, err := suite.service.RecordMovement(ctx, suite.saleInput(""))

	suite.Require().Error(err)
	suite.Nil(movement)
	suite.ErrorIs(err, assert.AnError)
	suite.mockMovements.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestRecordMovement_CompletesIdempotencyKey() {
	ctx := context.Background()
	key := "cashdesk:idem:user-1:abc"
	stored := &domain.CashMovement{MovementID: "mv-1", SessionID: "sess-1", Type: domain.MovementSale, Amount: dec("12.50")}

	suite.mockIdempotency.On("Reserve", ctx, key, time.Hour).Return("", true, nil).Once()
	suite.mockMovements.On("AppendMovement", ctx, mock.AnythingOfType("domain.CashMovement")).Return(stored, nil).Once()
	suite.mockIdempotency.On("Complete", ctx, key, "mv-1", time.Hour).Return(nil).Once()

	movement, err := suite.service.RecordMovement(ctx, suite.saleInput(" abc "))

	suite.Require().NoError(err)
	suite.Equal("mv-1", movement.MovementID)
	suite.mockIdempotency.AssertExpectations(suite.T())
	suite.mockMovements.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestRecordMovement_ReleasesKeyOnFailure() {
	ctx := context.Background()
	key := "cashdesk:idem:user-1:abc"
	closedErr := apperrors.NewInvalidState("record movement", "sess-1", "CLOSED")

	suite.mockIdempotency.On("Reserve", ctx, key, time.Hour).Return("", true, nil).Once()
	suite.mockMovements.On("AppendMovement", ctx, mock.AnythingOfType("domain.CashMovement")).Return(nil, closedErr).Once()
	suite.mockIdempotency.On("Release", ctx, key).Return(nil).Once()

	_, err := suite.service.RecordMovement(ctx, suite.saleInput("abc"))

	suite.ErrorIs(err, apperrors.ErrInvalidState)
	suite.mockIdempotency.AssertExpectations(suite.T())
	suite.mockIdempotency.AssertNotCalled(suite.T(), "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestRecordMovement_ReplayReturnsOriginal() {
	ctx := context.Background()
	key := "cashdesk:idem:user-1:abc"
	original := &domain.CashMovement{MovementID: "mv-1", SessionID: "sess-1", Type: domain.MovementSale, Amount: dec("12.5")}

	suite.mockIdempotency.On("Reserve", ctx, key, time.Hour).Return("mv-1", false, nil).Once()
	suite.mockMovements.On("FindMovementByID", ctx, "mv-1").Return(original, nil).Once()

	movement, err := suite.service.RecordMovement(ctx, suite.saleInput("abc"))

	suite.Require().NoError(err)
	suite.Same(original, movement)
	suite.mockMovements.AssertNotCalled(suite.T(), "AppendMovement", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestRecordMovement_ReserveError() {
	ctx := context.Background()
	suite.mockIdempotency.On("Reserve", ctx, mock.Anything, time.Hour).Return("", false, assert.AnError).Once()

	_, err := suite.service.RecordMovement(ctx, suite.saleInput("abc"))

	suite.ErrorIs(err, assert.AnError)
	suite.mockMovements.AssertNotCalled(suite.T(), "AppendMovement", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestRecordMovement_KeyTooLong() {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'k'
	}
	_, err := suite.service.RecordMovement(context.Background(), suite.saleInput(string(long)))
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestComputeBalance_SumError() {
	ctx := context.Background()
	suite.mockSessions.On("FindSessionByID", ctx, "sess-1").Return(&domain.CashSession{SessionID: "sess-1", Status: domain.SessionOpen}, nil).Once()
	suite.mockMovements.On("SumMovementsBySession", ctx, []string{"sess-1"}).Return(nil, assert.AnError).Once()

	_, err := suite.service.ComputeBalance(ctx, "sess-1")

	suite.ErrorIs(err, assert.AnError)
	suite.mockSessions.AssertExpectations(suite.T())
	suite.mockMovements.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestComputeBalance_FromTotals() {
	ctx := context.Background()
	suite.mockSessions.On("FindSessionByID", ctx, "sess-1").Return(&domain.CashSession{SessionID: "sess-1"}, nil).Once()
	suite.mockMovements.On("SumMovementsBySession", ctx, []string{"sess-1"}).Return(map[string]domain.MovementTotals{
		"sess-1": {
			domain.MovementOpening:    dec("5000"),
			domain.MovementSale:       dec("41300"),
			domain.MovementManualExit: dec("500"),
		},
	}, nil).Once()

	balance, err := suite.service.ComputeBalance(ctx, "sess-1")

	suite.Require().NoError(err)
	suite.True(dec("45800").Equal(balance))
}

func (suite *LedgerServiceTestSuite) TestRecordForOpenSession_ListError() {
	ctx := context.Background()
	suite.mockSessions.On("ListSessions", ctx, mock.AnythingOfType("domain.SessionFilter"), 1, 0).Return(nil, 0, assert.AnError).Once()

	_, err := suite.service.RecordForOpenSession(ctx, "branch-1", suite.saleInput(""))

	suite.ErrorIs(err, assert.AnError)
}

func (suite *LedgerServiceTestSuite) TestMovements_PropagatesPageError() {
	ctx := context.Background()
	suite.mockSessions.On("FindSessionByID", ctx, "sess-1").Return(&domain.CashSession{SessionID: "sess-1"}, nil).Once()
	suite.mockMovements.On("ListMovements", ctx, "sess-1", domain.MovementFilter{}, (*domain.MovementCursor)(nil), 200).Return(nil, assert.AnError).Once()

	var errs []error
	for _, err := range suite.service.Movements(ctx, "sess-1", domain.MovementFilter{}) {
		errs = append(errs, err)
	}

	suite.Require().Len(errs, 1)
	suite.ErrorIs(errs[0], assert.AnError)
}

// CashSessionServiceTestSuite covers the session manager against mocked storage.
type CashSessionServiceTestSuite struct {
	suite.Suite
	mockSessions  *MockSessionRepository
	mockMovements *MockMovementRepository
	service       portssvc.CashSessionSvcFacade
}

type stubBranches struct{ err error }

func (b stubBranches) ValidateBranch(_ context.Context, branchID string) (*domain.Branch, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &domain.Branch{BranchID: branchID, IsActive: true}, nil
}

func (suite *CashSessionServiceTestSuite) SetupTest() {
	suite.mockSessions = new(MockSessionRepository)
	suite.mockMovements = new(MockMovementRepository)
	suite.service = services.NewCashSessionService(suite.mockSessions, suite.mockMovements, stubBranches{})
}

func TestCashSessionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CashSessionServiceTestSuite))
}

func (suite *CashSessionServiceTestSuite) TestOpenSession_PassesOpeningMovement() {
	ctx := context.Background()
	suite.mockSessions.On("CreateSession", ctx,
		mock.MatchedBy(func(s domain.CashSession) bool {
			return s.Status == domain.SessionOpen && s.OpenedBy == "user-1" && s.BranchID == "b-1"
		}),
		mock.MatchedBy(func(m domain.CashMovement) bool {
			return m.Type == domain.MovementOpening && m.Amount.Equal(dec("250")) && m.Concept == domain.OpeningConcept
		}),
	).Return(func(_ context.Context, s domain.CashSession, _ domain.CashMovement) *domain.CashSession {
		return &s
	}, nil).Once()

	session, err := suite.service.OpenSession(ctx, "user-1", "b-1", dec("250"), nil)

	suite.Require().NoError(err)
	suite.Equal("b-1", session.BranchID)
	suite.mockSessions.AssertExpectations(suite.T())
}

func (suite *CashSessionServiceTestSuite) TestOpenSession_BranchRejected() {
	svc := services.NewCashSessionService(suite.mockSessions, suite.mockMovements,
		stubBranches{err: apperrors.NewValidationFailedError("unknown branch b-9")})

	_, err := svc.OpenSession(context.Background(), "user-1", "b-9", dec("1"), nil)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockSessions.AssertNotCalled(suite.T(), "CreateSession", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CashSessionServiceTestSuite) TestCloseSession_ReconcilesInsideStorage() {
	ctx := context.Background()
	open := domain.CashSession{SessionID: "sess-1", InitialAmount: dec("100"), Status: domain.SessionOpen}
	totals := domain.MovementTotals{domain.MovementOpening: dec("100"), domain.MovementSale: dec("20")}

	suite.mockSessions.On("CloseSession", ctx, mock.AnythingOfType("domain.SessionClosure"), mock.Anything).
		Return(func(_ context.Context, c domain.SessionClosure, reconcile portsrepo.ReconcileFunc) *domain.CashSession {
			closed, _, err := open.Close(c, reconcile(open, totals))
			suite.Require().NoError(err)
			return &closed
		}, nil).Once()

	closed, err := suite.service.CloseSession(ctx, "sess-1", dec("115"), nil, "user-1")

	suite.Require().NoError(err)
	suite.True(dec("120").Equal(*closed.ExpectedBalance))
	suite.True(dec("-5").Equal(*closed.Difference))
}

func (suite *CashSessionServiceTestSuite) TestGetOpenSessions_SumError() {
	ctx := context.Background()
	suite.mockSessions.On("ListSessions", ctx, mock.AnythingOfType("domain.SessionFilter"), 0, 0).
		Return([]domain.CashSession{{SessionID: "sess-1"}}, 1, nil).Once()
	suite.mockMovements.On("SumMovementsBySession", ctx, []string{"sess-1"}).Return(nil, assert.AnError).Once()

	_, err := suite.service.GetOpenSessions(ctx, domain.SessionFilter{})

	suite.ErrorIs(err, assert.AnError)
}

func (suite *CashSessionServiceTestSuite) TestGetSession_NotFound() {
	ctx := context.Background()
	suite.mockSessions.On("FindSessionByID", ctx, "nope").Return(nil, apperrors.NewNotFoundError("cash session nope")).Once()

	_, err := suite.service.GetSession(ctx, "nope")

	suite.ErrorIs(err, apperrors.ErrNotFound)
}
