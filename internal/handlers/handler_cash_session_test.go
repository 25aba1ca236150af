package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/cashdesk/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk/internal/core/ports/services"
	"github.com/SscSPs/cashdesk/internal/core/services"
	"github.com/SscSPs/cashdesk/internal/dto"
	"github.com/SscSPs/cashdesk/internal/handlers"
	"github.com/SscSPs/cashdesk/internal/platform/config"
	"github.com/SscSPs/cashdesk/internal/repositories/cache"
	"github.com/SscSPs/cashdesk/internal/repositories/memory"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const testBranchID = "branch-centro"

type apiError struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	SessionID string `json:"sessionID"`
	Status    string `json:"status"`
}

// CashHandlerTestSuite exercises the HTTP surface over the in-memory adapter.
type CashHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	jwtSecret   string
	idempotency *cache.InMemoryIdempotencyStore
	container   *portssvc.ServiceContainer
}

func TestCashHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(CashHandlerTestSuite))
}

func (suite *CashHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	cfg := &config.Config{
		JWTSecret:         suite.jwtSecret,
		IsProduction:      true,
		OperatingLocation: time.UTC,
		IdempotencyTTL:    time.Hour,
		HistoryMaxLimit:   100,
	}

	suite.idempotency = cache.NewInMemoryIdempotencyStore(time.Minute)
	repos := memory.NewRepositoryProvider(memory.NewStore(), suite.idempotency)
	suite.container = services.NewServiceContainer(cfg, repos)

	_, err := suite.container.Branch.CreateBranch(context.Background(), strPtr(testBranchID), "Centro", "", "admin")
	suite.Require().NoError(err)

	suite.router = gin.New()
	handlers.RegisterRoutes(suite.router, cfg, suite.container, nil)
}

func (suite *CashHandlerTestSuite) TearDownTest() {
	suite.idempotency.Close()
}

// generateTestToken creates a signed JWT for testing.
func (suite *CashHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "cashdesk-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *CashHandlerTestSuite) do(method, path, userID string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *CashHandlerTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (suite *CashHandlerTestSuite) openSession(userID, amount string) dto.CashSessionResponse {
	w := suite.do(http.MethodPost, "/api/v1/cash/sessions", userID, map[string]any{
		"branchID":      testBranchID,
		"initialAmount": json.Number(amount),
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp dto.CashSessionResponse
	suite.decode(w, &resp)
	return resp
}

// --- Test Cases ---

func (suite *CashHandlerTestSuite) TestHealth_NoAuth() {
	w := suite.do(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"status":"ok"}`, w.Body.String())
}

func (suite *CashHandlerTestSuite) TestAuthRequired() {
	w := suite.do(http.MethodGet, "/api/v1/cash/sessions/open", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cash/sessions/open", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *CashHandlerTestSuite) TestOpenSession_Created() {
	resp := suite.openSession("cashier-1", "5000")

	suite.NotEmpty(resp.SessionID)
	suite.Equal("cashier-1", resp.OpenedBy)
	suite.Equal(domain.SessionOpen, resp.Status)
	suite.True(decimal.NewFromInt(5000).Equal(resp.InitialAmount))
}

func (suite *CashHandlerTestSuite) TestOpenSession_Conflict() {
	first := suite.openSession("cashier-1", "100")

	w := suite.do(http.MethodPost, "/api/v1/cash/sessions", "cashier-1", map[string]any{
		"branchID":      testBranchID,
		"initialAmount": 50,
	})

	suite.Equal(http.StatusConflict, w.Code)
	var body apiError
	suite.decode(w, &body)
	suite.Equal("CONFLICT", body.Code)
	suite.Equal(first.SessionID, body.SessionID)
	suite.Equal("OPEN", body.Status)
}

func (suite *CashHandlerTestSuite) TestOpenSession_ValidationErrors() {
	cases := map[string]map[string]any{
		"missing amount":  {"branchID": testBranchID},
		"negative amount": {"branchID": testBranchID, "initialAmount": -1},
		"missing branch":  {"initialAmount": 10},
		"unknown branch":  {"branchID": "nowhere", "initialAmount": 10},
	}
	for name, body := range cases {
		w := suite.do(http.MethodPost, "/api/v1/cash/sessions", "cashier-1", body)
		suite.Equal(http.StatusBadRequest, w.Code, name)
		var resp apiError
		suite.decode(w, &resp)
		suite.Equal("VALIDATION_ERROR", resp.Code, name)
	}
}

func (suite *CashHandlerTestSuite) TestFullLifecycle() {
	session := suite.openSession("cashier-1", "5000")
	movements := "/api/v1/cash/sessions/" + session.SessionID + "/movements"

	w := suite.do(http.MethodPost, movements, "cashier-1", map[string]any{
		"type": "SALE", "amount": "41300", "concept": "Venta F-001",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, movements, "cashier-1", map[string]any{
		"type": "MANUAL_EXIT", "amount": 500, "concept": "Compra de agua",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodGet, "/api/v1/cash/sessions/"+session.SessionID+"/balance", "cashier-1", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var balance dto.SessionBalanceResponse
	suite.decode(w, &balance)
	suite.True(decimal.NewFromInt(45800).Equal(balance.Balance), balance.Balance.String())

	w = suite.do(http.MethodPost, "/api/v1/cash/sessions/"+session.SessionID+"/close", "cashier-1", map[string]any{
		"countedAmount": 45000,
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var closed dto.CashSessionResponse
	suite.decode(w, &closed)
	suite.Equal(domain.SessionClosed, closed.Status)
	suite.Require().NotNil(closed.Difference)
	suite.True(decimal.NewFromInt(-800).Equal(*closed.Difference))

	// Closed sessions reject further changes.
	w = suite.do(http.MethodPost, "/api/v1/cash/sessions/"+session.SessionID+"/close", "cashier-1", map[string]any{
		"countedAmount": 1,
	})
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	var body apiError
	suite.decode(w, &body)
	suite.Equal("INVALID_STATE", body.Code)
	suite.Equal("CLOSED", body.Status)

	w = suite.do(http.MethodPost, movements, "cashier-1", map[string]any{"type": "SALE", "amount": 1})
	suite.Equal(http.StatusUnprocessableEntity, w.Code)

	w = suite.do(http.MethodPatch, "/api/v1/cash/sessions/"+session.SessionID, "cashier-1", map[string]any{"observations": "late"})
	suite.Equal(http.StatusUnprocessableEntity, w.Code)

	w = suite.do(http.MethodGet, movements+"?limit=2", "cashier-1", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var page dto.ListMovementsResponse
	suite.decode(w, &page)
	suite.Len(page.Movements, 2)
	suite.Require().NotNil(page.NextToken)

	w = suite.do(http.MethodGet, movements+"?limit=2&nextToken="+*page.NextToken, "cashier-1", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &page)
	suite.Len(page.Movements, 2)
	suite.Equal(domain.MovementClosing, page.Movements[1].Type)
}

func (suite *CashHandlerTestSuite) TestRecordMovement_Rejections() {
	session := suite.openSession("cashier-1", "10")
	path := "/api/v1/cash/sessions/" + session.SessionID + "/movements"

	cases := map[string]map[string]any{
		"reserved type":       {"type": "OPENING", "amount": 1},
		"zero amount":         {"type": "SALE", "amount": 0},
		"missing concept":     {"type": "MANUAL_ENTRY", "amount": 1},
		"unknown method":      {"type": "SALE", "amount": 1, "method": "CHEQUE"},
		"too many decimals":   {"type": "SALE", "amount": "1.005"},
		"missing amount body": {"type": "SALE"},
	}
	for name, body := range cases {
		w := suite.do(http.MethodPost, path, "cashier-1", body)
		suite.Equal(http.StatusBadRequest, w.Code, name)
	}

	w := suite.do(http.MethodPost, "/api/v1/cash/sessions/missing/movements", "cashier-1", map[string]any{"type": "SALE", "amount": 1})
	suite.Equal(http.StatusNotFound, w.Code)
	var body apiError
	suite.decode(w, &body)
	suite.Equal("NOT_FOUND", body.Code)
}

func (suite *CashHandlerTestSuite) TestRecordMovement_IdempotencyKey() {
	session := suite.openSession("cashier-1", "10")
	path := "/api/v1/cash/sessions/" + session.SessionID + "/movements"
	payload := map[string]any{"type": "SALE", "amount": 5}

	w1 := suite.do(http.MethodPost, path, "cashier-1", payload, handlers.IdempotencyKeyHeader, "abc-1")
	suite.Require().Equal(http.StatusCreated, w1.Code)
	w2 := suite.do(http.MethodPost, path, "cashier-1", payload, handlers.IdempotencyKeyHeader, "abc-1")
	suite.Require().Equal(http.StatusCreated, w2.Code)

	var first, second dto.CashMovementResponse
	suite.decode(w1, &first)
	suite.decode(w2, &second)
	suite.Equal(first.MovementID, second.MovementID)

	w := suite.do(http.MethodGet, "/api/v1/cash/sessions/"+session.SessionID+"/balance", "cashier-1", nil)
	var balance dto.SessionBalanceResponse
	suite.decode(w, &balance)
	suite.True(decimal.NewFromInt(15).Equal(balance.Balance))
}

func (suite *CashHandlerTestSuite) TestBranchMovement_UsesCallerSession() {
	w := suite.do(http.MethodPost, "/api/v1/cash/branches/"+testBranchID+"/movements", "cashier-1", map[string]any{
		"type": "SALE", "amount": 100, "reference": "F-77",
	})
	suite.Equal(http.StatusUnprocessableEntity, w.Code, "no open session yet")

	session := suite.openSession("cashier-1", "0")
	w = suite.do(http.MethodPost, "/api/v1/cash/branches/"+testBranchID+"/movements", "cashier-1", map[string]any{
		"type": "SALE", "amount": 100, "reference": "F-77",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var movement dto.CashMovementResponse
	suite.decode(w, &movement)
	suite.Equal(session.SessionID, movement.SessionID)
	suite.Equal("Venta F-77", movement.Concept)
}

func (suite *CashHandlerTestSuite) TestOpenSessions_MineAndBranch() {
	suite.openSession("cashier-1", "10")
	suite.openSession("cashier-2", "20")

	w := suite.do(http.MethodGet, "/api/v1/cash/sessions/open?branchId="+testBranchID, "cashier-1", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var all []dto.CashSessionResponse
	suite.decode(w, &all)
	suite.Len(all, 2)

	w = suite.do(http.MethodGet, "/api/v1/cash/sessions/open?mine=true", "cashier-2", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var mine []dto.CashSessionResponse
	suite.decode(w, &mine)
	suite.Require().Len(mine, 1)
	suite.Equal("cashier-2", mine[0].OpenedBy)
	suite.Require().NotNil(mine[0].CurrentBalance)
	suite.True(decimal.NewFromInt(20).Equal(*mine[0].CurrentBalance))
}

func (suite *CashHandlerTestSuite) TestReports() {
	session := suite.openSession("cashier-1", "10")
	today := time.Now().UTC().Format("2006-01-02")

	w := suite.do(http.MethodGet, "/api/v1/cash/reports/daily-summary?date="+today, "cashier-1", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var summary domain.DailySummary
	suite.decode(w, &summary)
	suite.True(decimal.NewFromInt(10).Equal(summary.OpeningTotal))

	w = suite.do(http.MethodGet, "/api/v1/cash/reports/history?limit=5", "cashier-1", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var history domain.HistoryPage
	suite.decode(w, &history)
	suite.Equal(1, history.Total)
	suite.Equal(session.SessionID, history.Records[0].SessionID)

	w = suite.do(http.MethodGet, "/api/v1/cash/reports/cash-report?startDate="+today+"&endDate="+today, "cashier-1", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var report domain.CashReport
	suite.decode(w, &report)
	suite.Equal(1, report.Summary.SessionCount)

	w = suite.do(http.MethodGet, "/api/v1/cash/reports/cash-report?startDate="+today, "cashier-1", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/cash/reports/daily-summary?date=03-15-2024", "cashier-1", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *CashHandlerTestSuite) TestBranches() {
	w := suite.do(http.MethodPost, "/api/v1/branches", "admin", map[string]any{"branchID": "branch-norte", "name": "Norte"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, "/api/v1/branches", "admin", map[string]any{"branchID": "branch-norte", "name": "Otra"})
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/branches", "admin", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var branches []dto.BranchResponse
	suite.decode(w, &branches)
	suite.Len(branches, 2)

	w = suite.do(http.MethodGet, "/api/v1/branches/unknown", "admin", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

// --- Mock CashSessionService ---

type MockCashSessionService struct {
	mock.Mock
}

func (m *MockCashSessionService) GetSession(ctx context.Context, sessionID string) (*domain.CashSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashSession), args.Error(1)
}

func (m *MockCashSessionService) GetOpenSessions(ctx context.Context, filter domain.SessionFilter) ([]domain.SessionWithBalance, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SessionWithBalance), args.Error(1)
}

func (m *MockCashSessionService) OpenSession(ctx context.Context, userID, branchID string, initialAmount decimal.Decimal, observations *string) (*domain.CashSession, error) {
	args := m.Called(ctx, userID, branchID, initialAmount, observations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashSession), args.Error(1)
}

func (m *MockCashSessionService) UpdateObservations(ctx context.Context, sessionID string, observations *string, userID string) (*domain.CashSession, error) {
	args := m.Called(ctx, sessionID, observations, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashSession), args.Error(1)
}

func (m *MockCashSessionService) CloseSession(ctx context.Context, sessionID string, countedAmount decimal.Decimal, observations *string, closedBy string) (*domain.CashSession, error) {
	args := m.Called(ctx, sessionID, countedAmount, observations, closedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashSession), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.CashSessionSvcFacade = (*MockCashSessionService)(nil)

func TestGetSession_InternalErrorHidesDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := "another-test-secret"
	cfg := &config.Config{JWTSecret: secret, IsProduction: true, OperatingLocation: time.UTC}

	mockSessions := new(MockCashSessionService)
	mockSessions.On("GetSession", mock.Anything, "sess-1").Return(nil, assert.AnError).Once()

	router := gin.New()
	handlers.RegisterRoutes(router, cfg, &portssvc.ServiceContainer{Session: mockSessions}, nil)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"}).SignedString([]byte(secret))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cash/sessions/sess-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body apiError
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
	assert.NotContains(t, body.Error, assert.AnError.Error())
	mockSessions.AssertExpectations(t)
}

func strPtr(s string) *string {
	return &s
}
