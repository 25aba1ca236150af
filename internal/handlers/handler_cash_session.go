package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/cashdesk/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk/internal/core/ports/services"
	"github.com/SscSPs/cashdesk/internal/dto"
	"github.com/SscSPs/cashdesk/internal/middleware"
	"github.com/gin-gonic/gin"
)

// cashSessionHandler handles HTTP requests for the cash drawer lifecycle.
type cashSessionHandler struct {
	sessionService portssvc.CashSessionSvcFacade
	ledgerService  portssvc.LedgerReaderSvc
}

func newCashSessionHandler(ss portssvc.CashSessionSvcFacade, ls portssvc.LedgerReaderSvc) *cashSessionHandler {
	return &cashSessionHandler{
		sessionService: ss,
		ledgerService:  ls,
	}
}

// registerCashSessionRoutes registers the session lifecycle routes.
func registerCashSessionRoutes(rg *gin.RouterGroup, ss portssvc.CashSessionSvcFacade, ls portssvc.LedgerSvcFacade) {
	h := newCashSessionHandler(ss, ls)
	mh := newCashMovementHandler(ls)

	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.openSession)
		sessions.GET("/open", h.getOpenSessions)
		sessions.GET("/:sessionID", h.getSession)
		sessions.PATCH("/:sessionID", h.updateSession)
		sessions.POST("/:sessionID/close", h.closeSession)
		sessions.GET("/:sessionID/balance", h.getBalance)
		sessions.GET("/:sessionID/movements", mh.listMovements)
		sessions.POST("/:sessionID/movements", mh.recordMovement)
	}
}

// openSession godoc
// @Summary Open a cash drawer
// @Description Opens a cash session for the authenticated operator at a branch. Only one session per operator and branch may be open.
// @Tags cash-sessions
// @Accept json
// @Produce json
// @Param session body dto.OpenSessionRequest true "Opening float and branch"
// @Success 201 {object} dto.CashSessionResponse
// @Failure 400 {object} errorResponse "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} errorResponse "A session is already open for this user and branch"
// @Failure 500 {object} errorResponse "Internal server error"
// @Security BearerAuth
// @Router /cash/sessions [post]
func (h *cashSessionHandler) openSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	logger = logger.With(slog.String("branch_id", req.BranchID))
	session, err := h.sessionService.OpenSession(c.Request.Context(), userID, req.BranchID, *req.InitialAmount, req.Observations)
	if err != nil {
		respondError(c, logger, err, "Failed to open cash session")
		return
	}

	logger.Info("Cash session opened", slog.String("session_id", session.SessionID))
	c.JSON(http.StatusCreated, dto.ToCashSessionResponse(session))
}

// getOpenSessions godoc
// @Summary List open cash drawers
// @Description Lists OPEN sessions with their live balance, optionally filtered by branch and operator.
// @Tags cash-sessions
// @Produce json
// @Param branchId query string false "Branch ID"
// @Param userId query string false "Operator user ID"
// @Param mine query bool false "Only the caller's sessions"
// @Success 200 {array} dto.CashSessionResponse
// @Failure 400 {object} errorResponse "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} errorResponse "Internal server error"
// @Security BearerAuth
// @Router /cash/sessions/open [get]
func (h *cashSessionHandler) getOpenSessions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	var params dto.ListOpenSessionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}

	filter := domain.SessionFilter{BranchID: params.BranchID, UserID: params.UserID}
	if params.Mine {
		filter.UserID = &userID
	}

	sessions, err := h.sessionService.GetOpenSessions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, logger, err, "Failed to list open cash sessions")
		return
	}
	c.JSON(http.StatusOK, dto.ToOpenSessionsResponse(sessions))
}

// getSession godoc
// @Summary Get a cash session
// @Tags cash-sessions
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} dto.CashSessionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} errorResponse "Session not found"
// @Failure 500 {object} errorResponse "Internal server error"
// @Security BearerAuth
// @Router /cash/sessions/{sessionID} [get]
func (h *cashSessionHandler) getSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("sessionID")

	session, err := h.sessionService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, logger.With(slog.String("session_id", sessionID)), err, "Failed to get cash session")
		return
	}
	c.JSON(http.StatusOK, dto.ToCashSessionResponse(session))
}

// updateSession godoc
// @Summary Edit an open session
// @Description Replaces the observations of an OPEN session.
// @Tags cash-sessions
// @Accept json
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param session body dto.UpdateSessionRequest true "Fields to update"
// @Success 200 {object} dto.CashSessionResponse
// @Failure 400 {object} errorResponse "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} errorResponse "Session not found"
// @Failure 422 {object} errorResponse "Session is closed"
// @Failure 500 {object} errorResponse "Internal server error"
// @Security BearerAuth
// @Router /cash/sessions/{sessionID} [patch]
func (h *cashSessionHandler) updateSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}
	sessionID := c.Param("sessionID")
	logger = logger.With(slog.String("session_id", sessionID))

	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	session, err := h.sessionService.UpdateObservations(c.Request.Context(), sessionID, req.Observations, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to update cash session")
		return
	}
	c.JSON(http.StatusOK, dto.ToCashSessionResponse(session))
}

// closeSession godoc
// @Summary Close and reconcile a cash drawer
// @Description Freezes the expected balance, records the counted amount and the difference, and appends the CLOSING movement.
// @Tags cash-sessions
// @Accept json
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param closure body dto.CloseSessionRequest true "Counted amount"
// @Success 200 {object} dto.CashSessionResponse
// @Failure 400 {object} errorResponse "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} errorResponse "Session not found"
// @Failure 422 {object} errorResponse "Session already closed"
// @Failure 500 {object} errorResponse "Internal server error"
// @Security BearerAuth
// @Router /cash/sessions/{sessionID}/close [post]
func (h *cashSessionHandler) closeSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}
	sessionID := c.Param("sessionID")
	logger = logger.With(slog.String("session_id", sessionID))

	var req dto.CloseSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	session, err := h.sessionService.CloseSession(c.Request.Context(), sessionID, *req.CountedAmount, req.Observations, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to close cash session")
		return
	}
	c.JSON(http.StatusOK, dto.ToCashSessionResponse(session))
}

// getBalance godoc
// @Summary Compute a session balance
// @Description Derives the balance from every committed movement of the session.
// @Tags cash-sessions
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} dto.SessionBalanceResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} errorResponse "Session not found"
// @Failure 500 {object} errorResponse "Internal server error"
// @Security BearerAuth
// @Router /cash/sessions/{sessionID}/balance [get]
func (h *cashSessionHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("sessionID")
	logger = logger.With(slog.String("session_id", sessionID))

	session, err := h.sessionService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, logger, err, "Failed to get cash session")
		return
	}
	balance, err := h.ledgerService.ComputeBalance(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, logger, err, "Failed to compute session balance")
		return
	}

	c.JSON(http.StatusOK, dto.SessionBalanceResponse{
		SessionID: session.SessionID,
		Status:    session.Status,
		Balance:   balance,
	})
}
