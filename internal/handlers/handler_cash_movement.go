package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/cashdesk/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk/internal/core/ports/services"
	"github.com/SscSPs/cashdesk/internal/dto"
	"github.com/SscSPs/cashdesk/internal/middleware"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader lets clients retry a movement post without recording it twice.
const IdempotencyKeyHeader = "Idempotency-Key"

// cashMovementHandler handles HTTP requests against the movement ledger.
type cashMovementHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newCashMovementHandler(ls portssvc.LedgerSvcFacade) *cashMovementHandler {
	return &cashMovementHandler{ledgerService: ls}
}

// registerBranchMovementRoutes registers the posting endpoint used by the invoicing and
// receivables modules.
func registerBranchMovementRoutes(rg *gin.RouterGroup, ls portssvc.LedgerSvcFacade) {
	h := newCashMovementHandler(ls)
	rg.POST("/branches/:branchID/movements", h.postBranchMovement)
}

// recordMovement godoc
// @Summary Record a cash movement
// @Description Appends a SALE, PAYMENT, MANUAL_ENTRY or MANUAL_EXIT to an OPEN session. OPENING and CLOSING are reserved.
// @Tags cash-movements
// @Accept json
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param Idempotency-Key header string false "Client key making retries safe"
// @Param movement body dto.RecordMovementRequest true "Movement details"
// @Success 201 {object} dto.CashMovementResponse
// @Failure 400 {object} errorResponse "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} errorResponse "Session not found"
// @Failure 409 {object} errorResponse "Idempotency key in use"
// @Failure 422 {object} errorResponse "Session is closed"
// @Failure 500 {object} errorResponse "Internal server error"
// @Security BearerAuth
// @Router /cash/sessions/{sessionID}/movements [post]
func (h *cashMovementHandler) recordMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}
	sessionID := c.Param("sessionID")
	logger = logger.With(slog.String("session_id", sessionID))

	var req dto.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	movement, err := h.ledgerService.RecordMovement(c.Request.Context(), domain.MovementInput{
		SessionID:      sessionID,
		UserID:         userID,
		Type:           req.Type,
		Amount:         *req.Amount,
		Method:         req.Method,
		Concept:        req.Concept,
		ReferenceID:    req.ReferenceID,
		Observations:   req.Observations,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		respondError(c, logger, err, "Failed to record cash movement")
		return
	}

	logger.Info("Cash movement recorded",
		slog.String("movement_id", movement.MovementID),
		slog.String("type", string(movement.Type)),
		slog.String("amount", movement.Amount.String()))
	c.JSON(http.StatusCreated, dto.ToCashMovementResponse(movement))
}

// listMovements godoc
// @Summary List a session's movements
// @Description Returns movements ordered by date, paged with an opaque nextToken.
// @Tags cash-movements
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param type query string false "Movement type" Enums(OPENING, SALE, PAYMENT, MANUAL_ENTRY, MANUAL_EXIT, CLOSING)
// @Param limit query int false "Page size" default(50)
// @Param nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListMovementsResponse
// @Failure 400 {object} errorResponse "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} errorResponse "Session not found"
// @Failure 500 {object} errorResponse "Internal server error"
// @Security BearerAuth
// @Router /cash/sessions/{sessionID}/movements [get]
func (h *cashMovementHandler) listMovements(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("sessionID")
	logger = logger.With(slog.String("session_id", sessionID))

	var params dto.ListMovementsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}

	resp, err := h.ledgerService.ListMovements(c.Request.Context(), sessionID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list cash movements")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// postBranchMovement godoc
// @Summary Post a sale or payment to the caller's open drawer
// @Description Resolves the caller's OPEN session at the branch and appends a SALE ("Venta <reference>") or PAYMENT ("Pago <reference>").
// @Tags cash-movements
// @Accept json
// @Produce json
// @Param branchID path string true "Branch ID"
// @Param Idempotency-Key header string false "Client key making retries safe"
// @Param movement body dto.PostBranchMovementRequest true "Sale or payment"
// @Success 201 {object} dto.CashMovementResponse
// @Failure 400 {object} errorResponse "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} errorResponse "Idempotency key in use"
// @Failure 422 {object} errorResponse "No open cash register"
// @Failure 500 {object} errorResponse "Internal server error"
// @Security BearerAuth
// @Router /cash/branches/{branchID}/movements [post]
func (h *cashMovementHandler) postBranchMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}
	branchID := c.Param("branchID")
	logger = logger.With(slog.String("branch_id", branchID))

	var req dto.PostBranchMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		bindError(c, logger, errors.New("reference is required"))
		return
	}
	concept := domain.SaleConcept(reference)
	if req.Type == domain.MovementPayment {
		concept = domain.PaymentConcept(reference)
	}
	movement, err := h.ledgerService.RecordForOpenSession(c.Request.Context(), branchID, domain.MovementInput{
		UserID:         userID,
		Type:           req.Type,
		Amount:         *req.Amount,
		Method:         req.Method,
		Concept:        concept,
		ReferenceID:    req.ReferenceID,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		respondError(c, logger, err, "Failed to post branch movement")
		return
	}

	logger.Info("Branch movement posted",
		slog.String("session_id", movement.SessionID),
		slog.String("movement_id", movement.MovementID))
	c.JSON(http.StatusCreated, dto.ToCashMovementResponse(movement))
}
