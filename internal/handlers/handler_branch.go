package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/cashdesk/internal/core/ports/services"
	"github.com/SscSPs/cashdesk/internal/dto"
	"github.com/SscSPs/cashdesk/internal/middleware"
	"github.com/gin-gonic/gin"
)

// branchHandler handles HTTP requests related to the branch directory.
type branchHandler struct {
	branchService portssvc.BranchSvcFacade
}

func newBranchHandler(bs portssvc.BranchSvcFacade) *branchHandler {
	return &branchHandler{
		branchService: bs,
	}
}

// registerBranchRoutes registers routes related to branches.
func registerBranchRoutes(rg *gin.RouterGroup, branchService portssvc.BranchSvcFacade) {
	h := newBranchHandler(branchService)

	branches := rg.Group("/branches")
	{
		branches.POST("", h.createBranch)
		branches.GET("", h.listBranches)
		branches.GET("/:branchID", h.getBranch)
	}
}

// createBranch godoc
// @Summary Register a branch
// @Tags branches
// @Accept json
// @Produce json
// @Param branch body dto.CreateBranchRequest true "Branch details"
// @Success 201 {object} dto.BranchResponse
// @Failure 400 {object} errorResponse "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} errorResponse "Branch ID already exists"
// @Failure 500 {object} errorResponse "Internal server error"
// @Security BearerAuth
// @Router /branches [post]
func (h *branchHandler) createBranch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	var req dto.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	branch, err := h.branchService.CreateBranch(c.Request.Context(), req.BranchID, req.Name, req.Address, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create branch")
		return
	}

	logger.Info("Branch created", slog.String("branch_id", branch.BranchID))
	c.JSON(http.StatusCreated, dto.ToBranchResponse(branch))
}

// listBranches godoc
// @Summary List branches
// @Tags branches
// @Produce json
// @Success 200 {array} dto.BranchResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} errorResponse "Internal server error"
// @Security BearerAuth
// @Router /branches [get]
func (h *branchHandler) listBranches(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	branches, err := h.branchService.ListBranches(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to list branches")
		return
	}
	c.JSON(http.StatusOK, dto.ToListBranchResponse(branches))
}

// getBranch godoc
// @Summary Get a branch
// @Tags branches
// @Produce json
// @Param branchID path string true "Branch ID"
// @Success 200 {object} dto.BranchResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} errorResponse "Branch not found"
// @Failure 500 {object} errorResponse "Internal server error"
// @Security BearerAuth
// @Router /branches/{branchID} [get]
func (h *branchHandler) getBranch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	branchID := c.Param("branchID")

	branch, err := h.branchService.GetBranch(c.Request.Context(), branchID)
	if err != nil {
		respondError(c, logger.With(slog.String("branch_id", branchID)), err, "Failed to get branch")
		return
	}
	c.JSON(http.StatusOK, dto.ToBranchResponse(branch))
}
