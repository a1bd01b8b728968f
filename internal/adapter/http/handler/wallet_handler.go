package handler

import (
	"finance-ledger/internal/adapter/http/dto"
	"finance-ledger/internal/core/ports"
	"finance-ledger/pkg/apperror"
	"finance-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wallet, err := h.walletSvc.CreateWallet(c.Request.Context(), ports.CreateWalletInput{
		UserID:         userID,
		Name:           req.Name,
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromWallet(wallet))
}

// Get handles GET /api/v1/wallets/:id.
func (h *WalletHandler) Get(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	walletID, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	wallet, err := h.walletSvc.GetWallet(c.Request.Context(), userID, walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromWallet(wallet))
}

// ListMutations handles GET /api/v1/wallets/:id/mutations.
func (h *WalletHandler) ListMutations(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	walletID, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	mutations, total, err := h.walletSvc.ListMutations(c.Request.Context(), userID, walletID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.MutationResponse, 0, len(mutations))
	for i := range mutations {
		items = append(items, dto.FromMutation(&mutations[i]))
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	response.OK(c, dto.MutationListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// Transfer handles POST /api/v1/transfers.
func (h *WalletHandler) Transfer(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	fromID, err := parseUUID(req.FromWalletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	toID, err := parseUUID(req.ToWalletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	transfer, err := h.walletSvc.Transfer(c.Request.Context(), ports.TransferInput{
		UserID:       userID,
		FromWalletID: fromID,
		ToWalletID:   toID,
		Amount:       req.Amount,
		Note:         req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.TransferResponse{
		ID:           transfer.ID.String(),
		FromWalletID: transfer.FromWalletID.String(),
		ToWalletID:   transfer.ToWalletID.String(),
		Amount:       transfer.Amount,
		Note:         transfer.Note,
		CreatedAt:    transfer.CreatedAt.Format(timeFormat),
	})
}
