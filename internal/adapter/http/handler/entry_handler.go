package handler

import (
	"finance-ledger/internal/adapter/http/dto"
	"finance-ledger/internal/core/domain"
	"finance-ledger/internal/core/ports"
	"finance-ledger/pkg/apperror"
	"finance-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// EntryHandler handles transaction (expense) and income endpoints.
type EntryHandler struct {
	entrySvc ports.EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entrySvc ports.EntryService) *EntryHandler {
	return &EntryHandler{entrySvc: entrySvc}
}

func (h *EntryHandler) bindEntry(c *gin.Context) (*ports.CreateEntryInput, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return nil, err
	}

	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	dto.SanitizeStruct(&req)

	walletID, err := parseUUID(req.WalletID)
	if err != nil {
		return nil, err
	}

	return &ports.CreateEntryInput{
		UserID:      userID,
		WalletID:    walletID,
		Amount:      req.Amount,
		Label:       req.Label,
		Note:        req.Note,
		ReferenceID: req.ReferenceID,
	}, nil
}

// CreateTransaction handles POST /api/v1/transactions.
func (h *EntryHandler) CreateTransaction(c *gin.Context) {
	input, err := h.bindEntry(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	txn, err := h.entrySvc.CreateTransaction(c.Request.Context(), *input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id.
func (h *EntryHandler) DeleteTransaction(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.entrySvc.DeleteTransaction(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"deleted": true})
}

// CreateIncome handles POST /api/v1/incomes.
func (h *EntryHandler) CreateIncome(c *gin.Context) {
	input, err := h.bindEntry(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	income, err := h.entrySvc.CreateIncome(c.Request.Context(), *input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toIncomeResponse(income))
}

// DeleteIncome handles DELETE /api/v1/incomes/:id.
func (h *EntryHandler) DeleteIncome(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.entrySvc.DeleteIncome(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"deleted": true})
}

func toTransactionResponse(t *domain.Transaction) dto.EntryResponse {
	return dto.EntryResponse{
		ID:          t.ID.String(),
		WalletID:    t.WalletID.String(),
		Amount:      t.Amount,
		Label:       t.Category,
		Note:        t.Note,
		ReferenceID: t.ReferenceID,
		CreatedAt:   t.CreatedAt.Format(timeFormat),
	}
}

func toIncomeResponse(i *domain.Income) dto.EntryResponse {
	return dto.EntryResponse{
		ID:          i.ID.String(),
		WalletID:    i.WalletID.String(),
		Amount:      i.Amount,
		Label:       i.Source,
		Note:        i.Note,
		ReferenceID: i.ReferenceID,
		CreatedAt:   i.CreatedAt.Format(timeFormat),
	}
}
