package handler

import (
	"finance-ledger/internal/adapter/http/dto"
	"finance-ledger/internal/core/ports"
	"finance-ledger/pkg/apperror"
	"finance-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// DebtHandler handles receivable endpoints.
type DebtHandler struct {
	debtSvc ports.DebtService
}

// NewDebtHandler creates a new DebtHandler.
func NewDebtHandler(debtSvc ports.DebtService) *DebtHandler {
	return &DebtHandler{debtSvc: debtSvc}
}

// Create handles POST /api/v1/debts.
func (h *DebtHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	walletID, err := parseUUID(req.WalletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	debt, err := h.debtSvc.CreateDebt(c.Request.Context(), ports.CreateDebtInput{
		UserID:       userID,
		WalletID:     walletID,
		Counterparty: req.Counterparty,
		Principal:    req.Principal,
		Fee:          req.Fee,
		Note:         req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.debtSvc.GetDebt(c.Request.Context(), userID, debt.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toDebtResponse(view))
}

// Get handles GET /api/v1/debts/:id.
func (h *DebtHandler) Get(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	debtID, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.debtSvc.GetDebt(c.Request.Context(), userID, debtID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toDebtResponse(view))
}

// Pay handles POST /api/v1/debts/:id/payments.
func (h *DebtHandler) Pay(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	debtID, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.PayDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	payment, err := h.debtSvc.PayDebt(c.Request.Context(), ports.PayDebtInput{
		UserID: userID,
		DebtID: debtID,
		Amount: req.Amount,
		Note:   req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.DebtPaymentResponse{
		ID:        payment.ID.String(),
		Amount:    payment.Amount,
		Note:      payment.Note,
		CreatedAt: payment.CreatedAt.Format(timeFormat),
	})
}

// Delete handles DELETE /api/v1/debts/:id.
func (h *DebtHandler) Delete(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	debtID, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.debtSvc.DeleteDebt(c.Request.Context(), userID, debtID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"deleted": true})
}

func toDebtResponse(view *ports.DebtView) dto.DebtResponse {
	payments := make([]dto.DebtPaymentResponse, 0, len(view.Payments))
	for _, p := range view.Payments {
		payments = append(payments, dto.DebtPaymentResponse{
			ID:        p.ID.String(),
			Amount:    p.Amount,
			Note:      p.Note,
			CreatedAt: p.CreatedAt.Format(timeFormat),
		})
	}

	return dto.DebtResponse{
		ID:              view.Debt.ID.String(),
		WalletID:        view.Debt.WalletID.String(),
		Counterparty:    view.Debt.Counterparty,
		Principal:       view.Debt.Principal,
		Fee:             view.Debt.Fee,
		Note:            view.Debt.Note,
		TotalAmount:     view.Target.TotalAmount,
		PaidAmount:      view.Target.PaidAmount,
		RemainingAmount: view.Target.RemainingAmount,
		Status:          string(view.Target.Status),
		Payments:        payments,
		CreatedAt:       view.Debt.CreatedAt.Format(timeFormat),
	}
}
