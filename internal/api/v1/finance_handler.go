package v1

import (
	"net/http"

	"taskhub/internal/api/middleware"
	"taskhub/internal/api/response"
	"taskhub/internal/repositories"
	"taskhub/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type FinanceHandler struct {
	wallets     *services.WalletService
	recharges   *services.RechargeService
	withdrawals *services.WithdrawalService
}

func RegisterFinanceRoutes(group *gin.RouterGroup, wallets *services.WalletService,
	recharges *services.RechargeService, withdrawals *services.WithdrawalService) {
	h := &FinanceHandler{wallets: wallets, recharges: recharges, withdrawals: withdrawals}
	group.GET("/wallets/:currency/:network", h.Wallet)
	group.POST("/recharges", h.SubmitRecharge)
	group.GET("/recharges", h.Recharges)
	group.POST("/withdrawals", h.SubmitWithdrawal)
	group.GET("/withdrawals", h.Withdrawals)
	group.GET("/withdrawals/quote", h.Quote)
}

func (h *FinanceHandler) Wallet(c *gin.Context) {
	w, err := h.wallets.GetWalletAddress(c.Request.Context(), c.Param("currency"), c.Param("network"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, w)
}

func (h *FinanceHandler) SubmitRecharge(c *gin.Context) {
	var req services.RechargeSubmission
	if !bind(c, &req) {
		return
	}
	res, err := h.recharges.Submit(c.Request.Context(), middleware.UserId(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func ownFilter(c *gin.Context) repositories.Filter {
	offset, limit := pageParams(c)
	return repositories.Filter{
		UserId: middleware.UserId(c),
		Status: c.Query("status"),
		Offset: offset,
		Limit:  limit,
	}
}

func (h *FinanceHandler) Recharges(c *gin.Context) {
	list, err := h.recharges.List(c.Request.Context(), ownFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

func (h *FinanceHandler) SubmitWithdrawal(c *gin.Context) {
	var req services.WithdrawalSubmission
	if !bind(c, &req) {
		return
	}
	res, err := h.withdrawals.Submit(c.Request.Context(), middleware.UserId(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (h *FinanceHandler) Withdrawals(c *gin.Context) {
	list, err := h.withdrawals.List(c.Request.Context(), ownFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

func (h *FinanceHandler) Quote(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.MESSAGE_INVALID_PARAM)
		return
	}
	currency := c.DefaultQuery("currency", services.WITHDRAWAL_NOTICE_CURRENCY)
	q, err := h.withdrawals.Quote(c.Request.Context(), middleware.UserId(c), amount, currency)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, q)
}
