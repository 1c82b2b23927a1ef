package v1

import (
	"time"

	"taskhub/internal/api/middleware"
	"taskhub/internal/api/response"
	"taskhub/internal/services"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	users     *services.UserService
	ledger    *services.LedgerService
	referrals *services.ReferralService
	telegram  *services.TelegramService
	vip       *services.VipService
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type linkCodeReply struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

func RegisterAccountRoutes(group *gin.RouterGroup, users *services.UserService, ledger *services.LedgerService,
	referrals *services.ReferralService, telegram *services.TelegramService, vip *services.VipService) {
	h := &AccountHandler{users: users, ledger: ledger, referrals: referrals, telegram: telegram, vip: vip}
	me := group.Group("/me")
	me.GET("", h.Me)
	me.PUT("/password", h.ChangePassword)
	me.GET("/transactions", h.Transactions)
	me.GET("/team", h.Team)
	me.POST("/telegram-link", h.TelegramLink)
	me.DELETE("/telegram-link", h.TelegramUnlink)
	me.GET("/vip", h.Vip)
}

func (h *AccountHandler) Me(c *gin.Context) {
	user, err := h.users.GetById(c.Request.Context(), middleware.UserId(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, newProfile(user))
}

func (h *AccountHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), middleware.UserId(c), req.OldPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *AccountHandler) Transactions(c *gin.Context) {
	offset, limit := pageParams(c)
	txs, total, err := h.ledger.ListTransactions(c.Request.Context(), middleware.UserId(c), offset, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, txs, total)
}

func (h *AccountHandler) Team(c *gin.Context) {
	team, err := h.referrals.Team(c.Request.Context(), middleware.UserId(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, newTeamReply(team))
}

func (h *AccountHandler) TelegramLink(c *gin.Context) {
	code, expires, err := h.telegram.CreateLinkCode(c.Request.Context(), middleware.UserId(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, linkCodeReply{Code: code, ExpiresAt: expires})
}

func (h *AccountHandler) TelegramUnlink(c *gin.Context) {
	if err := h.telegram.Unlink(c.Request.Context(), middleware.UserId(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *AccountHandler) Vip(c *gin.Context) {
	levels, err := h.vip.ListVipLevels(c.Request.Context(), middleware.UserId(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, levels)
}
