package v1

import (
	"context"
	"net/http"

	"taskhub/internal/api/response"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
	"taskhub/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminServices is everything the operator console drives.
type AdminServices struct {
	Users       *services.UserService
	Ledger      *services.LedgerService
	Referrals   *services.ReferralService
	Vip         *services.VipService
	Crawl       *services.CrawlService
	Recharges   *services.RechargeService
	Withdrawals *services.WithdrawalService
	Activities  *services.ActivityService
	Notices     *services.NotificationService
	Settings    *services.SettingsService
	Wallets     *services.WalletService
}

type AdminHandler struct {
	svc AdminServices
}

type updateUserRequest struct {
	Status                     *string                 `json:"status"`
	WithdrawalEnabled          *bool                   `json:"withdrawal_enabled"`
	WithdrawalFeeOverride      *decimal.Decimal        `json:"withdrawal_fee_override"`
	ClearWithdrawalFeeOverride bool                    `json:"clear_withdrawal_fee_override"`
	CommissionRatesOverride    *models.CommissionRates `json:"commission_rates_override"`
	Phone                      *string                 `json:"phone"`
	AvatarUrl                  *string                 `json:"avatar_url"`
}

type balanceRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Account string          `json:"account"`
	Action  string          `json:"action"`
}

type setVipRequest struct {
	VipId string `json:"vip_id"`
}

type sendMessageRequest struct {
	RecipientId int64            `json:"recipient_id"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	Params      models.StringMap `json:"params"`
}

type settingsRequest struct {
	Version  int64                   `json:"version"`
	Settings models.PlatformSettings `json:"settings"`
}

type toggleReply struct {
	WithdrawalEnabled bool `json:"withdrawal_enabled"`
}

func RegisterAdminRoutes(group *gin.RouterGroup, svc AdminServices) {
	h := &AdminHandler{svc: svc}

	users := group.Group("/users")
	users.GET("", h.ListUsers)
	users.GET("/:id", h.GetUser)
	users.PATCH("/:id", h.UpdateUser)
	users.POST("/:id/toggle-withdrawal", h.ToggleWithdrawal)
	users.POST("/:id/balance", h.AdjustBalance)
	users.PUT("/:id/vip", h.SetVip)
	users.PUT("/:id/crawl", h.ConfigureCrawl)
	users.POST("/:id/crawl/:set/reset", h.ResetCrawlSet)
	users.GET("/:id/team", h.UserTeam)
	users.GET("/:id/upline", h.UserUpline)
	users.GET("/:id/transactions", h.UserTransactions)
	users.GET("/:id/reconcile", h.ReconcileUser)
	group.GET("/reconcile", h.ReconcileAll)

	vip := group.Group("/vip")
	vip.POST("", h.AddVip)
	vip.PUT("/:id", h.UpdateVip)
	vip.DELETE("/:id", h.DeleteVip)

	crawl := group.Group("/crawl")
	crawl.GET("/tasks", h.CrawlTasks)
	crawl.PUT("/tasks/:set/:taskId", h.UpdateCrawlTask)
	crawl.GET("/vip/:level", h.TierCrawlTasks)
	crawl.PUT("/vip/:level/:set", h.SetTierCrawlOverrides)

	recharges := group.Group("/recharges")
	recharges.GET("", h.Recharges)
	recharges.POST("/:id/approve", h.ApproveRecharge)
	recharges.POST("/:id/reject", h.RejectRecharge)

	withdrawals := group.Group("/withdrawals")
	withdrawals.GET("", h.Withdrawals)
	withdrawals.POST("/:id/approve", h.ApproveWithdrawal)
	withdrawals.POST("/:id/reject", h.RejectWithdrawal)

	activities := group.Group("/activities")
	activities.GET("", h.Activities)
	activities.POST("", h.CreateActivity)
	activities.PUT("/:id", h.UpdateActivity)
	activities.DELETE("/:id", h.DeleteActivity)

	submissions := group.Group("/submissions")
	submissions.GET("", h.Submissions)
	submissions.POST("/:id/approve", h.ApproveSubmission)
	submissions.POST("/:id/reject", h.RejectSubmission)

	messages := group.Group("/messages")
	messages.GET("", h.Messages)
	messages.POST("", h.SendMessage)
	messages.DELETE("/:id", h.DeleteMessage)

	group.GET("/settings", h.Settings)
	group.PUT("/settings", h.UpdateSettings)

	wallets := group.Group("/wallets")
	wallets.GET("", h.Wallets)
	wallets.PUT("", h.SetWallet)
	wallets.DELETE("/:currency/:network", h.DeleteWallet)
}

// reply writes data or the error of a service call.
func reply(c *gin.Context, data any, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, data)
}

func adminFilter(c *gin.Context) repositories.Filter {
	offset, limit := pageParams(c)
	return repositories.Filter{
		Status: c.Query("status"),
		UserId: int64(queryInt(c, "user_id", 0)),
		Offset: offset,
		Limit:  limit,
	}
}

// withId runs fn with the numeric :id path parameter.
func withId(c *gin.Context, fn func(ctx context.Context, id int64) (any, error)) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	data, err := fn(c.Request.Context(), id)
	reply(c, data, err)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	offset, limit := pageParams(c)
	users, total, err := h.svc.Users.ListUsers(c.Request.Context(), c.Query("q"), offset, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, newProfiles(users), total)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	withId(c, func(ctx context.Context, id int64) (any, error) {
		user, err := h.svc.Users.GetById(ctx, id)
		return newProfile(user), err
	})
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if !bind(c, &req) {
		return
	}
	update := services.UserUpdate{
		Status:                  req.Status,
		WithdrawalEnabled:       req.WithdrawalEnabled,
		CommissionRatesOverride: req.CommissionRatesOverride,
		Phone:                   req.Phone,
		AvatarUrl:               req.AvatarUrl,
	}
	switch {
	case req.ClearWithdrawalFeeOverride:
		update.WithdrawalFeeOverride = &decimal.NullDecimal{}
	case req.WithdrawalFeeOverride != nil:
		fee := decimal.NewNullDecimal(*req.WithdrawalFeeOverride)
		update.WithdrawalFeeOverride = &fee
	}
	withId(c, func(ctx context.Context, id int64) (any, error) {
		user, err := h.svc.Users.UpdateUser(ctx, id, update)
		return newProfile(user), err
	})
}

func (h *AdminHandler) ToggleWithdrawal(c *gin.Context) {
	withId(c, func(ctx context.Context, id int64) (any, error) {
		enabled, err := h.svc.Users.ToggleWithdrawal(ctx, id)
		return toggleReply{WithdrawalEnabled: enabled}, err
	})
}

func (h *AdminHandler) AdjustBalance(c *gin.Context) {
	var req balanceRequest
	if !bind(c, &req) {
		return
	}
	withId(c, func(ctx context.Context, id int64) (any, error) {
		user, err := h.svc.Users.AdjustBalance(ctx, id, req.Amount, req.Account, req.Action)
		return newProfile(user), err
	})
}

func (h *AdminHandler) SetVip(c *gin.Context) {
	var req setVipRequest
	if !bind(c, &req) {
		return
	}
	withId(c, func(ctx context.Context, id int64) (any, error) {
		user, err := h.svc.Vip.AdminSetVip(ctx, id, req.VipId)
		return newProfile(user), err
	})
}

func (h *AdminHandler) ConfigureCrawl(c *gin.Context) {
	var req services.CrawlConfig
	if !bind(c, &req) {
		return
	}
	withId(c, func(ctx context.Context, id int64) (any, error) {
		user, err := h.svc.Crawl.ConfigureUser(ctx, id, req)
		return newProfile(user), err
	})
}

func (h *AdminHandler) ResetCrawlSet(c *gin.Context) {
	set, ok := setParam(c)
	if !ok {
		return
	}
	withId(c, func(ctx context.Context, id int64) (any, error) {
		return nil, h.svc.Crawl.ResetSet(ctx, id, set)
	})
}

func (h *AdminHandler) UserUpline(c *gin.Context) {
	withId(c, func(ctx context.Context, id int64) (any, error) {
		return h.svc.Referrals.Upline(ctx, id)
	})
}

func (h *AdminHandler) UserTeam(c *gin.Context) {
	withId(c, func(ctx context.Context, id int64) (any, error) {
		team, err := h.svc.Referrals.Team(ctx, id)
		if err != nil {
			return nil, err
		}
		return newTeamReply(team), nil
	})
}

func (h *AdminHandler) UserTransactions(c *gin.Context) {
	offset, limit := pageParams(c)
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	txs, total, err := h.svc.Ledger.ListTransactions(c.Request.Context(), id, offset, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, txs, total)
}

func (h *AdminHandler) ReconcileUser(c *gin.Context) {
	withId(c, func(ctx context.Context, id int64) (any, error) {
		return h.svc.Ledger.Reconcile(ctx, id)
	})
}

func (h *AdminHandler) ReconcileAll(c *gin.Context) {
	drifts, err := h.svc.Ledger.ReconcileAll(c.Request.Context())
	reply(c, drifts, err)
}

func (h *AdminHandler) AddVip(c *gin.Context) {
	var req models.VipLevel
	if !bind(c, &req) {
		return
	}
	level, err := h.svc.Vip.AddVipLevel(c.Request.Context(), req)
	reply(c, level, err)
}

func (h *AdminHandler) UpdateVip(c *gin.Context) {
	var req models.VipLevel
	if !bind(c, &req) {
		return
	}
	level, err := h.svc.Vip.UpdateVipLevel(c.Request.Context(), c.Param("id"), req)
	reply(c, level, err)
}

func (h *AdminHandler) DeleteVip(c *gin.Context) {
	reply(c, nil, h.svc.Vip.DeleteVipLevel(c.Request.Context(), c.Param("id")))
}

func (h *AdminHandler) CrawlTasks(c *gin.Context) {
	tasks, err := h.svc.Crawl.BaseTasks(c.Request.Context())
	reply(c, tasks, err)
}

func (h *AdminHandler) UpdateCrawlTask(c *gin.Context) {
	set, ok := setParam(c)
	if !ok {
		return
	}
	var req models.TaskOverride
	if !bind(c, &req) {
		return
	}
	task, err := h.svc.Crawl.UpdateBaseTask(c.Request.Context(), set, c.Param("taskId"), req)
	reply(c, task, err)
}

func (h *AdminHandler) TierCrawlTasks(c *gin.Context) {
	tasks, err := h.svc.Crawl.EffectiveTasksForTier(c.Request.Context(), c.Param("level"))
	reply(c, tasks, err)
}

func (h *AdminHandler) SetTierCrawlOverrides(c *gin.Context) {
	set, ok := setParam(c)
	if !ok {
		return
	}
	var req map[string]models.TaskOverride
	if !bind(c, &req) {
		return
	}
	reply(c, nil, h.svc.Crawl.SetVipOverrides(c.Request.Context(), c.Param("level"), set, req))
}

func (h *AdminHandler) Recharges(c *gin.Context) {
	list, err := h.svc.Recharges.List(c.Request.Context(), adminFilter(c))
	reply(c, list, err)
}

func (h *AdminHandler) ApproveRecharge(c *gin.Context) {
	withId(c, func(ctx context.Context, id int64) (any, error) {
		return h.svc.Recharges.Approve(ctx, id)
	})
}

func (h *AdminHandler) RejectRecharge(c *gin.Context) {
	withId(c, func(ctx context.Context, id int64) (any, error) {
		return nil, h.svc.Recharges.Reject(ctx, id)
	})
}

func (h *AdminHandler) Withdrawals(c *gin.Context) {
	list, err := h.svc.Withdrawals.List(c.Request.Context(), adminFilter(c))
	reply(c, list, err)
}

func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	withId(c, func(ctx context.Context, id int64) (any, error) {
		return h.svc.Withdrawals.Approve(ctx, id)
	})
}

func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	withId(c, func(ctx context.Context, id int64) (any, error) {
		return h.svc.Withdrawals.Reject(ctx, id)
	})
}

func (h *AdminHandler) Activities(c *gin.Context) {
	list, err := h.svc.Activities.List(c.Request.Context())
	reply(c, list, err)
}

func (h *AdminHandler) CreateActivity(c *gin.Context) {
	var req models.Activity
	if !bind(c, &req) {
		return
	}
	req.Id = ""
	a, err := h.svc.Activities.Save(c.Request.Context(), req)
	reply(c, a, err)
}

func (h *AdminHandler) UpdateActivity(c *gin.Context) {
	var req models.Activity
	if !bind(c, &req) {
		return
	}
	req.Id = c.Param("id")
	a, err := h.svc.Activities.Save(c.Request.Context(), req)
	reply(c, a, err)
}

func (h *AdminHandler) DeleteActivity(c *gin.Context) {
	reply(c, nil, h.svc.Activities.Delete(c.Request.Context(), c.Param("id")))
}

func (h *AdminHandler) Submissions(c *gin.Context) {
	list, err := h.svc.Activities.Submissions(c.Request.Context(), adminFilter(c))
	reply(c, list, err)
}

func (h *AdminHandler) ApproveSubmission(c *gin.Context) {
	withId(c, func(ctx context.Context, id int64) (any, error) {
		return h.svc.Activities.Approve(ctx, id)
	})
}

func (h *AdminHandler) RejectSubmission(c *gin.Context) {
	withId(c, func(ctx context.Context, id int64) (any, error) {
		return h.svc.Activities.Reject(ctx, id)
	})
}

func (h *AdminHandler) Messages(c *gin.Context) {
	offset, limit := pageParams(c)
	list, err := h.svc.Notices.List(c.Request.Context(), offset, limit)
	reply(c, list, err)
}

func (h *AdminHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if !bind(c, &req) {
		return
	}
	msg, err := h.svc.Notices.Send(c.Request.Context(), req.RecipientId, req.Title, req.Content, req.Params)
	reply(c, msg, err)
}

func (h *AdminHandler) DeleteMessage(c *gin.Context) {
	withId(c, func(ctx context.Context, id int64) (any, error) {
		return nil, h.svc.Notices.Delete(ctx, id)
	})
}

func (h *AdminHandler) Settings(c *gin.Context) {
	settings, err := h.svc.Settings.Current(c.Request.Context())
	reply(c, settings, err)
}

func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if !bind(c, &req) {
		return
	}
	if req.Version <= 0 {
		response.Fail(c, http.StatusBadRequest, response.MESSAGE_BAD_REQUEST)
		return
	}
	settings, err := h.svc.Settings.Update(c.Request.Context(), req.Version, req.Settings)
	reply(c, settings, err)
}

func (h *AdminHandler) Wallets(c *gin.Context) {
	list, err := h.svc.Wallets.ListWalletAddresses(c.Request.Context())
	reply(c, list, err)
}

func (h *AdminHandler) SetWallet(c *gin.Context) {
	var req models.WalletAddress
	if !bind(c, &req) {
		return
	}
	w, err := h.svc.Wallets.SetWalletAddress(c.Request.Context(), req)
	reply(c, w, err)
}

func (h *AdminHandler) DeleteWallet(c *gin.Context) {
	reply(c, nil, h.svc.Wallets.DeleteWalletAddress(c.Request.Context(), c.Param("currency"), c.Param("network")))
}
