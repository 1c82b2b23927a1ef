package v1

import (
	"taskhub/internal/api/middleware"
	"taskhub/internal/api/response"
	"taskhub/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TaskHandler struct {
	tasks   *services.TaskService
	crawl   *services.CrawlService
	rewards *services.LoginRewardService
	vip     *services.VipService
}

type dailyReply struct {
	Benefit decimal.Decimal `json:"benefit"`
	User    *profile        `json:"user"`
}

type crawlReply struct {
	*services.CrawlCompletion
	User *profile `json:"user"`
}

func RegisterTaskRoutes(group *gin.RouterGroup, tasks *services.TaskService, crawl *services.CrawlService,
	rewards *services.LoginRewardService, vip *services.VipService) {
	h := &TaskHandler{tasks: tasks, crawl: crawl, rewards: rewards, vip: vip}
	group.GET("/tasks/daily", h.DailyStatus)
	group.POST("/tasks/daily/complete", h.CompleteDaily)
	group.GET("/tasks/crawl/:set", h.CrawlOverview)
	group.POST("/tasks/crawl/:set/claim", h.ClaimCrawl)
	group.POST("/tasks/crawl/:set/:taskId/complete", h.CompleteCrawl)
	group.POST("/rewards/login", h.ClaimLoginReward)
	group.POST("/vip/:id/upgrade", h.UpgradeVip)
}

func (h *TaskHandler) DailyStatus(c *gin.Context) {
	status, err := h.tasks.Status(c.Request.Context(), middleware.UserId(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

func (h *TaskHandler) CompleteDaily(c *gin.Context) {
	user, benefit, err := h.tasks.Complete(c.Request.Context(), middleware.UserId(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dailyReply{Benefit: benefit, User: newProfile(user)})
}

func (h *TaskHandler) CrawlOverview(c *gin.Context) {
	set, ok := setParam(c)
	if !ok {
		return
	}
	ctx, userId := c.Request.Context(), middleware.UserId(c)
	if _, err := h.crawl.Initialize(ctx, userId, set); err != nil {
		response.Error(c, err)
		return
	}
	overview, err := h.crawl.Overview(ctx, userId, set)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, overview)
}

func (h *TaskHandler) ClaimCrawl(c *gin.Context) {
	set, ok := setParam(c)
	if !ok {
		return
	}
	task, err := h.crawl.Claim(c.Request.Context(), middleware.UserId(c), set)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, task)
}

func (h *TaskHandler) CompleteCrawl(c *gin.Context) {
	set, ok := setParam(c)
	if !ok {
		return
	}
	res, err := h.crawl.Complete(c.Request.Context(), middleware.UserId(c), set, c.Param("taskId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, crawlReply{CrawlCompletion: res, User: newProfile(res.User)})
}

func (h *TaskHandler) ClaimLoginReward(c *gin.Context) {
	res, err := h.rewards.Claim(c.Request.Context(), middleware.UserId(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (h *TaskHandler) UpgradeVip(c *gin.Context) {
	user, err := h.vip.UpgradeVip(c.Request.Context(), middleware.UserId(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, newProfile(user))
}
