package v1

import (
	"net/http"
	"strconv"
	"time"

	"taskhub/internal/api/response"
	"taskhub/internal/models"
	"taskhub/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	DEFAULT_PAGE_SIZE = 20
	MAX_PAGE_SIZE     = 100
)

// profile is the client view of a user.
type profile struct {
	*models.User
	Id             int64 `json:"id"`
	TelegramLinked bool  `json:"telegram_linked"`
	ActiveCrawlSet int   `json:"active_crawl_set"`
}

func newProfile(u *models.User) *profile {
	if u == nil {
		return nil
	}
	return &profile{
		User:           u,
		Id:             u.UserId(),
		TelegramLinked: u.TelegramChatId.Valid,
		ActiveCrawlSet: services.ActiveCrawlSet(u),
	}
}

func newProfiles(users []models.User) []*profile {
	res := make([]*profile, 0, len(users))
	for i := range users {
		res = append(res, newProfile(&users[i]))
	}
	return res
}

type teamMember struct {
	Email          string          `json:"email"`
	VipLevel       string          `json:"vip_level"`
	RechargeAmount decimal.Decimal `json:"recharge_amount"`
	RegisteredAt   time.Time       `json:"registered_at"`
}

type teamReply struct {
	Level1 []teamMember `json:"level1"`
	Level2 []teamMember `json:"level2"`
	Level3 []teamMember `json:"level3"`
	Total  int          `json:"total"`
}

func members(users []models.User) []teamMember {
	res := make([]teamMember, 0, len(users))
	for _, u := range users {
		res = append(res, teamMember{
			Email:          u.Email,
			VipLevel:       u.VipLevel,
			RechargeAmount: u.RechargeAmount,
			RegisteredAt:   u.RegisteredAt,
		})
	}
	return res
}

func newTeamReply(t *models.Team) teamReply {
	return teamReply{
		Level1: members(t.Level1),
		Level2: members(t.Level2),
		Level3: members(t.Level3),
		Total:  t.Size(),
	}
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.MESSAGE_BAD_REQUEST)
		return false
	}
	return true
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.MESSAGE_INVALID_PARAM)
		return 0, false
	}
	return id, true
}

// setParam parses a crawl set index; anything unparsable is an invalid set.
func setParam(c *gin.Context) (int, bool) {
	set, err := strconv.Atoi(c.Param("set"))
	if err != nil {
		response.Error(c, models.ErrInvalidCrawlSet)
		return 0, false
	}
	return set, true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

func pageParams(c *gin.Context) (offset, limit int) {
	offset = queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit = queryInt(c, "limit", DEFAULT_PAGE_SIZE)
	if limit <= 0 || limit > MAX_PAGE_SIZE {
		limit = DEFAULT_PAGE_SIZE
	}
	return offset, limit
}
