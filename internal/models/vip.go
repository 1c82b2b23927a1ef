package models

import "github.com/shopspring/decimal"

const (
	VIP_STATUS_OWNED  = "owned"
	VIP_STATUS_ACTIVE = "active"
	VIP_STATUS_LOCKED = "locked"
)

type VipLevel struct {
	Id          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	ImageSrc    string          `db:"image_src" json:"image_src"`
	Tasks       int             `db:"tasks" json:"tasks"`
	Benefit     decimal.Decimal `db:"benefit" json:"benefit"`
	DailyProfit decimal.Decimal `db:"daily_profit" json:"daily_profit"`
	TotalProfit decimal.Decimal `db:"total_profit" json:"total_profit"`
	UnlockCost  decimal.Decimal `db:"unlock_cost" json:"unlock_cost"`
	Position    int             `db:"position" json:"position"`
}

// VipLevelView is a ladder entry with the status it has for a given user.
type VipLevelView struct {
	VipLevel
	Status string `json:"status"`
}

// LadderIndex returns the index of the tier named name, or -1.
func LadderIndex(levels []VipLevel, name string) int {
	for i, l := range levels {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// DailyTaskStatus describes the alternate, one-task-per-day mode.
type DailyTaskStatus struct {
	VipLevel    string          `json:"vip_level"`
	Cards       int             `json:"cards"`
	Benefit     decimal.Decimal `json:"benefit"`
	Available   bool            `json:"available"`
	NextAt      *int64          `json:"next_available_at,omitempty"`
	CrawlActive bool            `json:"crawl_active"`
}
