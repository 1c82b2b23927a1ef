package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

const (
	USER_STATUS_ACTIVE = "active"
	USER_STATUS_BANNED = "banned"
)

type User struct {
	Id                              sql.NullInt64       `db:"id" json:"id"`
	Email                           string              `db:"email" json:"email"`
	Phone                           string              `db:"phone" json:"phone,omitempty"`
	PasswordHash                    string              `db:"password_hash" json:"-"`
	MainBalance                     decimal.Decimal     `db:"main_balance" json:"main_balance"`
	WithdrawalBalance               decimal.Decimal     `db:"withdrawal_balance" json:"withdrawal_balance"`
	VipLevel                        string              `db:"vip_level" json:"vip_level"`
	Status                          string              `db:"status" json:"status"`
	RegisteredAt                    time.Time           `db:"registered_at" json:"registered_at"`
	LastLoginAt                     time.Time           `db:"last_login_at" json:"last_login_at"`
	IpAddress                       string              `db:"ip_address" json:"ip_address"`
	InvitationCode                  string              `db:"invitation_code" json:"invitation_code"`
	InvitedBy                       string              `db:"invited_by" json:"invited_by,omitempty"`
	RechargeAmount                  decimal.Decimal     `db:"recharge_amount" json:"recharge_amount"`
	RechargeCommission              decimal.Decimal     `db:"recharge_commission" json:"recharge_commission"`
	TaskCommission                  decimal.Decimal     `db:"task_commission" json:"task_commission"`
	TotalWithdrawals                decimal.Decimal     `db:"total_withdrawals" json:"total_withdrawals"`
	TaskNextAvailableAt             *time.Time          `db:"task_next_available_at" json:"task_next_available_at"`
	AvatarUrl                       string              `db:"avatar_url" json:"avatar_url"`
	WithdrawalFeePercentageOverride decimal.NullDecimal `db:"withdrawal_fee_override" json:"withdrawal_fee_override"`
	CommissionRatesOverride         CommissionRates     `db:"commission_rates_override" json:"commission_rates_override,omitempty"`
	WithdrawalEnabled               bool                `db:"withdrawal_enabled" json:"withdrawal_enabled"`
	CrawlSets                       CrawlSets           `db:"crawl_sets" json:"crawl_sets"`
	LoginStreak                     int                 `db:"login_streak" json:"login_streak"`
	LastLoginDate                   string              `db:"last_login_date" json:"last_login_date"`
	ReadMessageIds                  Int64List           `db:"read_message_ids" json:"read_message_ids"`
	TelegramChatId                  sql.NullInt64       `db:"telegram_chat_id" json:"-"`
}

func (u *User) UserId() int64 {
	return u.Id.Int64
}

func (u *User) IsBanned() bool {
	return u.Status == USER_STATUS_BANNED
}

// TotalBalance is main plus withdrawal balance.
func (u *User) TotalBalance() decimal.Decimal {
	return u.MainBalance.Add(u.WithdrawalBalance)
}

// Clone returns a deep copy; stores hand out clones so callers never alias stored state.
func (u *User) Clone() *User {
	c := *u
	if u.TaskNextAvailableAt != nil {
		t := *u.TaskNextAvailableAt
		c.TaskNextAvailableAt = &t
	}
	c.CommissionRatesOverride = u.CommissionRatesOverride.Clone()
	c.CrawlSets = u.CrawlSets.Clone()
	if u.ReadMessageIds != nil {
		c.ReadMessageIds = append(Int64List{}, u.ReadMessageIds...)
	}
	return &c
}

func (u *User) HasReadMessage(id int64) bool {
	for _, m := range u.ReadMessageIds {
		if m == id {
			return true
		}
	}
	return false
}

// Team is the three-level referral tree of a user.
type Team struct {
	Level1 []User `json:"level1"`
	Level2 []User `json:"level2"`
	Level3 []User `json:"level3"`
}

func (t *Team) Size() int {
	return len(t.Level1) + len(t.Level2) + len(t.Level3)
}

type WalletAddress struct {
	Currency  string `db:"currency" json:"currency"`
	Network   string `db:"network" json:"network"`
	Address   string `db:"address" json:"address"`
	QrCodeUrl string `db:"qr_code_url" json:"qr_code_url"`
}

type Activity struct {
	Id          string          `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Icon        string          `db:"icon" json:"icon"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	TaskContent string          `db:"task_content" json:"task_content"`
	TaskSteps   string          `db:"task_steps" json:"task_steps"`
}

type Message struct {
	Id          int64         `db:"id" json:"id"`
	Title       string        `db:"title" json:"title"`
	Content     string        `db:"content" json:"content"`
	Params      StringMap     `db:"params" json:"params,omitempty"`
	RecipientId sql.NullInt64 `db:"recipient_id" json:"-"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// IsFor reports whether the message is visible to the user.
func (m *Message) IsFor(userId int64) bool {
	return !m.RecipientId.Valid || m.RecipientId.Int64 == userId
}

func (m Message) Clone() Message {
	if m.Params != nil {
		params := make(StringMap, len(m.Params))
		for k, v := range m.Params {
			params[k] = v
		}
		m.Params = params
	}
	return m
}
