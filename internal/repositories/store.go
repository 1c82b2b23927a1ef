package repositories

import (
	"context"
	"errors"
	"taskhub/internal/config"
	"taskhub/internal/models"

	"github.com/shopspring/decimal"
)

var log = config.InitLogger()

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("unique constraint violated")
)

// Store is the transactional boundary of the platform. Atomic runs fn in one
// read-write transaction and discards every write when fn returns an error.
// View runs fn against a consistent read-only snapshot.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Filter narrows request listings. Empty fields match everything.
type Filter struct {
	Status string
	UserId int64
	Offset int
	Limit  int
}

// Tx is the set of record operations available inside a store transaction.
// Lookups return ErrNotFound when the record does not exist. Returned values
// are copies; callers persist changes explicitly.
type Tx interface {
	UserById(id int64) (*models.User, error)
	UserByEmail(email string) (*models.User, error)
	UserByInvitationCode(code string) (*models.User, error)
	UserByTelegramChat(chatId int64) (*models.User, error)
	UsersInvitedBy(codes []string) ([]models.User, error)
	FindUsers(query string, offset, limit int) ([]models.User, int, error)
	UserIds() ([]int64, error)
	CreateUser(user *models.User) error
	UpdateUser(user *models.User) error

	AddTransaction(t *models.Transaction) error
	TransactionsByUser(userId int64, offset, limit int) ([]models.Transaction, int, error)
	LedgerSum(userId int64, account string) (decimal.Decimal, error)

	VipLevels() ([]models.VipLevel, error)
	SaveVipLevel(level *models.VipLevel) error
	DeleteVipLevel(id string) error

	CrawlTask(setIndex int, id string) (*models.CrawlTask, error)
	CrawlTasks(setIndex int) ([]models.CrawlTask, error)
	SaveCrawlTask(task *models.CrawlTask) error
	VipCrawlOverrides(vipLevel string) ([]models.VipCrawlOverride, error)
	SaveVipCrawlOverride(o *models.VipCrawlOverride) error
	DeleteVipCrawlOverride(vipLevel string, setIndex int, taskId string) error

	CreateRecharge(r *models.RechargeRequest) error
	RechargeById(id int64) (*models.RechargeRequest, error)
	UpdateRecharge(r *models.RechargeRequest) error
	Recharges(f Filter) ([]models.RechargeRequest, error)

	CreateWithdrawal(w *models.WithdrawalRequest) error
	WithdrawalById(id int64) (*models.WithdrawalRequest, error)
	UpdateWithdrawal(w *models.WithdrawalRequest) error
	Withdrawals(f Filter) ([]models.WithdrawalRequest, error)

	Activities() ([]models.Activity, error)
	ActivityById(id string) (*models.Activity, error)
	SaveActivity(a *models.Activity) error
	DeleteActivity(id string) error

	CreateSubmission(s *models.ActivitySubmission) error
	SubmissionById(id int64) (*models.ActivitySubmission, error)
	UpdateSubmission(s *models.ActivitySubmission) error
	Submissions(f Filter) ([]models.ActivitySubmission, error)

	CreateMessage(m *models.Message) error
	MessageById(id int64) (*models.Message, error)
	MessagesFor(userId int64) ([]models.Message, error)
	Messages(offset, limit int) ([]models.Message, error)
	DeleteMessage(id int64) error

	Settings() (*models.PlatformSettings, error)
	SaveSettings(s *models.PlatformSettings) error

	WalletAddress(currency, network string) (*models.WalletAddress, error)
	WalletAddresses() ([]models.WalletAddress, error)
	SaveWalletAddress(w *models.WalletAddress) error
	DeleteWalletAddress(currency, network string) error
}

func matches(f Filter, status string, userId int64) bool {
	if f.Status != "" && f.Status != status {
		return false
	}
	if f.UserId != 0 && f.UserId != userId {
		return false
	}
	return true
}

// page cuts a newest-first slice to the filter window.
func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
