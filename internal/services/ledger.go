package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskhub/internal/config"
	"taskhub/internal/metrics"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
	"taskhub/internal/util"

	"github.com/shopspring/decimal"
)

var log = config.InitLogger()

var hundred = decimal.NewFromInt(100)

// Clock is injected into services so tests control time.
type Clock func() time.Time

func defaultClock(now Clock) Clock {
	if now == nil {
		return time.Now
	}
	return now
}

// observe records the outcome of a business operation and passes err through.
func observe(operation string, err error) error {
	switch {
	case err == nil:
		metrics.ObserveOperation(operation, "ok")
	case models.IsReason(err):
		metrics.ObserveOperation(operation, models.ReasonCode(err))
	default:
		log.Errorf("%s failed: %v", operation, err)
		metrics.ObserveOperation(operation, "error")
	}
	return err
}

func loadUser(tx repositories.Tx, id int64) (*models.User, error) {
	user, err := tx.UserById(id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return user, nil
}

func saveUser(tx repositories.Tx, user *models.User) error {
	if err := tx.UpdateUser(user); err != nil {
		return fmt.Errorf("save user %d: %w", user.UserId(), err)
	}
	return nil
}

// loadSettings falls back to the defaults until an operator saves settings.
func loadSettings(tx repositories.Tx) (*models.PlatformSettings, error) {
	s, err := tx.Settings()
	if errors.Is(err, repositories.ErrNotFound) {
		return models.DefaultPlatformSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

// postEntry moves a signed amount on one account of user and appends the
// matching ledger entry. The caller persists user. Zero amounts are skipped.
func postEntry(tx repositories.Tx, user *models.User, account string, amount decimal.Decimal, txType, metadata string, at time.Time) error {
	amount = util.RoundAmount(amount)
	if amount.IsZero() {
		return nil
	}

	switch account {
	case models.ACCOUNT_MAIN:
		next := user.MainBalance.Add(amount)
		if next.IsNegative() {
			return models.ErrInsufficientBalance
		}
		user.MainBalance = next
	case models.ACCOUNT_WITHDRAWAL:
		next := user.WithdrawalBalance.Add(amount)
		if next.IsNegative() {
			return models.ErrInsufficientBalance
		}
		user.WithdrawalBalance = next
	default:
		return models.ErrInvalidAccount
	}

	entry := &models.Transaction{
		UserId:      user.UserId(),
		Account:     account,
		Amount:      amount,
		Type:        txType,
		Description: models.TransactionDescription(txType),
		Metadata:    metadata,
		CreatedAt:   at,
	}
	if err := tx.AddTransaction(entry); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

type LedgerService struct {
	store repositories.Store
}

func NewLedgerService(store repositories.Store) *LedgerService {
	return &LedgerService{
		store: store,
	}
}

// ListTransactions returns a newest-first page of the user's ledger and the total count.
func (s *LedgerService) ListTransactions(ctx context.Context, userId int64, offset, limit int) ([]models.Transaction, int, error) {
	var (
		res   []models.Transaction
		total int
	)
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		if _, err := loadUser(tx, userId); err != nil {
			return err
		}
		var err error
		res, total, err = tx.TransactionsByUser(userId, offset, limit)
		return err
	})
	return res, total, err
}

func reconcileUser(tx repositories.Tx, user *models.User) ([]models.AccountDrift, error) {
	drifts := []models.AccountDrift{}
	for _, account := range []string{models.ACCOUNT_MAIN, models.ACCOUNT_WITHDRAWAL} {
		sum, err := tx.LedgerSum(user.UserId(), account)
		if err != nil {
			return nil, err
		}
		balance := user.MainBalance
		if account == models.ACCOUNT_WITHDRAWAL {
			balance = user.WithdrawalBalance
		}
		if !balance.Equal(sum) {
			drifts = append(drifts, models.AccountDrift{
				UserId:    user.UserId(),
				Account:   account,
				Balance:   balance,
				LedgerSum: sum,
			})
		}
	}
	return drifts, nil
}

// Reconcile compares both balances of a user with the ledger; an empty result means consistent.
func (s *LedgerService) Reconcile(ctx context.Context, userId int64) ([]models.AccountDrift, error) {
	var drifts []models.AccountDrift
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		drifts, err = reconcileUser(tx, user)
		return err
	})
	return drifts, err
}

func (s *LedgerService) ReconcileAll(ctx context.Context) ([]models.AccountDrift, error) {
	drifts := []models.AccountDrift{}
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		ids, err := tx.UserIds()
		if err != nil {
			return err
		}
		for _, id := range ids {
			user, err := loadUser(tx, id)
			if err != nil {
				return err
			}
			d, err := reconcileUser(tx, user)
			if err != nil {
				return err
			}
			drifts = append(drifts, d...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.SetLedgerDrift(len(drifts))
	return drifts, nil
}
