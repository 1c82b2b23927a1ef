package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"taskhub/internal/metrics"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
	"taskhub/internal/util"

	"github.com/shopspring/decimal"
)

const WITHDRAWAL_NOTICE_CURRENCY = "USDT"

type WithdrawalService struct {
	store   repositories.Store
	auth    *AuthService
	notices *NotificationService
	now     Clock
}

func NewWithdrawalService(store repositories.Store, auth *AuthService, notices *NotificationService, now Clock) *WithdrawalService {
	return &WithdrawalService{
		store:   store,
		auth:    auth,
		notices: notices,
		now:     defaultClock(now),
	}
}

type WithdrawalSubmission struct {
	GrossUsdt decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Network   string          `json:"network"`
	Address   string          `json:"address"`
	Password  string          `json:"password"`
}

// feePercentage is the user's override when set, else the platform fee.
func feePercentage(user *models.User, settings *models.PlatformSettings) decimal.Decimal {
	if user.WithdrawalFeePercentageOverride.Valid {
		return user.WithdrawalFeePercentageOverride.Decimal
	}
	return settings.WithdrawalFeePercentage
}

// Quote splits a gross USDT amount into fee, net USDT and the net amount in the payout currency.
type Quote struct {
	Gross      decimal.Decimal `json:"gross"`
	FeePercent decimal.Decimal `json:"fee_percent"`
	Fee        decimal.Decimal `json:"fee"`
	Net        decimal.Decimal `json:"net"`
	Amount     decimal.Decimal `json:"amount"`
}

func quote(user *models.User, settings *models.PlatformSettings, gross decimal.Decimal, currency string) Quote {
	pct := feePercentage(user, settings)
	fee := util.Percent(gross, pct)
	net := gross.Sub(fee)
	return Quote{
		Gross:      gross,
		FeePercent: pct,
		Fee:        fee,
		Net:        net,
		Amount:     net.Div(settings.PriceOf(currency)),
	}
}

func (s *WithdrawalService) checkSubmission(user *models.User, settings *models.PlatformSettings, w WithdrawalSubmission) error {
	if user.IsBanned() {
		return models.ErrUserBanned
	}
	if settings.GlobalWithdrawalLock && !user.WithdrawalEnabled {
		if user.CrawlSets.AnyEnabled() {
			return models.ErrCompleteTasksFirst
		}
		return models.ErrWithdrawalClosed
	}
	if !w.GrossUsdt.IsPositive() {
		return models.ErrInvalidAmount
	}
	if w.GrossUsdt.GreaterThan(user.WithdrawalBalance) {
		return models.ErrInsufficientBalance
	}
	if strings.TrimSpace(w.Address) == "" {
		return models.ErrAddressRequired
	}
	if !util.ValidWithdrawalAddress(w.Network, strings.TrimSpace(w.Address)) {
		return models.ErrInvalidAddress
	}
	if w.GrossUsdt.LessThan(settings.MinWithdrawal) {
		return models.ErrAmountBelowMinimum
	}
	if w.GrossUsdt.GreaterThan(settings.MaxWithdrawal) {
		return models.ErrAmountAboveMaximum
	}
	if !s.auth.CheckPassword(user.PasswordHash, w.Password) {
		return models.ErrInvalidPassword
	}
	return nil
}

// Submit debits the gross amount from the withdrawal balance and queues the payout.
// The gross is rounded to amount scale first.
func (s *WithdrawalService) Submit(ctx context.Context, userId int64, w WithdrawalSubmission) (*models.WithdrawalRequest, error) {
	w.GrossUsdt = util.RoundAmount(w.GrossUsdt)
	var req *models.WithdrawalRequest
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		settings, err := loadSettings(tx)
		if err != nil {
			return err
		}
		if err := s.checkSubmission(user, settings, w); err != nil {
			return err
		}

		q := quote(user, settings, w.GrossUsdt, w.Currency)
		now := s.now()
		if err := postEntry(tx, user, models.ACCOUNT_WITHDRAWAL, q.Net.Neg(), models.TX_WITHDRAWAL, w.Currency, now); err != nil {
			return err
		}
		if err := postEntry(tx, user, models.ACCOUNT_WITHDRAWAL, q.Fee.Neg(), models.TX_WITHDRAWAL_FEE, w.Currency, now); err != nil {
			return err
		}
		user.TotalWithdrawals = user.TotalWithdrawals.Add(q.Net)
		if err := saveUser(tx, user); err != nil {
			return err
		}

		req = &models.WithdrawalRequest{
			UserId:         user.UserId(),
			UserEmail:      user.Email,
			Amount:         q.Amount,
			UsdtValue:      q.Net,
			GrossUsdtValue: q.Gross,
			Currency:       w.Currency,
			Network:        w.Network,
			Address:        strings.TrimSpace(w.Address),
			Status:         models.REQUEST_PENDING,
			CreatedAt:      now,
		}
		return tx.CreateWithdrawal(req)
	})
	if err != nil {
		return nil, observe("withdrawal.submit", err)
	}
	metrics.AddLedgerVolume(models.TX_WITHDRAWAL, req.UsdtValue)
	metrics.AddLedgerVolume(models.TX_WITHDRAWAL_FEE, req.Fee())
	log.Infof("User %d requested withdrawal %d: gross %s, net %s USDT to %s", userId, req.Id, req.GrossUsdtValue, req.UsdtValue, req.Network)
	return req, observe("withdrawal.submit", nil)
}

// Quote previews the fee split without touching balances.
func (s *WithdrawalService) Quote(ctx context.Context, userId int64, gross decimal.Decimal, currency string) (*Quote, error) {
	var q Quote
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		settings, err := loadSettings(tx)
		if err != nil {
			return err
		}
		q = quote(user, settings, util.RoundAmount(gross), currency)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func pendingWithdrawal(tx repositories.Tx, id int64) (*models.WithdrawalRequest, error) {
	req, err := tx.WithdrawalById(id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, models.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	if req.Status != models.REQUEST_PENDING {
		return nil, models.ErrRequestNotPending
	}
	return req, nil
}

func (s *WithdrawalService) Approve(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	var (
		req    *models.WithdrawalRequest
		notice *models.Message
	)
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		var err error
		req, err = pendingWithdrawal(tx, id)
		if err != nil {
			return err
		}
		now := s.now()
		req.Status = models.REQUEST_APPROVED
		req.ProcessedAt = sql.NullTime{Time: now, Valid: true}
		if err := tx.UpdateWithdrawal(req); err != nil {
			return err
		}
		notice, err = createMessage(tx, req.UserId, MESSAGE_WITHDRAWAL_TITLE, MESSAGE_WITHDRAWAL_CONTENT, models.StringMap{
			"amount":   req.UsdtValue.StringFixed(5),
			"currency": WITHDRAWAL_NOTICE_CURRENCY,
		}, now)
		return err
	})
	if err != nil {
		return nil, observe("withdrawal.approve", err)
	}
	s.notices.Push(ctx, notice)
	return req, observe("withdrawal.approve", nil)
}

// Reject returns the gross amount to the withdrawal balance.
func (s *WithdrawalService) Reject(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	var req *models.WithdrawalRequest
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		var err error
		req, err = pendingWithdrawal(tx, id)
		if err != nil {
			return err
		}
		now := s.now()
		user, err := loadUser(tx, req.UserId)
		if err != nil {
			return err
		}
		if err := postEntry(tx, user, models.ACCOUNT_WITHDRAWAL, req.GrossUsdtValue, models.TX_WITHDRAWAL_REFUND, req.Currency, now); err != nil {
			return err
		}
		user.TotalWithdrawals = user.TotalWithdrawals.Sub(req.UsdtValue)
		if err := saveUser(tx, user); err != nil {
			return err
		}
		req.Status = models.REQUEST_REJECTED
		req.ProcessedAt = sql.NullTime{Time: now, Valid: true}
		return tx.UpdateWithdrawal(req)
	})
	if err != nil {
		return nil, observe("withdrawal.reject", err)
	}
	metrics.AddLedgerVolume(models.TX_WITHDRAWAL_REFUND, req.GrossUsdtValue)
	return req, observe("withdrawal.reject", nil)
}

func (s *WithdrawalService) List(ctx context.Context, f repositories.Filter) ([]models.WithdrawalRequest, error) {
	var res []models.WithdrawalRequest
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		var err error
		res, err = tx.Withdrawals(f)
		return err
	})
	return res, err
}
