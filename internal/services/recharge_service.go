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

type RechargeService struct {
	store   repositories.Store
	notices *NotificationService
	now     Clock
}

func NewRechargeService(store repositories.Store, notices *NotificationService, now Clock) *RechargeService {
	return &RechargeService{
		store:   store,
		notices: notices,
		now:     defaultClock(now),
	}
}

type RechargeSubmission struct {
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Network      string          `json:"network"`
	PaymentProof string          `json:"payment_proof"`
}

func (s *RechargeService) Submit(ctx context.Context, userId int64, r RechargeSubmission) (*models.RechargeRequest, error) {
	var req *models.RechargeRequest
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		r.Amount = util.RoundAmount(r.Amount)
		if !r.Amount.IsPositive() {
			return models.ErrInvalidAmount
		}
		settings, err := loadSettings(tx)
		if err != nil {
			return err
		}
		if !settings.SupportsRecharge(r.Currency, r.Network) {
			return models.ErrUnsupportedCurrency
		}
		if strings.TrimSpace(r.PaymentProof) == "" {
			return models.ErrProofRequired
		}
		req = &models.RechargeRequest{
			UserId:       user.UserId(),
			UserEmail:    user.Email,
			Amount:       r.Amount,
			Currency:     r.Currency,
			Network:      r.Network,
			PaymentProof: r.PaymentProof,
			Status:       models.REQUEST_PENDING,
			CreatedAt:    s.now(),
		}
		return tx.CreateRecharge(req)
	})
	if err != nil {
		return nil, observe("recharge.submit", err)
	}
	log.Infof("User %d submitted recharge %d of %s %s", userId, req.Id, req.Amount, req.Currency)
	return req, observe("recharge.submit", nil)
}

func pendingRecharge(tx repositories.Tx, id int64) (*models.RechargeRequest, error) {
	req, err := tx.RechargeById(id)
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

// RechargeApproval reports what an approval credited.
type RechargeApproval struct {
	Request     *models.RechargeRequest `json:"request"`
	Commissions []models.Commission     `json:"commissions"`
}

// Approve credits the main balance and pays the referral cascade in one transaction.
func (s *RechargeService) Approve(ctx context.Context, id int64) (*RechargeApproval, error) {
	var (
		res    *RechargeApproval
		notice *models.Message
	)
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		req, err := pendingRecharge(tx, id)
		if err != nil {
			return err
		}
		user, err := loadUser(tx, req.UserId)
		if err != nil {
			return err
		}
		settings, err := loadSettings(tx)
		if err != nil {
			return err
		}
		now := s.now()

		if err := postEntry(tx, user, models.ACCOUNT_MAIN, req.Amount, models.TX_RECHARGE, req.Currency, now); err != nil {
			return err
		}
		user.RechargeAmount = user.RechargeAmount.Add(req.Amount)
		if err := saveUser(tx, user); err != nil {
			return err
		}

		commissions, err := distributeCommission(tx, user, req.Amount, settings, now)
		if err != nil {
			return err
		}

		req.Status = models.REQUEST_APPROVED
		req.ProcessedAt = sql.NullTime{Time: now, Valid: true}
		if err := tx.UpdateRecharge(req); err != nil {
			return err
		}

		notice, err = createMessage(tx, user.UserId(), MESSAGE_RECHARGE_TITLE, MESSAGE_RECHARGE_CONTENT, models.StringMap{
			"amount":   util.FormatAmount(req.Amount),
			"currency": req.Currency,
		}, now)
		if err != nil {
			return err
		}
		res = &RechargeApproval{Request: req, Commissions: commissions}
		return nil
	})
	if err != nil {
		return nil, observe("recharge.approve", err)
	}

	metrics.AddLedgerVolume(models.TX_RECHARGE, res.Request.Amount)
	recordCommissions(res.Commissions)
	log.Infof("Recharge %d approved: %s credited to user %d, %d commission levels paid",
		id, res.Request.Amount, res.Request.UserId, len(res.Commissions))
	s.notices.Push(ctx, notice)
	return res, observe("recharge.approve", nil)
}

func (s *RechargeService) Reject(ctx context.Context, id int64) error {
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		req, err := pendingRecharge(tx, id)
		if err != nil {
			return err
		}
		req.Status = models.REQUEST_REJECTED
		req.ProcessedAt = sql.NullTime{Time: s.now(), Valid: true}
		return tx.UpdateRecharge(req)
	})
	return observe("recharge.reject", err)
}

func (s *RechargeService) List(ctx context.Context, f repositories.Filter) ([]models.RechargeRequest, error) {
	var res []models.RechargeRequest
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		var err error
		res, err = tx.Recharges(f)
		return err
	})
	return res, err
}
