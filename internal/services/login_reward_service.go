package services

import (
	"context"

	"taskhub/internal/metrics"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
	"taskhub/internal/util"

	"github.com/shopspring/decimal"
)

type LoginRewardService struct {
	store repositories.Store
	now   Clock
}

func NewLoginRewardService(store repositories.Store, now Clock) *LoginRewardService {
	return &LoginRewardService{
		store: store,
		now:   defaultClock(now),
	}
}

type LoginRewardResult struct {
	Streak int             `json:"streak"`
	Amount decimal.Decimal `json:"amount"`
}

// Claim advances the streak once per UTC day and pays the reward configured for the new streak day.
func (s *LoginRewardService) Claim(ctx context.Context, userId int64) (*LoginRewardResult, error) {
	res := &LoginRewardResult{Amount: decimal.Zero}
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		now := s.now()
		today := util.DateKey(now)
		if user.LastLoginDate == today {
			return models.ErrRewardAlreadyClaimed
		}

		if util.IsPreviousDay(user.LastLoginDate, today) {
			user.LoginStreak++
		} else {
			user.LoginStreak = 1
		}
		user.LastLoginDate = today
		res.Streak = user.LoginStreak

		settings, err := loadSettings(tx)
		if err != nil {
			return err
		}
		if amount, ok := settings.LoginRewardFor(user.LoginStreak); ok && amount.IsPositive() {
			if err := postEntry(tx, user, models.ACCOUNT_WITHDRAWAL, amount, models.TX_LOGIN_REWARD, "", now); err != nil {
				return err
			}
			res.Amount = amount
		}
		return saveUser(tx, user)
	})
	if err != nil {
		return nil, observe("reward.login", err)
	}
	metrics.AddLedgerVolume(models.TX_LOGIN_REWARD, res.Amount)
	return res, observe("reward.login", nil)
}
