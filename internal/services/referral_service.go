package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"taskhub/internal/metrics"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
	"taskhub/internal/util"

	"github.com/shopspring/decimal"
)

const MAX_COMMISSION_LEVELS = 3

type ReferralService struct {
	store repositories.Store
}

func NewReferralService(store repositories.Store) *ReferralService {
	return &ReferralService{
		store: store,
	}
}

// commissionRate is the depositor's override for the level when set, else the global rate.
func commissionRate(depositor *models.User, settings *models.PlatformSettings, level int) decimal.Decimal {
	if rate, ok := depositor.CommissionRatesOverride.Rate(level); ok {
		return rate
	}
	rate, _ := settings.CommissionRates.Rate(level)
	return rate
}

// distributeCommission walks up to three referrers of depositor and credits
// each one's withdrawal balance with its share of amount. A missing referrer
// ends the walk; a zero rate skips the level.
func distributeCommission(tx repositories.Tx, depositor *models.User, amount decimal.Decimal, settings *models.PlatformSettings, at time.Time) ([]models.Commission, error) {
	commissions := []models.Commission{}
	current := depositor

	for level := 1; level <= MAX_COMMISSION_LEVELS; level++ {
		if current.InvitedBy == "" {
			break
		}
		referrer, err := tx.UserByInvitationCode(current.InvitedBy)
		if errors.Is(err, repositories.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load referrer %q: %w", current.InvitedBy, err)
		}
		if referrer.UserId() == depositor.UserId() {
			break
		}

		rate := commissionRate(depositor, settings, level)
		if rate.IsPositive() {
			share := util.Percent(amount, rate)
			metadata := "level " + strconv.Itoa(level)
			if err := postEntry(tx, referrer, models.ACCOUNT_WITHDRAWAL, share, models.TX_REFERRAL_COMMISSION, metadata, at); err != nil {
				return nil, err
			}
			referrer.RechargeCommission = referrer.RechargeCommission.Add(share)
			if err := saveUser(tx, referrer); err != nil {
				return nil, err
			}
			commissions = append(commissions, models.Commission{
				Level:      level,
				ReferrerId: referrer.UserId(),
				Rate:       rate,
				Amount:     share,
			})
		}
		current = referrer
	}

	return commissions, nil
}

func recordCommissions(commissions []models.Commission) {
	for _, c := range commissions {
		metrics.AddCommission(strconv.Itoa(c.Level), c.Amount)
		metrics.AddLedgerVolume(models.TX_REFERRAL_COMMISSION, c.Amount)
	}
}

// Team returns the three referral levels below a user.
func (s *ReferralService) Team(ctx context.Context, userId int64) (*models.Team, error) {
	team := &models.Team{}
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}

		levels := []*[]models.User{&team.Level1, &team.Level2, &team.Level3}
		codes := []string{user.InvitationCode}
		for _, level := range levels {
			members, err := tx.UsersInvitedBy(codes)
			if err != nil {
				return err
			}
			*level = members
			codes = codes[:0]
			for _, m := range members {
				codes = append(codes, m.InvitationCode)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// Upline lists the referrers above a user, nearest first, with the rate each would earn.
func (s *ReferralService) Upline(ctx context.Context, userId int64) ([]models.Commission, error) {
	res := []models.Commission{}
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		settings, err := loadSettings(tx)
		if err != nil {
			return err
		}
		current := user
		for level := 1; level <= MAX_COMMISSION_LEVELS && current.InvitedBy != ""; level++ {
			referrer, err := tx.UserByInvitationCode(current.InvitedBy)
			if errors.Is(err, repositories.ErrNotFound) {
				break
			}
			if err != nil {
				return err
			}
			res = append(res, models.Commission{
				Level:      level,
				ReferrerId: referrer.UserId(),
				Rate:       commissionRate(user, settings, level),
				Amount:     decimal.Zero,
			})
			current = referrer
		}
		return nil
	})
	return res, err
}
