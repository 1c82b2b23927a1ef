package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"taskhub/internal/metrics"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

const (
	VIP_ID_PREFIX     = "nadec"
	VIP_DEFAULT_IMAGE = "https://images.unsplash.com/photo-1612187192690-f21d3f671198?w=300"
)

type VipService struct {
	store repositories.Store
	now   Clock
}

func NewVipService(store repositories.Store, now Clock) *VipService {
	return &VipService{
		store: store,
		now:   defaultClock(now),
	}
}

// ListVipLevels returns the ladder with each tier's status for userId; 0 lists everything locked.
func (s *VipService) ListVipLevels(ctx context.Context, userId int64) ([]models.VipLevelView, error) {
	var res []models.VipLevelView
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		levels, err := tx.VipLevels()
		if err != nil {
			return err
		}
		current := len(levels)
		if userId != 0 {
			user, err := loadUser(tx, userId)
			if err != nil {
				return err
			}
			current = models.LadderIndex(levels, user.VipLevel)
		}

		res = make([]models.VipLevelView, 0, len(levels))
		for i, l := range levels {
			status := models.VIP_STATUS_LOCKED
			switch {
			case userId == 0:
			case i < current:
				status = models.VIP_STATUS_OWNED
			case i == current:
				status = models.VIP_STATUS_ACTIVE
			}
			res = append(res, models.VipLevelView{VipLevel: l, Status: status})
		}
		return nil
	})
	return res, err
}

func (s *VipService) setLevel(tx repositories.Tx, userId int64, vipId string, charge bool) (*models.User, *models.VipLevel, error) {
	user, err := tx.UserById(userId)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, models.ErrUserOrVipNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	levels, err := tx.VipLevels()
	if err != nil {
		return nil, nil, err
	}
	var target *models.VipLevel
	targetIdx := -1
	for i := range levels {
		if levels[i].Id == vipId {
			target, targetIdx = &levels[i], i
		}
	}
	if target == nil {
		return nil, nil, models.ErrUserOrVipNotFound
	}

	now := s.now()
	if charge {
		if targetIdx <= models.LadderIndex(levels, user.VipLevel) {
			return nil, nil, models.ErrVipAlreadyOwned
		}
		if user.MainBalance.LessThan(target.UnlockCost) {
			return nil, nil, models.ErrInsufficientMainBalance
		}
		if err := postEntry(tx, user, models.ACCOUNT_MAIN, target.UnlockCost.Neg(), models.TX_VIP_PURCHASE, target.Name, now); err != nil {
			return nil, nil, err
		}
	}
	user.VipLevel = target.Name
	user.TaskNextAvailableAt = &now
	if err := saveUser(tx, user); err != nil {
		return nil, nil, err
	}
	return user, target, nil
}

// UpgradeVip buys a higher tier with the main balance only.
func (s *VipService) UpgradeVip(ctx context.Context, userId int64, vipId string) (*models.User, error) {
	var (
		user  *models.User
		level *models.VipLevel
	)
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		var err error
		user, level, err = s.setLevel(tx, userId, vipId, true)
		return err
	})
	if err != nil {
		return nil, observe("vip.upgrade", err)
	}
	metrics.AddLedgerVolume(models.TX_VIP_PURCHASE, level.UnlockCost)
	log.Infof("User %d upgraded to %s for %s", userId, level.Name, level.UnlockCost)
	return user, observe("vip.upgrade", nil)
}

// AdminSetVip moves a user to any tier without charge.
func (s *VipService) AdminSetVip(ctx context.Context, userId int64, vipId string) (*models.User, error) {
	var user *models.User
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		var err error
		user, _, err = s.setLevel(tx, userId, vipId, false)
		return err
	})
	return user, observe("admin.set_vip", err)
}

func nextVipNumber(levels []models.VipLevel) int {
	max := 0
	for _, l := range levels {
		n, err := strconv.Atoi(strings.TrimPrefix(l.Id, VIP_ID_PREFIX))
		if err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

func validVipLevel(l *models.VipLevel) error {
	if l.Tasks < 0 || l.Benefit.IsNegative() || l.DailyProfit.IsNegative() ||
		l.TotalProfit.IsNegative() || l.UnlockCost.IsNegative() {
		return models.ErrInvalidAmount
	}
	return nil
}

// AddVipLevel appends a tier to the top of the ladder, filling unset fields with defaults.
func (s *VipService) AddVipLevel(ctx context.Context, data models.VipLevel) (*models.VipLevel, error) {
	if err := validVipLevel(&data); err != nil {
		return nil, observe("admin.add_vip", err)
	}
	var level *models.VipLevel
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		levels, err := tx.VipLevels()
		if err != nil {
			return err
		}
		n := nextVipNumber(levels)
		level = &data
		level.Id = VIP_ID_PREFIX + strconv.Itoa(n)
		if level.Name == "" {
			level.Name = "Nadec" + strconv.Itoa(n)
		}
		if models.LadderIndex(levels, level.Name) >= 0 {
			return models.ErrInvalidSettings
		}
		if level.ImageSrc == "" {
			level.ImageSrc = VIP_DEFAULT_IMAGE
		}
		if level.Tasks == 0 {
			level.Tasks = 1
		}
		level.Position = 1
		if len(levels) > 0 {
			level.Position = levels[len(levels)-1].Position + 1
		}
		return tx.SaveVipLevel(level)
	})
	if err != nil {
		return nil, observe("admin.add_vip", err)
	}
	return level, observe("admin.add_vip", nil)
}

// UpdateVipLevel replaces the editable fields of a tier. Renaming moves its
// holders and tier overrides along.
func (s *VipService) UpdateVipLevel(ctx context.Context, id string, data models.VipLevel) (*models.VipLevel, error) {
	if err := validVipLevel(&data); err != nil {
		return nil, observe("admin.update_vip", err)
	}
	var level *models.VipLevel
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		levels, err := tx.VipLevels()
		if err != nil {
			return err
		}
		var current *models.VipLevel
		for i := range levels {
			if levels[i].Id == id {
				current = &levels[i]
			}
		}
		if current == nil {
			return models.ErrVipNotFound
		}

		updated := *current
		if data.Name != "" && data.Name != current.Name {
			if models.LadderIndex(levels, data.Name) >= 0 {
				return models.ErrInvalidSettings
			}
			if err := s.renameTier(tx, current.Name, data.Name); err != nil {
				return err
			}
			updated.Name = data.Name
		}
		if data.ImageSrc != "" {
			updated.ImageSrc = data.ImageSrc
		}
		if data.Tasks > 0 {
			updated.Tasks = data.Tasks
		}
		updated.Benefit = data.Benefit
		updated.DailyProfit = data.DailyProfit
		updated.TotalProfit = data.TotalProfit
		updated.UnlockCost = data.UnlockCost
		level = &updated
		return tx.SaveVipLevel(level)
	})
	if err != nil {
		return nil, observe("admin.update_vip", err)
	}
	return level, observe("admin.update_vip", nil)
}

func (s *VipService) renameTier(tx repositories.Tx, from, to string) error {
	ids, err := tx.UserIds()
	if err != nil {
		return err
	}
	for _, id := range ids {
		user, err := loadUser(tx, id)
		if err != nil {
			return err
		}
		if user.VipLevel != from {
			continue
		}
		user.VipLevel = to
		if err := saveUser(tx, user); err != nil {
			return err
		}
	}

	overrides, err := tx.VipCrawlOverrides(from)
	if err != nil {
		return err
	}
	for _, o := range overrides {
		if err := tx.DeleteVipCrawlOverride(from, o.SetIndex, o.TaskId); err != nil {
			return err
		}
		o.VipLevel = to
		if err := tx.SaveVipCrawlOverride(&o); err != nil {
			return err
		}
	}
	return nil
}

// DeleteVipLevel removes a tier nobody holds.
func (s *VipService) DeleteVipLevel(ctx context.Context, id string) error {
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		levels, err := tx.VipLevels()
		if err != nil {
			return err
		}
		var name string
		for _, l := range levels {
			if l.Id == id {
				name = l.Name
			}
		}
		if name == "" {
			return models.ErrVipNotFound
		}
		ids, err := tx.UserIds()
		if err != nil {
			return err
		}
		for _, uid := range ids {
			user, err := loadUser(tx, uid)
			if err != nil {
				return err
			}
			if user.VipLevel == name {
				return models.ErrVipInUse
			}
		}
		overrides, err := tx.VipCrawlOverrides(name)
		if err != nil {
			return err
		}
		for _, o := range overrides {
			if err := tx.DeleteVipCrawlOverride(name, o.SetIndex, o.TaskId); err != nil {
				return err
			}
		}
		return tx.DeleteVipLevel(id)
	})
	return observe("admin.delete_vip", err)
}
