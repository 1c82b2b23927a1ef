package services

import (
	"context"
	"time"

	"taskhub/internal/metrics"
	"taskhub/internal/models"
	"taskhub/internal/repositories"

	"github.com/shopspring/decimal"
)

const DAILY_TASK_INTERVAL = 24 * time.Hour

// TaskService runs the daily VIP task, the mode used while no crawl set is enabled.
type TaskService struct {
	store repositories.Store
	now   Clock
}

func NewTaskService(store repositories.Store, now Clock) *TaskService {
	return &TaskService{
		store: store,
		now:   defaultClock(now),
	}
}

func findLevel(levels []models.VipLevel, name string) *models.VipLevel {
	i := models.LadderIndex(levels, name)
	if i < 0 {
		return nil
	}
	return &levels[i]
}

func (s *TaskService) Status(ctx context.Context, userId int64) (*models.DailyTaskStatus, error) {
	var res *models.DailyTaskStatus
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		levels, err := tx.VipLevels()
		if err != nil {
			return err
		}

		res = &models.DailyTaskStatus{
			VipLevel:    user.VipLevel,
			Benefit:     decimal.Zero,
			CrawlActive: user.CrawlSets.AnyEnabled(),
		}
		if level := findLevel(levels, user.VipLevel); level != nil {
			res.Cards = level.Tasks
			res.Benefit = level.Benefit
		}
		next := user.TaskNextAvailableAt
		res.Available = !res.CrawlActive && (next == nil || !s.now().Before(*next))
		if next != nil {
			ms := next.UnixMilli()
			res.NextAt = &ms
		}
		return nil
	})
	return res, err
}

// Complete credits the tier benefit to the withdrawal balance and locks the task for a day.
func (s *TaskService) Complete(ctx context.Context, userId int64) (*models.User, decimal.Decimal, error) {
	var (
		user    *models.User
		benefit decimal.Decimal
	)
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		var err error
		user, err = loadUser(tx, userId)
		if err != nil {
			return err
		}
		if user.CrawlSets.AnyEnabled() {
			return models.ErrCrawlModeActive
		}
		now := s.now()
		if user.TaskNextAvailableAt != nil && now.Before(*user.TaskNextAvailableAt) {
			return models.ErrTaskAlreadyCompleted
		}
		levels, err := tx.VipLevels()
		if err != nil {
			return err
		}
		level := findLevel(levels, user.VipLevel)
		if level == nil {
			return models.ErrNoActiveTask
		}

		benefit = level.Benefit
		if err := postEntry(tx, user, models.ACCOUNT_WITHDRAWAL, benefit, models.TX_TASK_INCOME, level.Name, now); err != nil {
			return err
		}
		user.TaskCommission = user.TaskCommission.Add(benefit)
		next := now.Add(DAILY_TASK_INTERVAL)
		user.TaskNextAvailableAt = &next
		return saveUser(tx, user)
	})
	if err != nil {
		return nil, decimal.Zero, observe("task.daily", err)
	}
	metrics.AddLedgerVolume(models.TX_TASK_INCOME, benefit)
	return user, benefit, observe("task.daily", nil)
}
