package services

import (
	"context"
	"errors"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

const WELCOME_NOTICE = `The reward for the level one task is now 4 USDT.
Keep your check-in streak for up to 888 days and collect rewards of up to 888 USDT.

Team recharge rebate
12% for level A members
2% for level B members
1% for level C members`

// Bootstrap seeds an empty store with the default catalogue. Running it
// again leaves existing records alone.
func Bootstrap(ctx context.Context, store repositories.Store, now Clock) error {
	now = defaultClock(now)
	return store.Atomic(ctx, func(tx repositories.Tx) error {
		if _, err := tx.Settings(); errors.Is(err, repositories.ErrNotFound) {
			if err := tx.SaveSettings(models.DefaultPlatformSettings()); err != nil {
				return err
			}
			log.Info("Seeded default platform settings")
		} else if err != nil {
			return err
		}

		levels, err := tx.VipLevels()
		if err != nil {
			return err
		}
		if len(levels) == 0 {
			for _, l := range models.DefaultVipLevels() {
				l := l
				if err := tx.SaveVipLevel(&l); err != nil {
					return err
				}
			}
			log.Info("Seeded VIP ladder")
		}

		seededTasks := false
		for _, task := range models.DefaultCrawlTasks() {
			task := task
			_, err := tx.CrawlTask(task.SetIndex, task.Id)
			if err == nil {
				continue
			}
			if !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
			if err := tx.SaveCrawlTask(&task); err != nil {
				return err
			}
			seededTasks = true
		}
		if seededTasks {
			for _, o := range models.DefaultVipCrawlOverrides() {
				o := o
				if err := tx.SaveVipCrawlOverride(&o); err != nil {
					return err
				}
			}
			log.Info("Seeded crawl task pools")
		}

		activities, err := tx.Activities()
		if err != nil {
			return err
		}
		if len(activities) == 0 {
			for _, a := range models.DefaultActivities() {
				a := a
				if err := tx.SaveActivity(&a); err != nil {
					return err
				}
			}
		}

		messages, err := tx.Messages(0, 1)
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			if _, err := createMessage(tx, 0, MESSAGE_SYSTEM_NOTICE, WELCOME_NOTICE, nil, now()); err != nil {
				return err
			}
		}
		return nil
	})
}
