package services

import (
	"testing"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

func TestDailyTaskOncePerDay(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "daily@x.io", "")

	status, err := e.tasks.Status(e.ctx, u.UserId())
	if err != nil {
		t.Fatal(err)
	}
	if !status.Available || status.Cards != 1 || status.VipLevel != "Nadec1" {
		t.Errorf("status = %+v", status)
	}

	_, benefit, err := e.tasks.Complete(e.ctx, u.UserId())
	if err != nil {
		t.Fatal(err)
	}
	assertAmount(t, "benefit", benefit, "4")

	_, _, err = e.tasks.Complete(e.ctx, u.UserId())
	assertReason(t, err, models.ErrTaskAlreadyCompleted)

	status, _ = e.tasks.Status(e.ctx, u.UserId())
	if status.Available || status.NextAt == nil {
		t.Errorf("status after completion = %+v", status)
	}

	e.clock.Advance(DAILY_TASK_INTERVAL)
	if _, _, err := e.tasks.Complete(e.ctx, u.UserId()); err != nil {
		t.Fatalf("after a day: %v", err)
	}

	got := e.user(t, u.UserId())
	assertAmount(t, "withdrawal", got.WithdrawalBalance, "8")
	assertAmount(t, "task commission", got.TaskCommission, "8")
	e.assertReconciled(t)
}

func TestDailyTaskBlockedInCrawlMode(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "mode@x.io", "")
	enableSet(t, e, u.UserId(), 1, nil)

	_, _, err := e.tasks.Complete(e.ctx, u.UserId())
	assertReason(t, err, models.ErrCrawlModeActive)

	status, err := e.tasks.Status(e.ctx, u.UserId())
	if err != nil {
		t.Fatal(err)
	}
	if !status.CrawlActive || status.Available {
		t.Errorf("status = %+v", status)
	}
}

func TestDailyTaskUnknownTier(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "ghost@x.io", "")
	err := e.store.Atomic(e.ctx, func(tx repositories.Tx) error {
		user, err := tx.UserById(u.UserId())
		if err != nil {
			return err
		}
		user.VipLevel = "Ghost"
		return tx.UpdateUser(user)
	})
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = e.tasks.Complete(e.ctx, u.UserId())
	assertReason(t, err, models.ErrNoActiveTask)

	_, _, err = e.tasks.Complete(e.ctx, 12345)
	assertReason(t, err, models.ErrUserNotFound)
}

func TestLoginRewardStreak(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "streak@x.io", "")

	settings, err := e.settings.Current(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	settings.LoginRewards = []models.LoginReward{{Day: 2, Amount: dec("0.88")}}
	if _, err := e.settings.Update(e.ctx, settings.Version, *settings); err != nil {
		t.Fatal(err)
	}

	res, err := e.rewards.Claim(e.ctx, u.UserId())
	if err != nil {
		t.Fatal(err)
	}
	if res.Streak != 1 || !res.Amount.IsZero() {
		t.Errorf("day 1 = %+v", res)
	}

	_, err = e.rewards.Claim(e.ctx, u.UserId())
	assertReason(t, err, models.ErrRewardAlreadyClaimed)
	assertAmount(t, "after duplicate", e.user(t, u.UserId()).WithdrawalBalance, "0")

	e.clock.Advance(DAILY_TASK_INTERVAL)
	res, err = e.rewards.Claim(e.ctx, u.UserId())
	if err != nil {
		t.Fatal(err)
	}
	if res.Streak != 2 {
		t.Errorf("streak = %d", res.Streak)
	}
	assertAmount(t, "day 2 reward", res.Amount, "0.88")

	e.clock.Advance(3 * DAILY_TASK_INTERVAL)
	res, err = e.rewards.Claim(e.ctx, u.UserId())
	if err != nil {
		t.Fatal(err)
	}
	if res.Streak != 1 {
		t.Errorf("streak after a gap = %d", res.Streak)
	}

	got := e.user(t, u.UserId())
	assertAmount(t, "withdrawal", got.WithdrawalBalance, "0.88")
	if got.LastLoginDate != "2025-03-14" {
		t.Errorf("last login date = %s", got.LastLoginDate)
	}
	e.assertReconciled(t)
}
