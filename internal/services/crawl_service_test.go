package services

import (
	"testing"

	"taskhub/internal/models"

	"github.com/shopspring/decimal"
)

func enableSet(t *testing.T, e *testEnv, userId int64, setIndex int, overrides map[string]models.TaskOverride) {
	t.Helper()
	cfg := CrawlConfig{Enabled: map[int]bool{setIndex: true}}
	if overrides != nil {
		cfg.Overrides = map[int]map[string]models.TaskOverride{setIndex: overrides}
	}
	if _, err := e.crawl.ConfigureUser(e.ctx, userId, cfg); err != nil {
		t.Fatalf("configure crawl: %v", err)
	}
}

func priced(price, income string) models.TaskOverride {
	return models.TaskOverride{
		Price:  decimal.NewNullDecimal(dec(price)),
		Income: decimal.NewNullDecimal(dec(income)),
	}
}

func TestCrawlCompleteDebitsWithdrawalFirst(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "crawl@x.io", "")
	enableSet(t, e, u.UserId(), 1, map[string]models.TaskOverride{"ct_free": priced("30", "10")})
	e.credit(t, u.UserId(), models.ACCOUNT_WITHDRAWAL, "50")

	task, err := e.crawl.Claim(e.ctx, u.UserId(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if task.Id != "ct_free" {
		t.Fatalf("claimed %s, want ct_free", task.Id)
	}

	res, err := e.crawl.Complete(e.ctx, u.UserId(), 1, "ct_free")
	if err != nil {
		t.Fatal(err)
	}
	assertAmount(t, "from withdrawal", res.FromWithdrawal, "30")
	assertAmount(t, "from main", res.FromMain, "0")

	got := e.user(t, u.UserId())
	assertAmount(t, "withdrawal", got.WithdrawalBalance, "60")
	assertAmount(t, "main", got.MainBalance, "0")
	assertAmount(t, "task commission", got.TaskCommission, "10")
	if set := got.CrawlSets[1]; len(set.ActiveTaskIds) != 0 || !set.IsCompleted("ct_free") {
		t.Errorf("set state = %+v", set)
	}
	e.assertReconciled(t)
}

func TestCrawlCompleteSplitsDebitAcrossAccounts(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "split@x.io", "")
	enableSet(t, e, u.UserId(), 1, map[string]models.TaskOverride{"ct_free": priced("30", "10")})
	e.credit(t, u.UserId(), models.ACCOUNT_WITHDRAWAL, "10")
	e.credit(t, u.UserId(), models.ACCOUNT_MAIN, "25")

	if _, err := e.crawl.Claim(e.ctx, u.UserId(), 1); err != nil {
		t.Fatal(err)
	}
	before := e.user(t, u.UserId())
	if _, err := e.crawl.Complete(e.ctx, u.UserId(), 1, "ct_free"); err != nil {
		t.Fatal(err)
	}
	after := e.user(t, u.UserId())

	assertAmount(t, "main", after.MainBalance, "5")
	assertAmount(t, "withdrawal", after.WithdrawalBalance, "40")
	net := after.WithdrawalBalance.Sub(before.WithdrawalBalance).Add(after.MainBalance.Sub(before.MainBalance))
	assertAmount(t, "net change", net, "10")
	e.assertReconciled(t)
}

func TestCrawlCompleteInsufficientBalanceKeepsState(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "poor@x.io", "")
	enableSet(t, e, u.UserId(), 1, map[string]models.TaskOverride{"ct_free": priced("30", "10")})
	e.credit(t, u.UserId(), models.ACCOUNT_WITHDRAWAL, "20")

	if _, err := e.crawl.Claim(e.ctx, u.UserId(), 1); err != nil {
		t.Fatal(err)
	}
	_, err := e.crawl.Complete(e.ctx, u.UserId(), 1, "ct_free")
	assertReason(t, err, models.ErrInsufficientBalance)

	got := e.user(t, u.UserId())
	assertAmount(t, "withdrawal", got.WithdrawalBalance, "20")
	set := got.CrawlSets[1]
	if !set.IsActive("ct_free") {
		t.Error("task should stay active after a failed completion")
	}
	e.assertReconciled(t)
}

func TestCrawlClaimOneActiveTaskPerSet(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "one@x.io", "")
	enableSet(t, e, u.UserId(), 1, nil)

	if _, err := e.crawl.Claim(e.ctx, u.UserId(), 1); err != nil {
		t.Fatal(err)
	}
	_, err := e.crawl.Claim(e.ctx, u.UserId(), 1)
	assertReason(t, err, models.ErrTaskInProgress)

	if active := e.user(t, u.UserId()).CrawlSets[1].ActiveTaskIds; len(active) != 1 {
		t.Errorf("active tasks = %v", active)
	}
}

func TestCrawlSetRunsToCompletion(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "full@x.io", "")
	enableSet(t, e, u.UserId(), 1, nil)
	e.credit(t, u.UserId(), models.ACCOUNT_WITHDRAWAL, "100")

	for _, want := range models.CrawlTaskSequence[1] {
		task, err := e.crawl.Claim(e.ctx, u.UserId(), 1)
		if err != nil {
			t.Fatalf("claim %s: %v", want, err)
		}
		if task.Id != want {
			t.Fatalf("claimed %s, want %s", task.Id, want)
		}
		e.clock.Advance(1)
		if _, err := e.crawl.Complete(e.ctx, u.UserId(), 1, task.Id); err != nil {
			t.Fatalf("complete %s: %v", want, err)
		}
	}

	_, err := e.crawl.Claim(e.ctx, u.UserId(), 1)
	assertReason(t, err, models.ErrNoTasksAvailable)

	overview, err := e.crawl.Overview(e.ctx, u.UserId(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !overview.Finished || len(overview.Completed) != 3 || len(overview.InProgress) != 0 {
		t.Errorf("overview = %+v", overview)
	}
	if overview.Completed[0].Task.Id != "ct2" {
		t.Errorf("completed should be newest first, got %s", overview.Completed[0].Task.Id)
	}

	// 100 + 0.5 + 9.47 + 15
	assertAmount(t, "withdrawal", e.user(t, u.UserId()).WithdrawalBalance, "124.97")
	e.assertReconciled(t)
}

func TestCrawlClaimRequiresEnabledSet(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "off@x.io", "")

	_, err := e.crawl.Claim(e.ctx, u.UserId(), 2)
	assertReason(t, err, models.ErrCrawlSetDisabled)

	_, err = e.crawl.Claim(e.ctx, u.UserId(), 4)
	assertReason(t, err, models.ErrInvalidCrawlSet)
}

func TestCrawlCompleteRequiresActiveTask(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "idle@x.io", "")
	enableSet(t, e, u.UserId(), 1, nil)

	_, err := e.crawl.Complete(e.ctx, u.UserId(), 1, "ct1")
	assertReason(t, err, models.ErrTaskNotActive)

	_, err = e.crawl.Complete(e.ctx, u.UserId(), 1, "missing")
	assertReason(t, err, models.ErrTaskOrUserNotFound)

	_, err = e.crawl.Complete(e.ctx, 999, 1, "ct1")
	assertReason(t, err, models.ErrTaskOrUserNotFound)
}

func TestEffectiveTaskLayers(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "tier@x.io", "")
	if _, err := e.vip.AdminSetVip(e.ctx, u.UserId(), "nadec2"); err != nil {
		t.Fatal(err)
	}

	task, err := e.crawl.GetTaskForUser(e.ctx, u.UserId(), 1, "ct_free")
	if err != nil {
		t.Fatal(err)
	}
	assertAmount(t, "tier income", task.Income, "1.0")
	assertAmount(t, "template price", task.Price, "0")

	enableSet(t, e, u.UserId(), 1, map[string]models.TaskOverride{
		"ct_free": {Income: decimal.NewNullDecimal(dec("2"))},
	})
	task, err = e.crawl.GetTaskForUser(e.ctx, u.UserId(), 1, "ct_free")
	if err != nil {
		t.Fatal(err)
	}
	assertAmount(t, "user income", task.Income, "2")

	other := e.register(t, "plain@x.io", "")
	task, err = e.crawl.GetTaskForUser(e.ctx, other.UserId(), 1, "ct_free")
	if err != nil {
		t.Fatal(err)
	}
	assertAmount(t, "base income", task.Income, "0.5")
}

func TestCrawlInitializeActivatesFreeTask(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "init@x.io", "")

	changed, err := e.crawl.Initialize(e.ctx, u.UserId(), 2)
	if err != nil || changed {
		t.Fatalf("disabled set: changed=%v err=%v", changed, err)
	}

	if got := ActiveCrawlSet(e.user(t, u.UserId())); got != 0 {
		t.Errorf("active set before enabling = %d", got)
	}
	enableSet(t, e, u.UserId(), 2, nil)
	if got := ActiveCrawlSet(e.user(t, u.UserId())); got != 2 {
		t.Errorf("active set = %d", got)
	}
	changed, err = e.crawl.Initialize(e.ctx, u.UserId(), 2)
	if err != nil || !changed {
		t.Fatalf("enabled set: changed=%v err=%v", changed, err)
	}
	if active := e.user(t, u.UserId()).CrawlSets[2].ActiveTaskIds; len(active) != 1 || active[0] != "ct_s2_free" {
		t.Errorf("active = %v", active)
	}

	changed, _ = e.crawl.Initialize(e.ctx, u.UserId(), 2)
	if changed {
		t.Error("second initialize should be a no-op")
	}
}

func TestCrawlAdminTools(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "admin@x.io", "")
	enableSet(t, e, u.UserId(), 1, nil)
	if _, err := e.crawl.Claim(e.ctx, u.UserId(), 1); err != nil {
		t.Fatal(err)
	}

	if err := e.crawl.ResetSet(e.ctx, u.UserId(), 1); err != nil {
		t.Fatal(err)
	}
	set := e.user(t, u.UserId()).CrawlSets[1]
	if !set.Enabled || len(set.ActiveTaskIds) != 0 {
		t.Errorf("reset set = %+v", set)
	}

	updated, err := e.crawl.UpdateBaseTask(e.ctx, 1, "ct1", models.TaskOverride{Price: decimal.NewNullDecimal(dec("22"))})
	if err != nil {
		t.Fatal(err)
	}
	assertAmount(t, "price", updated.Price, "22")
	assertAmount(t, "income kept", updated.Income, "9.47")

	err = e.crawl.SetVipOverrides(e.ctx, "Nadec3", 1, map[string]models.TaskOverride{"ct1": priced("5", "6")})
	if err != nil {
		t.Fatal(err)
	}
	tasks, err := e.crawl.EffectiveTasksForTier(e.ctx, "Nadec3")
	if err != nil {
		t.Fatal(err)
	}
	assertAmount(t, "tier ct1 income", tasks[1][1].Income, "6")

	err = e.crawl.SetVipOverrides(e.ctx, "Nadec3", 1, map[string]models.TaskOverride{"ct1": {}})
	if err != nil {
		t.Fatal(err)
	}
	tasks, _ = e.crawl.EffectiveTasksForTier(e.ctx, "Nadec3")
	assertAmount(t, "cleared ct1 income", tasks[1][1].Income, "9.47")

	err = e.crawl.SetVipOverrides(e.ctx, "Nobody", 1, map[string]models.TaskOverride{"ct1": {}})
	assertReason(t, err, models.ErrVipNotFound)
}
