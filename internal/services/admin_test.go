package services

import (
	"testing"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

func TestActivitySubmissionFlow(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "promo@x.io", "")

	_, err := e.activities.Submit(e.ctx, u.UserId(), "2", "", "")
	assertReason(t, err, models.ErrProofRequired)
	_, err = e.activities.Submit(e.ctx, u.UserId(), "404", "shot.png", "")
	assertReason(t, err, models.ErrActivityNotFound)

	sub, err := e.activities.Submit(e.ctx, u.UserId(), "2", "shot.png", "done")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.activities.Approve(e.ctx, sub.Id); err != nil {
		t.Fatal(err)
	}
	_, err = e.activities.Reject(e.ctx, sub.Id)
	assertReason(t, err, models.ErrRequestNotPending)
	assertAmount(t, "reward", e.user(t, u.UserId()).WithdrawalBalance, "9")

	rejected, err := e.activities.Submit(e.ctx, u.UserId(), "3", "shot.png", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.activities.Reject(e.ctx, rejected.Id); err != nil {
		t.Fatal(err)
	}
	assertAmount(t, "after reject", e.user(t, u.UserId()).WithdrawalBalance, "9")

	approved, _ := e.activities.Submissions(e.ctx, repositories.Filter{Status: models.REQUEST_APPROVED})
	if len(approved) != 1 || approved[0].ActivityTitle == "" {
		t.Errorf("approved submissions = %+v", approved)
	}
	e.assertReconciled(t)
}

func TestApproveSubmissionForDeletedActivity(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "late@x.io", "")

	sub, err := e.activities.Submit(e.ctx, u.UserId(), "1", "shot.png", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.activities.Delete(e.ctx, "1"); err != nil {
		t.Fatal(err)
	}
	_, err = e.activities.Approve(e.ctx, sub.Id)
	assertReason(t, err, models.ErrActivityNotFound)
	assertAmount(t, "withdrawal", e.user(t, u.UserId()).WithdrawalBalance, "0")
}

func TestActivityCatalogue(t *testing.T) {
	e := newTestEnv(t)

	created, err := e.activities.Save(e.ctx, models.Activity{Title: "Share a post", Amount: dec("3")})
	if err != nil {
		t.Fatal(err)
	}
	if created.Id != "4" {
		t.Errorf("new activity id = %s", created.Id)
	}
	_, err = e.activities.Save(e.ctx, models.Activity{Id: "99", Title: "Ghost", Amount: dec("1")})
	assertReason(t, err, models.ErrActivityNotFound)
	_, err = e.activities.Save(e.ctx, models.Activity{Title: " "})
	assertReason(t, err, models.ErrInvalidAmount)

	created.Amount = dec("5")
	if _, err := e.activities.Save(e.ctx, *created); err != nil {
		t.Fatal(err)
	}
	list, _ := e.activities.List(e.ctx)
	if len(list) != 4 {
		t.Errorf("activities = %d", len(list))
	}
	err = e.activities.Delete(e.ctx, "99")
	assertReason(t, err, models.ErrActivityNotFound)
}

func TestRechargeSubmitValidation(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "topup@x.io", "")

	cases := []struct {
		name string
		sub  RechargeSubmission
		want *models.ReasonError
	}{
		{"zero", RechargeSubmission{Currency: "USDT", Network: "TRC20", PaymentProof: "p"}, models.ErrInvalidAmount},
		{"unsupported pair", RechargeSubmission{Amount: dec("5"), Currency: "USDT", Network: "TON", PaymentProof: "p"}, models.ErrUnsupportedCurrency},
		{"no proof", RechargeSubmission{Amount: dec("5"), Currency: "usdt", Network: "BEP20"}, models.ErrProofRequired},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := e.recharges.Submit(e.ctx, u.UserId(), c.sub)
			assertReason(t, err, c.want)
		})
	}

	_, err := e.recharges.Submit(e.ctx, 999, RechargeSubmission{Amount: dec("5"), Currency: "USDT", Network: "TRC20", PaymentProof: "p"})
	assertReason(t, err, models.ErrUserNotFound)

	req, err := e.recharges.Submit(e.ctx, u.UserId(), RechargeSubmission{Amount: dec("5"), Currency: "USDT", Network: "TRC20", PaymentProof: "p"})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.recharges.Reject(e.ctx, req.Id); err != nil {
		t.Fatal(err)
	}
	_, err = e.recharges.Approve(e.ctx, req.Id)
	assertReason(t, err, models.ErrRequestNotPending)
	assertAmount(t, "main", e.user(t, u.UserId()).MainBalance, "0")
}

func TestSettingsVersionAndCache(t *testing.T) {
	e := newTestEnv(t)

	current, err := e.settings.Current(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if current.Version != 1 {
		t.Fatalf("version = %d", current.Version)
	}

	// a write behind the service's back is hidden by the cache
	err = e.store.Atomic(e.ctx, func(tx repositories.Tx) error {
		s := current.Clone()
		s.Name = "Direct"
		return tx.SaveSettings(s)
	})
	if err != nil {
		t.Fatal(err)
	}
	cached, _ := e.settings.Current(e.ctx)
	if cached.Name != "Nadec" {
		t.Errorf("cached name = %s", cached.Name)
	}

	next := *current.Clone()
	next.Name = "Renamed"
	updated, err := e.settings.Update(e.ctx, 1, next)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Version != 2 {
		t.Errorf("updated version = %d", updated.Version)
	}
	fresh, _ := e.settings.Current(e.ctx)
	if fresh.Name != "Renamed" || fresh.Version != 2 {
		t.Errorf("after update = %s v%d", fresh.Name, fresh.Version)
	}

	_, err = e.settings.Update(e.ctx, 1, next)
	assertReason(t, err, models.ErrSettingsConflict)

	bad := next
	bad.MaxWithdrawal = dec("1")
	_, err = e.settings.Update(e.ctx, 2, bad)
	assertReason(t, err, models.ErrInvalidSettings)

	public, err := e.settings.Public(e.ctx)
	if err != nil || public.Name != "Renamed" {
		t.Errorf("public = %+v, %v", public, err)
	}
}

func TestWalletAddresses(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.wallets.GetWalletAddress(e.ctx, "USDT", "TRC20")
	assertReason(t, err, models.ErrWalletNotConfigured)

	_, err = e.wallets.SetWalletAddress(e.ctx, models.WalletAddress{Currency: "USDT", Network: "TRC20"})
	assertReason(t, err, models.ErrAddressRequired)
	_, err = e.wallets.SetWalletAddress(e.ctx, models.WalletAddress{Currency: "DOGE", Network: "DOGE", Address: "D123"})
	assertReason(t, err, models.ErrUnsupportedCurrency)

	if _, err := e.wallets.SetWalletAddress(e.ctx, models.WalletAddress{Currency: "USDT", Network: "TRC20", Address: " " + trc20Wallet}); err != nil {
		t.Fatal(err)
	}
	got, err := e.wallets.GetWalletAddress(e.ctx, "USDT", "TRC20")
	if err != nil || got.Address != trc20Wallet {
		t.Fatalf("wallet = %+v, %v", got, err)
	}
	all, _ := e.wallets.ListWalletAddresses(e.ctx)
	if len(all) != 1 {
		t.Errorf("wallets = %d", len(all))
	}

	if err := e.wallets.DeleteWalletAddress(e.ctx, "USDT", "TRC20"); err != nil {
		t.Fatal(err)
	}
	err = e.wallets.DeleteWalletAddress(e.ctx, "USDT", "TRC20")
	assertReason(t, err, models.ErrWalletNotConfigured)
}

func TestBootstrapIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	if _, err := e.vip.AddVipLevel(e.ctx, models.VipLevel{}); err != nil {
		t.Fatal(err)
	}

	if err := Bootstrap(e.ctx, e.store, e.clock.Now); err != nil {
		t.Fatal(err)
	}

	levels, _ := e.vip.ListVipLevels(e.ctx, 0)
	if len(levels) != 8 {
		t.Errorf("levels = %d", len(levels))
	}
	activities, _ := e.activities.List(e.ctx)
	if len(activities) != 3 {
		t.Errorf("activities = %d", len(activities))
	}
	messages, _ := e.notices.List(e.ctx, 0, 10)
	if len(messages) != 1 {
		t.Errorf("messages = %d", len(messages))
	}
	tasks, err := e.crawl.BaseTasks(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks[1]) != len(models.CrawlTaskSequence[1]) {
		t.Errorf("set 1 tasks = %d", len(tasks[1]))
	}
}
