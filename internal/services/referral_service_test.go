package services

import (
	"testing"

	"taskhub/internal/models"
	"taskhub/internal/repositories"

	"github.com/shopspring/decimal"
)

func approveRecharge(t *testing.T, e *testEnv, userId int64, amount string) *RechargeApproval {
	t.Helper()
	req, err := e.recharges.Submit(e.ctx, userId, RechargeSubmission{
		Amount:       dec(amount),
		Currency:     "USDT",
		Network:      "TRC20",
		PaymentProof: "proof.png",
	})
	if err != nil {
		t.Fatalf("submit recharge: %v", err)
	}
	res, err := e.recharges.Approve(e.ctx, req.Id)
	if err != nil {
		t.Fatalf("approve recharge: %v", err)
	}
	return res
}

func TestCommissionCascadeStopsAtChainEnd(t *testing.T) {
	e := newTestEnv(t)
	top := e.register(t, "top@x.io", "")
	mid := e.register(t, "mid@x.io", top.InvitationCode)
	depositor := e.register(t, "dep@x.io", mid.InvitationCode)

	res := approveRecharge(t, e, depositor.UserId(), "100")

	if len(res.Commissions) != 2 {
		t.Fatalf("expected 2 commission levels, got %d", len(res.Commissions))
	}
	assertAmount(t, "level 1 withdrawal", e.user(t, mid.UserId()).WithdrawalBalance, "12")
	assertAmount(t, "level 1 commission", e.user(t, mid.UserId()).RechargeCommission, "12")
	assertAmount(t, "level 2 withdrawal", e.user(t, top.UserId()).WithdrawalBalance, "2")
	assertAmount(t, "depositor main", e.user(t, depositor.UserId()).MainBalance, "100")
	assertAmount(t, "depositor recharge total", e.user(t, depositor.UserId()).RechargeAmount, "100")
	e.assertReconciled(t)
}

func TestCommissionCascadeThreeLevelsOnly(t *testing.T) {
	e := newTestEnv(t)
	l4 := e.register(t, "l4@x.io", "")
	l3 := e.register(t, "l3@x.io", l4.InvitationCode)
	l2 := e.register(t, "l2@x.io", l3.InvitationCode)
	l1 := e.register(t, "l1@x.io", l2.InvitationCode)
	depositor := e.register(t, "dep@x.io", l1.InvitationCode)

	approveRecharge(t, e, depositor.UserId(), "200")

	assertAmount(t, "l1", e.user(t, l1.UserId()).WithdrawalBalance, "24")
	assertAmount(t, "l2", e.user(t, l2.UserId()).WithdrawalBalance, "4")
	assertAmount(t, "l3", e.user(t, l3.UserId()).WithdrawalBalance, "2")
	assertAmount(t, "l4", e.user(t, l4.UserId()).WithdrawalBalance, "0")
	e.assertReconciled(t)
}

func TestCommissionRatesFallBackPerLevel(t *testing.T) {
	e := newTestEnv(t)
	top := e.register(t, "top@x.io", "")
	mid := e.register(t, "mid@x.io", top.InvitationCode)
	depositor := e.register(t, "dep@x.io", mid.InvitationCode)

	override := models.CommissionRates{1: decimal.Zero}
	if _, err := e.users.UpdateUser(e.ctx, depositor.UserId(), UserUpdate{CommissionRatesOverride: &override}); err != nil {
		t.Fatal(err)
	}

	res := approveRecharge(t, e, depositor.UserId(), "100")

	// level 1 is overridden to zero, level 2 still uses the global rate
	assertAmount(t, "level 1", e.user(t, mid.UserId()).WithdrawalBalance, "0")
	assertAmount(t, "level 2", e.user(t, top.UserId()).WithdrawalBalance, "2")
	if len(res.Commissions) != 1 || res.Commissions[0].Level != 2 {
		t.Errorf("commissions = %+v", res.Commissions)
	}
}

func TestCommissionIgnoresAncestorOverrides(t *testing.T) {
	e := newTestEnv(t)
	top := e.register(t, "top@x.io", "")
	mid := e.register(t, "mid@x.io", top.InvitationCode)
	depositor := e.register(t, "dep@x.io", mid.InvitationCode)

	midRates := models.CommissionRates{1: decimal.Zero}
	if _, err := e.users.UpdateUser(e.ctx, mid.UserId(), UserUpdate{CommissionRatesOverride: &midRates}); err != nil {
		t.Fatal(err)
	}
	topRates := models.CommissionRates{2: decimal.NewFromInt(50)}
	if _, err := e.users.UpdateUser(e.ctx, top.UserId(), UserUpdate{CommissionRatesOverride: &topRates}); err != nil {
		t.Fatal(err)
	}

	approveRecharge(t, e, depositor.UserId(), "100")

	// rates come from the depositor, who has none, so the global ones apply
	assertAmount(t, "level 1", e.user(t, mid.UserId()).WithdrawalBalance, "12")
	assertAmount(t, "level 2", e.user(t, top.UserId()).WithdrawalBalance, "2")
	e.assertReconciled(t)
}

func TestCommissionCascadeRollsBackWithApproval(t *testing.T) {
	e := newTestEnv(t)
	top := e.register(t, "top@x.io", "")
	depositor := e.register(t, "dep@x.io", top.InvitationCode)

	req, err := e.recharges.Submit(e.ctx, depositor.UserId(), RechargeSubmission{
		Amount: dec("50"), Currency: "USDT", Network: "TRC20", PaymentProof: "p",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.recharges.Approve(e.ctx, req.Id); err != nil {
		t.Fatal(err)
	}
	_, err = e.recharges.Approve(e.ctx, req.Id)
	assertReason(t, err, models.ErrRequestNotPending)

	assertAmount(t, "referrer", e.user(t, top.UserId()).WithdrawalBalance, "6")
	assertAmount(t, "depositor", e.user(t, depositor.UserId()).MainBalance, "50")
}

func TestTeamLevels(t *testing.T) {
	e := newTestEnv(t)
	root := e.register(t, "root@x.io", "")
	a := e.register(t, "a@x.io", root.InvitationCode)
	e.register(t, "b@x.io", root.InvitationCode)
	c := e.register(t, "c@x.io", a.InvitationCode)
	e.register(t, "d@x.io", c.InvitationCode)
	e.register(t, "e@x.io", "")

	team, err := e.referrals.Team(e.ctx, root.UserId())
	if err != nil {
		t.Fatal(err)
	}
	if len(team.Level1) != 2 || len(team.Level2) != 1 || len(team.Level3) != 1 {
		t.Errorf("team sizes = %d/%d/%d", len(team.Level1), len(team.Level2), len(team.Level3))
	}
	if team.Size() != 4 {
		t.Errorf("team size = %d", team.Size())
	}

	upline, err := e.referrals.Upline(e.ctx, c.UserId())
	if err != nil {
		t.Fatal(err)
	}
	if len(upline) != 2 || upline[0].ReferrerId != a.UserId() || upline[1].ReferrerId != root.UserId() {
		t.Errorf("upline = %+v", upline)
	}
}

func TestRechargeListingByStatus(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "u@x.io", "")
	approveRecharge(t, e, u.UserId(), "10")
	if _, err := e.recharges.Submit(e.ctx, u.UserId(), RechargeSubmission{
		Amount: dec("5"), Currency: "USDT", Network: "TRC20", PaymentProof: "p",
	}); err != nil {
		t.Fatal(err)
	}

	pending, err := e.recharges.List(e.ctx, repositories.Filter{Status: models.REQUEST_PENDING})
	if err != nil {
		t.Fatal(err)
	}
	approved, _ := e.recharges.List(e.ctx, repositories.Filter{Status: models.REQUEST_APPROVED})
	if len(pending) != 1 || len(approved) != 1 {
		t.Errorf("pending=%d approved=%d", len(pending), len(approved))
	}
}
