package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskhub/internal/models"
	"taskhub/internal/repositories"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Secret1"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type testEnv struct {
	ctx   context.Context
	store *repositories.MemoryStore
	kv    *repositories.MemoryKeyValue
	clock *fakeClock

	auth        *AuthService
	users       *UserService
	ledger      *LedgerService
	referrals   *ReferralService
	crawl       *CrawlService
	tasks       *TaskService
	vip         *VipService
	rewards     *LoginRewardService
	notices     *NotificationService
	recharges   *RechargeService
	withdrawals *WithdrawalService
	activities  *ActivityService
	settings    *SettingsService
	wallets     *WalletService
	telegram    *TelegramService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	store := repositories.NewMemoryStore()
	kv := repositories.NewMemoryKeyValue(clock.Now)

	if err := Bootstrap(context.Background(), store, clock.Now); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	auth := NewAuthService("test-secret", time.Hour, clock.Now)
	auth.SetCost(bcrypt.MinCost)
	notices := NewNotificationService(store, clock.Now)

	return &testEnv{
		ctx:         context.Background(),
		store:       store,
		kv:          kv,
		clock:       clock,
		auth:        auth,
		users:       NewUserService(store, auth, clock.Now),
		ledger:      NewLedgerService(store),
		referrals:   NewReferralService(store),
		crawl:       NewCrawlService(store, clock.Now),
		tasks:       NewTaskService(store, clock.Now),
		vip:         NewVipService(store, clock.Now),
		rewards:     NewLoginRewardService(store, clock.Now),
		notices:     notices,
		recharges:   NewRechargeService(store, notices, clock.Now),
		withdrawals: NewWithdrawalService(store, auth, notices, clock.Now),
		activities:  NewActivityService(store, clock.Now),
		settings:    NewSettingsService(store, kv),
		wallets:     NewWalletService(store),
		telegram:    NewTelegramService(store, kv, clock.Now),
	}
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (e *testEnv) register(t *testing.T, email, inviter string) *models.User {
	t.Helper()
	user, err := e.users.Register(e.ctx, Registration{
		Email:          email,
		Password:       testPassword,
		InvitationCode: inviter,
		IpAddress:      "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

func (e *testEnv) credit(t *testing.T, userId int64, account, amount string) {
	t.Helper()
	if _, err := e.users.AdjustBalance(e.ctx, userId, dec(amount), account, BALANCE_ACTION_ADD); err != nil {
		t.Fatalf("credit %s %s: %v", account, amount, err)
	}
}

func (e *testEnv) user(t *testing.T, id int64) *models.User {
	t.Helper()
	user, err := e.users.GetById(e.ctx, id)
	if err != nil {
		t.Fatalf("load user %d: %v", id, err)
	}
	return user
}

// assertReconciled fails when any balance differs from its ledger sum.
func (e *testEnv) assertReconciled(t *testing.T) {
	t.Helper()
	drifts, err := e.ledger.ReconcileAll(e.ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	for _, d := range drifts {
		t.Errorf("user %d %s: balance %s, ledger %s", d.UserId, d.Account, d.Balance, d.LedgerSum)
	}
}

func assertReason(t *testing.T, err error, want *models.ReasonError) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %s, got %v", want.Code, err)
	}
}

func assertAmount(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}
