package schedulers

import (
	"context"
	"strings"
	"testing"
	"time"

	"taskhub/internal/metrics"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
	"taskhub/internal/services"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type recordingNotifier struct {
	texts []string
}

func (n *recordingNotifier) NotifyAdmin(_ context.Context, text string) error {
	n.texts = append(n.texts, text)
	return nil
}

type env struct {
	store       *repositories.MemoryStore
	users       *services.UserService
	ledger      *services.LedgerService
	recharges   *services.RechargeService
	withdrawals *services.WithdrawalService
	activities  *services.ActivityService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := repositories.NewMemoryStore()
	if err := services.Bootstrap(context.Background(), store, nil); err != nil {
		t.Fatal(err)
	}
	auth := services.NewAuthService("secret", time.Hour, nil)
	auth.SetCost(bcrypt.MinCost)
	notices := services.NewNotificationService(store, nil)
	return &env{
		store:       store,
		users:       services.NewUserService(store, auth, nil),
		ledger:      services.NewLedgerService(store),
		recharges:   services.NewRechargeService(store, notices, nil),
		withdrawals: services.NewWithdrawalService(store, auth, notices, nil),
		activities:  services.NewActivityService(store, nil),
	}
}

func (e *env) register(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), services.Registration{Email: email, Password: "Secret1"})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestPendingDigest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	digest := PendingDigest(e.recharges, e.withdrawals, e.activities, notifier)

	digest(ctx)
	if len(notifier.texts) != 0 {
		t.Errorf("empty queues sent a digest: %v", notifier.texts)
	}

	u := e.register(t, "queue@x.io")
	for i := 0; i < 2; i++ {
		if _, err := e.recharges.Submit(ctx, u.UserId(), services.RechargeSubmission{
			Amount: decimal.NewFromInt(10), Currency: "USDT", Network: "TRC20", PaymentProof: "proof",
		}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := e.activities.Submit(ctx, u.UserId(), "2", "img.png", ""); err != nil {
		t.Fatal(err)
	}

	digest(ctx)
	if got := testutil.ToFloat64(metrics.PendingRequests.WithLabelValues(QUEUE_RECHARGES)); got != 2 {
		t.Errorf("pending recharges gauge = %v", got)
	}
	if got := testutil.ToFloat64(metrics.PendingRequests.WithLabelValues(QUEUE_SUBMISSIONS)); got != 1 {
		t.Errorf("pending submissions gauge = %v", got)
	}
	if len(notifier.texts) != 1 || !strings.Contains(notifier.texts[0], "Recharges: 2") {
		t.Errorf("digest = %v", notifier.texts)
	}

	PendingDigest(e.recharges, e.withdrawals, e.activities, nil)(ctx)
}

func TestReconcileLedger(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "drift@x.io")
	if _, err := e.users.AdjustBalance(ctx, u.UserId(), decimal.NewFromInt(50), models.ACCOUNT_MAIN, services.BALANCE_ACTION_ADD); err != nil {
		t.Fatal(err)
	}

	job := ReconcileLedger(e.ledger)
	job(ctx)
	if got := testutil.ToFloat64(metrics.LedgerDrift); got != 0 {
		t.Errorf("drift after clean run = %v", got)
	}

	err := e.store.Atomic(ctx, func(tx repositories.Tx) error {
		stored, err := tx.UserById(u.UserId())
		if err != nil {
			return err
		}
		stored.MainBalance = stored.MainBalance.Add(decimal.NewFromInt(1))
		return tx.UpdateUser(stored)
	})
	if err != nil {
		t.Fatal(err)
	}

	job(ctx)
	if got := testutil.ToFloat64(metrics.LedgerDrift); got != 1 {
		t.Errorf("drift after tampering = %v", got)
	}
}

func TestNewSchedulerSkipsBadJobs(t *testing.T) {
	ran := func(context.Context) {}
	c := NewScheduler(
		Job{Name: "ok", Spec: "0 3 * * *", Run: ran},
		Job{Name: "disabled", Spec: "", Run: ran},
		Job{Name: "broken", Spec: "not a spec", Run: ran},
	)
	if n := len(c.Entries()); n != 1 {
		t.Errorf("entries = %d", n)
	}
}
