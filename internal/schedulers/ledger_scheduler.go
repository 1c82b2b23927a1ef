package schedulers

import (
	"context"
	"fmt"

	"taskhub/internal/metrics"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
	"taskhub/internal/services"
)

const (
	QUEUE_RECHARGES   = "recharges"
	QUEUE_WITHDRAWALS = "withdrawals"
	QUEUE_SUBMISSIONS = "submissions"
)

// AdminNotifier posts a plain text digest to the operators.
type AdminNotifier interface {
	NotifyAdmin(ctx context.Context, text string) error
}

// ReconcileLedger compares every cached balance with its ledger sum and exports the drift count.
func ReconcileLedger(ledger *services.LedgerService) func(ctx context.Context) {
	return func(ctx context.Context) {
		drifts, err := ledger.ReconcileAll(ctx)
		if err != nil {
			log.Error("Ledger reconciliation failed: ", err)
			return
		}
		metrics.SetLedgerDrift(len(drifts))
		for _, d := range drifts {
			log.Warnf("Ledger drift: user %d account %s balance %s ledger %s",
				d.UserId, d.Account, d.Balance.String(), d.LedgerSum.String())
		}
		if len(drifts) == 0 {
			log.Infoln("Ledger reconciled, no drift")
		}
	}
}

type PendingCounts struct {
	Recharges   int
	Withdrawals int
	Submissions int
}

func (p PendingCounts) Total() int {
	return p.Recharges + p.Withdrawals + p.Submissions
}

func (p PendingCounts) String() string {
	return fmt.Sprintf("🕑 Pending review\n\nRecharges: %d\nWithdrawals: %d\nActivity submissions: %d",
		p.Recharges, p.Withdrawals, p.Submissions)
}

func CountPending(ctx context.Context, recharges *services.RechargeService,
	withdrawals *services.WithdrawalService, activities *services.ActivityService) (PendingCounts, error) {
	f := repositories.Filter{Status: models.REQUEST_PENDING}
	var res PendingCounts

	r, err := recharges.List(ctx, f)
	if err != nil {
		return res, err
	}
	w, err := withdrawals.List(ctx, f)
	if err != nil {
		return res, err
	}
	s, err := activities.Submissions(ctx, f)
	if err != nil {
		return res, err
	}
	res.Recharges, res.Withdrawals, res.Submissions = len(r), len(w), len(s)
	return res, nil
}

// PendingDigest exports the review queue sizes and, when anything waits, tells the operators.
// notifier may be nil.
func PendingDigest(recharges *services.RechargeService, withdrawals *services.WithdrawalService,
	activities *services.ActivityService, notifier AdminNotifier) func(ctx context.Context) {
	return func(ctx context.Context) {
		counts, err := CountPending(ctx, recharges, withdrawals, activities)
		if err != nil {
			log.Error("Failed to count pending requests: ", err)
			return
		}
		metrics.SetPendingRequests(QUEUE_RECHARGES, counts.Recharges)
		metrics.SetPendingRequests(QUEUE_WITHDRAWALS, counts.Withdrawals)
		metrics.SetPendingRequests(QUEUE_SUBMISSIONS, counts.Submissions)

		if counts.Total() == 0 || notifier == nil {
			return
		}
		if err := notifier.NotifyAdmin(ctx, counts.String()); err != nil {
			log.Warn("Failed to send pending digest: ", err)
		}
	}
}
