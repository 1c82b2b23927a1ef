package command

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	appModels "taskhub/internal/models"
	"taskhub/internal/services"

	"github.com/shopspring/decimal"
)

func TestReasonText(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{appModels.ErrTaskAlreadyCompleted, reasonTexts[appModels.ErrTaskAlreadyCompleted.Code]},
		{fmt.Errorf("link: %w", appModels.ErrInvalidLinkCode), reasonTexts[appModels.ErrInvalidLinkCode.Code]},
		{appModels.ErrVipNotFound, "❌ errorVipNotFound"},
		{errors.New("db down"), failedText},
	}
	for _, tc := range cases {
		if got := reasonText(tc.err); got != tc.want {
			t.Errorf("reasonText(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestBalanceText(t *testing.T) {
	u := &appModels.User{
		MainBalance:       decimal.RequireFromString("1234.5"),
		WithdrawalBalance: decimal.RequireFromString("10"),
		VipLevel:          "Nadec2",
		InvitationCode:    "abc123",
	}
	text := balanceText(u)
	for _, want := range []string{"1,234.50 USDT", "10.00 USDT", "1,244.50 USDT", "Nadec2", "abc123"} {
		if !strings.Contains(text, want) {
			t.Errorf("balance text misses %q:\n%s", want, text)
		}
	}
}

func TestCheckInText(t *testing.T) {
	text := checkInText(&services.LoginRewardResult{Streak: 3, Amount: decimal.NewFromInt(2)})
	if !strings.Contains(text, "day 3") || !strings.Contains(text, "2.00 USDT") {
		t.Errorf("text = %q", text)
	}
	if strings.Contains(checkInText(&services.LoginRewardResult{Streak: 1, Amount: decimal.Zero}), "Reward") {
		t.Error("zero reward is announced")
	}
}

func TestTaskText(t *testing.T) {
	next := time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC).UnixMilli()
	cases := []struct {
		status appModels.DailyTaskStatus
		want   string
	}{
		{appModels.DailyTaskStatus{Available: true}, "ready"},
		{appModels.DailyTaskStatus{CrawlActive: true}, "paused"},
		{appModels.DailyTaskStatus{NextAt: &next}, "11 Mar 12:00"},
		{appModels.DailyTaskStatus{}, "No task"},
	}
	for _, tc := range cases {
		if text := taskText(&tc.status); !strings.Contains(text, tc.want) {
			t.Errorf("taskText(%+v) misses %q:\n%s", tc.status, tc.want, text)
		}
	}
}

func TestTeamText(t *testing.T) {
	team := &appModels.Team{
		Level1: make([]appModels.User, 2),
		Level3: make([]appModels.User, 1),
	}
	text := teamText(team)
	if !strings.Contains(text, "Total: 3 members") || !strings.Contains(text, "<b>Level 2</b>: 0") {
		t.Errorf("text = %s", text)
	}
}

func TestHistoryText(t *testing.T) {
	if historyText(nil, 0, 0) != "📃 No transactions yet." {
		t.Error("empty history")
	}
	at := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)
	text := historyText([]appModels.Transaction{
		{Amount: decimal.NewFromInt(4), Type: appModels.TX_TASK_INCOME, CreatedAt: at},
		{Amount: decimal.NewFromInt(-20), Type: appModels.TX_VIP_PURCHASE, CreatedAt: at},
	}, 1, 3)
	for _, want := range []string{"(2/3)", "+4.00", "-20.00", "10.03 08:30", "task_income"} {
		if !strings.Contains(text, want) {
			t.Errorf("history misses %q:\n%s", want, text)
		}
	}
}

func TestTotalPagesOf(t *testing.T) {
	for total, want := range map[int]int{0: 0, 1: 1, 5: 1, 6: 2, 11: 3} {
		if got := totalPagesOf(total); got != want {
			t.Errorf("totalPagesOf(%d) = %d, want %d", total, got, want)
		}
	}
}
