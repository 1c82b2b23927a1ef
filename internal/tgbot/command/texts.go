package command

import (
	"fmt"
	"strings"
	"time"

	appModels "taskhub/internal/models"
	"taskhub/internal/services"
	"taskhub/internal/util"

	"github.com/shopspring/decimal"
)

const (
	notLinkedText = "❌ This chat is not linked to an account. Open your profile on the site, create a link code and send <code>/start CODE</code>."
	startHelpText = "👋 Send <code>/start CODE</code> with the link code from your profile to connect this chat."
	failedText    = "❌ Something went wrong, try again later."
)

var reasonTexts = map[string]string{
	appModels.ErrInvalidLinkCode.Code:       "❌ The link code is invalid or expired. Create a new one in your profile.",
	appModels.ErrTelegramAlreadyLinked.Code: "❌ This chat is already linked to another account.",
	appModels.ErrTaskAlreadyCompleted.Code:  "⏳ Today's task is already done. Come back tomorrow.",
	appModels.ErrCrawlModeActive.Code:       "❌ Daily tasks are paused while crawl tasks are active.",
	appModels.ErrNoActiveTask.Code:          "❌ Your VIP level has no daily task.",
	appModels.ErrRewardAlreadyClaimed.Code:  "⏳ You already checked in today.",
	appModels.ErrUserBanned.Code:            "⛔ Your account is suspended.",
}

// reasonText turns a service error into a chat reply.
func reasonText(err error) string {
	code := appModels.ReasonCode(err)
	if code == "" {
		return failedText
	}
	if text, ok := reasonTexts[code]; ok {
		return text
	}
	return "❌ " + code
}

func linkedText(u *appModels.User) string {
	return fmt.Sprintf("✅ Chat linked to <b>%v</b>.\n\nUse the menu below to check your balance, claim rewards and complete tasks.", u.Email)
}

func balanceText(u *appModels.User) string {
	return fmt.Sprintf(`
<b>💰 Balance</b>

<b>Main</b>: %v
<b>Withdrawable</b>: %v
<b>Total</b>: %v

<b>VIP level</b>: %v
<b>Invitation code</b>: <code>%v</code>
`,
		util.FormatUsdt(u.MainBalance),
		util.FormatUsdt(u.WithdrawalBalance),
		util.FormatUsdt(u.TotalBalance()),
		u.VipLevel,
		u.InvitationCode,
	)
}

func checkInText(res *services.LoginRewardResult) string {
	text := fmt.Sprintf("📅 Checked in, day %d of your streak.", res.Streak)
	if res.Amount.IsPositive() {
		text += fmt.Sprintf("\n\n🎁 Reward: %v", util.FormatUsdt(res.Amount))
	}
	return text
}

func taskText(status *appModels.DailyTaskStatus) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>✅ Daily task</b>\n\n<b>VIP level</b>: %v\n<b>Reward</b>: %v\n\n",
		status.VipLevel, util.FormatUsdt(status.Benefit))

	switch {
	case status.CrawlActive:
		sb.WriteString("Daily tasks are paused while crawl tasks are active.")
	case status.Available:
		sb.WriteString("The task is ready.")
	case status.NextAt != nil:
		next := time.UnixMilli(*status.NextAt).UTC()
		fmt.Fprintf(&sb, "Next task at %v UTC.", next.Format("02 Jan 15:04"))
	default:
		sb.WriteString("No task available.")
	}
	return sb.String()
}

func taskDoneText(u *appModels.User, amount decimal.Decimal) string {
	return fmt.Sprintf("🎉 Task completed, %v added.\n\n<b>Withdrawable</b>: %v",
		util.FormatUsdt(amount), util.FormatUsdt(u.WithdrawalBalance))
}

func teamText(team *appModels.Team) string {
	return fmt.Sprintf(`
<b>👥 Your team</b>

<b>Level 1</b>: %d
<b>Level 2</b>: %d
<b>Level 3</b>: %d

Total: %d %v
`,
		len(team.Level1),
		len(team.Level2),
		len(team.Level3),
		team.Size(),
		util.Plural(team.Size(), "member", "members"),
	)
}

func historyText(txs []appModels.Transaction, page, totalPages int) string {
	if len(txs) == 0 {
		return "📃 No transactions yet."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>📃 History</b> (%d/%d)\n\n", page+1, totalPages)
	for _, tx := range txs {
		sign := ""
		if tx.Amount.IsPositive() {
			sign = "+"
		}
		fmt.Fprintf(&sb, "%v  %v%v  <i>%v</i>\n",
			tx.CreatedAt.UTC().Format("02.01 15:04"),
			sign,
			util.FormatAmount(tx.Amount),
			tx.Type,
		)
	}
	return sb.String()
}
