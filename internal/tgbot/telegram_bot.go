package tgbot

import (
	"context"
	"strings"

	"taskhub/internal/config"
	appModels "taskhub/internal/models"
	"taskhub/internal/services"
	"taskhub/internal/tgbot/buttons"
	"taskhub/internal/tgbot/command"
	"taskhub/internal/util"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

var log = config.InitLogger()

type Services struct {
	Users     *services.UserService
	Telegram  *services.TelegramService
	Tasks     *services.TaskService
	Rewards   *services.LoginRewardService
	Referrals *services.ReferralService
	Ledger    *services.LedgerService
}

// TgBot answers account commands in private chats and pushes inbox messages to linked chats.
type TgBot struct {
	b           *bot.Bot
	adminChatId int64
	svc         Services
	pages       *util.Pages
}

var botCommands = []models.BotCommand{
	{Command: "start", Description: "Link this chat with a code from your profile"},
	{Command: "balance", Description: "Show balances"},
	{Command: "checkin", Description: "Claim the daily login reward"},
	{Command: "task", Description: "Daily task"},
	{Command: "team", Description: "Referral team"},
	{Command: "history", Description: "Recent transactions"},
}

func NewTgBot(token string, adminChatId int64, svc Services) (*TgBot, error) {
	t := &TgBot{
		adminChatId: adminChatId,
		svc:         svc,
		pages:       util.NewPages(),
	}

	b, err := bot.New(token, bot.WithDefaultHandler(t.handler))
	if err != nil {
		log.Error("Failed to create bot: ", err)
		return nil, err
	}
	t.b = b
	return t, nil
}

// Start polls for updates until ctx is done.
func (t *TgBot) Start(ctx context.Context) {
	if _, err := t.b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: botCommands}); err != nil {
		log.Warn("Failed to set bot commands: ", err)
	}
	log.Infoln("Telegram bot started")
	t.b.Start(ctx)
}

// Notify implements services.Notifier.
func (t *TgBot) Notify(ctx context.Context, chatId int64, msg *appModels.Message) error {
	_, err := util.SendTextMessage(ctx, t.b, chatId, RenderMessage(msg))
	return err
}

// NotifyAdmin posts to the operator chat; without one configured it does nothing.
func (t *TgBot) NotifyAdmin(ctx context.Context, text string) error {
	if t == nil || t.adminChatId == 0 {
		return nil
	}
	_, err := util.SendTextMessage(ctx, t.b, t.adminChatId, text)
	return err
}

func (t *TgBot) handler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil {
		return
	}

	if update.Message != nil {
		t.handleMessage(ctx, b, update.Message)
	}

	if update.CallbackQuery != nil {
		callback := update.CallbackQuery

		t.handleCallback(ctx, b, callback)

		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: callback.ID,
		}); err != nil {
			log.Error("AnswerCallbackQuery: ", err)
		}
	}
}

func (t *TgBot) handleMessage(ctx context.Context, b *bot.Bot, msg *models.Message) {
	if msg.Chat.Type != models.ChatTypePrivate {
		return
	}
	text := strings.TrimSpace(msg.Text)

	switch {
	case strings.HasPrefix(text, "/start"):
		command.NewStartCommand(b, t.svc.Telegram).Execute(ctx, msg)
	case text == "/balance" || text == buttons.Balance:
		command.NewBalanceCommand(b, t.svc.Users).Execute(ctx, msg)
	case text == "/checkin" || text == buttons.CheckIn:
		command.NewCheckInCommand(b, t.svc.Users, t.svc.Rewards).Execute(ctx, msg)
	case text == "/task" || text == buttons.Task:
		command.NewDailyTaskCommand(b, t.svc.Users, t.svc.Tasks).Execute(ctx, msg)
	case text == "/team" || text == buttons.Team:
		command.NewTeamCommand(b, t.svc.Users, t.svc.Referrals).Execute(ctx, msg)
	case text == "/history" || text == buttons.History:
		t.pages.Reset(msg.Chat.ID)
		t.history(b).Execute(ctx, msg)
	}
}

func (t *TgBot) handleCallback(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	switch callback.Data {
	case buttons.CompleteTaskId:
		command.NewDailyTaskCommand(b, t.svc.Users, t.svc.Tasks).Complete(ctx, callback)
	case buttons.NextPageHistory:
		t.history(b).NextPage(ctx, callback)
	case buttons.BackPageHistory:
		t.history(b).BackPage(ctx, callback)
	case buttons.CloseListHistory:
		t.history(b).Close(ctx, callback)
	}
}

func (t *TgBot) history(b *bot.Bot) *command.HistoryCommand {
	return command.NewHistoryCommand(b, t.svc.Users, t.svc.Ledger, t.pages)
}
