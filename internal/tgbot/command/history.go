package command

import (
	"context"
	"math"

	"taskhub/internal/services"
	"taskhub/internal/tgbot/buttons"
	"taskhub/internal/util"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const numberElementPage = 5

// HistoryCommand pages through the ledger of the linked account.
type HistoryCommand struct {
	b      *bot.Bot
	users  *services.UserService
	ledger *services.LedgerService
	pages  *util.Pages
}

func NewHistoryCommand(b *bot.Bot, users *services.UserService, ledger *services.LedgerService, pages *util.Pages) *HistoryCommand {
	return &HistoryCommand{
		b:      b,
		users:  users,
		ledger: ledger,
		pages:  pages,
	}
}

func (c *HistoryCommand) Execute(ctx context.Context, msg *models.Message) {
	chatId := msg.Chat.ID
	u, ok := linkedUser(ctx, c.b, c.users, chatId)
	if !ok {
		return
	}

	page := c.pages.Get(chatId)
	txs, total, err := c.ledger.ListTransactions(ctx, u.UserId(), page*numberElementPage, numberElementPage)
	if err != nil {
		reply(ctx, c.b, chatId, reasonText(err))
		return
	}
	totalPages := totalPagesOf(total)
	text := historyText(txs, page, totalPages)
	markup := util.GenerateNextBackMenu(page, totalPages, buttons.NextPageHistory, buttons.BackPageHistory, buttons.CloseListHistory)

	// paging callbacks re-run Execute on the bot's own list message
	if msg.From != nil && msg.From.IsBot {
		if err := util.EditMessageText(ctx, c.b, chatId, msg.ID, text, markup); err == nil {
			return
		}
	}
	if _, err := util.SendTextMessageMarkup(ctx, c.b, chatId, text, markup); err != nil {
		log.Error(err)
	}
}

func (c *HistoryCommand) NextPage(ctx context.Context, callback *models.CallbackQuery) {
	if err := util.CheckTypeMessage(ctx, c.b, callback); err != nil {
		return
	}
	chatId := callback.Message.Message.Chat.ID
	u, ok := linkedUser(ctx, c.b, c.users, chatId)
	if !ok {
		return
	}
	_, total, err := c.ledger.ListTransactions(ctx, u.UserId(), 0, 1)
	if err != nil {
		log.Error(err)
		return
	}
	util.NextPage(ctx, callback, c.pages, totalPagesOf(total), c.b, c)
}

func (c *HistoryCommand) BackPage(ctx context.Context, callback *models.CallbackQuery) {
	util.BackPage(ctx, callback, c.pages, c.b, c)
}

func (c *HistoryCommand) Close(ctx context.Context, callback *models.CallbackQuery) {
	util.CloseList(ctx, callback, c.pages, c.b)
}

func totalPagesOf(total int) int {
	return int(math.Ceil(float64(total) / float64(numberElementPage)))
}
