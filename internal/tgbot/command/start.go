package command

import (
	"context"
	"strings"

	"taskhub/internal/config"
	"taskhub/internal/services"
	"taskhub/internal/tgbot/buttons"
	"taskhub/internal/util"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

var log = config.InitLogger()

// StartCommand binds the chat to an account with the link code passed as /start argument.
type StartCommand struct {
	b        *bot.Bot
	telegram *services.TelegramService
}

func NewStartCommand(b *bot.Bot, telegram *services.TelegramService) *StartCommand {
	return &StartCommand{
		b:        b,
		telegram: telegram,
	}
}

func (c *StartCommand) Execute(ctx context.Context, msg *models.Message) {
	chatId := msg.Chat.ID

	args := strings.Fields(msg.Text)
	if len(args) < 2 {
		if _, err := util.SendTextMessage(ctx, c.b, chatId, startHelpText); err != nil {
			log.Error(err)
		}
		return
	}

	user, err := c.telegram.Link(ctx, args[1], chatId)
	if err != nil {
		log.Debugln("Link failed for chat ", chatId, ": ", err)
		if _, err := util.SendTextMessage(ctx, c.b, chatId, reasonText(err)); err != nil {
			log.Error(err)
		}
		return
	}

	if _, err := util.SendTextMessageMarkup(
		ctx,
		c.b,
		chatId,
		linkedText(user),
		util.ReplyMarkup(2, buttons.MainMenu...),
	); err != nil {
		log.Error(err)
	}
}
