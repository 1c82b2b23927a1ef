package command

import (
	"context"

	"taskhub/internal/services"
	"taskhub/internal/tgbot/buttons"
	"taskhub/internal/util"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type DailyTaskCommand struct {
	b     *bot.Bot
	users *services.UserService
	tasks *services.TaskService
}

func NewDailyTaskCommand(b *bot.Bot, users *services.UserService, tasks *services.TaskService) *DailyTaskCommand {
	return &DailyTaskCommand{b: b, users: users, tasks: tasks}
}

// Execute shows the task status with a completion button when the task is ready.
func (c *DailyTaskCommand) Execute(ctx context.Context, msg *models.Message) {
	chatId := msg.Chat.ID
	u, ok := linkedUser(ctx, c.b, c.users, chatId)
	if !ok {
		return
	}
	status, err := c.tasks.Status(ctx, u.UserId())
	if err != nil {
		reply(ctx, c.b, chatId, reasonText(err))
		return
	}

	if !status.Available {
		reply(ctx, c.b, chatId, taskText(status))
		return
	}
	markup := util.InlineMarkup(1, util.CallbackButton(buttons.CompleteTaskId, buttons.CompleteTaskText))
	if _, err := util.SendTextMessageMarkup(ctx, c.b, chatId, taskText(status), markup); err != nil {
		log.Error(err)
	}
}

func (c *DailyTaskCommand) Complete(ctx context.Context, callback *models.CallbackQuery) {
	if err := util.CheckTypeMessage(ctx, c.b, callback); err != nil {
		return
	}
	msg := callback.Message.Message
	chatId := msg.Chat.ID

	u, ok := linkedUser(ctx, c.b, c.users, chatId)
	if !ok {
		return
	}
	updated, amount, err := c.tasks.Complete(ctx, u.UserId())
	if err != nil {
		reply(ctx, c.b, chatId, reasonText(err))
		return
	}
	if err := util.EditMessageText(ctx, c.b, chatId, msg.ID, taskDoneText(updated, amount), nil); err != nil {
		reply(ctx, c.b, chatId, taskDoneText(updated, amount))
	}
}
