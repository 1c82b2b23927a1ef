package command

import (
	"context"
	"errors"

	appModels "taskhub/internal/models"
	"taskhub/internal/services"
	"taskhub/internal/util"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// linkedUser loads the account bound to the chat, answering the chat itself when there is none.
func linkedUser(ctx context.Context, b *bot.Bot, users *services.UserService, chatId int64) (*appModels.User, bool) {
	u, err := users.GetByTelegramChat(ctx, chatId)
	if err != nil {
		text := notLinkedText
		if !errors.Is(err, appModels.ErrUserNotFound) {
			log.Error("Failed find user to chatId ", chatId, ": ", err)
			text = failedText
		}
		if _, err := util.SendTextMessage(ctx, b, chatId, text); err != nil {
			log.Error(err)
		}
		return nil, false
	}
	return u, true
}

func reply(ctx context.Context, b *bot.Bot, chatId int64, text string) {
	if _, err := util.SendTextMessage(ctx, b, chatId, text); err != nil {
		log.Error(err)
	}
}

type BalanceCommand struct {
	b     *bot.Bot
	users *services.UserService
}

func NewBalanceCommand(b *bot.Bot, users *services.UserService) *BalanceCommand {
	return &BalanceCommand{b: b, users: users}
}

func (c *BalanceCommand) Execute(ctx context.Context, msg *models.Message) {
	u, ok := linkedUser(ctx, c.b, c.users, msg.Chat.ID)
	if !ok {
		return
	}
	reply(ctx, c.b, msg.Chat.ID, balanceText(u))
}

// CheckInCommand claims the daily login reward.
type CheckInCommand struct {
	b       *bot.Bot
	users   *services.UserService
	rewards *services.LoginRewardService
}

func NewCheckInCommand(b *bot.Bot, users *services.UserService, rewards *services.LoginRewardService) *CheckInCommand {
	return &CheckInCommand{b: b, users: users, rewards: rewards}
}

func (c *CheckInCommand) Execute(ctx context.Context, msg *models.Message) {
	chatId := msg.Chat.ID
	u, ok := linkedUser(ctx, c.b, c.users, chatId)
	if !ok {
		return
	}
	res, err := c.rewards.Claim(ctx, u.UserId())
	if err != nil {
		reply(ctx, c.b, chatId, reasonText(err))
		return
	}
	reply(ctx, c.b, chatId, checkInText(res))
}

type TeamCommand struct {
	b         *bot.Bot
	users     *services.UserService
	referrals *services.ReferralService
}

func NewTeamCommand(b *bot.Bot, users *services.UserService, referrals *services.ReferralService) *TeamCommand {
	return &TeamCommand{b: b, users: users, referrals: referrals}
}

func (c *TeamCommand) Execute(ctx context.Context, msg *models.Message) {
	chatId := msg.Chat.ID
	u, ok := linkedUser(ctx, c.b, c.users, chatId)
	if !ok {
		return
	}
	team, err := c.referrals.Team(ctx, u.UserId())
	if err != nil {
		reply(ctx, c.b, chatId, reasonText(err))
		return
	}
	reply(ctx, c.b, chatId, teamText(team))
}
