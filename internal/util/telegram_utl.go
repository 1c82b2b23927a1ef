package util

import (
	"context"
	"errors"
	"time"

	"taskhub/internal/config"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

var log = config.InitLogger()

const sendTimeout = 10 * time.Second

var ErrInaccessibleMessage = errors.New("message type inaccessible")

func SendTextMessage(ctx context.Context, bt *bot.Bot, chatId int64, text string) (*models.Message, error) {
	return SendTextMessageMarkup(ctx, bt, chatId, text, nil)
}

func SendTextMessageMarkup(ctx context.Context, bt *bot.Bot, chatId int64, text string, markup models.ReplyMarkup) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	params := &bot.SendMessageParams{
		ChatID:    chatId,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	message, err := bt.SendMessage(ctx, params)
	if err != nil {
		log.Error("Failed to send message: ", err)
		return nil, err
	}
	return message, nil
}

// CheckTypeMessage rejects callbacks whose message the bot can no longer see.
func CheckTypeMessage(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) error {
	if callback.Message.Type == models.MaybeInaccessibleMessageTypeInaccessibleMessage {
		if _, err := SendTextMessage(ctx, b, callback.From.ID, "❌ This message is no longer available."); err != nil {
			log.Error(err)
		}
		return ErrInaccessibleMessage
	}
	return nil
}

func DeleteMessage(ctx context.Context, b *bot.Bot, chatId int64, messageId int) error {
	if _, err := b.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatId,
		MessageID: messageId,
	}); err != nil {
		log.Error("Failed delete message", err)
		return err
	}
	return nil
}

func EditMessageText(ctx context.Context, b *bot.Bot, chatId int64, messageId int, text string, markup models.ReplyMarkup) error {
	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatId,
		MessageID:   messageId,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	}); err != nil {
		log.Error("Failed edit message", err)
		return err
	}
	return nil
}
