package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
	"taskhub/internal/util"
)

const (
	TELEGRAM_LINK_TTL    = 15 * time.Minute
	telegramLinkKeyspace = "tglink:"
)

// TelegramService binds Telegram chats to accounts through one-time link codes.
type TelegramService struct {
	store repositories.Store
	kv    repositories.KeyValue
	now   Clock
}

func NewTelegramService(store repositories.Store, kv repositories.KeyValue, now Clock) *TelegramService {
	return &TelegramService{
		store: store,
		kv:    kv,
		now:   defaultClock(now),
	}
}

// CreateLinkCode issues a code the user sends to the bot as /start <code>.
func (s *TelegramService) CreateLinkCode(ctx context.Context, userId int64) (string, time.Time, error) {
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		_, err := loadUser(tx, userId)
		return err
	})
	if err != nil {
		return "", time.Time{}, err
	}
	code := util.GenerateLinkCode()
	if err := s.kv.Set(ctx, telegramLinkKeyspace+code, strconv.FormatInt(userId, 10), TELEGRAM_LINK_TTL); err != nil {
		return "", time.Time{}, err
	}
	return code, s.now().Add(TELEGRAM_LINK_TTL), nil
}

// Link consumes a link code and binds chatId to its user. A code works once.
func (s *TelegramService) Link(ctx context.Context, code string, chatId int64) (*models.User, error) {
	value, ok, err := s.kv.Take(ctx, telegramLinkKeyspace+code)
	if err != nil {
		return nil, observe("telegram.link", err)
	}
	if !ok {
		return nil, observe("telegram.link", models.ErrInvalidLinkCode)
	}
	userId, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, observe("telegram.link", models.ErrInvalidLinkCode)
	}

	var user *models.User
	err = s.store.Atomic(ctx, func(tx repositories.Tx) error {
		owner, err := tx.UserByTelegramChat(chatId)
		if err == nil && owner.UserId() != userId {
			return models.ErrTelegramAlreadyLinked
		}
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		user, err = loadUser(tx, userId)
		if err != nil {
			return err
		}
		user.TelegramChatId = sql.NullInt64{Int64: chatId, Valid: true}
		if err := saveUser(tx, user); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return models.ErrTelegramAlreadyLinked
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, observe("telegram.link", err)
	}
	log.Infof("Telegram chat %d linked to user %d", chatId, userId)
	return user, observe("telegram.link", nil)
}

func (s *TelegramService) Unlink(ctx context.Context, userId int64) error {
	return s.store.Atomic(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		user.TelegramChatId = sql.NullInt64{}
		return saveUser(tx, user)
	})
}
