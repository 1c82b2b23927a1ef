package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

const (
	MESSAGE_SYSTEM_NOTICE = "systemNotice"

	MESSAGE_RECHARGE_TITLE     = "tx_recharge_success_title"
	MESSAGE_RECHARGE_CONTENT   = "tx_recharge_success_content"
	MESSAGE_WITHDRAWAL_TITLE   = "tx_withdrawal_success_title"
	MESSAGE_WITHDRAWAL_CONTENT = "tx_withdrawal_success_content"
)

// Notifier delivers a message outside the inbox, e.g. to a linked Telegram chat.
type Notifier interface {
	Notify(ctx context.Context, chatId int64, msg *models.Message) error
}

type NotificationService struct {
	store    repositories.Store
	notifier Notifier
	now      Clock
}

func NewNotificationService(store repositories.Store, now Clock) *NotificationService {
	return &NotificationService{
		store: store,
		now:   defaultClock(now),
	}
}

// SetNotifier attaches a push channel; the bot is built after the services.
func (s *NotificationService) SetNotifier(n Notifier) {
	s.notifier = n
}

// createMessage stores an inbox message inside an open transaction; recipient 0 addresses everybody.
func createMessage(tx repositories.Tx, recipient int64, title, content string, params models.StringMap, at time.Time) (*models.Message, error) {
	msg := &models.Message{
		Title:     title,
		Content:   content,
		Params:    params,
		CreatedAt: at,
	}
	if recipient != 0 {
		msg.RecipientId = sql.NullInt64{Int64: recipient, Valid: true}
	}
	if err := tx.CreateMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Push forwards a committed direct message to the recipient's Telegram chat when one is linked.
// Delivery failures are logged, the inbox copy stays the source of truth.
func (s *NotificationService) Push(ctx context.Context, msg *models.Message) {
	if s == nil || s.notifier == nil || msg == nil || !msg.RecipientId.Valid {
		return
	}
	var chatId int64
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, msg.RecipientId.Int64)
		if err != nil {
			return err
		}
		chatId = user.TelegramChatId.Int64
		return nil
	})
	if err != nil {
		log.Warnf("Can't load recipient of message %d: %v", msg.Id, err)
		return
	}
	if chatId == 0 {
		return
	}
	if err := s.notifier.Notify(ctx, chatId, msg); err != nil {
		log.Warnf("Failed to push message %d to chat %d: %v", msg.Id, chatId, err)
	}
}

// Send stores a message for one user, or for everyone when recipient is 0.
func (s *NotificationService) Send(ctx context.Context, recipient int64, title, content string, params models.StringMap) (*models.Message, error) {
	if title == "" {
		return nil, observe("message.send", models.ErrInvalidSettings)
	}
	var msg *models.Message
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		if recipient != 0 {
			if _, err := loadUser(tx, recipient); err != nil {
				return err
			}
		}
		var err error
		msg, err = createMessage(tx, recipient, title, content, params, s.now())
		return err
	})
	if err != nil {
		return nil, observe("message.send", err)
	}
	s.Push(ctx, msg)
	return msg, observe("message.send", nil)
}

// MessageView is an inbox entry with its read flag.
type MessageView struct {
	models.Message
	Read bool `json:"read"`
}

// ListForUser returns the user's inbox, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userId int64) ([]MessageView, error) {
	var res []MessageView
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		msgs, err := tx.MessagesFor(userId)
		if err != nil {
			return err
		}
		res = make([]MessageView, 0, len(msgs))
		for _, m := range msgs {
			res = append(res, MessageView{Message: m, Read: user.HasReadMessage(m.Id)})
		}
		return nil
	})
	return res, err
}

func (s *NotificationService) UnreadCount(ctx context.Context, userId int64) (int, error) {
	msgs, err := s.ListForUser(ctx, userId)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range msgs {
		if !m.Read {
			count++
		}
	}
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userId, messageId int64) error {
	return s.store.Atomic(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		msg, err := tx.MessageById(messageId)
		if errors.Is(err, repositories.ErrNotFound) || (err == nil && !msg.IsFor(userId)) {
			return models.ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		if user.HasReadMessage(messageId) {
			return nil
		}
		user.ReadMessageIds = append(user.ReadMessageIds, messageId)
		return saveUser(tx, user)
	})
}

// List is the operator view of every message.
func (s *NotificationService) List(ctx context.Context, offset, limit int) ([]models.Message, error) {
	var res []models.Message
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		var err error
		res, err = tx.Messages(offset, limit)
		return err
	})
	return res, err
}

func (s *NotificationService) Delete(ctx context.Context, id int64) error {
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		err := tx.DeleteMessage(id)
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ErrMessageNotFound
		}
		return err
	})
	return observe("admin.delete_message", err)
}
