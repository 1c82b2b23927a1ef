package util

import (
	"context"
	"sync"

	"taskhub/internal/core/interfaces"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Pages remembers the list page each chat is looking at.
type Pages struct {
	mu    sync.Mutex
	pages map[int64]int
}

func NewPages() *Pages {
	return &Pages{pages: map[int64]int{}}
}

func (p *Pages) Get(chatId int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pages[chatId]
}

func (p *Pages) Next(chatId int64, totalPages int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pages[chatId]+1 < totalPages {
		p.pages[chatId]++
	}
	return p.pages[chatId]
}

func (p *Pages) Back(chatId int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pages[chatId] > 0 {
		p.pages[chatId]--
	}
	return p.pages[chatId]
}

func (p *Pages) Reset(chatId int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pages, chatId)
}

func NextPage(ctx context.Context, callback *models.CallbackQuery, pages *Pages, totalPages int, b *bot.Bot, c interfaces.Command[*models.Message]) {
	if err := CheckTypeMessage(ctx, b, callback); err != nil {
		return
	}
	msg := callback.Message.Message
	pages.Next(msg.Chat.ID, totalPages)
	c.Execute(ctx, msg)
}

func BackPage(ctx context.Context, callback *models.CallbackQuery, pages *Pages, b *bot.Bot, c interfaces.Command[*models.Message]) {
	if err := CheckTypeMessage(ctx, b, callback); err != nil {
		return
	}
	msg := callback.Message.Message
	pages.Back(msg.Chat.ID)
	c.Execute(ctx, msg)
}

func CloseList(ctx context.Context, callback *models.CallbackQuery, pages *Pages, b *bot.Bot) {
	if err := CheckTypeMessage(ctx, b, callback); err != nil {
		return
	}
	msg := callback.Message.Message
	pages.Reset(msg.Chat.ID)

	if err := DeleteMessage(ctx, b, msg.Chat.ID, msg.ID); err != nil {
		log.Error(err)
	}
}
