package util

import (
	"github.com/go-telegram/bot/models"
)

// rowsOf splits items into rows of at most perRow. perRow below one puts everything in one row.
func rowsOf[T any](perRow int, items []T) [][]T {
	if len(items) == 0 {
		return [][]T{}
	}
	if perRow < 1 {
		perRow = len(items)
	}
	rows := make([][]T, 0, (len(items)+perRow-1)/perRow)
	for start := 0; start < len(items); start += perRow {
		end := min(start+perRow, len(items))
		rows = append(rows, items[start:end:end])
	}
	return rows
}

func CallbackButton(id, text string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: id}
}

func InlineMarkup(perRow int, buttons ...models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: rowsOf(perRow, buttons)}
}

// ReplyMarkup lays out the persistent menu keyboard.
func ReplyMarkup(perRow int, labels ...string) *models.ReplyKeyboardMarkup {
	keys := make([]models.KeyboardButton, 0, len(labels))
	for _, l := range labels {
		keys = append(keys, models.KeyboardButton{Text: l})
	}
	return &models.ReplyKeyboardMarkup{Keyboard: rowsOf(perRow, keys), ResizeKeyboard: true}
}

// GenerateNextBackMenu builds a paging row (back, close, next) under the list rows.
// Back is hidden on the first page, next on the last.
func GenerateNextBackMenu(page, totalPages int, nextId, backId, closeId string, rows ...models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	markup := InlineMarkup(1, rows...)

	nav := make([]models.InlineKeyboardButton, 0, 3)
	if page > 0 {
		nav = append(nav, CallbackButton(backId, "⏮️"))
	}
	nav = append(nav, CallbackButton(closeId, "✖️"))
	if page+1 < totalPages {
		nav = append(nav, CallbackButton(nextId, "⏭️"))
	}
	markup.InlineKeyboard = append(markup.InlineKeyboard, nav)
	return markup
}
