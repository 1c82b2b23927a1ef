package tgbot

import (
	"fmt"
	"html"
	"strings"

	appModels "taskhub/internal/models"
	"taskhub/internal/services"
)

// Inbox messages carry translation keys; the bot renders the English copy.
var messageTexts = map[string]string{
	services.MESSAGE_SYSTEM_NOTICE:      "📢 System notice",
	services.MESSAGE_RECHARGE_TITLE:     "✅ Recharge credited",
	services.MESSAGE_RECHARGE_CONTENT:   "Your recharge of {amount} {currency} was approved and added to your main balance.",
	services.MESSAGE_WITHDRAWAL_TITLE:   "✅ Withdrawal sent",
	services.MESSAGE_WITHDRAWAL_CONTENT: "Your withdrawal of {amount} {currency} was approved and is on its way.",
}

func translate(key string, params appModels.StringMap) string {
	text, ok := messageTexts[key]
	if !ok {
		text = key
	}
	for name, value := range params {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return html.EscapeString(text)
}

// RenderMessage formats an inbox message for a chat.
func RenderMessage(msg *appModels.Message) string {
	title := translate(msg.Title, msg.Params)
	content := translate(msg.Content, msg.Params)
	if content == "" {
		return fmt.Sprintf("<b>%v</b>", title)
	}
	return fmt.Sprintf("<b>%v</b>\n\n%v", title, content)
}
