// Package api implements a thin client for a Telegram-style Bot HTTP API
// together with the typed update model produced from its wire payloads.
package api

// Parse modes accepted by sendMessage. Escaping text for a parse mode is the
// caller's responsibility; the upstream API rejects malformed markup.
const (
	ModeMarkdownV2 = "MarkdownV2"
	ModeHTML       = "HTML"
)

// EntityBotCommand is the entity type tag marking a command token.
const EntityBotCommand = "bot_command"

// User identifies a messaging account.
type User struct {
	ID        int64
	IsBot     bool
	FirstName string
	Username  string
}

// MessageEntity is a classified span inside a message text.
type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// Message is a single inbound chat message.
// IsCommand is derived at parse time from the entity list and is true iff
// the first entity is tagged as a bot command.
type Message struct {
	ID        int64
	ChatID    int64
	Sender    *User
	Text      string
	IsCommand bool
}

// CallbackQuery is an inline-keyboard button press.
type CallbackQuery struct {
	ID      string
	Sender  *User
	Message *Message
	Data    string
}

// Update is one unit of inbound activity. Under normal operation at most one
// of Message and CallbackQuery is populated, but both are structurally
// optional and consumers must check them independently.
type Update struct {
	UpdateID      int64
	Message       *Message
	CallbackQuery *CallbackQuery
}

// BotCommand is a {trigger, description} pair as registered with the API.
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// InlineKeyboardButton is a single button of an inline keyboard.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

// InlineKeyboardMarkup attaches an inline keyboard to an outbound message.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// Row builds a single keyboard row from the given buttons.
func Row(buttons ...InlineKeyboardButton) []InlineKeyboardButton {
	return buttons
}

// Keyboard builds an inline keyboard markup from rows.
func Keyboard(rows ...[]InlineKeyboardButton) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

// SendOptions controls optional sendMessage parameters.
type SendOptions struct {
	ParseMode           string
	ReplyMarkup         *InlineKeyboardMarkup
	DisableNotification bool
}
