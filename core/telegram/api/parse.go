package api

import "encoding/json"

// ParseUpdate builds an Update from a raw wire payload.
//
// Parsing is deliberately lenient: unknown or absent keys resolve to absent
// optional fields, and any shape mismatch (wrong type, missing entity list)
// is treated as "field absent" rather than an error. This mirrors the
// upstream API's habit of omitting keys instead of sending nulls.
func ParseUpdate(raw json.RawMessage) Update {
	obj := objectOf(raw)
	up := Update{
		UpdateID: int64Of(obj, "update_id"),
	}
	if msg, ok := obj["message"]; ok {
		up.Message = parseMessage(msg)
	}
	if cb, ok := obj["callback_query"]; ok {
		up.CallbackQuery = parseCallbackQuery(cb)
	}
	return up
}

func parseMessage(raw json.RawMessage) *Message {
	obj := objectOf(raw)
	if obj == nil {
		return nil
	}
	msg := &Message{
		ID:   int64Of(obj, "message_id"),
		Text: stringOf(obj, "text"),
	}
	if chat := objectOf(obj["chat"]); chat != nil {
		msg.ChatID = int64Of(chat, "id")
	}
	if from, ok := obj["from"]; ok {
		msg.Sender = parseUser(from)
	}
	msg.IsCommand = firstEntityIsCommand(obj["entities"])
	return msg
}

func parseCallbackQuery(raw json.RawMessage) *CallbackQuery {
	obj := objectOf(raw)
	if obj == nil {
		return nil
	}
	cb := &CallbackQuery{
		ID:   stringOf(obj, "id"),
		Data: stringOf(obj, "data"),
	}
	if from, ok := obj["from"]; ok {
		cb.Sender = parseUser(from)
	}
	if msg, ok := obj["message"]; ok {
		cb.Message = parseMessage(msg)
	}
	return cb
}

func parseUser(raw json.RawMessage) *User {
	obj := objectOf(raw)
	if obj == nil {
		return nil
	}
	return &User{
		ID:        int64Of(obj, "id"),
		IsBot:     boolOf(obj, "is_bot"),
		FirstName: stringOf(obj, "first_name"),
		Username:  stringOf(obj, "username"),
	}
}

// firstEntityIsCommand reports whether the first classified entity span is a
// command token. Missing or malformed entity lists mean "not a command".
func firstEntityIsCommand(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var entities []MessageEntity
	if err := json.Unmarshal(raw, &entities); err != nil {
		return false
	}
	if len(entities) == 0 {
		return false
	}
	return entities[0].Type == EntityBotCommand
}

func objectOf(raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	obj := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

func stringOf(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func int64Of(obj map[string]json.RawMessage, key string) int64 {
	raw, ok := obj[key]
	if !ok {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	return n
}

func boolOf(obj map[string]json.RawMessage, key string) bool {
	raw, ok := obj[key]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}
