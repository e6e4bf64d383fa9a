// Package tg holds the Telegram Bot API types shared by receiver, sender and
// the bot's handlers.
//
// This package contains:
//   - The subset of API types the bot decodes (Update, Message, CallbackQuery,
//     Sticker, File, ChatMember)
//   - Error types and sentinel errors, including the sticker-set signals the
//     ingestion pipeline branches on
//   - SecretToken for safe token handling
//   - Inline keyboard builders
//
// # Usage
//
//	import "github.com/prilive-com/packbot/tg"
//
//	if errors.Is(err, tg.ErrStickerSetInvalid) {
//	    // create the set instead of appending
//	}
//	if d, ok := tg.RetryAfterOf(err); ok {
//	    // wait d and retry once
//	}
package tg
