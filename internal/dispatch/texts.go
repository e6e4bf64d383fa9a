package dispatch

import (
	"fmt"

	"github.com/prilive-com/packbot/internal/store"
)

// User-facing texts of the dialogue and menus.
const (
	TextStart = "Hi! I turn your pictures into stickers.\n\n" +
		"Pick a pack below or create a new one, then send a picture " +
		"(or a video for a video sticker)."
	TextAskTitle        = "Send a title for the sticker pack."
	TextInvalidTitle    = "The title must be 1 to 64 characters. Send another one."
	TextChooseType      = "Now choose the pack type:"
	TextDraftExpired    = "Pack creation has expired. Press \"Create new pack\" again."
	TextNameTaken       = "Couldn't create the pack, try again in a second."
	TextPackSelected    = "Pack selected!"
	TextPackUnavailable = "This pack is no longer available."
	TextPackDeleted     = "Pack removed from the list (it stays in Telegram if it had stickers). " +
		"Pick another one or create a new one."

	TextRemovalPrompt  = "Want to delete this sticker from the pack?"
	TextStickerDeleted = "Sticker deleted."
	TextDeleteFailed   = "Deletion error. The sticker may already be gone."
	TextRemovalExpired = "This request has expired. Send the sticker again."

	TextJoinPrompt = "To use the bot, subscribe to the channel first.\n" +
		"Then press \"I subscribed\"."
	TextNotSubscribed        = "You haven't subscribed yet!"
	TextChannelNotConfigured = "The channel is not configured."
	TextCheckFailed          = "Couldn't check the subscription, try again later."
)

// PackCreatedText confirms a new pack.
func PackCreatedText(p store.Pack) string {
	return fmt.Sprintf("Pack '%s' (%s) created, now send a picture.", p.Title, typeLabel(p.Type))
}

// StatsText reports the number of packs a user has.
func StatsText(n int) string {
	if n == 1 {
		return "You have 1 pack in the bot's database."
	}
	return fmt.Sprintf("You have %d packs in the bot's database.", n)
}

func typeLabel(t store.PackType) string {
	if t == store.TypeCustomEmoji {
		return "emoji pack"
	}
	return "sticker pack"
}
