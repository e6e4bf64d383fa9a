package dispatch

import (
	"strconv"

	"github.com/prilive-com/packbot/internal/packs"
	"github.com/prilive-com/packbot/internal/store"
	"github.com/prilive-com/packbot/tg"
)

// Callback data.
const (
	CallbackCreatePack        = "create_pack"
	CallbackTypeRegular       = "type_regular"
	CallbackTypeCustomEmoji   = "type_custom_emoji"
	CallbackSelectPrefix      = "select_"
	CallbackDeletePack        = "delete_pack"
	CallbackStats             = "stats"
	CallbackCancelDelete      = "cancel_delete"
	CallbackCheckSubscription = "check_subscription"
)

// MainKeyboard lists the user's packs, then the create, delete and stats
// buttons. Delete appears only when a pack is selected.
func MainKeyboard(ov packs.Overview) *tg.InlineKeyboardMarkup {
	kb := tg.NewKeyboard()
	for _, p := range ov.Packs {
		label := typeIcon(p.Type) + " " + p.Title
		if ov.HasCurrent && p.ID == ov.CurrentID {
			label = "✅ " + label
		}
		kb.Row(tg.Btn(label, CallbackSelectPrefix+strconv.FormatInt(p.ID, 10)))
	}
	return kb.
		Row(tg.Btn("➕ Create new pack", CallbackCreatePack)).
		RowIf(ov.HasCurrent, tg.Btn("🗑 Delete current pack", CallbackDeletePack)).
		Row(tg.Btn("📊 Stats", CallbackStats)).
		Build()
}

// TypeKeyboard asks for the pack type.
func TypeKeyboard() *tg.InlineKeyboardMarkup {
	return tg.NewKeyboard().
		Row(tg.Btn("📦 Regular stickers", CallbackTypeRegular)).
		Row(tg.Btn("😀 Emoji pack", CallbackTypeCustomEmoji)).
		Build()
}

// RemovalKeyboard confirms the removal behind token.
func RemovalKeyboard(token string) *tg.InlineKeyboardMarkup {
	return tg.ConfirmCustom("🗑 Yes, delete", packs.RemovalPrefix+token, "❌ Cancel", CallbackCancelDelete)
}

// JoinKeyboard links to the required channel and offers a re-check.
func JoinKeyboard(channelURL string) *tg.InlineKeyboardMarkup {
	return tg.NewKeyboard().
		Row(tg.BtnURL("🔗 Subscribe to channel", channelURL)).
		Row(tg.Btn("✅ I subscribed", CallbackCheckSubscription)).
		Build()
}

func typeIcon(t store.PackType) string {
	if t == store.TypeCustomEmoji {
		return "😀"
	}
	return "📦"
}
