package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/prilive-com/packbot/internal/access"
	"github.com/prilive-com/packbot/internal/ingest"
	"github.com/prilive-com/packbot/internal/packs"
	"github.com/prilive-com/packbot/internal/store"
	"github.com/prilive-com/packbot/sender"
	"github.com/prilive-com/packbot/tg"
)

func (d *Dispatcher) onMessage(ctx context.Context, logger *slog.Logger, msg *tg.Message, userID int64, ticket *ingest.Ticket) {
	chatID := msg.ChatIDValue()
	logger = logger.With("chat_id", chatID)

	if d.gate.Check(ctx, userID) == access.Blocked {
		logger.Info("user not subscribed, prompting to join")
		d.deleteMessage(ctx, logger, msg)
		d.send(ctx, logger, chatID, TextJoinPrompt, sender.WithKeyboard(JoinKeyboard(d.gate.ChannelURL())))
		return
	}

	switch {
	case msg.IsCommand("start"):
		d.start(ctx, logger, userID, chatID)
	case msg.Sticker != nil:
		d.offerRemoval(ctx, logger, msg, userID)
	case ingest.IsMedia(msg):
		d.media.Process(ctx, ingest.Item{
			UserID:  userID,
			ChatID:  chatID,
			Message: msg,
			Ticket:  ticket,
			Logger:  logger,
		})
	case msg.Text != "" && !strings.HasPrefix(msg.Text, "/") && d.packs.State(userID) == packs.AwaitingTitle:
		d.submitTitle(ctx, logger, msg, userID)
	default:
		logger.Debug("message ignored")
	}
}

func (d *Dispatcher) start(ctx context.Context, logger *slog.Logger, userID, chatID int64) {
	ov, err := d.packs.Overview(ctx, userID)
	if err != nil {
		d.fail(ctx, logger, chatID, "load packs", err)
		return
	}
	d.send(ctx, logger, chatID, TextStart, sender.WithKeyboard(MainKeyboard(ov)))
}

func (d *Dispatcher) submitTitle(ctx context.Context, logger *slog.Logger, msg *tg.Message, userID int64) {
	chatID := msg.ChatIDValue()
	if _, err := d.packs.SubmitTitle(userID, msg.Text); err != nil {
		if errors.Is(err, packs.ErrInvalidTitle) {
			d.send(ctx, logger, chatID, TextInvalidTitle)
			return
		}
		d.fail(ctx, logger, chatID, "submit title", err)
		return
	}
	d.send(ctx, logger, chatID, TextChooseType, sender.WithKeyboard(TypeKeyboard()))
}

func (d *Dispatcher) offerRemoval(ctx context.Context, logger *slog.Logger, msg *tg.Message, userID int64) {
	if !d.packs.OwnsSet(userID, msg.Sticker.SetName) {
		logger.Debug("sticker from a foreign set ignored", "set_name", msg.Sticker.SetName)
		return
	}
	token := d.removals.Offer(userID, msg.Sticker.FileID)
	d.send(ctx, logger, msg.ChatIDValue(), TextRemovalPrompt,
		sender.WithReplyTo(msg.MessageID),
		sender.WithKeyboard(RemovalKeyboard(token)),
	)
}

func (d *Dispatcher) onCallback(ctx context.Context, logger *slog.Logger, cb *tg.CallbackQuery, userID int64) {
	chatID := cb.ChatIDValue()
	logger = logger.With("chat_id", chatID, "callback_data", cb.Data)

	if cb.Data == CallbackCheckSubscription {
		d.checkSubscription(ctx, logger, cb, userID)
		return
	}

	if d.gate.Check(ctx, userID) == access.Blocked {
		d.answer(ctx, logger, cb, sender.AnswerText(TextNotSubscribed), sender.Alert())
		d.send(ctx, logger, chatID, TextJoinPrompt, sender.WithKeyboard(JoinKeyboard(d.gate.ChannelURL())))
		return
	}

	switch data := cb.Data; {
	case data == CallbackCreatePack:
		d.packs.BeginCreate(userID)
		d.answer(ctx, logger, cb)
		d.send(ctx, logger, chatID, TextAskTitle)
	case data == CallbackTypeRegular:
		d.chooseType(ctx, logger, cb, userID, store.TypeRegular)
	case data == CallbackTypeCustomEmoji:
		d.chooseType(ctx, logger, cb, userID, store.TypeCustomEmoji)
	case strings.HasPrefix(data, CallbackSelectPrefix):
		d.selectPack(ctx, logger, cb, userID, strings.TrimPrefix(data, CallbackSelectPrefix))
	case data == CallbackDeletePack:
		d.deletePack(ctx, logger, cb, userID)
	case data == CallbackStats:
		d.stats(ctx, logger, cb, userID)
	case strings.HasPrefix(data, packs.RemovalPrefix):
		d.removeSticker(ctx, logger, cb, userID, strings.TrimPrefix(data, packs.RemovalPrefix))
	case data == CallbackCancelDelete:
		d.deleteMessage(ctx, logger, cb.Message)
		d.answer(ctx, logger, cb)
	default:
		logger.Debug("unknown callback")
		d.answer(ctx, logger, cb)
	}
}

func (d *Dispatcher) chooseType(ctx context.Context, logger *slog.Logger, cb *tg.CallbackQuery, userID int64, typ store.PackType) {
	chatID := cb.ChatIDValue()
	pack, err := d.packs.ChooseType(ctx, userID, typ)
	switch {
	case errors.Is(err, packs.ErrNoDraft):
		d.answer(ctx, logger, cb, sender.AnswerText(TextDraftExpired), sender.Alert())
		return
	case errors.Is(err, store.ErrDuplicateName):
		logger.Warn("derived pack name collided", "error", err)
		d.answer(ctx, logger, cb)
		d.send(ctx, logger, chatID, TextNameTaken)
		return
	case err != nil:
		d.answer(ctx, logger, cb)
		d.fail(ctx, logger, chatID, "create pack", err)
		return
	}

	d.answer(ctx, logger, cb)
	ov, err := d.packs.Overview(ctx, userID)
	if err != nil {
		d.fail(ctx, logger, chatID, "load packs", err)
		return
	}
	d.send(ctx, logger, chatID, PackCreatedText(pack), sender.WithKeyboard(MainKeyboard(ov)))
}

func (d *Dispatcher) selectPack(ctx context.Context, logger *slog.Logger, cb *tg.CallbackQuery, userID int64, rawID string) {
	packID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		logger.Debug("malformed pack id", "raw", rawID)
		d.answer(ctx, logger, cb)
		return
	}

	if _, err := d.packs.Select(ctx, userID, packID); err != nil {
		if errors.Is(err, store.ErrNotOwner) || errors.Is(err, store.ErrPackNotFound) {
			d.answer(ctx, logger, cb, sender.AnswerText(TextPackUnavailable), sender.Alert())
			return
		}
		d.answer(ctx, logger, cb)
		d.fail(ctx, logger, cb.ChatIDValue(), "select pack", err)
		return
	}

	if ov, err := d.packs.Overview(ctx, userID); err != nil {
		logger.Warn("load packs failed", "error", err)
	} else if cb.Message != nil {
		chatID, msgID := cb.Message.Sig()
		err := d.api.EditMessageReplyMarkup(ctx, sender.EditMessageReplyMarkupRequest{
			ChatID:      chatID,
			MessageID:   msgID,
			ReplyMarkup: MainKeyboard(ov),
		})
		if err != nil {
			logger.Debug("refresh keyboard failed", "error", err)
		}
	}
	d.answer(ctx, logger, cb, sender.AnswerText(TextPackSelected))
}

func (d *Dispatcher) deletePack(ctx context.Context, logger *slog.Logger, cb *tg.CallbackQuery, userID int64) {
	if _, err := d.packs.DeleteCurrent(ctx, userID); err != nil {
		if errors.Is(err, packs.ErrNoCurrentPack) || errors.Is(err, store.ErrPackNotFound) {
			d.answer(ctx, logger, cb, sender.AnswerText(ingest.TextNoPackSelected), sender.Alert())
			return
		}
		d.answer(ctx, logger, cb)
		d.fail(ctx, logger, cb.ChatIDValue(), "delete pack", err)
		return
	}

	ov, err := d.packs.Overview(ctx, userID)
	if err != nil {
		d.answer(ctx, logger, cb)
		d.fail(ctx, logger, cb.ChatIDValue(), "load packs", err)
		return
	}
	if cb.Message != nil {
		chatID, msgID := cb.Message.Sig()
		err := d.api.EditMessageText(ctx, sender.EditMessageTextRequest{
			ChatID:      chatID,
			MessageID:   msgID,
			Text:        TextPackDeleted,
			ReplyMarkup: MainKeyboard(ov),
		})
		if err != nil {
			logger.Debug("refresh menu failed", "error", err)
		}
	}
	d.answer(ctx, logger, cb)
}

func (d *Dispatcher) stats(ctx context.Context, logger *slog.Logger, cb *tg.CallbackQuery, userID int64) {
	n, err := d.packs.Stats(ctx, userID)
	if err != nil {
		logger.Error("count packs failed", "error", err)
		d.answer(ctx, logger, cb, sender.AnswerText(ingest.TextInternal), sender.Alert())
		return
	}
	d.answer(ctx, logger, cb, sender.AnswerText(StatsText(n)), sender.Alert())
}

func (d *Dispatcher) removeSticker(ctx context.Context, logger *slog.Logger, cb *tg.CallbackQuery, userID int64, token string) {
	text := TextStickerDeleted
	fileID, ok := d.removals.Take(userID, token)
	switch {
	case !ok:
		text = TextRemovalExpired
	default:
		if err := d.api.DeleteStickerFromSet(ctx, fileID); err != nil {
			logger.Warn("delete sticker failed", "error", err)
			text = TextDeleteFailed
		} else {
			logger.Info("sticker deleted")
		}
	}

	if cb.Message != nil {
		chatID, msgID := cb.Message.Sig()
		err := d.api.EditMessageText(ctx, sender.EditMessageTextRequest{
			ChatID:    chatID,
			MessageID: msgID,
			Text:      text,
		})
		if err != nil {
			logger.Debug("edit removal prompt failed", "error", err)
		}
	}
	d.answer(ctx, logger, cb)
}

func (d *Dispatcher) checkSubscription(ctx context.Context, logger *slog.Logger, cb *tg.CallbackQuery, userID int64) {
	dec, err := d.gate.Recheck(ctx, userID)
	switch {
	case errors.Is(err, access.ErrNotConfigured):
		d.answer(ctx, logger, cb, sender.AnswerText(TextChannelNotConfigured), sender.Alert())
	case err != nil:
		logger.Warn("subscription re-check failed", "error", err)
		d.answer(ctx, logger, cb, sender.AnswerText(TextCheckFailed), sender.Alert())
	case dec == access.Blocked:
		d.answer(ctx, logger, cb, sender.AnswerText(TextNotSubscribed), sender.Alert())
	default:
		d.deleteMessage(ctx, logger, cb.Message)
		d.answer(ctx, logger, cb)
		d.start(ctx, logger, userID, cb.ChatIDValue())
	}
}

// fail reports an unexpected error with one generic reply.
func (d *Dispatcher) fail(ctx context.Context, logger *slog.Logger, chatID int64, op string, err error) {
	if isContextErr(err) {
		logger.Debug(op+" interrupted", "error", err)
		return
	}
	logger.Error(op+" failed", "error", err)
	d.send(ctx, logger, chatID, ingest.TextInternal)
}
