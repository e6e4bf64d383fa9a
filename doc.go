// Package packbot is a Telegram bot that turns the pictures and videos users
// send into stickers and custom emoji, stored in sticker sets the bot creates
// on their behalf.
//
// # Quick Start
//
//	cfg, err := config.Load(config.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	bot, err := packbot.New(ctx, *cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := bot.Run(ctx); err != nil {
//	    log.Print(err)
//	}
//	_ = bot.Shutdown(shutdownCtx)
//
// # Layout
//
// The Bot API client lives in sender, long polling in receiver and the wire
// types in tg. The bot itself is assembled from internal packages:
//
//   - dispatch routes updates, applies the cooldown and the subscription gate
//   - packs holds the pack dialogue (drafts, selection, sticker removal)
//   - ingest downloads, converts and publishes media, one album at a time
//   - media wraps ffmpeg for image and video conversion
//   - store persists packs in memory or PostgreSQL
//   - cooldown throttles users in memory or Redis
//   - archive optionally keeps converted artifacts in S3-compatible storage
//   - jobs, health and config provide housekeeping, probes and settings
package packbot
