// Package sender is the Bot API client used to answer users and manage
// their sticker sets.
//
// # Features
//
//   - Circuit breaker for fault tolerance
//   - Per-chat and global pacing
//   - Sticker set creation and appends with multipart uploads
//   - File download capped at a configurable size
//   - Callback query responses and inline keyboards
//
// The client does not retry. A 429 comes back as a *tg.APIError whose
// RetryAfter tells the caller how long to wait.
//
// # Usage
//
//	client, err := sender.New(token,
//	    sender.WithRateLimit(30, 50),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.AddStickerToSet(ctx, sender.AddStickerToSetRequest{
//	    UserID: userID,
//	    Name:   "stickers_42_1700000000_by_packbot",
//	    Sticker: sender.InputSticker{
//	        Sticker:   sender.FromBytes(png, "sticker.png"),
//	        Format:    sender.FormatStatic,
//	        EmojiList: []string{"😀"},
//	    },
//	})
package sender
