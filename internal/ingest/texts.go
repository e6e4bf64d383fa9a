package ingest

import "github.com/prilive-com/packbot/tg"

// User-facing replies.
const (
	TextNoPackSelected   = "First select or create a pack."
	TextPackNotFound     = "Can't find this pack, pick another one."
	TextUnsupportedMedia = "Send a picture or a video."
	TextTranscodeFailed  = "Couldn't convert this file, try another one."
	TextRateLimited      = "Telegram asked to slow down. Try again in a minute."
	TextRemoteFailed     = "Telegram rejected the sticker. Try again later."
	TextInternal         = "Something went wrong. Try again later."
)

// FailureText returns the reply for a failure kind.
func FailureText(kind Kind) string {
	switch kind {
	case KindNoPackSelected:
		return TextNoPackSelected
	case KindPackNotFound:
		return TextPackNotFound
	case KindUnsupportedMedia:
		return TextUnsupportedMedia
	case KindTranscode:
		return TextTranscodeFailed
	case KindRemoteRateLimited:
		return TextRateLimited
	case KindRemoteAPI, KindRemoteSetNotFound:
		return TextRemoteFailed
	default:
		return TextInternal
	}
}

// SuccessText returns the confirmation for a published sticker.
func SuccessText(outcome Outcome, setName string) string {
	link := tg.AddStickersURL(setName)
	if outcome == CreatedInstead {
		return "Created a new pack and added the sticker.\nLink: " + link
	}
	return "Done, added to the pack.\n" + link
}
