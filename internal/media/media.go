// Package media turns user images and videos into sticker-ready artifacts.
//
// Images become PNG: 512 on the longer side for regular packs, or centered
// on a transparent 100x100 canvas for emoji packs. Videos are re-encoded to
// VP9 WebM by ffmpeg with a fixed recipe.
package media

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the declared media kind of an input.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
)

func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "image"
}

// Sticker formats, matching the Bot API values.
const (
	FormatStatic = "static"
	FormatVideo  = "video"
)

// Size limits.
const (
	StickerSide = 512
	EmojiSide   = 100
)

// ErrUnsupportedFormat is wrapped by a TranscodeError when the content is
// not a decodable image or video.
var ErrUnsupportedFormat = errors.New("packbot/media: unsupported format")

// Artifact is a transcoded sticker file.
type Artifact struct {
	Data     []byte
	Format   string
	FileName string
	MIME     string
	Width    int
	Height   int
}

// TranscodeError reports a failed conversion. Stderr carries the tool
// diagnostic for video failures.
type TranscodeError struct {
	Kind   Kind
	Stage  string
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	msg := fmt.Sprintf("packbot/media: %s %s failed", e.Kind, e.Stage)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += " (" + e.Stderr + ")"
	}
	return msg
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// Transcoder is the seam the ingestion pipeline depends on.
type Transcoder interface {
	Transcode(ctx context.Context, data []byte, kind Kind, emoji bool) (Artifact, error)
}
