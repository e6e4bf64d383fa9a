package media

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TranscodeImage converts an image to a sticker PNG.
func TranscodeImage(data []byte, emoji bool) (Artifact, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Artifact{}, &TranscodeError{Kind: KindImage, Stage: "sniff",
			Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())}
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Artifact{}, &TranscodeError{Kind: KindImage, Stage: "decode",
			Err: fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)}
	}

	var out *image.NRGBA
	if emoji {
		out = emojiCanvas(toNRGBA(src))
	} else {
		b := src.Bounds()
		w, h := TargetSize(b.Dx(), b.Dy())
		out = toNRGBA(resize.Resize(uint(w), uint(h), toNRGBA(src), resize.Lanczos3))
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, out); err != nil {
		return Artifact{}, &TranscodeError{Kind: KindImage, Stage: "encode", Err: err}
	}

	return Artifact{
		Data:     buf.Bytes(),
		Format:   FormatStatic,
		FileName: "sticker.png",
		MIME:     "image/png",
		Width:    out.Bounds().Dx(),
		Height:   out.Bounds().Dy(),
	}, nil
}

// TargetSize scales (w, h) so the longer side is exactly 512. The shorter
// side is rounded and never drops below 1.
func TargetSize(w, h int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scaled := func(short, long int) int {
		return max(1, int(math.Round(float64(short)*StickerSide/float64(long))))
	}
	if w >= h {
		return StickerSide, scaled(h, w)
	}
	return scaled(w, h), StickerSide
}

// emojiCanvas shrinks src to fit 100x100 and centers it on a transparent
// canvas. Smaller sources are not enlarged.
func emojiCanvas(src *image.NRGBA) *image.NRGBA {
	fitted := resize.Thumbnail(EmojiSide, EmojiSide, src, resize.Lanczos3)
	fb := fitted.Bounds()

	canvas := image.NewNRGBA(image.Rect(0, 0, EmojiSide, EmojiSide))
	offset := image.Pt((EmojiSide-fb.Dx())/2, (EmojiSide-fb.Dy())/2)
	draw.Draw(canvas, fb.Sub(fb.Min).Add(offset), fitted, fb.Min, draw.Over)
	return canvas
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
