// Package ingest turns incoming photos, videos and image or video documents
// into stickers of the user's current pack.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prilive-com/packbot/internal/archive"
	"github.com/prilive-com/packbot/internal/media"
	"github.com/prilive-com/packbot/internal/store"
	"github.com/prilive-com/packbot/sender"
	"github.com/prilive-com/packbot/tg"
)

// DefaultMaxInputBytes caps downloads, matching the Bot API getFile limit.
const DefaultMaxInputBytes = 20 << 20

// FileSource resolves and downloads Telegram files.
type FileSource interface {
	GetFile(ctx context.Context, fileID string) (*tg.File, error)
	DownloadFile(ctx context.Context, filePath string) ([]byte, error)
}

// Replier sends text replies.
type Replier interface {
	Send(ctx context.Context, chatID int64, text string, opts ...sender.SendOption) (*tg.Message, error)
}

// Item is one media message to ingest.
type Item struct {
	UserID  int64
	ChatID  int64
	Message *tg.Message
	Ticket  *Ticket
	// Logger carries request-scoped attributes; nil means the pipeline logger.
	Logger *slog.Logger
}

// Result summarizes a processed item.
type Result struct {
	Outcome Outcome
	Err     *Error
	Pack    store.Pack
	Reply   string
}

// Pipeline drives an item from classification to the confirmation reply.
type Pipeline struct {
	store      store.Store
	files      FileSource
	transcoder media.Transcoder
	publisher  *Publisher
	replier    Replier
	archiver   archive.Archiver
	maxInput   int64
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithArchiver stores a copy of every published artifact.
func WithArchiver(a archive.Archiver) Option {
	return func(p *Pipeline) { p.archiver = a }
}

// WithMaxInputBytes caps the size of accepted files.
func WithMaxInputBytes(n int64) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxInput = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// NewPipeline wires the pipeline collaborators.
func NewPipeline(s store.Store, files FileSource, tc media.Transcoder, pub *Publisher, r Replier, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:      s,
		files:      files,
		transcoder: tc,
		publisher:  pub,
		replier:    r,
		maxInput:   DefaultMaxInputBytes,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process ingests one item. Media-group items wait for their predecessor,
// hold their slot for the settle delay, and confirm only when they are the
// last queued item of the group. Failures are always reported.
func (p *Pipeline) Process(ctx context.Context, item Item) Result {
	logger := item.Logger
	if logger == nil {
		logger = p.logger
	}
	logger = logger.With("user_id", item.UserID, "chat_id", item.ChatID)
	if g := item.Ticket.Group(); g != "" {
		logger = logger.With("media_group_id", g)
	}

	if err := item.Ticket.Wait(ctx); err != nil {
		item.Ticket.Release()
		return Result{Outcome: Failed, Err: fail(KindNone, err)}
	}

	res := p.run(ctx, logger, item)

	item.Ticket.Settle(ctx)
	last := item.Ticket.Last()
	item.Ticket.Release()

	switch {
	case res.Err != nil:
		res.Reply = FailureText(res.Err.Kind)
		logger.Warn("item failed", "kind", res.Err.Kind.String(), "error", res.Err.Err)
	case last:
		res.Reply = SuccessText(res.Outcome, res.Pack.Name)
	default:
		logger.Debug("confirmation suppressed, group has queued items")
	}

	if res.Reply != "" {
		if _, err := p.replier.Send(ctx, item.ChatID, res.Reply, sender.WithoutPreview()); err != nil {
			logger.Warn("reply failed", "error", err)
		}
	}
	return res
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, item Item) Result {
	packID, ok, err := p.store.CurrentPackID(ctx, item.UserID)
	if err != nil {
		return Result{Err: fail(KindStore, err)}
	}
	if !ok {
		return Result{Err: fail(KindNoPackSelected, nil)}
	}

	pack, err := p.store.GetPack(ctx, packID)
	if errors.Is(err, store.ErrPackNotFound) {
		return Result{Err: fail(KindPackNotFound, err)}
	}
	if err != nil {
		return Result{Err: fail(KindStore, err)}
	}
	logger = logger.With("pack_id", pack.ID)

	src, ok := Classify(item.Message)
	if !ok {
		return Result{Pack: pack, Err: fail(KindUnsupportedMedia, nil)}
	}
	if src.Size > p.maxInput {
		return Result{Pack: pack, Err: fail(KindUnsupportedMedia,
			fmt.Errorf("file is %d bytes, limit %d", src.Size, p.maxInput))}
	}

	data, err := p.download(ctx, src.FileID)
	if err != nil {
		if errors.Is(err, tg.ErrResponseTooLarge) {
			return Result{Pack: pack, Err: fail(KindUnsupportedMedia, err)}
		}
		return Result{Pack: pack, Err: fail(KindRemoteAPI, err)}
	}

	art, err := p.transcoder.Transcode(ctx, data, src.Kind, pack.Type == store.TypeCustomEmoji)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedFormat) {
			return Result{Pack: pack, Err: fail(KindUnsupportedMedia, err)}
		}
		return Result{Pack: pack, Err: fail(KindTranscode, err)}
	}

	pub := p.publisher.Publish(ctx, item.UserID, pack, art)
	if !pub.Outcome.Succeeded() {
		return Result{Pack: pack, Outcome: Failed, Err: pub.Err}
	}
	logger.Info("sticker published", "outcome", pub.Outcome.String(), "format", art.Format)

	if p.archiver != nil {
		if key, err := p.archiver.Put(ctx, item.UserID, pack.Name, art); err != nil {
			logger.Warn("archive failed", "error", err)
		} else {
			logger.Debug("artifact archived", "key", key)
		}
	}
	return Result{Pack: pack, Outcome: pub.Outcome}
}

func (p *Pipeline) download(ctx context.Context, fileID string) ([]byte, error) {
	f, err := p.files.GetFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	if f.FileSize > p.maxInput {
		return nil, fmt.Errorf("%w: %d bytes", tg.ErrResponseTooLarge, f.FileSize)
	}
	data, err := p.files.DownloadFile(ctx, f.FilePath)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if int64(len(data)) > p.maxInput {
		return nil, tg.ErrResponseTooLarge
	}
	return data, nil
}

// Source identifies the file behind a media message.
type Source struct {
	FileID string
	Kind   media.Kind
	Size   int64
}

// Classify picks the file to ingest: the largest photo size, a video, or a
// document whose MIME type is an image or a video.
func Classify(msg *tg.Message) (Source, bool) {
	if msg == nil {
		return Source{}, false
	}
	if photo := msg.LargestPhoto(); photo != nil {
		return Source{FileID: photo.FileID, Kind: media.KindImage, Size: photo.FileSize}, true
	}
	if msg.Video != nil {
		return Source{FileID: msg.Video.FileID, Kind: media.KindVideo, Size: msg.Video.FileSize}, true
	}
	if doc := msg.Document; doc != nil {
		switch {
		case strings.HasPrefix(doc.MimeType, "image/"):
			return Source{FileID: doc.FileID, Kind: media.KindImage, Size: doc.FileSize}, true
		case strings.HasPrefix(doc.MimeType, "video/"):
			return Source{FileID: doc.FileID, Kind: media.KindVideo, Size: doc.FileSize}, true
		}
	}
	return Source{}, false
}

// IsMedia reports whether the message carries something the pipeline
// should look at, even if Classify later rejects it.
func IsMedia(msg *tg.Message) bool {
	return msg != nil && (len(msg.Photo) > 0 || msg.Video != nil || msg.Document != nil)
}
