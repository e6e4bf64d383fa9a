package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prilive-com/packbot/internal/media"
	"github.com/prilive-com/packbot/sender"
	"github.com/prilive-com/packbot/tg"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStickerAPI replays scripted errors for append and create calls.
type fakeStickerAPI struct {
	mu         sync.Mutex
	appendErrs []error
	createErr  error
	appends    []sender.AddStickerToSetRequest
	creates    []sender.CreateNewStickerSetRequest

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func (f *fakeStickerAPI) AddStickerToSet(_ context.Context, req sender.AddStickerToSetRequest) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends = append(f.appends, req)
	if len(f.appendErrs) == 0 {
		return nil
	}
	err := f.appendErrs[0]
	f.appendErrs = f.appendErrs[1:]
	return err
}

func (f *fakeStickerAPI) CreateNewStickerSet(_ context.Context, req sender.CreateNewStickerSetRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, req)
	return f.createErr
}

func (f *fakeStickerAPI) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appends), len(f.creates)
}

type fakeFiles struct {
	data    []byte
	size    int64
	getErr  error
	fetched []string
	mu      sync.Mutex
}

func (f *fakeFiles) GetFile(_ context.Context, fileID string) (*tg.File, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, fileID)
	f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &tg.File{FileID: fileID, FilePath: "photos/" + fileID, FileSize: f.size}, nil
}

func (f *fakeFiles) DownloadFile(context.Context, string) ([]byte, error) {
	return f.data, nil
}

type fakeTranscoder struct {
	err   error
	kinds []media.Kind
	emoji []bool
	mu    sync.Mutex
}

func (f *fakeTranscoder) Transcode(_ context.Context, data []byte, kind media.Kind, emoji bool) (media.Artifact, error) {
	f.mu.Lock()
	f.kinds = append(f.kinds, kind)
	f.emoji = append(f.emoji, emoji)
	f.mu.Unlock()
	if f.err != nil {
		return media.Artifact{}, f.err
	}
	format := media.FormatStatic
	if kind == media.KindVideo {
		format = media.FormatVideo
	}
	return media.Artifact{Data: data, Format: format, FileName: "sticker.png", MIME: "image/png"}, nil
}

type sentReply struct {
	chatID int64
	text   string
}

type fakeReplier struct {
	mu      sync.Mutex
	replies []sentReply
}

func (f *fakeReplier) Send(_ context.Context, chatID int64, text string, _ ...sender.SendOption) (*tg.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, sentReply{chatID, text})
	return &tg.Message{MessageID: len(f.replies)}, nil
}

func (f *fakeReplier) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.replies))
	for i, r := range f.replies {
		out[i] = r.text
	}
	return out
}

type fakeArchiver struct {
	err  error
	keys []string
}

func (f *fakeArchiver) Put(_ context.Context, _ int64, packName string, _ media.Artifact) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	key := packName + "/x.png"
	f.keys = append(f.keys, key)
	return key, nil
}

var errBoom = errors.New("boom")

func rateLimited(d time.Duration) error {
	return tg.NewAPIErrorWithRetry("addStickerToSet", 429, "Too Many Requests: retry after 5", d)
}

func setInvalid() error {
	return tg.NewAPIError("addStickerToSet", 400, "Bad Request: STICKERSET_INVALID")
}
