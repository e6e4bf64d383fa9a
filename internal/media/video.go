package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// Video recipe limits.
const (
	MaxVideoSeconds = 3
	MaxVideoBytes   = 256 * 1024
	videoBitrate    = "256k"
)

// CommandRunner executes an external program and returns its stderr.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// FFmpeg is the production Transcoder. Images are handled in process and
// videos by the ffmpeg binary.
type FFmpeg struct {
	path    string
	tempDir string
	runner  CommandRunner
	logger  *slog.Logger
}

// Option configures an FFmpeg transcoder.
type Option func(*FFmpeg)

// WithBinary sets the ffmpeg executable.
func WithBinary(path string) Option {
	return func(f *FFmpeg) {
		if path != "" {
			f.path = path
		}
	}
}

// WithTempDir sets where input and output files are staged.
func WithTempDir(dir string) Option {
	return func(f *FFmpeg) { f.tempDir = dir }
}

// WithRunner replaces the command runner.
func WithRunner(r CommandRunner) Option {
	return func(f *FFmpeg) { f.runner = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *FFmpeg) { f.logger = logger }
}

// NewFFmpeg creates a transcoder.
func NewFFmpeg(opts ...Option) *FFmpeg {
	f := &FFmpeg{
		path:   "ffmpeg",
		runner: ExecRunner{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var _ Transcoder = (*FFmpeg)(nil)

// Transcode converts data according to kind. emoji selects the 100x100
// custom emoji target.
func (f *FFmpeg) Transcode(ctx context.Context, data []byte, kind Kind, emoji bool) (Artifact, error) {
	if kind == KindVideo {
		return f.transcodeVideo(ctx, data, emoji)
	}
	return TranscodeImage(data, emoji)
}

func (f *FFmpeg) transcodeVideo(ctx context.Context, data []byte, emoji bool) (Artifact, error) {
	if mt := mimetype.Detect(data); !strings.HasPrefix(mt.String(), "video/") {
		return Artifact{}, &TranscodeError{Kind: KindVideo, Stage: "sniff",
			Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())}
	}

	in, err := f.stage("packbot-in-*", data)
	if err != nil {
		return Artifact{}, &TranscodeError{Kind: KindVideo, Stage: "stage", Err: err}
	}
	defer os.Remove(in)

	out, err := f.stage("packbot-out-*.webm", nil)
	if err != nil {
		return Artifact{}, &TranscodeError{Kind: KindVideo, Stage: "stage", Err: err}
	}
	defer os.Remove(out)

	args := VideoArgs(in, out, emoji)
	stderr, runErr := f.runner.Run(ctx, f.path, args...)
	if runErr != nil {
		f.logger.Debug("ffmpeg failed", "error", runErr, "stderr", tail(stderr))
		return Artifact{}, &TranscodeError{Kind: KindVideo, Stage: "ffmpeg", Stderr: tail(stderr), Err: runErr}
	}

	result, err := os.ReadFile(out)
	if err != nil {
		return Artifact{}, &TranscodeError{Kind: KindVideo, Stage: "read output", Stderr: tail(stderr), Err: err}
	}
	if len(result) == 0 {
		return Artifact{}, &TranscodeError{Kind: KindVideo, Stage: "ffmpeg", Stderr: tail(stderr),
			Err: errors.New("empty output")}
	}

	side := StickerSide
	if emoji {
		side = EmojiSide
	}
	return Artifact{
		Data:     result,
		Format:   FormatVideo,
		FileName: "sticker.webm",
		MIME:     "video/webm",
		Width:    side,
		Height:   side,
	}, nil
}

// VideoArgs builds the ffmpeg argument list. Emoji output is padded to
// exactly 100x100 with a transparent border.
func VideoArgs(in, out string, emoji bool) []string {
	filter := "scale=512:512:force_original_aspect_ratio=decrease"
	if emoji {
		filter = "scale=100:100:force_original_aspect_ratio=decrease," +
			"pad=100:100:(ow-iw)/2:(oh-ih)/2:color=black@0,format=yuva420p"
	}
	return []string{
		"-i", in,
		"-t", strconv.Itoa(MaxVideoSeconds),
		"-vf", filter,
		"-c:v", "libvpx-vp9",
		"-b:v", videoBitrate,
		"-an",
		"-fs", strconv.Itoa(MaxVideoBytes),
		"-f", "webm",
		"-y", out,
	}
}

func (f *FFmpeg) stage(pattern string, data []byte) (string, error) {
	file, err := os.CreateTemp(f.tempDir, pattern)
	if err != nil {
		return "", err
	}
	name := file.Name()
	if len(data) > 0 {
		if _, err := file.Write(data); err != nil {
			file.Close()
			os.Remove(name)
			return "", err
		}
	}
	if err := file.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

// tail keeps the end of a diagnostic, where ffmpeg prints the error.
func tail(b []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		cut := len(s) - limit
		for cut < len(s) && !utf8.RuneStart(s[cut]) {
			cut++
		}
		s = s[cut:]
	}
	return s
}
