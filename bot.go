package packbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/prilive-com/packbot/internal/access"
	"github.com/prilive-com/packbot/internal/archive"
	"github.com/prilive-com/packbot/internal/config"
	"github.com/prilive-com/packbot/internal/cooldown"
	"github.com/prilive-com/packbot/internal/dispatch"
	"github.com/prilive-com/packbot/internal/health"
	"github.com/prilive-com/packbot/internal/ingest"
	"github.com/prilive-com/packbot/internal/jobs"
	"github.com/prilive-com/packbot/internal/media"
	"github.com/prilive-com/packbot/internal/packs"
	"github.com/prilive-com/packbot/internal/resilience"
	"github.com/prilive-com/packbot/internal/store"
	"github.com/prilive-com/packbot/internal/validate"
	"github.com/prilive-com/packbot/receiver"
	"github.com/prilive-com/packbot/sender"
	"github.com/prilive-com/packbot/tg"
)

// DefaultUpdateBufferSize is the capacity of the channel between the
// receiver and the dispatcher.
const DefaultUpdateBufferSize = 100

// Bot wires the receiver, the dispatcher and their collaborators.
type Bot struct {
	cfg        config.Config
	logger     *slog.Logger
	username   string
	sender     *sender.Client
	receiver   *receiver.PollingClient
	updates    chan tg.Update
	store      store.Store
	dispatcher *dispatch.Dispatcher
	scheduler  *jobs.Scheduler
	health     *health.Handler
	healthSrv  *http.Server

	closers   []func()
	closeOnce sync.Once
}

type botOptions struct {
	logger     *slog.Logger
	store      store.Store
	transcoder media.Transcoder
	archiver   archive.Archiver
	sleeper    resilience.Sleeper
	httpClient *http.Client
	bufferSize int
}

// Option configures the Bot.
type Option func(*botOptions)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *botOptions) { o.logger = logger }
}

// WithStore replaces the store selected by store.driver.
func WithStore(s store.Store) Option {
	return func(o *botOptions) { o.store = s }
}

// WithTranscoder replaces the ffmpeg transcoder.
func WithTranscoder(t media.Transcoder) Option {
	return func(o *botOptions) { o.transcoder = t }
}

// WithArchiver replaces the archive configured under archive.*.
func WithArchiver(a archive.Archiver) Option {
	return func(o *botOptions) { o.archiver = a }
}

// WithSleeper replaces real sleeps in retry and settle delays.
func WithSleeper(s resilience.Sleeper) Option {
	return func(o *botOptions) { o.sleeper = s }
}

// WithHTTPClient sets the HTTP client used for Bot API calls and polling.
func WithHTTPClient(c *http.Client) Option {
	return func(o *botOptions) { o.httpClient = c }
}

// WithUpdateBufferSize sets the updates channel buffer size.
func WithUpdateBufferSize(size int) Option {
	return func(o *botOptions) {
		if size > 0 {
			o.bufferSize = size
		}
	}
}

// New builds the bot from cfg. It calls getMe to learn the bot username,
// opens the configured store and cooldown backends and, when enabled, the
// archive bucket.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Bot, error) {
	o := botOptions{bufferSize: DefaultUpdateBufferSize}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Bot{cfg: cfg, logger: logger}
	if err := b.build(ctx, o); err != nil {
		b.close()
		return nil, err
	}
	return b, nil
}

func (b *Bot) build(ctx context.Context, o botOptions) error {
	cfg, logger := b.cfg, b.logger
	token := tg.SecretToken(cfg.Telegram.Token)

	scfg := sender.DefaultConfig()
	scfg.Token = token
	scfg.BaseURL = strings.TrimRight(cfg.Telegram.BaseURL, "/")
	scfg.RequestTimeout = cfg.Telegram.RequestTimeout
	scfg.MaxDownloadSize = cfg.Media.MaxInputBytes
	senderOpts := []sender.Option{sender.WithLogger(logger)}
	if o.httpClient != nil {
		senderOpts = append(senderOpts, sender.WithHTTPClient(o.httpClient))
	}
	client, err := sender.NewFromConfig(scfg, senderOpts...)
	if err != nil {
		return fmt.Errorf("create sender: %w", err)
	}
	b.sender = client
	b.onClose(func() { _ = client.Close() })

	me, err := client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("get bot identity: %w", err)
	}
	if err := validate.Username(me.Username); err != nil {
		return fmt.Errorf("bot username: %w", err)
	}
	b.username = me.Username

	b.store = o.store
	if b.store == nil {
		if b.store, err = openStore(ctx, cfg.Store); err != nil {
			return err
		}
		st := b.store
		b.onClose(st.Close)
	}

	gate, sweepCooldown, err := b.openCooldown(ctx)
	if err != nil {
		return err
	}

	archiver := o.archiver
	if archiver == nil && cfg.Archive.Enabled {
		if archiver, err = openArchive(ctx, cfg.Archive); err != nil {
			return err
		}
	}

	transcoder := o.transcoder
	if transcoder == nil {
		transcoder = media.NewFFmpeg(
			media.WithBinary(cfg.Media.FFmpegPath),
			media.WithTempDir(cfg.Media.TempDir),
			media.WithLogger(logger),
		)
	}

	drafts := packs.NewDraftStore(nil)
	removals := packs.NewRemovals(nil)
	ctrl := packs.NewController(b.store, drafts, me.Username, packs.WithLogger(logger))

	pubOpts := []ingest.PublisherOption{
		ingest.WithEmoji(cfg.Media.DefaultEmoji),
		ingest.WithPublisherLogger(logger),
	}
	if o.sleeper != nil {
		pubOpts = append(pubOpts, ingest.WithSleeper(o.sleeper))
	}
	pipeOpts := []ingest.Option{
		ingest.WithMaxInputBytes(cfg.Media.MaxInputBytes),
		ingest.WithLogger(logger),
	}
	if archiver != nil {
		pipeOpts = append(pipeOpts, ingest.WithArchiver(archiver))
	}
	pipeline := ingest.NewPipeline(b.store, client, transcoder, ingest.NewPublisher(client, pubOpts...), client, pipeOpts...)

	b.dispatcher = dispatch.New(client, ctrl, removals, pipeline,
		ingest.NewGroupSerializer(cfg.Media.SettleDelay, o.sleeper),
		dispatch.WithLogger(logger),
		dispatch.WithCooldown(gate),
		dispatch.WithAccessGate(access.New(client, cfg.Access.ChannelID, cfg.Access.ChannelURL, access.WithLogger(logger))),
	)

	b.updates = make(chan tg.Update, o.bufferSize)
	rcfg := receiver.DefaultConfig()
	rcfg.BaseURL = scfg.BaseURL + "/bot"
	rcfg.PollingTimeout = cfg.Telegram.PollingTimeout
	rcfg.PollingLimit = cfg.Telegram.PollingLimit
	pollOpts := []receiver.PollingOption{receiver.WithPollingLogger(logger)}
	if o.httpClient != nil {
		pollOpts = append(pollOpts, receiver.WithPollingHTTPClient(o.httpClient))
	}
	if o.sleeper != nil {
		pollOpts = append(pollOpts, receiver.WithPollingSleeper(o.sleeper))
	}
	if b.receiver, err = receiver.NewPollingClient(token, b.updates, rcfg, pollOpts...); err != nil {
		return fmt.Errorf("create receiver: %w", err)
	}

	b.scheduler = jobs.New(jobs.WithSchedule(cfg.Dialogue.SweepSchedule), jobs.WithLogger(logger))
	b.scheduler.Add("drafts", func() int { return drafts.Sweep(cfg.Dialogue.DraftTTL) })
	b.scheduler.Add("removals", func() int { return removals.Sweep(cfg.Dialogue.RemovalTTL) })
	b.scheduler.Add("media_groups", b.dispatcher.SweepGroups)
	if sweepCooldown != nil {
		b.scheduler.Add("cooldown", sweepCooldown)
	}

	b.health = health.New(
		health.WithLogger(logger),
		health.WithCheck("store", b.store.Ping),
		health.WithCheck("sender", health.FromBool(client.Healthy)),
		health.WithCheck("receiver", health.FromBool(b.receiver.IsHealthy)),
	)
	return nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	if cfg.Driver != "postgres" {
		return store.NewMemory(), nil
	}
	pg, err := store.NewPostgres(ctx, store.PostgresConfig{DSN: cfg.DSN, MaxConns: cfg.MaxConns})
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	return pg, nil
}

func (b *Bot) openCooldown(ctx context.Context) (cooldown.Gate, jobs.Sweep, error) {
	cfg := b.cfg.Cooldown
	if cfg.Backend != "redis" {
		m := cooldown.NewMemory(cfg.Interval, cooldown.WithMaxEntries(cfg.MaxEntries))
		return m, m.Sweep, nil
	}
	client, err := cooldown.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open redis cooldown: %w", err)
	}
	b.onClose(func() { _ = client.Close() })
	return cooldown.NewRedis(client, cfg.Interval, cooldown.WithLogger(b.logger)), nil, nil
}

func openArchive(ctx context.Context, cfg config.ArchiveConfig) (*archive.ObjectStore, error) {
	a, err := archive.New(archive.Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
		Region:    cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := a.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return a, nil
}

// Run starts polling, housekeeping and the health server, and dispatches
// updates until ctx is done. Call Shutdown afterwards to drain handlers.
func (b *Bot) Run(ctx context.Context) error {
	if addr := b.cfg.Health.Addr; addr != "" {
		b.healthSrv = b.health.Server(addr)
		srv := b.healthSrv
		go func() {
			b.logger.Info("health server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				b.logger.Error("health server failed", "error", err)
			}
		}()
	}

	if err := b.scheduler.Start(); err != nil {
		return err
	}
	if err := b.receiver.Start(ctx); err != nil {
		return fmt.Errorf("start polling: %w", err)
	}
	b.health.SetReady(true)
	b.logger.Info("bot started", "username", b.username)

	err := b.dispatcher.Run(ctx, b.updates)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown stops polling, waits for running handlers and releases
// resources. Handlers still running when ctx expires are cancelled.
func (b *Bot) Shutdown(ctx context.Context) error {
	b.health.SetReady(false)
	b.receiver.Stop()

	var errs []error
	if err := b.dispatcher.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain handlers: %w", err))
	}
	if err := b.scheduler.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop housekeeping: %w", err))
	}
	if b.healthSrv != nil {
		if err := b.healthSrv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop health server: %w", err))
		}
	}
	b.close()

	b.logger.Info("bot stopped")
	return errors.Join(errs...)
}

// Username returns the bot's username as reported by getMe.
func (b *Bot) Username() string {
	return b.username
}

// IsHealthy returns health status for K8s probes.
func (b *Bot) IsHealthy() bool {
	return b.receiver.IsHealthy() && b.sender.Healthy()
}

// Health returns the probe handler.
func (b *Bot) Health() *health.Handler {
	return b.health
}

func (b *Bot) onClose(fn func()) {
	b.closers = append(b.closers, fn)
}

func (b *Bot) close() {
	b.closeOnce.Do(func() {
		for i := len(b.closers) - 1; i >= 0; i-- {
			b.closers[i]()
		}
	})
}
