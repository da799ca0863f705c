package bot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"earnquest-bot/backend"
	"earnquest-bot/broadcast"
	"earnquest-bot/command"
	"earnquest-bot/config"
	"earnquest-bot/database"
	"earnquest-bot/events"
	grpcserver "earnquest-bot/grpc"
	"earnquest-bot/handlers"
	"earnquest-bot/intent"
	"earnquest-bot/messenger"
	"earnquest-bot/moderation"
	"earnquest-bot/policy"
	"earnquest-bot/session"
	"earnquest-bot/templates"
	"earnquest-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Bot owns every long-lived component of the process.
type Bot struct {
	settings config.Settings
	logger   *zap.Logger

	db         *sql.DB
	backend    *backend.Client
	policy     *policy.Store
	sink       *events.Sink
	store      moderation.Store
	engine     *moderation.Engine
	dispatcher *broadcast.Dispatcher
	scheduler  *Scheduler
	health     *grpcserver.HealthServer
	handler    *handlers.Handler

	api       *bot.Bot
	ready     atomic.Bool
	conflicts chan error
}

// New builds the components that do not need Telegram.
func New(settings config.Settings, logger *zap.Logger) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bot{settings: settings, logger: logger, conflicts: make(chan error, 1)}

	if settings.Discord.Token != "" {
		dg, err := discordgo.New("Bot " + settings.Discord.Token)
		if err != nil {
			return nil, fmt.Errorf("error creating Discord session: %w", err)
		}
		utils.InitLogger(logger, dg, settings.Discord.AdminChannelID)
	} else {
		utils.InitLogger(logger, nil, "")
	}

	db, err := database.InitDB(settings.Database.Path, logger.Named("database"))
	if err != nil {
		return nil, err
	}
	b.db = db

	b.backend = backend.New(backend.Options{
		BaseURL:      settings.API.BaseURL,
		BotKey:       settings.API.BotKey,
		Timeout:      settings.API.Timeout,
		EventTimeout: settings.API.EventTimeout,
		RetryMax:     settings.API.RetryMax,
		Logger:       logger,
	})

	initial := policy.DefaultSnapshot()
	initial.KnowledgeBase = policy.MergeKnowledge(initial.KnowledgeBase, settings.KnowledgeBase)
	b.policy = policy.NewStore(initial, b.backend, logger.Named("policy"))

	b.sink = events.NewSink(b.backend, database.NewJournal(db), logger)

	if settings.Redis.URL != "" {
		rs, err := moderation.NewRedisStore(settings.Redis.URL)
		if err != nil {
			db.Close()
			return nil, err
		}
		b.store = rs
		logger.Info("moderation state in redis")
	} else {
		b.store = moderation.NewMemoryStore()
	}

	b.scheduler = NewScheduler(logger)
	if settings.GRPC.Addr != "" {
		b.health = grpcserver.NewHealthServer(logger)
	}
	return b, nil
}

// Run starts the bot and blocks until ctx is cancelled or a component fails.
func (b *Bot) Run(ctx context.Context) error {
	defer b.close()
	s := b.settings

	if delay := s.StartupDelay(); delay > 0 {
		b.logger.Info("waiting before start", zap.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}

	if err := b.connect(ctx); err != nil {
		utils.Error("bot", "startup", err.Error())
		return fmt.Errorf("telegram start-up: %w", err)
	}

	b.scheduleJobs()

	metrics := newMetricsServer(s.Metrics.Addr, &b.ready)
	g, gctx := errgroup.WithContext(ctx)

	polled := make(chan struct{})
	g.Go(func() error {
		defer close(polled)
		if err := b.poll(gctx, b.api.Start); err != nil {
			utils.Error("bot", "polling", err.Error())
			return err
		}
		return nil
	})
	if s.Metrics.Addr != "" {
		g.Go(func() error {
			b.logger.Info("metrics server listening", zap.String("addr", s.Metrics.Addr))
			if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	if b.health != nil {
		g.Go(func() error { return b.health.ListenAndServe(s.GRPC.Addr) })
	}

	b.scheduler.Start()
	b.ready.Store(true)
	if b.health != nil {
		b.health.SetServing(true)
	}
	b.logger.Info("bot is running")

	g.Go(func() error {
		<-gctx.Done()
		b.ready.Store(false)
		if b.health != nil {
			b.health.SetServing(false)
		}
		<-polled
		if b.handler != nil && !b.handler.Drain(time.Minute) {
			b.logger.Warn("updates still in flight after drain timeout")
		}
		b.scheduler.Stop(2 * time.Minute)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = metrics.Shutdown(shutdownCtx)
		if b.health != nil {
			b.health.Stop()
		}
		return nil
	})

	err := g.Wait()
	b.logger.Info("bot stopped gracefully")
	return err
}

// connect creates the Telegram client, clears any webhook and publishes the
// command menu.
func (b *Bot) connect(ctx context.Context) error {
	s := b.settings
	httpClient, err := messenger.NewHTTPClient(s.Telegram.ProxyURL, s.Telegram.PollTimeout)
	if err != nil {
		return err
	}

	api, err := bot.New(s.Telegram.Token,
		bot.WithHTTPClient(s.Telegram.PollTimeout, httpClient),
		bot.WithErrorsHandler(b.pollingError),
	)
	if err != nil {
		return fmt.Errorf("create telegram client: %w", err)
	}

	if _, err := api.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	me, err := api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("get me: %w", err)
	}
	if err := command.Register(ctx, api, b.logger.Named("command")); err != nil {
		b.logger.Warn("could not publish command menu", zap.Error(err))
	}

	b.api = api
	b.wire(api, me.ID, me.Username)
	b.logger.Info("connected to telegram", zap.String("username", me.Username), zap.Int64("id", me.ID))
	return nil
}

// wire builds the Telegram-dependent components and installs the update handler.
func (b *Bot) wire(api *bot.Bot, botID int64, botName string) {
	s := b.settings
	msgr := messenger.NewTelegram(api, s.Telegram.CallTimeout)
	renderer := templates.NewRenderer(s.Site.WebsiteURL, s.Site.SupportEmail)

	roles := utils.NewRoleCache(msgr, s.Moderation.RoleCacheSize, s.Moderation.RoleCacheTTL)
	ledger := moderation.NewLedger(b.store, msgr, b.sink, s.Moderation.BanAfterWarnings, b.logger.Named("ledger"))
	b.engine = moderation.NewEngine(b.policy, moderation.NewRateTracker(b.store), ledger, roles, msgr, b.sink,
		moderation.Config{WarningTTL: s.Moderation.WarningTTL, SpamMute: s.Moderation.SpamMute},
		b.logger.Named("moderation"))

	b.dispatcher = broadcast.NewDispatcher(b.backend, msgr, b.sink, renderer, broadcast.Config{
		Concurrency:    s.Broadcast.Concurrency,
		SendsPerSecond: s.Broadcast.SendsPerSecond,
		Burst:          s.Broadcast.Burst,
	}, b.logger)

	h := handlers.New(handlers.Deps{
		Messenger:  msgr,
		Moderator:  b.engine,
		Responder:  intent.NewResponder(intent.DefaultTopics, b.policy, renderer),
		Policy:     b.policy,
		Renderer:   renderer,
		Account:    b.backend,
		Sessions:   session.NewManager(database.NewSessions(b.db)),
		Reporter:   b.sink,
		BotID:      botID,
		BotName:    botName,
		WelcomeTTL: s.Moderation.WelcomeTTL,
		Logger:     b.logger,
	})
	h.Register(api)
	b.handler = h
}

func (b *Bot) scheduleJobs() {
	s := b.settings.Schedule

	b.scheduler.Every("policy_refresh", s.PolicyFirstRun, s.PolicyRefresh, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := b.policy.Refresh(ctx); err != nil {
			utils.Warn("policy", "refresh", err.Error())
			return err
		}
		return nil
	})

	b.scheduler.Every("broadcast", s.BroadcastFirstRun, s.BroadcastPoll, func(ctx context.Context) error {
		results, err := b.dispatcher.PollAndDispatch(ctx)
		if err != nil {
			return err
		}
		for _, r := range results {
			b.logger.Info("broadcast post finished",
				zap.Int64("post_id", r.PostID), zap.Int("sent", r.Sent), zap.Int("failed", r.Failed))
		}
		return nil
	})

	b.scheduler.Every("rate_sweep", b.settings.Moderation.SweepInterval, b.settings.Moderation.SweepInterval, func(ctx context.Context) error {
		b.engine.Sweep(ctx)
		return nil
	})

	if err := b.scheduler.Cron("journal_cleanup", "@daily", func(ctx context.Context) error {
		_, err := database.CleanupOldEvents(ctx, b.db, s.JournalRetentionDays, b.logger.Named("database"))
		return err
	}); err != nil {
		b.logger.Error("could not schedule journal cleanup", zap.Error(err))
	}
}

// pollingError receives errors from the long-polling loop. A conflict means
// a second instance is polling with the same token; it is handed to poll,
// which stops the poller and backs off.
func (b *Bot) pollingError(err error) {
	if IsConflict(err) {
		pollingErrors.WithLabelValues("conflict").Inc()
		b.logger.Warn("polling conflict, another instance may be running", zap.Error(err))
		select {
		case b.conflicts <- err:
		default:
		}
		return
	}
	pollingErrors.WithLabelValues("other").Inc()
	b.logger.Error("polling error", zap.Error(err))
}

func (b *Bot) close() {
	if rs, ok := b.store.(*moderation.RedisStore); ok {
		_ = rs.Close()
	}
	if b.db != nil {
		_ = b.db.Close()
	}
}
