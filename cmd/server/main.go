package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	emailPkg "squashledger/internal/adapters/email"
	web "squashledger/internal/adapters/http"
	"squashledger/internal/adapters/http/middleware"
	"squashledger/internal/adapters/http/perf"
	"squashledger/internal/adapters/notify"
	"squashledger/internal/adapters/storage"
	ledgerStore "squashledger/internal/adapters/storage/ledger"
	outboxStore "squashledger/internal/adapters/storage/outbox"
	reminderStore "squashledger/internal/adapters/storage/reminder"
	"squashledger/internal/application/ledgerview"
	"squashledger/internal/application/orchestrators"
	"squashledger/internal/config"
	"squashledger/internal/domain/ledger"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default ./config.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg.Log)

	if err := run(cfg); err != nil {
		slog.Error("server_exit", "error", err.Error())
		os.Exit(1)
	}
}

// setupLogging installs the default slog handler.
func setupLogging(c config.LogConfig) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if strings.EqualFold(c.Format, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Derived values were already checked by config.Load.
	rules, _ := cfg.Rules()
	loc, _ := cfg.Location()
	window, _ := cfg.ReminderWindow()
	csrfKey, _ := cfg.CSRFKey()

	// Performance instrumentation shared by the row store, SQLite, notifiers and requests
	collector := perf.NewCollector(perf.DefaultRingSize)

	rowStore, err := openRowStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	timedStore := ledgerStore.NewTimedStore(rowStore, collector, ledgerStore.DefaultSlowCall)
	timedStore.Timeout = cfg.Store.Timeout

	viewCfg := ledgerview.Config{TTL: cfg.Cache.TTL}
	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr, Password: cfg.Cache.RedisPassword})
		defer rdb.Close()
		viewCfg.Generations = ledgerview.NewRedisGeneration(rdb, cfg.Cache.RedisKey)
		slog.Info("cache_generation", "source", "redis", "addr", cfg.Cache.RedisAddr)
	}
	view := ledgerview.New(timedStore, viewCfg)

	channels, closeChannels, err := openNotifiers(cfg.Notify, collector)
	if err != nil {
		return err
	}
	defer closeChannels()

	a := &web.App{
		Store:     timedStore,
		View:      view,
		Rules:     rules,
		Format:    cfg.Format(),
		Location:  loc,
		TokenHash: []byte(cfg.Server.OrganizerHash),
		CSRFKey:   csrfKey,
		Sheet:     cfg.Store.Sheet,
	}

	// Reminder state and failed deliveries share a local SQLite database
	var timedDB storage.SQLDB
	if cfg.NeedsStateDB() {
		db, err := openStateDB(cfg.State.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		timedDB = storage.NewTimedDB(db, collector, storage.DefaultSlowQuery)
	}

	// Explicit sends report failures to the organizer directly. Failed
	// background messages are kept for a manual resend when the outbox is on.
	background := notify.Multi{}
	if len(channels) > 0 {
		explicit := notify.Multi{}
		for _, ch := range channels {
			explicit = append(explicit, ch)
		}
		a.Notifier = explicit
		background = explicit

		if cfg.Notify.OutboxEnabled {
			store := outboxStore.NewSQLiteStore(timedDB)
			failures := orchestrators.NewDeliveryLog(store)
			deps := orchestrators.ResendDeliveryDeps{Store: store, Channels: map[string]orchestrators.Notifier{}}
			background = notify.Multi{}
			for _, ch := range channels {
				deps.Channels[ch.Name()] = ch
				background = append(background, notify.NewRecorded(ch.Name(), ch, failures))
			}
			a.Deliveries = &deps
		}
		if cfg.Notify.AnnounceChanges {
			a.Announcer = notify.NewBestEffort(background)
		}
	}

	if cfg.Reminder.Enabled && len(background) > 0 {
		cancelReminder := orchestrators.StartReminderScheduler(ctx, orchestrators.SendReminderDeps{
			View:     view,
			Notifier: background,
			State:    reminderStore.NewSQLiteStore(timedDB),
			Window:   window,
			Rules:    rules,
			Format:   a.Format,
			Location: loc,
		}, orchestrators.ReminderSchedulerConfig{Interval: cfg.Reminder.Interval, Enabled: true})
		defer cancelReminder()
	} else if cfg.Reminder.Enabled {
		slog.Warn("reminder_disabled", "reason", "no notification channel configured")
	}

	middleware.SecureCookies = cfg.Server.SecureCookies || cfg.IsProduction()
	handler := web.NewMux(a, collector)

	if err := web.Warm(ctx, a); err != nil {
		slog.Warn("ledger_warm_failed", "error", err.Error())
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_start",
			"version", version,
			"addr", cfg.Server.Addr,
			"env", cfg.Server.Env,
			"backend", cfg.Store.Backend,
			"weekday", rules.Weekday.String(),
			"channels", len(channels),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openRowStore selects the ledger backend.
func openRowStore(ctx context.Context, c config.StoreConfig) (ledgerStore.Store, error) {
	switch c.Backend {
	case config.BackendSheets:
		s, err := ledgerStore.NewSheetsStore(ctx, ledgerStore.SheetsConfig{
			SpreadsheetID:   c.SpreadsheetID,
			Sheet:           c.Sheet,
			CredentialsJSON: c.CredentialsJSON,
			CredentialsFile: c.CredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("open sheets store: %w", err)
		}
		return s, nil
	case config.BackendXLSX:
		return ledgerStore.NewXLSXStore(c.XLSXPath, c.Sheet), nil
	default:
		slog.Warn("memory_store", "detail", "ledger is not persisted; use for local trials only")
		return ledgerStore.NewMemoryStore(ledger.Header()), nil
	}
}

// openNotifiers builds every configured channel, each timed and bounded.
func openNotifiers(c config.NotifyConfig, collector *perf.Collector) ([]*notify.Timed, func(), error) {
	var channels []*notify.Timed
	closers := []func() error{}

	if c.TelegramToken != "" {
		tg, err := notify.NewTelegramNotifier(notify.TelegramConfig{
			Token:   c.TelegramToken,
			ChatID:  c.TelegramChatID,
			BaseURL: c.TelegramAPI,
		}, &http.Client{Timeout: c.Timeout})
		if err != nil {
			return nil, nil, err
		}
		channels = append(channels, notify.NewTimed("telegram", tg, c.Timeout, collector))
	}
	if c.ResendKey != "" {
		sender := emailPkg.NewResendSender(c.ResendKey, c.EmailFrom)
		channels = append(channels, notify.NewTimed("email", notify.NewEmailNotifier(sender, c.EmailFrom, c.EmailTo), c.Timeout, collector))
	}
	if len(c.KafkaBrokers) > 0 {
		kn := notify.NewKafkaNotifier(c.KafkaBrokers, c.KafkaTopic)
		closers = append(closers, kn.Close)
		channels = append(channels, notify.NewTimed("kafka", kn, c.Timeout, collector))
	}
	if len(channels) == 0 {
		slog.Warn("notify_disabled", "detail", "set SQUASH_NOTIFY_TELEGRAM_TOKEN, SQUASH_NOTIFY_RESEND_KEY or SQUASH_NOTIFY_KAFKA_BROKERS")
	}

	return channels, func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				slog.Warn("notify_close_failed", "error", err.Error())
			}
		}
	}, nil
}

// openStateDB opens the local state database with WAL mode and a busy timeout.
func openStateDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+storage.Pragmas)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("state db unreachable: %w", err)
	}
	if err := storage.InitDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
