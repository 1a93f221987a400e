// Package config loads server settings from config.yaml, .env and SQUASH_* environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"squashledger/internal/domain/ledger"
	"squashledger/internal/domain/reminder"
	"squashledger/internal/domain/summary"
)

// EnvPrefix prefixes every environment override, e.g. SQUASH_LEDGER_FEE=5.
const EnvPrefix = "SQUASH"

// Storage backends.
const (
	BackendSheets = "sheets"
	BackendXLSX   = "xlsx"
	BackendMemory = "memory"
)

// ServerConfig controls the HTTP listener, cookies and organizer access.
type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	Env           string `mapstructure:"env"`
	SecureCookies bool   `mapstructure:"secure_cookies"`
	CSRFKey       string `mapstructure:"csrf_key"`       // 64 hex chars
	OrganizerHash string `mapstructure:"organizer_hash"` // bcrypt hash from cmd/hashtoken
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// LedgerConfig holds pricing, calendar and message settings for the group.
type LedgerConfig struct {
	Fee           string `mapstructure:"fee"`
	CourtRate     string `mapstructure:"court_rate"`
	MaxCourts     int    `mapstructure:"max_courts"`
	Weekday       string `mapstructure:"weekday"`
	Timezone      string `mapstructure:"timezone"`
	Currency      string `mapstructure:"currency"`
	Title         string `mapstructure:"title"`
	PaymentNumber string `mapstructure:"payment_number"`
}

// StoreConfig selects the row store backend and its location.
type StoreConfig struct {
	Backend         string        `mapstructure:"backend"`
	Timeout         time.Duration `mapstructure:"timeout"`
	SpreadsheetID   string        `mapstructure:"spreadsheet_id"`
	Sheet           string        `mapstructure:"sheet"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	CredentialsJSON string        `mapstructure:"credentials_json"`
	XLSXPath        string        `mapstructure:"xlsx_path"`
}

// CacheConfig tunes the read cache and its optional shared generation.
type CacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"` // empty keeps the generation in-process
	RedisPassword string        `mapstructure:"redis_password"`
	RedisKey      string        `mapstructure:"redis_key"`
}

// NotifyConfig enables notification channels. A channel without credentials is skipped.
type NotifyConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	TelegramToken   string        `mapstructure:"telegram_token"`
	TelegramChatID  string        `mapstructure:"telegram_chat_id"`
	TelegramAPI     string        `mapstructure:"telegram_api"`
	ResendKey       string        `mapstructure:"resend_key"`
	EmailFrom       string        `mapstructure:"email_from"`
	EmailTo         []string      `mapstructure:"email_to"`
	KafkaBrokers    []string      `mapstructure:"kafka_brokers"`
	KafkaTopic      string        `mapstructure:"kafka_topic"`
	AnnounceChanges bool          `mapstructure:"announce_changes"`
	OutboxEnabled   bool          `mapstructure:"outbox_enabled"` // keep failed announcements and reminders for resend
}

// ReminderConfig schedules the weekly reminder, in the ledger timezone.
type ReminderConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Weekday   string        `mapstructure:"weekday"`
	StartHour int           `mapstructure:"start_hour"`
	EndHour   int           `mapstructure:"end_hour"`
	Interval  time.Duration `mapstructure:"interval"`
}

// StateConfig locates the local SQLite database holding reminder state
// and failed deliveries.
type StateConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Store    StoreConfig    `mapstructure:"store"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	State    StateConfig    `mapstructure:"state"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.csrf_key", "")
	v.SetDefault("server.organizer_hash", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("ledger.fee", "4")
	v.SetDefault("ledger.court_rate", "6")
	v.SetDefault("ledger.max_courts", 5)
	v.SetDefault("ledger.weekday", "sunday")
	v.SetDefault("ledger.timezone", "Asia/Singapore")
	v.SetDefault("ledger.currency", "SGD")
	v.SetDefault("ledger.title", "Squash")
	v.SetDefault("ledger.payment_number", "97333133")

	v.SetDefault("store.backend", BackendXLSX)
	v.SetDefault("store.timeout", 15*time.Second)
	v.SetDefault("store.spreadsheet_id", "")
	v.SetDefault("store.sheet", "Sheet1")
	v.SetDefault("store.credentials_file", "")
	v.SetDefault("store.credentials_json", "")
	v.SetDefault("store.xlsx_path", "squash-ledger.xlsx")

	v.SetDefault("cache.ttl", 60*time.Second)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_key", "squash_ledger:generation")

	v.SetDefault("notify.timeout", 10*time.Second)
	v.SetDefault("notify.telegram_token", "")
	v.SetDefault("notify.telegram_chat_id", "")
	v.SetDefault("notify.telegram_api", "https://api.telegram.org")
	v.SetDefault("notify.resend_key", "")
	v.SetDefault("notify.email_from", "")
	v.SetDefault("notify.email_to", []string{})
	v.SetDefault("notify.kafka_brokers", []string{})
	v.SetDefault("notify.kafka_topic", "squash_ledger_summary")
	v.SetDefault("notify.announce_changes", true)
	v.SetDefault("notify.outbox_enabled", true)

	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.weekday", "saturday")
	v.SetDefault("reminder.start_hour", 18)
	v.SetDefault("reminder.end_hour", 21)
	v.SetDefault("reminder.interval", 5*time.Minute)

	v.SetDefault("state.db_path", "squash-ledger.db")
}

// Load reads .env (if present), then path (or ./config.yaml when path is
// empty and the file exists), then SQUASH_* overrides such as
// SQUASH_STORE_BACKEND=sheets.
// PRE: none
// POST: Returns a validated config or the first problem found
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	// environment overrides, e.g. SQUASH_LEDGER_FEE=5
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Notify.EmailTo = splitList(c.Notify.EmailTo)
	c.Notify.KafkaBrokers = splitList(c.Notify.KafkaBrokers)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks every derived value so startup fails before serving.
func (c *Config) Validate() error {
	if _, err := c.Rules(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.ReminderWindow(); err != nil {
		return err
	}
	if _, err := c.CSRFKey(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendSheets:
		if c.Store.SpreadsheetID == "" {
			return errors.New("store.spreadsheet_id is required for the sheets backend")
		}
	case BackendXLSX:
		if c.Store.XLSXPath == "" {
			return errors.New("store.xlsx_path is required for the xlsx backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store.backend %q (want sheets, xlsx or memory)", c.Store.Backend)
	}
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		return errors.New("notify.telegram_token and notify.telegram_chat_id must be set together")
	}
	if c.Notify.ResendKey != "" && (c.Notify.EmailFrom == "" || len(c.Notify.EmailTo) == 0) {
		return errors.New("notify.email_from and notify.email_to are required with notify.resend_key")
	}
	if c.NeedsStateDB() && c.State.DBPath == "" {
		return errors.New("state.db_path is required for reminders and the outbox")
	}
	return nil
}

// Rules returns the pricing and calendar rules.
func (c *Config) Rules() (ledger.Rules, error) {
	fee, err := decimal.NewFromString(c.Ledger.Fee)
	if err != nil || fee.IsNegative() {
		return ledger.Rules{}, fmt.Errorf("ledger.fee %q must be a non-negative number", c.Ledger.Fee)
	}
	rate, err := decimal.NewFromString(c.Ledger.CourtRate)
	if err != nil || rate.IsNegative() {
		return ledger.Rules{}, fmt.Errorf("ledger.court_rate %q must be a non-negative number", c.Ledger.CourtRate)
	}
	if c.Ledger.MaxCourts < 1 {
		return ledger.Rules{}, fmt.Errorf("ledger.max_courts must be at least 1, got %d", c.Ledger.MaxCourts)
	}
	weekday, err := ledger.ParseWeekday(c.Ledger.Weekday)
	if err != nil {
		return ledger.Rules{}, fmt.Errorf("ledger.weekday: %w", err)
	}
	return ledger.Rules{Fee: fee, CourtRate: rate, MaxCourts: c.Ledger.MaxCourts, Weekday: weekday}, nil
}

// Format returns the summary message format.
func (c *Config) Format() summary.Format {
	rules, _ := c.Rules()
	return summary.Format{
		Title:         c.Ledger.Title,
		Currency:      c.Ledger.Currency,
		Fee:           rules.Fee,
		PaymentNumber: c.Ledger.PaymentNumber,
	}
}

// Location returns the group's timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Ledger.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ledger.timezone %q: %w", c.Ledger.Timezone, err)
	}
	return loc, nil
}

// ReminderWindow returns the reminder firing window.
func (c *Config) ReminderWindow() (reminder.Window, error) {
	weekday, err := ledger.ParseWeekday(c.Reminder.Weekday)
	if err != nil {
		return reminder.Window{}, fmt.Errorf("reminder.weekday: %w", err)
	}
	w := reminder.Window{Weekday: weekday, StartHour: c.Reminder.StartHour, EndHour: c.Reminder.EndHour}
	if err := w.Validate(); err != nil {
		return reminder.Window{}, fmt.Errorf("reminder window: %w", err)
	}
	return w, nil
}

// CSRFKey decodes server.csrf_key. Empty yields nil, which selects a random per-process key.
func (c *Config) CSRFKey() ([]byte, error) {
	if c.Server.CSRFKey == "" {
		if c.IsProduction() {
			return nil, errors.New("server.csrf_key is required in production")
		}
		return nil, nil
	}
	key, err := hex.DecodeString(c.Server.CSRFKey)
	if err != nil || len(key) != 32 {
		return nil, errors.New("server.csrf_key must be 64 hex characters (32 bytes)")
	}
	return key, nil
}

// NeedsStateDB reports whether any enabled feature keeps rows in the local database.
func (c *Config) NeedsStateDB() bool {
	return c.Reminder.Enabled || c.Notify.OutboxEnabled
}

// IsProduction reports whether server.env is production.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
