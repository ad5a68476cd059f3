package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppCfg struct {
	Env       string
	Port      string
	LogLevel  string
	LogFormat string
}

type ChapaCfg struct {
	WebhookSecret      string
	SignatureAlgorithm string
	SignatureHeader    string
	MaxBodyBytes       int64
	SecretKey          string // API key for transaction verification
	APIBaseURL         string
}

type StoreCfg struct {
	Backend string // postgres | redis | memory
}

type DBCfg struct {
	DSN         string
	AutoMigrate bool
}

type RedisCfg struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type ProcessorCfg struct {
	MaxCASAttempts int
}

type ReconcileCfg struct {
	Interval   time.Duration
	StaleAfter time.Duration
}

type SecurityCfg struct {
	AdminToken string // guards the read API; empty disables it
}

type Cfg struct {
	App       AppCfg
	Chapa     ChapaCfg
	Store     StoreCfg
	DB        DBCfg
	Redis     RedisCfg
	Processor ProcessorCfg
	Reconcile ReconcileCfg
	Sec       SecurityCfg
}

// ReconcileEnabled reports whether the verification poller should run.
func (c Cfg) ReconcileEnabled() bool {
	return c.Chapa.SecretKey != "" && c.Reconcile.Interval > 0
}

// Load reads .env (if present) and the environment, and exits the process
// when a required setting is missing.
func Load() Cfg {
	cfg, err := load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	return cfg
}

// LoadSigning reads only the webhook secret and algorithm, for tools that
// sign payloads without touching storage.
func LoadSigning() ChapaCfg {
	cfg, err := loadSigning(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	return cfg
}

func loadSigning(dotenv string) (ChapaCfg, error) {
	v := newViper(dotenv)
	cfg := ChapaCfg{
		WebhookSecret:      v.GetString("CHAPA_WEBHOOK_SECRET"),
		SignatureAlgorithm: strings.ToLower(v.GetString("CHAPA_SIGNATURE_ALGORITHM")),
		SignatureHeader:    v.GetString("CHAPA_SIGNATURE_HEADER"),
	}
	if cfg.WebhookSecret == "" {
		return ChapaCfg{}, errors.New("CHAPA_WEBHOOK_SECRET is required")
	}
	return cfg, nil
}

func newViper(dotenv string) *viper.Viper {
	// existing environment wins over the file; a missing file is fine
	_ = godotenv.Load(dotenv)

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("CHAPA_SIGNATURE_ALGORITHM", "hmac-sha256")
	v.SetDefault("CHAPA_SIGNATURE_HEADER", "x-chapa-signature")
	return v
}

func load(dotenv string) (Cfg, error) {
	v := newViper(dotenv)
	v.SetDefault("APP_ENV", "sandbox")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CHAPA_API_BASE_URL", "https://api.chapa.co")
	v.SetDefault("WEBHOOK_MAX_BODY_BYTES", 1<<20)
	v.SetDefault("STORE_BACKEND", "postgres")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "payhook")
	v.SetDefault("PROCESSOR_MAX_CAS_ATTEMPTS", 5)
	v.SetDefault("RECONCILE_INTERVAL", "0s")
	v.SetDefault("RECONCILE_STALE_AFTER", "10m")
	v.SetDefault("ADMIN_TOKEN", "")

	cfg := Cfg{
		App: AppCfg{
			Env:       v.GetString("APP_ENV"),
			Port:      v.GetString("APP_PORT"),
			LogLevel:  strings.ToLower(v.GetString("LOG_LEVEL")),
			LogFormat: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Chapa: ChapaCfg{
			WebhookSecret:      v.GetString("CHAPA_WEBHOOK_SECRET"),
			SignatureAlgorithm: strings.ToLower(v.GetString("CHAPA_SIGNATURE_ALGORITHM")),
			SignatureHeader:    v.GetString("CHAPA_SIGNATURE_HEADER"),
			MaxBodyBytes:       v.GetInt64("WEBHOOK_MAX_BODY_BYTES"),
			SecretKey:          strings.TrimSpace(v.GetString("CHAPA_SECRET_KEY")),
			APIBaseURL:         v.GetString("CHAPA_API_BASE_URL"),
		},
		Store: StoreCfg{Backend: strings.ToLower(v.GetString("STORE_BACKEND"))},
		DB: DBCfg{
			DSN:         v.GetString("DB_DSN"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisCfg{
			Addr:      v.GetString("REDIS_ADDR"),
			Password:  v.GetString("REDIS_PASSWORD"),
			DB:        v.GetInt("REDIS_DB"),
			KeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
		},
		Processor: ProcessorCfg{MaxCASAttempts: v.GetInt("PROCESSOR_MAX_CAS_ATTEMPTS")},
		Reconcile: ReconcileCfg{
			Interval:   v.GetDuration("RECONCILE_INTERVAL"),
			StaleAfter: v.GetDuration("RECONCILE_STALE_AFTER"),
		},
		Sec: SecurityCfg{AdminToken: strings.TrimSpace(v.GetString("ADMIN_TOKEN"))},
	}

	// fail fast on required settings
	if cfg.Chapa.WebhookSecret == "" {
		return Cfg{}, errors.New("CHAPA_WEBHOOK_SECRET is required")
	}
	switch cfg.Store.Backend {
	case "postgres":
		if cfg.DB.DSN == "" {
			return Cfg{}, errors.New("DB_DSN is required for the postgres store")
		}
	case "redis":
		if cfg.Redis.Addr == "" {
			return Cfg{}, errors.New("REDIS_ADDR is required for the redis store")
		}
	case "memory":
	default:
		return Cfg{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}
	if cfg.Chapa.MaxBodyBytes <= 0 {
		return Cfg{}, fmt.Errorf("WEBHOOK_MAX_BODY_BYTES must be positive, got %d", cfg.Chapa.MaxBodyBytes)
	}
	if cfg.Processor.MaxCASAttempts <= 0 {
		return Cfg{}, fmt.Errorf("PROCESSOR_MAX_CAS_ATTEMPTS must be positive, got %d", cfg.Processor.MaxCASAttempts)
	}
	return cfg, nil
}
