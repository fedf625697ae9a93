// Package ops loads the ledger daemon configuration.
package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"assetverse/internal/account"
	"assetverse/internal/errors"
	"assetverse/internal/schema"
	"assetverse/pkg/exception"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LEDGER_"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// FileConfig mirrors the JSON config layout. Every section except the
// catalog can be overridden by environment variables named
// EnvPrefix + section + env tag, e.g. LEDGER_STORE_DRIVER.
type FileConfig struct {
	Server    ServerConfig    `json:"server"`
	Store     StoreConfig     `json:"store"`
	Ledger    LedgerConfig    `json:"ledger"`
	Journal   JournalConfig   `json:"journal"`
	Profiling ProfilingConfig `json:"profiling"`
	Catalog   []AssetSeed     `json:"catalog"`
}

// ServerConfig describes the HTTP surface.
type ServerConfig struct {
	Listen           string        `json:"listen" env:"LISTEN"`
	IdentityHeader   string        `json:"identityHeader" env:"IDENTITY_HEADER"`
	MetricsNamespace string        `json:"metricsNamespace" env:"METRICS_NAMESPACE"`
	ShutdownTimeout  time.Duration `json:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT"`
}

// StoreConfig selects and tunes the store backend.
type StoreConfig struct {
	Driver   string         `json:"driver" env:"DRIVER"`
	Postgres PostgresConfig `json:"postgres" envPrefix:"PG_"`
	Redis    RedisConfig    `json:"redis" envPrefix:"REDIS_"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	DSN          string `json:"dsn" env:"DSN"`
	Host         string `json:"host" env:"HOST"`
	Port         int    `json:"port" env:"PORT"`
	User         string `json:"user" env:"USER"`
	Password     string `json:"password" env:"PASSWORD"`
	Database     string `json:"database" env:"DATABASE"`
	SSLMode      string `json:"sslMode" env:"SSL_MODE"`
	MaxOpenConns int    `json:"maxOpenConns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns int    `json:"maxIdleConns" env:"MAX_IDLE_CONNS"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string `json:"addr" env:"ADDR"`
	Password  string `json:"password" env:"PASSWORD"`
	DB        int    `json:"db" env:"DB"`
	KeyPrefix string `json:"keyPrefix" env:"KEY_PREFIX"`
}

// LedgerConfig holds account policy.
type LedgerConfig struct {
	InitialBalance       string `json:"initialBalance" env:"INITIAL_BALANCE"`
	RejectReregistration *bool  `json:"rejectReregistration" env:"REJECT_REREGISTRATION"`
	QueueCapacity        int    `json:"queueCapacity" env:"QUEUE_CAPACITY"`
}

// JournalConfig holds audit journal settings. An empty Dir disables it.
type JournalConfig struct {
	Dir             string        `json:"dir" env:"DIR"`
	FilePrefix      string        `json:"filePrefix" env:"FILE_PREFIX"`
	SegmentMaxBytes int64         `json:"segmentMaxBytes" env:"SEGMENT_MAX_BYTES"`
	SyncInterval    time.Duration `json:"syncInterval" env:"SYNC_INTERVAL"`
	Recover         *bool         `json:"recover" env:"RECOVER"`
	SnapshotPath    string        `json:"snapshotPath" env:"SNAPSHOT_PATH"`
}

// ProfilingConfig enables continuous profiling when ServerAddress is set.
type ProfilingConfig struct {
	ServerAddress   string `json:"serverAddress" env:"SERVER_ADDRESS"`
	ApplicationName string `json:"applicationName" env:"APPLICATION_NAME"`
}

// AssetSeed is a catalog entry registered at startup.
type AssetSeed struct {
	Game  string `json:"game"`
	Asset string `json:"asset"`
	Price string `json:"price"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Server    ServerConfig
	Store     StoreConfig
	Accounts  account.Options
	Queue     int
	Journal   JournalConfig
	Recover   bool
	Profiling ProfilingConfig
	Catalog   []schema.AssetDef
}

// Default returns the built-in configuration.
func Default() FileConfig {
	return FileConfig{
		Server: ServerConfig{
			Listen:           ":8080",
			IdentityHeader:   "X-Principal",
			MetricsNamespace: "ledger",
			ShutdownTimeout:  10 * time.Second,
		},
		Store: StoreConfig{
			Driver: DriverMemory,
			Redis:  RedisConfig{KeyPrefix: "ledger:"},
		},
		Ledger: LedgerConfig{
			InitialBalance: fmt.Sprint(account.DefaultInitialBalance),
			QueueCapacity:  1024,
		},
		Journal: JournalConfig{
			FilePrefix: "ledger",
		},
		Profiling: ProfilingConfig{
			ApplicationName: "assetverse.ledgerd",
		},
	}
}

// Load reads an optional JSON config file over the defaults, applies
// environment overrides and resolves the result.
func Load(path string) (Loaded, error) {
	return LoadWithEnv(path, nil)
}

// LoadWithEnv is Load with an explicit environment. A nil environment reads
// the process environment.
func LoadWithEnv(path string, environ map[string]string) (Loaded, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Loaded{}, err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Loaded{}, errors.Wrapf(err, "parse %s", path)
		}
	}
	if err := applyEnv(&cfg, environ); err != nil {
		return Loaded{}, err
	}
	return Resolve(cfg)
}

func applyEnv(cfg *FileConfig, environ map[string]string) error {
	sections := []struct {
		prefix string
		target any
	}{
		{"SERVER_", &cfg.Server},
		{"STORE_", &cfg.Store},
		{"LEDGER_", &cfg.Ledger},
		{"JOURNAL_", &cfg.Journal},
		{"PROFILING_", &cfg.Profiling},
	}
	for _, sec := range sections {
		opts := env.Options{Prefix: EnvPrefix + sec.prefix}
		if environ != nil {
			opts.Environment = environ
		}
		if err := env.ParseWithOptions(sec.target, opts); err != nil {
			return errors.Wrap(err, "parse env")
		}
	}
	return nil
}

// Resolve validates cfg and converts it into runtime settings.
func Resolve(cfg FileConfig) (Loaded, error) {
	switch cfg.Store.Driver {
	case DriverMemory, DriverPostgres, DriverRedis:
	default:
		return Loaded{}, errors.Wrapf(exception.ErrInvalidArgument, "unknown store driver %q", cfg.Store.Driver)
	}
	if cfg.Server.IdentityHeader == "" {
		return Loaded{}, errors.Wrap(exception.ErrInvalidArgument, "identity header is empty")
	}
	if cfg.Ledger.QueueCapacity < 0 {
		return Loaded{}, errors.Wrap(exception.ErrInvalidArgument, "queue capacity must be >= 0")
	}

	initial, err := schema.ParseBalance(cfg.Ledger.InitialBalance)
	if err != nil {
		return Loaded{}, errors.Wrapf(exception.ErrInvalidArgument, "initial balance %q", cfg.Ledger.InitialBalance)
	}
	accounts := account.Options{InitialBalance: initial}
	if cfg.Ledger.RejectReregistration != nil {
		accounts.RejectReregistration = *cfg.Ledger.RejectReregistration
	}

	catalog, err := resolveCatalog(cfg.Catalog)
	if err != nil {
		return Loaded{}, err
	}

	recoverOnStart := cfg.Journal.Dir != ""
	if cfg.Journal.Recover != nil {
		recoverOnStart = *cfg.Journal.Recover && cfg.Journal.Dir != ""
	}

	return Loaded{
		Server:    cfg.Server,
		Store:     cfg.Store,
		Accounts:  accounts,
		Queue:     cfg.Ledger.QueueCapacity,
		Journal:   cfg.Journal,
		Recover:   recoverOnStart,
		Profiling: cfg.Profiling,
		Catalog:   catalog,
	}, nil
}

func resolveCatalog(seeds []AssetSeed) ([]schema.AssetDef, error) {
	defs := make([]schema.AssetDef, 0, len(seeds))
	for i, seed := range seeds {
		if seed.Game == "" || seed.Asset == "" {
			return nil, errors.Wrapf(exception.ErrInvalidArgument, "catalog[%d]: game and asset are required", i)
		}
		price, err := schema.ParseBalance(seed.Price)
		if err != nil {
			return nil, errors.Wrapf(exception.ErrInvalidArgument, "catalog[%d]: price %q", i, seed.Price)
		}
		defs = append(defs, schema.AssetDef{
			Game:  schema.GameID(seed.Game),
			Asset: schema.AssetID(seed.Asset),
			Price: price,
		})
	}
	return defs, nil
}

// CatalogRegistrar is the part of the ledger seeding needs.
type CatalogRegistrar interface {
	ListAssets(ctx context.Context, game schema.GameID) ([]schema.AssetDef, error)
	RegisterAsset(ctx context.Context, game schema.GameID, asset schema.AssetID, price schema.Balance) (schema.AssetDef, error)
}

// SeedCatalog registers every seed whose asset is not yet listed in its game,
// so restarting with the same config does not duplicate entries. It returns
// the number of registered assets.
func SeedCatalog(ctx context.Context, r CatalogRegistrar, defs []schema.AssetDef) (int, error) {
	registered := 0
	for _, def := range defs {
		existing, err := r.ListAssets(ctx, def.Game)
		if err != nil && !errors.Is(err, exception.ErrGameWithoutAssets) {
			return registered, err
		}
		if containsAsset(existing, def.Asset) {
			continue
		}
		if _, err := r.RegisterAsset(ctx, def.Game, def.Asset, def.Price); err != nil {
			return registered, err
		}
		registered++
	}
	return registered, nil
}

func containsAsset(defs []schema.AssetDef, asset schema.AssetID) bool {
	for _, d := range defs {
		if d.Asset == asset {
			return true
		}
	}
	return false
}
