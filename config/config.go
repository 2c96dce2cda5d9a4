package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "CATALOG_CONFIG_FILE"
	envPrefix         = "CATALOG"
	defaultConfigFile = "config.yaml"
)

// Catalog sources.
const (
	SourceJSON     = "json"
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceKafka    = "kafka"
)

// Rate limiter backends.
const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

type catalog struct {
	Source         string        `mapstructure:"source"`
	Path           string        `mapstructure:"path"`
	Watch          bool          `mapstructure:"watch"`
	WatchDebounce  time.Duration `mapstructure:"watch_debounce"`
	ReloadInterval time.Duration `mapstructure:"reload_interval"`
	AllowEmpty     bool          `mapstructure:"allow_empty"`
}

type topics struct {
	Catalog string `mapstructure:"catalog"`
}

type brokerTLS struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

func (t brokerTLS) Enabled() bool {
	return t.CA != "" && t.Cert != "" && t.Key != ""
}

type broker struct {
	SeedBrokers        []string      `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string      `mapstructure:"schema_registry_urls"`
	Topics             topics        `mapstructure:"topics"`
	TLS                brokerTLS     `mapstructure:"tls"`
	RecoverTimeout     time.Duration `mapstructure:"recover_timeout"`
	UpdatesDebounce    time.Duration `mapstructure:"updates_debounce"`
}

type security struct {
	APIKeys        []string `mapstructure:"api_keys"`
	PublicRoutes   []string `mapstructure:"public_routes"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type redisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type rateLimit struct {
	Enabled  bool          `mapstructure:"enabled"`
	Backend  string        `mapstructure:"backend"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
	Redis    redisConfig   `mapstructure:"redis"`
}

type cors struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	SQLDB          string     `mapstructure:"sql_db"`
	Catalog        catalog    `mapstructure:"catalog"`
	Broker         broker     `mapstructure:"broker"`
	Security       security   `mapstructure:"security"`
	RateLimit      rateLimit  `mapstructure:"rate_limit"`
	CORS           cors       `mapstructure:"cors"`
}

// Load reads the config file named by the --config flag or
// CATALOG_CONFIG_FILE, then applies CATALOG_* environment overrides.
// A missing default config file is not an error.
func Load() Config {
	path, explicit := getConfigFilepath()
	cfg, err := load(viper.GetViper(), path, explicit)
	if err != nil {
		die(err)
	}
	return cfg
}

func load(v *viper.Viper, path string, explicit bool) (Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		err := v.ReadInConfig()
		if err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
			return Config{}, err
		}
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8000")
	v.SetDefault("sql_db", "")

	v.SetDefault("catalog.source", SourceJSON)
	v.SetDefault("catalog.path", "data/items.json")
	v.SetDefault("catalog.watch", false)
	v.SetDefault("catalog.watch_debounce", 500*time.Millisecond)
	v.SetDefault("catalog.reload_interval", time.Duration(0))
	v.SetDefault("catalog.allow_empty", false)

	v.SetDefault("broker.seed_brokers", []string{})
	v.SetDefault("broker.schema_registry_urls", []string{})
	v.SetDefault("broker.topics.catalog", "catalog-products")
	v.SetDefault("broker.tls.ca", "")
	v.SetDefault("broker.tls.cert", "")
	v.SetDefault("broker.tls.key", "")
	v.SetDefault("broker.recover_timeout", 30*time.Second)
	v.SetDefault("broker.updates_debounce", 3*time.Second)

	v.SetDefault("security.api_keys", []string{
		"ml-api-key-admin:admin",
		"ml-api-key-user:user",
		"ml-api-key-readonly:readonly",
	})
	v.SetDefault("security.public_routes", []string{
		"/", "/api/v1/health", "/favicon.ico", "/static",
	})
	v.SetDefault("security.trusted_proxies", []string{"127.0.0.1", "::1"})

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.backend", RateLimitMemory)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", 60*time.Second)
	v.SetDefault("rate_limit.redis.addr", "localhost:6379")
	v.SetDefault("rate_limit.redis.password", "")
	v.SetDefault("rate_limit.redis.db", 0)

	v.SetDefault("cors.allowed_origins", []string{
		"http://localhost:3000", "http://127.0.0.1:3000",
	})
}

func (c Config) validate() error {
	switch c.Catalog.Source {
	case SourceJSON, SourceCSV:
		if c.Catalog.Path == "" {
			return errors.New("catalog.path is required for file sources")
		}
	case SourcePostgres:
		if c.SQLDB == "" {
			return errors.New("sql_db is required for the postgres source")
		}
	case SourceKafka:
		if len(c.Broker.SeedBrokers) == 0 || len(c.Broker.SchemaRegistryURLs) == 0 {
			return errors.New(
				"broker.seed_brokers and broker.schema_registry_urls are required for the kafka source",
			)
		}
	default:
		return fmt.Errorf("unknown catalog.source %q", c.Catalog.Source)
	}

	if c.Broker.UpdatesDebounce <= 0 {
		return errors.New("broker.updates_debounce must be positive")
	}

	for _, entry := range c.Security.TrustedProxies {
		if !validProxy(entry) {
			return fmt.Errorf("security.trusted_proxies: invalid entry %q", entry)
		}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Backend != RateLimitMemory && c.RateLimit.Backend != RateLimitRedis {
			return fmt.Errorf("unknown rate_limit.backend %q", c.RateLimit.Backend)
		}
		if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
			return errors.New("rate_limit.requests and rate_limit.window must be positive")
		}
	}
	return nil
}

func validProxy(entry string) bool {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		_, err := netip.ParsePrefix(entry)
		return err == nil
	}
	_, err := netip.ParseAddr(entry)
	return err == nil
}

// APIKeyRoles maps every configured API key to its role.
// Entries are "key:role", a bare key gets the user role.
func (c Config) APIKeyRoles() map[string]string {
	roles := make(map[string]string, len(c.Security.APIKeys))
	for _, entry := range c.Security.APIKeys {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, role, ok := strings.Cut(entry, ":")
		if !ok || role == "" {
			role = "user"
		}
		roles[key] = role
	}
	return roles
}

func getConfigFilepath() (path string, explicit bool) {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	cmdLine.ParseErrorsWhitelist.UnknownFlags = true
	arg := cmdLine.String("config", defaultConfigFile, "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env, true
	}
	return *arg, cmdLine.Changed("config")
}

func die(err error) {
	fmt.Printf("failed to load config: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	SQLDB configured=%t

	Catalog:
	Source=%q
	Path=%q
	Watch=%t
	ReloadInterval=%s
	AllowEmpty=%t

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	UpdatesDebounce=%s
	Topics:
		Catalog=%q

	Security:
	APIKeys=%d
	PublicRoutes=%q
	TrustedProxies=%q

	RateLimit:
	Enabled=%t
	Backend=%q
	Requests=%d
	Window=%s

	CORS:
	AllowedOrigins=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.SQLDB != "",
		c.Catalog.Source,
		c.Catalog.Path,
		c.Catalog.Watch,
		c.Catalog.ReloadInterval,
		c.Catalog.AllowEmpty,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.UpdatesDebounce,
		c.Broker.Topics.Catalog,
		len(c.Security.APIKeys),
		c.Security.PublicRoutes,
		c.Security.TrustedProxies,
		c.RateLimit.Enabled,
		c.RateLimit.Backend,
		c.RateLimit.Requests,
		c.RateLimit.Window,
		c.CORS.AllowedOrigins,
	)
}
