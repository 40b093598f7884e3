package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/routinematch/backend/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Budget    BudgetConfig    `mapstructure:"budget"`
	Affiliate AffiliateConfig `mapstructure:"affiliate"`
	Images    ImagesConfig    `mapstructure:"images"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Leads     LeadsConfig     `mapstructure:"leads"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	Environment     string        `mapstructure:"environment" validate:"oneof=development production test"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// CatalogConfig holds storefront catalog configuration
type CatalogConfig struct {
	BaseURL          string        `mapstructure:"base_url" validate:"required,url"`
	StoreDomain      string        `mapstructure:"store_domain" validate:"required"`
	DefaultBrand     string        `mapstructure:"default_brand"`
	PageSize         int           `mapstructure:"page_size" validate:"min=1,max=100"`
	OrderBy          string        `mapstructure:"order_by"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RequestsPerSec   float64       `mapstructure:"requests_per_sec" validate:"gt=0"`
	Burst            int           `mapstructure:"burst" validate:"min=1"`
	BreakerFailures  uint32        `mapstructure:"breaker_failures" validate:"min=1"`
	BreakerOpenDelay time.Duration `mapstructure:"breaker_open_delay" validate:"gt=0"`
}

// CacheConfig holds catalog cache configuration
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIPPerMinute int `mapstructure:"per_ip_per_minute" validate:"min=0"` // 0 disables
}

// RecommendConfig holds selection pipeline configuration
type RecommendConfig struct {
	QueryTimeout         time.Duration `mapstructure:"query_timeout" validate:"gt=0"`
	SufficiencyThreshold int           `mapstructure:"sufficiency_threshold" validate:"min=1"`
	MaxConcurrency       int           `mapstructure:"max_concurrency" validate:"min=1"`
	ExhaustionPolicy     string        `mapstructure:"exhaustion_policy" validate:"oneof=filler error"`
	FallbackPrice        float64       `mapstructure:"fallback_price" validate:"gt=0"`
	IDPrefix             string        `mapstructure:"id_prefix"`
}

// BudgetConfig holds the budget ladder and its policy
type BudgetConfig struct {
	Policy string              `mapstructure:"policy" validate:"oneof=escalating hard"`
	Bands  []domain.BudgetBand `mapstructure:"bands"`
}

// AffiliateConfig holds the query parameters appended to storefront links,
// as key=value pairs. A list keeps the key case, which viper would fold in a map.
type AffiliateConfig struct {
	Params []string `mapstructure:"params"`
}

// ParamMap returns the affiliate parameters keyed by name
func (a AffiliateConfig) ParamMap() map[string]string {
	out := make(map[string]string, len(a.Params))
	for _, pair := range a.Params {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}

// ImagesConfig holds image relay configuration
type ImagesConfig struct {
	RelayPath    string        `mapstructure:"relay_path"` // e.g. /api/img?u= ; empty serves catalog images directly
	AllowedHosts []string      `mapstructure:"allowed_hosts"`
	MaxBytes     int64         `mapstructure:"max_bytes" validate:"min=0"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// PaymentConfig holds PIX charge configuration
type PaymentConfig struct {
	Fake               bool          `mapstructure:"fake"`
	BaseURL            string        `mapstructure:"base_url" validate:"omitempty,url"`
	AccessToken        string        `mapstructure:"access_token"`
	Timeout            time.Duration `mapstructure:"timeout" validate:"gt=0"`
	DefaultAmount      float64       `mapstructure:"default_amount" validate:"gt=0"`
	DefaultDescription string        `mapstructure:"default_description"`
}

// LeadsConfig holds lead webhook configuration
type LeadsConfig struct {
	WebhookURL string        `mapstructure:"webhook_url" validate:"omitempty,url"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/routinematch/")

	// ROUTINEMATCH_CATALOG_BASE_URL -> catalog.base_url
	v.SetEnvPrefix("ROUTINEMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// legacyEnv maps keys to the unprefixed variable names older deployments set.
// The prefixed name still wins when both are present.
var legacyEnv = map[string]string{
	"server.port":            "PORT",
	"server.allowed_origins": "CORS_ORIGIN",
	"payment.fake":           "FAKE_PIX",
	"payment.access_token":   "MP_ACCESS_TOKEN",
	"leads.webhook_url":      "SHEETS_WEBHOOK_URL",
}

func bindLegacyEnv(v *viper.Viper) error {
	for key, legacy := range legacyEnv {
		prefixed := "ROUTINEMATCH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return err
		}
	}
	return nil
}

// loadEnvFile exports the variables of ./.env that are not already set.
// A missing file is not an error.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return err
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Catalog defaults
	v.SetDefault("catalog.base_url", "https://www.opaque.com.br")
	v.SetDefault("catalog.store_domain", "opaque.com.br")
	v.SetDefault("catalog.default_brand", "Opaque")
	v.SetDefault("catalog.page_size", 100)
	v.SetDefault("catalog.order_by", "OrderByBestDiscountDESC")
	v.SetDefault("catalog.timeout", "10s")
	v.SetDefault("catalog.requests_per_sec", 10)
	v.SetDefault("catalog.burst", 10)
	v.SetDefault("catalog.breaker_failures", 5)
	v.SetDefault("catalog.breaker_open_delay", "30s")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.cleanup_interval", "1m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip_per_minute", 120)

	// Recommendation defaults
	v.SetDefault("recommend.query_timeout", "8s")
	v.SetDefault("recommend.sufficiency_threshold", 60)
	v.SetDefault("recommend.max_concurrency", 5)
	v.SetDefault("recommend.exhaustion_policy", "filler")
	v.SetDefault("recommend.fallback_price", 49.90)
	v.SetDefault("recommend.id_prefix", "opaque-")

	// Budget defaults
	v.SetDefault("budget.policy", "escalating")
	v.SetDefault("budget.bands", []map[string]any{
		{"label": "0-60", "min": 0, "max": 60},
		{"label": "61-120", "min": 61, "max": 120},
		{"label": "121-200", "min": 121, "max": 200},
		{"label": "201-350", "min": 201, "max": 350},
		{"label": "351+", "min": 351, "max": 9999},
	})

	// Affiliate defaults
	v.SetDefault("affiliate.params", []string{
		"utm_source=rakuten",
		"utm_medium=afiliados",
		"utm_term=4587713",
		"ranMID=47714",
		"ranEAID=OyPY4YHfHl4",
		"ranSiteID=OyPY4YHfHl4-5t9np1DoTPuG6fO28twrDA",
	})

	// Image relay defaults
	v.SetDefault("images.relay_path", "")
	v.SetDefault("images.allowed_hosts", []string{})
	v.SetDefault("images.max_bytes", 10<<20)
	v.SetDefault("images.timeout", "15s")

	// Payment defaults
	v.SetDefault("payment.fake", false)
	v.SetDefault("payment.base_url", "https://api.mercadopago.com")
	v.SetDefault("payment.access_token", "")
	v.SetDefault("payment.timeout", "15s")
	v.SetDefault("payment.default_amount", 4.99)
	v.SetDefault("payment.default_description", "Desbloqueio recomendações + cupom APP10")

	// Leads defaults
	v.SetDefault("leads.webhook_url", "")
	v.SetDefault("leads.timeout", "10s")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

var structValidator = validator.New()

// validate validates the configuration
func validate(config *Config) error {
	if err := structValidator.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}

	if len(config.Budget.Bands) == 0 {
		return fmt.Errorf("budget ladder needs at least one band")
	}
	for i, b := range config.Budget.Bands {
		if strings.TrimSpace(b.Label) == "" {
			return fmt.Errorf("budget band %d has no label", i)
		}
		if b.Min < 0 || b.Min > b.Max {
			return fmt.Errorf("budget band %s has invalid bounds %.2f-%.2f", b.Label, b.Min, b.Max)
		}
		if i > 0 && b.Max <= config.Budget.Bands[i-1].Max {
			return fmt.Errorf("budget band %s must end above band %s", b.Label, config.Budget.Bands[i-1].Label)
		}
	}

	for _, pair := range config.Affiliate.Params {
		if key, _, ok := strings.Cut(pair, "="); !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("affiliate param must be key=value, got: %s", pair)
		}
	}

	if config.Images.RelayPath != "" && !strings.HasPrefix(config.Images.RelayPath, "/") &&
		!strings.HasPrefix(config.Images.RelayPath, "http") {
		return fmt.Errorf("images relay path must be absolute, got: %s", config.Images.RelayPath)
	}

	return nil
}

// PaymentsEnabled reports whether a charge service can be built
func (c *Config) PaymentsEnabled() bool {
	return c.Payment.Fake || c.Payment.AccessToken != ""
}

// LeadsEnabled reports whether a lead sink can be built
func (c *Config) LeadsEnabled() bool {
	return c.Leads.WebhookURL != ""
}
