package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Catalog.BaseURL != "https://www.opaque.com.br" {
			t.Errorf("Catalog.BaseURL = %s, want https://www.opaque.com.br", cfg.Catalog.BaseURL)
		}
		if cfg.Catalog.PageSize != 100 {
			t.Errorf("Catalog.PageSize = %d, want 100", cfg.Catalog.PageSize)
		}
		if cfg.Cache.TTL != 10*time.Minute {
			t.Errorf("Cache.TTL = %v, want 10m", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIPPerMinute != 120 {
			t.Errorf("RateLimit.PerIPPerMinute = %d, want 120", cfg.RateLimit.PerIPPerMinute)
		}
		if cfg.Recommend.QueryTimeout != 8*time.Second {
			t.Errorf("Recommend.QueryTimeout = %v, want 8s", cfg.Recommend.QueryTimeout)
		}
		if cfg.Recommend.ExhaustionPolicy != "filler" {
			t.Errorf("Recommend.ExhaustionPolicy = %s, want filler", cfg.Recommend.ExhaustionPolicy)
		}
		if cfg.Budget.Policy != "escalating" {
			t.Errorf("Budget.Policy = %s, want escalating", cfg.Budget.Policy)
		}
		if len(cfg.Budget.Bands) != 5 {
			t.Fatalf("len(Budget.Bands) = %d, want 5", len(cfg.Budget.Bands))
		}
		if top := cfg.Budget.Bands[4]; top.Label != "351+" || top.Min != 351 || top.Max != 9999 {
			t.Errorf("top band = %+v, want 351+ [351, 9999]", top)
		}
		if cfg.Payment.DefaultAmount != 4.99 {
			t.Errorf("Payment.DefaultAmount = %v, want 4.99", cfg.Payment.DefaultAmount)
		}
		if cfg.PaymentsEnabled() {
			t.Error("PaymentsEnabled() = true, want false without token or fake mode")
		}
		if cfg.LeadsEnabled() {
			t.Error("LeadsEnabled() = true, want false without webhook")
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		t.Setenv("ROUTINEMATCH_SERVER_PORT", "3000")
		t.Setenv("ROUTINEMATCH_SERVER_ENVIRONMENT", "production")
		t.Setenv("ROUTINEMATCH_SERVER_ALLOWED_ORIGINS", "https://quiz.example.com,https://*.example.com")
		t.Setenv("ROUTINEMATCH_RECOMMEND_EXHAUSTION_POLICY", "error")
		t.Setenv("ROUTINEMATCH_BUDGET_POLICY", "hard")
		t.Setenv("ROUTINEMATCH_CACHE_TTL", "2m")
		t.Setenv("ROUTINEMATCH_PAYMENT_FAKE", "true")
		t.Setenv("ROUTINEMATCH_LEADS_WEBHOOK_URL", "https://script.example.com/exec")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "3000" {
			t.Errorf("Server.Port = %s, want 3000", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://*.example.com" {
			t.Errorf("Server.AllowedOrigins = %v, want two origins", cfg.Server.AllowedOrigins)
		}
		if cfg.Recommend.ExhaustionPolicy != "error" {
			t.Errorf("Recommend.ExhaustionPolicy = %s, want error", cfg.Recommend.ExhaustionPolicy)
		}
		if cfg.Budget.Policy != "hard" {
			t.Errorf("Budget.Policy = %s, want hard", cfg.Budget.Policy)
		}
		if cfg.Cache.TTL != 2*time.Minute {
			t.Errorf("Cache.TTL = %v, want 2m", cfg.Cache.TTL)
		}
		if !cfg.PaymentsEnabled() {
			t.Error("PaymentsEnabled() = false, want true in fake mode")
		}
		if !cfg.LeadsEnabled() {
			t.Error("LeadsEnabled() = false, want true with webhook")
		}
	})

	t.Run("reads legacy variable names", func(t *testing.T) {
		t.Setenv("PORT", "3000")
		t.Setenv("CORS_ORIGIN", "https://quiz.example.com,https://loja.example.com")
		t.Setenv("FAKE_PIX", "1")
		t.Setenv("MP_ACCESS_TOKEN", "APP_USR-legacy")
		t.Setenv("SHEETS_WEBHOOK_URL", "https://script.example.com/exec")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "3000" {
			t.Errorf("Server.Port = %s, want 3000", cfg.Server.Port)
		}
		if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://loja.example.com" {
			t.Errorf("Server.AllowedOrigins = %v, want two origins", cfg.Server.AllowedOrigins)
		}
		if !cfg.Payment.Fake {
			t.Error("Payment.Fake = false, want true from FAKE_PIX=1")
		}
		if cfg.Payment.AccessToken != "APP_USR-legacy" {
			t.Errorf("Payment.AccessToken = %s, want APP_USR-legacy", cfg.Payment.AccessToken)
		}
		if cfg.Leads.WebhookURL != "https://script.example.com/exec" {
			t.Errorf("Leads.WebhookURL = %s, want https://script.example.com/exec", cfg.Leads.WebhookURL)
		}
	})

	t.Run("prefixed variable wins over legacy name", func(t *testing.T) {
		t.Setenv("PORT", "3000")
		t.Setenv("ROUTINEMATCH_SERVER_PORT", "9090")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
	})

	t.Run("legacy names in .env file are honored", func(t *testing.T) {
		t.Chdir(t.TempDir())
		for _, name := range []string{"MP_ACCESS_TOKEN", "SHEETS_WEBHOOK_URL"} {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
		envContent := "MP_ACCESS_TOKEN=APP_USR-from-file\nSHEETS_WEBHOOK_URL=https://script.example.com/exec\n"
		if err := os.WriteFile(".env", []byte(envContent), 0o644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Payment.AccessToken != "APP_USR-from-file" {
			t.Errorf("Payment.AccessToken = %s, want APP_USR-from-file", cfg.Payment.AccessToken)
		}
		if !cfg.LeadsEnabled() {
			t.Error("LeadsEnabled() = false, want true with webhook from .env")
		}
	})

	t.Run("fails validation for invalid exhaustion policy", func(t *testing.T) {
		t.Setenv("ROUTINEMATCH_RECOMMEND_EXHAUSTION_POLICY", "panic")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for invalid exhaustion policy")
		}
	})

	t.Run("fails validation for invalid budget policy", func(t *testing.T) {
		t.Setenv("ROUTINEMATCH_BUDGET_POLICY", "soft")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for invalid budget policy")
		}
	})

	t.Run("fails validation for non numeric port", func(t *testing.T) {
		t.Setenv("ROUTINEMATCH_SERVER_PORT", "http")

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for invalid port")
		}
		if !strings.Contains(err.Error(), "Port") {
			t.Errorf("error = %v, want it to name the port field", err)
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		t.Chdir(t.TempDir())

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		t.Chdir(t.TempDir())

		envContent := `
# Comment line
RM_TEST_VAR_1=value1
RM_TEST_VAR_2=value2

# Another comment
RM_TEST_VAR_3=value3
`
		if err := os.WriteFile(".env", []byte(envContent), 0o644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		for _, name := range []string{"RM_TEST_VAR_1", "RM_TEST_VAR_2", "RM_TEST_VAR_3"} {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		for name, want := range map[string]string{
			"RM_TEST_VAR_1": "value1",
			"RM_TEST_VAR_2": "value2",
			"RM_TEST_VAR_3": "value3",
		} {
			if got := os.Getenv(name); got != want {
				t.Errorf("%s = %s, want %s", name, got, want)
			}
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		t.Chdir(t.TempDir())

		if err := os.WriteFile(".env", []byte("RM_TEST_EXISTING=from_file\n"), 0o644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		t.Setenv("RM_TEST_EXISTING", "from_env")

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}
		if got := os.Getenv("RM_TEST_EXISTING"); got != "from_env" {
			t.Errorf("RM_TEST_EXISTING = %s, want from_env", got)
		}
	})
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("validates successfully with defaults", func(t *testing.T) {
		if err := validate(validConfig(t)); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("fails without budget bands", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Budget.Bands = nil
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for empty ladder")
		}
	})

	t.Run("fails for overlapping budget bands", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Budget.Bands[2].Max = cfg.Budget.Bands[1].Max
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for non increasing bands")
		}
	})

	t.Run("fails for malformed affiliate param", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Affiliate.Params = append(cfg.Affiliate.Params, "ranMID")
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for param without value")
		}
	})

	t.Run("fails for relative relay path", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Images.RelayPath = "api/img?u="
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for relative relay path")
		}
	})

	t.Run("fails for invalid webhook url", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Leads.WebhookURL = "not a url"
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for invalid webhook url")
		}
	})
}

func TestAffiliateParamMap(t *testing.T) {
	cfg := AffiliateConfig{Params: []string{"utm_source=rakuten", "ranMID=47714", " =x", "broken"}}

	got := cfg.ParamMap()
	if len(got) != 2 {
		t.Fatalf("len(ParamMap()) = %d, want 2: %v", len(got), got)
	}
	if got["ranMID"] != "47714" {
		t.Errorf("ParamMap()[ranMID] = %s, want 47714 with key case kept", got["ranMID"])
	}
	if got["utm_source"] != "rakuten" {
		t.Errorf("ParamMap()[utm_source] = %s, want rakuten", got["utm_source"])
	}
}
