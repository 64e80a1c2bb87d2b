package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod
	FEURL string // フロントURL（CORSで使う）

	SessionSecret        string        // セッショントークン署名シークレット
	SessionTTL           time.Duration // 最終アクセスからの有効期間
	SessionMaxAge        time.Duration // トークン自体の有効期間
	SessionSweepInterval time.Duration // 期限切れセッション掃除の間隔
	MaxSessions          int           // 同時セッション上限

	CatalogAPIURL   string        // 商品カタログAPI
	CatalogAPIToken string        // カタログAPIのBearerトークン
	CatalogTimeout  time.Duration // カタログAPIのタイムアウト

	TaxRate       decimal.Decimal // 税率（0.10）
	CheckoutDelay time.Duration   // 模擬決済の待ち時間

	DatabaseURL string // 空なら POSTGRES_* から組み立てる

	AMQPURL       string // 空ならイベント送信はログのみ
	CheckoutQueue string // チェックアウト完了イベントのキュー
}

const devSessionSecret = "dev_secret_change_me"

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port:  getenv("PORT", "8080"),
		GoEnv: getenv("GO_ENV", "dev"),
		FEURL: getenv("FE_URL", "http://localhost:3000"),

		SessionSecret: os.Getenv("SESSION_SECRET"),

		CatalogAPIURL:   strings.TrimRight(getenv("CATALOG_API_URL", "https://ecommerce.softnovait.com/api"), "/"),
		CatalogAPIToken: os.Getenv("CATALOG_API_TOKEN"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		AMQPURL:       os.Getenv("AMQP_URL"),
		CheckoutQueue: getenv("CHECKOUT_QUEUE", "checkout.completed"),
	}

	var err error
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SessionMaxAge, err = durationEnv("SESSION_MAX_AGE", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SessionSweepInterval, err = durationEnv("SESSION_SWEEP_INTERVAL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.CatalogTimeout, err = durationEnv("CATALOG_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CheckoutDelay, err = durationEnv("CHECKOUT_DELAY", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.MaxSessions, err = intEnv("MAX_SESSIONS", 10000); err != nil {
		return Config{}, err
	}
	if cfg.TaxRate, err = decimalEnv("TAX_RATE", decimal.RequireFromString("0.10")); err != nil {
		return Config{}, err
	}

	//必須チェック
	if cfg.SessionSecret == "" {
		if cfg.IsProd() {
			return Config{}, fmt.Errorf("SESSION_SECRET is required")
		}
		cfg.SessionSecret = devSessionSecret
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive")
	}
	if cfg.SessionMaxAge < cfg.SessionTTL {
		return Config{}, fmt.Errorf("SESSION_MAX_AGE must be >= SESSION_TTL")
	}
	if cfg.SessionSweepInterval <= 0 {
		return Config{}, fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}
	if cfg.MaxSessions < 1 {
		return Config{}, fmt.Errorf("MAX_SESSIONS must be >= 1")
	}
	if cfg.CheckoutDelay < 0 {
		return Config{}, fmt.Errorf("CHECKOUT_DELAY must be >= 0")
	}
	if cfg.TaxRate.IsNegative() || cfg.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return Config{}, fmt.Errorf("TAX_RATE must be between 0 and 1")
	}
	if cfg.CatalogAPIURL == "" {
		return Config{}, fmt.Errorf("CATALOG_API_URL is required")
	}

	return cfg, nil
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

// ":8080" 形式
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// DATABASE_URL があれば最優先で使う
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getenv("POSTGRES_HOST", "localhost"),
		getenv("POSTGRES_PORT", "5432"),
		getenv("POSTGRES_USER", "postgres"),
		getenv("POSTGRES_PASSWORD", "postgres"),
		getenv("POSTGRES_DB", "app"),
		getenv("POSTGRES_SSLMODE", "disable"),
	)
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func decimalEnv(key string, def decimal.Decimal) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be decimal: %w", key, err)
	}
	return d, nil
}
