package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Bot      BotConfig
	Sheets   SheetsConfig
	Payment  PaymentConfig
	Mail     MailConfig
	OTP      OTPConfig
	AI       AIConfig
	Dialog   DialogConfig
	Exports  ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BotConfig authenticates the chat front end.
type BotConfig struct {
	APIKey string
}

// SheetsConfig configures access to response spreadsheets and forms.
type SheetsConfig struct {
	CredentialsFile     string
	CredentialsJSON     string
	RequestTimeout      time.Duration
	SourceUTCOffset     time.Duration
	ReadConcurrency     int
	RequiredEditorEmail string
}

// PaymentConfig configures the hosted checkout provider.
type PaymentConfig struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	Currency      string
	RedirectURL   string
	ListingFee    int64
	NicheEditCost int64
	Timeout       time.Duration
}

// MailConfig configures outbound SMTP.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
	Workers  int
	Retries  int
}

// OTPConfig controls one-time password issuance.
type OTPConfig struct {
	TTL         time.Duration
	Length      int
	MaxAttempts int
}

// AIConfig configures the generative analysis model.
type AIConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// DialogConfig controls multi-step dialog persistence.
type DialogConfig struct {
	SessionTTL time.Duration
}

// ExportsConfig governs response exports and their download links.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Bot = BotConfig{APIKey: v.GetString("BOT_API_KEY")}

	cfg.Sheets = SheetsConfig{
		CredentialsFile:     v.GetString("GOOGLE_CREDENTIALS_FILE"),
		CredentialsJSON:     v.GetString("GOOGLE_CREDENTIALS_JSON"),
		RequestTimeout:      parseDuration(v.GetString("SHEETS_REQUEST_TIMEOUT"), 15*time.Second),
		SourceUTCOffset:     parseDuration(v.GetString("SHEETS_SOURCE_UTC_OFFSET"), time.Hour),
		ReadConcurrency:     v.GetInt("SHEETS_READ_CONCURRENCY"),
		RequiredEditorEmail: v.GetString("REQUIRED_EDITOR_EMAIL"),
	}

	cfg.Payment = PaymentConfig{
		BaseURL:       v.GetString("KORAPAY_BASE_URL"),
		SecretKey:     v.GetString("KORAPAY_SECRET_KEY"),
		WebhookSecret: v.GetString("KORAPAY_WEBHOOK_SECRET"),
		Currency:      v.GetString("PAYMENT_CURRENCY"),
		RedirectURL:   v.GetString("PAYMENT_REDIRECT_URL"),
		ListingFee:    v.GetInt64("SURVEY_LISTING_FEE"),
		NicheEditCost: v.GetInt64("NICHE_EDIT_COST"),
		Timeout:       parseDuration(v.GetString("KORAPAY_TIMEOUT"), 10*time.Second),
	}

	cfg.Mail = MailConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		Username: v.GetString("SMTP_USERNAME"),
		Password: v.GetString("SMTP_PASSWORD"),
		Sender:   v.GetString("SMTP_SENDER"),
		Workers:  v.GetInt("MAIL_WORKERS"),
		Retries:  v.GetInt("MAIL_RETRIES"),
	}

	cfg.OTP = OTPConfig{
		TTL:         parseDuration(v.GetString("OTP_TTL"), 5*time.Minute),
		Length:      v.GetInt("OTP_LENGTH"),
		MaxAttempts: v.GetInt("OTP_MAX_ATTEMPTS"),
	}

	cfg.AI = AIConfig{
		APIKey:  v.GetString("GEMINI_API_KEY"),
		Model:   v.GetString("GEMINI_MODEL"),
		Timeout: parseDuration(v.GetString("AI_TIMEOUT"), 60*time.Second),
	}

	cfg.Dialog = DialogConfig{
		SessionTTL: parseDuration(v.GetString("DIALOG_SESSION_TTL"), 24*time.Hour),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 30*time.Minute),
		CleanupInterval: parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "surveyhustler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "surveyhustler-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BOT_API_KEY", "dev_bot_key")

	v.SetDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json")
	v.SetDefault("SHEETS_REQUEST_TIMEOUT", "15s")
	v.SetDefault("SHEETS_SOURCE_UTC_OFFSET", "1h")
	v.SetDefault("SHEETS_READ_CONCURRENCY", 4)
	v.SetDefault("REQUIRED_EDITOR_EMAIL", "")

	v.SetDefault("KORAPAY_BASE_URL", "https://api.korapay.com/merchant/api/v1")
	v.SetDefault("PAYMENT_CURRENCY", "NGN")
	v.SetDefault("PAYMENT_REDIRECT_URL", "")
	v.SetDefault("SURVEY_LISTING_FEE", 0)
	v.SetDefault("NICHE_EDIT_COST", 2000)
	v.SetDefault("KORAPAY_TIMEOUT", "10s")

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_SENDER", "")
	v.SetDefault("MAIL_WORKERS", 2)
	v.SetDefault("MAIL_RETRIES", 3)

	v.SetDefault("OTP_TTL", "5m")
	v.SetDefault("OTP_LENGTH", 6)
	v.SetDefault("OTP_MAX_ATTEMPTS", 5)

	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("AI_TIMEOUT", "60s")

	v.SetDefault("DIALOG_SESSION_TTL", "24h")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "30m")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
