package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	LogLevel     string
	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	Crypto          CryptoConfig
	PaymentWebhook  PaymentWebhookConfig
	SignatureEvents SignatureEventConfig
	EmailValidation EmailValidationConfig
	Signature       SignatureProviderConfig
	Email           EmailConfig
}

// CryptoConfig configures the validation-token cipher. Key and IV are
// hex-encoded (32 and 16 bytes respectively once decoded).
type CryptoConfig struct {
	Key string
	IV  string
}

// PaymentWebhookConfig holds the shared secrets for payment webhook
// verification. Events whose partner code appears in DemoPartnerCodes
// are verified against the test secret instead of the live one.
type PaymentWebhookConfig struct {
	LiveSecret       string
	TestSecret       string
	DemoPartnerCodes []string
}

// SignatureEventConfig holds the shared HMAC key for e-signature
// provider events.
type SignatureEventConfig struct {
	SharedKey string
}

// EmailValidationConfig controls magic-link issuance.
type EmailValidationConfig struct {
	FrontURL       string
	CallbackRoute  string
	ValidityMonths int
	Sender         string
}

// SignatureProviderConfig points at the e-signature provider API used
// to download signed contracts.
type SignatureProviderConfig struct {
	BaseURL string
	APIKey  string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "covline"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		LogLevel:     getenv("LOG_LEVEL", "info"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "covline"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		Crypto: CryptoConfig{
			Key: strings.TrimSpace(getenv("VALIDATION_TOKEN_KEY", "")),
			IV:  strings.TrimSpace(getenv("VALIDATION_TOKEN_IV", "")),
		},
		PaymentWebhook: PaymentWebhookConfig{
			LiveSecret:       strings.TrimSpace(getenv("PAYMENT_WEBHOOK_SECRET_LIVE", "")),
			TestSecret:       strings.TrimSpace(getenv("PAYMENT_WEBHOOK_SECRET_TEST", "")),
			DemoPartnerCodes: splitList(getenv("PAYMENT_DEMO_PARTNER_CODES", "")),
		},
		SignatureEvents: SignatureEventConfig{
			SharedKey: strings.TrimSpace(getenv("SIGNATURE_EVENT_SHARED_KEY", "")),
		},
		EmailValidation: EmailValidationConfig{
			FrontURL:       strings.TrimRight(getenv("FRONT_URL", "https://app.covline.com"), "/"),
			CallbackRoute:  getenv("EMAIL_VALIDATION_CALLBACK_ROUTE", "subscription"),
			ValidityMonths: getenvInt("EMAIL_VALIDATION_VALIDITY_MONTHS", 6),
			Sender:         getenv("EMAIL_VALIDATION_SENDER", "no-reply@covline.com"),
		},
		Signature: SignatureProviderConfig{
			BaseURL: strings.TrimRight(getenv("SIGNATURE_PROVIDER_BASE_URL", ""), "/"),
			APIKey:  strings.TrimSpace(getenv("SIGNATURE_PROVIDER_API_KEY", "")),
		},
		Email: EmailConfig{
			SMTPHost:     getenv("SMTP_HOST", "localhost"),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "no-reply@covline.com"),
		},
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
